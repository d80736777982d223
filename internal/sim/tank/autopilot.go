package tank

import "math"

// Autopilot takes over after the pilot goes quiet: the frog wanders
// between nearby objects and the camera realigns on a slow cadence.
// All of its timing runs on simulation time derived from the tick
// counter, never the wall clock, so replays make identical decisions.
type Autopilot struct {
	Active bool
	Target *WorldObject

	lastInputMs   float64
	lastRealignMs float64
	armed         bool
}

// simMs is milliseconds of simulated time since the world started.
func (w *World) simMs() float64 {
	return float64(w.tick.Load()) * 1000.0 / float64(w.tune.TickRateHz)
}

// noteInput marks pilot activity. Any recognized input or piloting
// command lands here and kicks the autopilot out immediately.
func (w *World) noteInput() {
	w.auto.lastInputMs = w.simMs()
	w.auto.armed = true
	if w.auto.Active {
		w.auto.Active = false
		w.auto.Target = nil
	}
}

func (w *World) systemAutopilot(dt float64) {
	a := w.avatar
	if a == nil {
		return
	}
	t := w.tune.Autopilot
	now := w.simMs()

	// The idle timer starts counting from the first tick with an
	// avatar, not from some long-gone process start.
	if !w.auto.armed {
		w.auto.armed = true
		w.auto.lastInputMs = now
		return
	}

	// A held key is ongoing input. The countdown starts at release.
	if w.intent != (Intent{}) || w.ssIntent != (ScrollIntent{}) {
		w.auto.lastInputMs = now
	}

	if !w.auto.Active {
		if now-w.auto.lastInputMs >= float64(t.IdleTimeoutMs) {
			w.auto.Active = true
			w.auto.lastRealignMs = now
		}
		return
	}

	if w.auto.Target == nil || w.auto.Target.Pos.Sub(a.Pos).Len() < t.ArriveDist {
		w.auto.Target = w.pickWanderTarget(t.MinTargetDist, t.MaxTargetDist)
	}
	if tgt := w.auto.Target; tgt != nil {
		if dir, ok := safeNormalize(tgt.Pos.Sub(a.Pos)); ok {
			a.Vel = a.Vel.Add(dir.Mul(t.WanderSpeed * dt))
			target := math.Atan2(dir[0], dir[2])
			a.Yaw = wrapAngle(a.Yaw + wrapAngle(target-a.Yaw)*clamp(t.YawGain*dt, 0, 1))
		}
		a.Vel[1] += (tgt.Pos[1] - a.Pos[1]) * t.VerticalGain * dt
	}

	if now-w.auto.lastRealignMs >= float64(t.RealignEveryMs) {
		w.realignCamera()
		w.auto.lastRealignMs = now
	}
}

// pickWanderTarget draws a uniform random object from the annulus
// between minD and maxD around the avatar. Nil when nothing is in
// range; the next tick tries again.
func (w *World) pickWanderTarget(minD, maxD float64) *WorldObject {
	a := w.avatar
	if a == nil {
		return nil
	}
	var candidates []*WorldObject
	for _, o := range w.objects {
		d := o.Pos.Sub(a.Pos).Len()
		if d > minD && d < maxD {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[w.rng.Intn(len(candidates))]
}
