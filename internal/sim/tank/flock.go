package tank

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"frogtank.app/internal/assets"
	"frogtank.app/internal/protocol"
)

// SubAgent is one companion frog. Agents share the focused object as
// their seek target and otherwise hold position.
type SubAgent struct {
	ID          int
	Pos         mgl64.Vec3
	Vel         mgl64.Vec3
	Yaw         float64
	Target      *WorldObject
	Moving      bool
	Model       assets.Model
	Placeholder bool

	handles renderHandles
}

type flockState struct {
	enabled     bool
	agents      []*SubAgent
	model       assets.Model
	modelReady  bool
	placeholder bool
}

// toggleFlock flips the flock on or off. Turning it on spawns agents
// when the shared model is already cached; otherwise they appear on
// the tick the prefetched load result lands. Turning it off releases
// every agent and its handles, and a load result arriving after that
// only fills the cache, it never spawns.
func (w *World) toggleFlock() {
	if w.flock.enabled {
		w.flock.enabled = false
		w.releaseFlock()
	} else {
		w.flock.enabled = true
		if !w.flock.modelReady && w.loader == nil {
			w.flock.model = assets.Model{Name: w.tune.Assets.AgentModel, Scale: 1}
			w.flock.placeholder = true
			w.flock.modelReady = true
		}
		if w.flock.modelReady {
			w.spawnFlock()
		}
	}
	enabled := w.flock.enabled
	w.pushEvent(protocol.Event{Name: protocol.EventFlockToggled, Enabled: &enabled})
}

func (w *World) spawnFlock() {
	if len(w.flock.agents) > 0 {
		return
	}
	t := w.tune.Flock
	base := w.spawnPos()
	if w.avatar != nil {
		base = w.avatar.Pos
	}
	for i := 0; i < t.Count; i++ {
		ang := w.rng.Float64() * 2 * math.Pi
		r := t.SpawnRadius * (0.6 + 0.4*w.rng.Float64())
		pos := base.Add(mgl64.Vec3{math.Sin(ang) * r, (w.rng.Float64() - 0.5) * 1.5, math.Cos(ang) * r})
		w.clampToTank(&pos)
		ag := &SubAgent{
			ID:          i,
			Pos:         pos,
			Yaw:         ang,
			Model:       w.flock.model.Clone(),
			Placeholder: w.flock.placeholder,
			handles:     allocPair(w.openScene, fmt.Sprintf("agent:%d", i)),
		}
		if w.sel.Focused != nil {
			ag.Target = w.sel.Focused
			ag.Moving = true
		}
		w.flock.agents = append(w.flock.agents, ag)
	}
}

func (w *World) releaseFlock() {
	for _, ag := range w.flock.agents {
		releasePair(w.openScene, ag.handles)
	}
	w.flock.agents = nil
}

// retargetFlock points every agent at the new focus. A nil focus parks
// them where they are.
func (w *World) retargetFlock(obj *WorldObject) {
	if !w.flock.enabled {
		return
	}
	for _, ag := range w.flock.agents {
		ag.Target = obj
		ag.Moving = obj != nil
	}
}

// systemFlock runs seek plus separation per agent. Agents update in
// slice order and each reads the already-moved positions of earlier
// ones; the fixed order keeps the result deterministic. An agent
// pressed inside the hard minimum distance of any neighbor steers on
// boosted separation alone until it is clear again, and a move that
// would end inside that distance is refused outright.
func (w *World) systemFlock(dt float64) {
	if !w.flock.enabled || len(w.flock.agents) == 0 {
		return
	}
	t := w.tune.Flock
	for _, ag := range w.flock.agents {
		if !ag.Moving || ag.Target == nil {
			continue
		}
		neighbors := w.flockNeighbors(ag)

		emergency := false
		for _, n := range neighbors {
			if n.Sub(ag.Pos).Len() < t.MinSeparation {
				emergency = true
				break
			}
		}
		var force mgl64.Vec3
		if emergency {
			force = w.separationSteer(ag, neighbors).Mul(1.5)
		} else {
			force = w.seekSteer(ag, ag.Target.Pos)
			force = force.Add(w.separationSteer(ag, neighbors).Mul(0.8))
		}

		ag.Vel = clampVec(ag.Vel.Add(force.Mul(dt)), t.Speed)

		next := ag.Pos.Add(ag.Vel.Mul(dt))
		if moveBlocked(ag.Pos, next, neighbors, t.MinSeparation) {
			ag.Vel = ag.Vel.Mul(0.5)
		} else {
			ag.Pos = next
			w.clampToTank(&ag.Pos)
		}

		if ag.Target.Pos.Sub(ag.Pos).Len() < t.ArriveDist {
			ag.Target = nil
			ag.Moving = false
			ag.Vel = mgl64.Vec3{}
			continue
		}

		if ag.Vel.Len() > t.FaceSpeedMin {
			target := math.Atan2(ag.Vel[0], ag.Vel[2])
			ag.Yaw = wrapAngle(ag.Yaw + wrapAngle(target-ag.Yaw)*clamp(t.YawGain*dt, 0, 1))
		}
	}
}

// moveBlocked rejects a move that would land inside the hard minimum
// of a neighbor, unless the move widens that gap. An overlapped spawn
// must be able to escape; everything else must not get closer.
func moveBlocked(cur, next mgl64.Vec3, neighbors []mgl64.Vec3, minSep float64) bool {
	for _, n := range neighbors {
		nd := n.Sub(next).Len()
		if nd >= minSep {
			continue
		}
		if nd < n.Sub(cur).Len() {
			return true
		}
	}
	return false
}

// flockNeighbors lists positions an agent must keep clear of: the
// avatar and every other agent.
func (w *World) flockNeighbors(ag *SubAgent) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, len(w.flock.agents))
	if w.avatar != nil {
		out = append(out, w.avatar.Pos)
	}
	for _, other := range w.flock.agents {
		if other == ag {
			continue
		}
		out = append(out, other.Pos)
	}
	return out
}

func (w *World) seekSteer(ag *SubAgent, target mgl64.Vec3) mgl64.Vec3 {
	t := w.tune.Flock
	dir, ok := safeNormalize(target.Sub(ag.Pos))
	if !ok {
		return mgl64.Vec3{}
	}
	return clampVec(dir.Mul(t.Speed).Sub(ag.Vel), t.MaxForce)
}

// separationSteer pushes away from neighbors inside the separation
// radius, weighted linearly so a close neighbor shoves harder than a
// distant one. Exact overlaps contribute nothing; the emergency branch
// in systemFlock deals with those.
func (w *World) separationSteer(ag *SubAgent, neighbors []mgl64.Vec3) mgl64.Vec3 {
	t := w.tune.Flock
	var sum mgl64.Vec3
	count := 0
	for _, n := range neighbors {
		away := ag.Pos.Sub(n)
		d := away.Len()
		if d < 1e-9 || d >= t.SeparationRadius {
			continue
		}
		falloff := 1 - d/t.SeparationRadius
		sum = sum.Add(away.Mul(falloff / d))
		count++
	}
	if count == 0 {
		return mgl64.Vec3{}
	}
	dir, ok := safeNormalize(sum.Mul(1 / float64(count)))
	if !ok {
		return mgl64.Vec3{}
	}
	return clampVec(dir.Mul(t.Speed*0.5).Sub(ag.Vel), t.MaxForce)
}

// minAgentGap is the smallest pairwise distance among the avatar and
// all agents, for the debug overlay. Zero when under two entities.
func (w *World) minAgentGap() float64 {
	var pts []mgl64.Vec3
	if w.avatar != nil {
		pts = append(pts, w.avatar.Pos)
	}
	for _, ag := range w.flock.agents {
		pts = append(pts, ag.Pos)
	}
	if len(pts) < 2 {
		return 0
	}
	best := math.Inf(1)
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			if d := pts[i].Sub(pts[j]).Len(); d < best {
				best = d
			}
		}
	}
	return best
}
