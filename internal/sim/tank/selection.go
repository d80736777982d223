package tank

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"frogtank.app/internal/protocol"
)

// FocusSink observes focus changes and highlight pulses, typically the
// UI bridge. May be nil.
type FocusSink interface {
	OnFocusChanged(obj *WorldObject)
	OnFocusPulse(opacity, scale float64)
}

// Selector owns the current focus and its highlight resources.
type Selector struct {
	Focused *WorldObject
	Score   float64

	pulseOpacity float64
	pulseScale   float64
	hl           renderHandles
}

// systemSelection scores every candidate object each tick and moves
// the focus to the best one. Hard gates first: within range, in front
// of the camera, not too far below the avatar. Survivors are ranked on
// weighted distance, centering and height terms; ties keep the first
// object encountered, so slice order breaks them deterministically.
func (w *World) systemSelection() {
	a := w.avatar
	if a == nil {
		return
	}
	camFwd := w.camera.forward()

	var best *WorldObject
	bestScore := math.Inf(-1)
	for _, obj := range w.objects {
		score, ok := w.scoreObject(obj, a.Pos, camFwd)
		if !ok {
			continue
		}
		if best == nil || score > bestScore {
			best = obj
			bestScore = score
		}
	}

	if best != w.sel.Focused {
		w.setFocus(best, bestScore)
	} else if best != nil {
		w.sel.Score = bestScore
	}
	if w.sel.Focused != nil {
		w.pulseFocus()
	}
}

func (w *World) scoreObject(obj *WorldObject, avatarPos, camFwd mgl64.Vec3) (float64, bool) {
	t := w.tune.Selection
	to := obj.Pos.Sub(avatarPos)
	d := to.Len()
	if d > t.Distance {
		return 0, false
	}
	if obj.Pos.Sub(w.camera.Pos).Dot(camFwd) <= 0 {
		return 0, false
	}
	dh := obj.Pos[1] - avatarPos[1]
	if dh < -t.BelowCutoff {
		return 0, false
	}

	distScore := (t.Distance - d) / t.Distance
	frontScore := 0.0
	if d > 1e-9 {
		frontScore = math.Max(0, to.Dot(camFwd)/d)
	}
	var heightScore float64
	if dh >= 0 {
		heightScore = math.Min(1, dh/5)
	} else {
		heightScore = math.Max(-2, dh/2)
	}
	return 0.2*distScore + 0.3*frontScore + 0.5*heightScore, true
}

// setFocus swaps the highlight to obj, notifies the sink, emits the
// event and retargets the flock. A nil obj clears everything.
func (w *World) setFocus(obj *WorldObject, score float64) {
	if w.sel.Focused != nil {
		releasePair(w.openScene, w.sel.hl)
		w.sel.hl = renderHandles{}
	}
	w.sel.Focused = obj
	w.sel.Score = score
	if obj != nil {
		w.sel.hl = allocPair(w.openScene, "highlight:"+obj.ID)
	} else {
		w.sel.Score = 0
		w.sel.pulseOpacity = 0
		w.sel.pulseScale = 0
	}
	if w.sink != nil {
		w.sink.OnFocusChanged(obj)
	}
	ev := protocol.Event{Name: protocol.EventFocusChanged}
	if obj != nil {
		ev.ObjectID = obj.ID
	}
	w.pushEvent(ev)
	w.retargetFlock(obj)
}

// pulseFocus drives the cosmetic highlight throb off the wall clock.
// It touches nothing the digest covers, so a replayed session may
// pulse differently but simulates identically.
func (w *World) pulseFocus() {
	t := w.tune.Selection
	sec := float64(w.clock.Now().UnixNano()) / 1e9
	s := math.Sin(2 * math.Pi * t.PulseHz * sec)
	w.sel.pulseOpacity = t.PulseOpacityLo + t.PulseOpacityAmp*(0.5+0.5*s)
	w.sel.pulseScale = 1 + t.PulseScaleAmp*s
	if w.sink != nil {
		w.sink.OnFocusPulse(w.sel.pulseOpacity, w.sel.pulseScale)
	}
}
