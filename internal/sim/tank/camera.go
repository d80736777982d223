package tank

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"frogtank.app/internal/protocol"
)

// CameraRig is the third-person follow camera. It eases toward the
// avatar plus a fixed offset; the offset only changes on an explicit
// realign. The tick rate is fixed, so a per-tick blend factor gives a
// stable smoothing speed.
type CameraRig struct {
	Pos    mgl64.Vec3
	LookAt mgl64.Vec3
	Offset mgl64.Vec3
}

func newCameraRig(focus mgl64.Vec3, offset [3]float64) CameraRig {
	off := vec3(offset)
	return CameraRig{Pos: focus.Add(off), LookAt: focus, Offset: off}
}

func (c *CameraRig) follow(avatar mgl64.Vec3, lookHeight, blend float64) {
	c.Pos = lerpVec(c.Pos, avatar.Add(c.Offset), blend)
	c.LookAt = avatar.Add(mgl64.Vec3{0, lookHeight, 0})
}

// realign swings the offset directly behind the given facing, keeping
// the current horizontal distance and height. The position then eases
// to the new spot over the following ticks; there is no snap.
func (c *CameraRig) realign(yaw float64) {
	hd := horizontalLen(c.Offset)
	fwd := forwardFromYaw(yaw)
	c.Offset = mgl64.Vec3{-fwd[0] * hd, c.Offset[1], -fwd[2] * hd}
}

func (c *CameraRig) forward() mgl64.Vec3 {
	f, ok := safeNormalize(c.LookAt.Sub(c.Pos))
	if !ok {
		return mgl64.Vec3{0, 0, 1}
	}
	return f
}

// yaw is the camera's heading on the horizontal plane. Movement intent
// is rotated by this, so "forward" always means away from the camera.
func (c *CameraRig) yaw() float64 {
	f := c.forward()
	return math.Atan2(f[0], f[2])
}

func (w *World) systemCamera() {
	if w.avatar == nil {
		return
	}
	t := w.tune.Camera
	w.camera.follow(w.avatar.Pos, t.LookHeight, t.Blend)
}

func (w *World) realignCamera() {
	if w.avatar == nil {
		return
	}
	w.camera.realign(w.avatar.Yaw)
	w.pushEvent(protocol.Event{Name: protocol.EventCameraRealigned})
}
