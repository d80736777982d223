package tank

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"frogtank.app/internal/assets"
	"frogtank.app/internal/protocol"
)

// Intent is the set of held movement keys, camera-relative.
type Intent struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
	Up       bool
	Down     bool
}

func (in Intent) hasHorizontal() bool {
	return in.Forward || in.Backward || in.Left || in.Right
}

// horizontalVec returns the normalized intent direction in camera
// space, false when the held keys cancel out.
func (in Intent) horizontalVec() (mgl64.Vec3, bool) {
	var raw mgl64.Vec3
	if in.Right {
		raw[0] += 1
	}
	if in.Left {
		raw[0] -= 1
	}
	if in.Forward {
		raw[2] += 1
	}
	if in.Backward {
		raw[2] -= 1
	}
	return safeNormalize(raw)
}

// Avatar is the pilot-driven swimmer.
type Avatar struct {
	Pos          mgl64.Vec3
	Vel          mgl64.Vec3
	Yaw          float64
	DashCooldown float64
	AnimTime     float64
	Model        assets.Model
	Placeholder  bool

	handles renderHandles
}

func (w *World) spawnAvatar(model assets.Model, placeholder bool) {
	a := &Avatar{
		Pos:         w.spawnPos(),
		Model:       model,
		Placeholder: placeholder,
		handles:     allocPair(w.openScene, "avatar"),
	}
	w.avatar = a
	w.camera = newCameraRig(a.Pos, w.tune.Camera.Offset)
	w.pushEvent(protocol.Event{Name: protocol.EventAvatarReady})
}

func (w *World) spawnPos() mgl64.Vec3 {
	return mgl64.Vec3{0, w.tune.Avatar.SpawnY, 0}
}

func (w *World) clampToTank(p *mgl64.Vec3) {
	b := w.tune.Tank
	p[0] = clamp(p[0], -b.Width, b.Width)
	p[2] = clamp(p[2], -b.Width, b.Width)
	p[1] = clamp(p[1], b.FloorY, b.CeilingY)
}

// systemMovement integrates the avatar: damp, accelerate from intent,
// tick the dash cooldown, move, clamp to the tank, face somewhere
// sensible. Horizontal damping is light while keys are held and heavy
// with a constant water-resistance term once they are released, so the
// frog coasts briefly and then settles. Vertical damping is constant.
func (w *World) systemMovement(dt float64) {
	a := w.avatar
	if a == nil {
		return
	}
	t := w.tune.Avatar
	in := w.intent

	dir, hasDir := in.horizontalVec()

	var hd float64
	if hasDir {
		hd = t.Friction * dt * 0.2
	} else {
		hd = t.Friction*0.6*dt + 0.3*dt
	}
	hf := clamp(1-hd, 0, 1)
	a.Vel[0] *= hf
	a.Vel[2] *= hf
	a.Vel[1] *= clamp(1-t.Friction*0.5*dt, 0, 1)

	var moveDir mgl64.Vec3
	if hasDir {
		moveDir = rotateYaw(dir, w.camera.yaw())
		a.Vel = a.Vel.Add(moveDir.Mul(t.SwimAccel * dt))
	}
	if in.Up {
		a.Vel[1] += t.VerticalSpeed * dt
	}
	if in.Down {
		a.Vel[1] -= t.VerticalSpeed * dt
	}

	if a.DashCooldown > 0 {
		a.DashCooldown = math.Max(0, a.DashCooldown-dt)
	}

	a.Pos = a.Pos.Add(a.Vel.Mul(dt))
	w.clampToTank(&a.Pos)

	// Facing: steer hard toward held input, drift gently toward the
	// velocity while coasting fast enough to have a direction.
	switch {
	case hasDir:
		target := math.Atan2(moveDir[0], moveDir[2])
		a.Yaw = wrapAngle(a.Yaw + wrapAngle(target-a.Yaw)*clamp(t.SteerYawGain*dt, 0, 1))
	case horizontalLen(a.Vel) > t.DriftSpeedMin:
		target := math.Atan2(a.Vel[0], a.Vel[2])
		a.Yaw = wrapAngle(a.Yaw + wrapAngle(target-a.Yaw)*clamp(t.DriftYawGain*dt, 0, 1))
	}
}

// dash applies a one-off burst along the current movement intent, or
// straight ahead when coasting. Silently ignored while cooling down.
func (w *World) dash() {
	a := w.avatar
	if a == nil || a.DashCooldown > 0 {
		return
	}
	t := w.tune.Avatar
	burst := forwardFromYaw(a.Yaw)
	if dir, ok := w.intent.horizontalVec(); ok {
		burst = rotateYaw(dir, w.camera.yaw())
	}
	a.Vel = a.Vel.Add(burst.Mul(t.DashForce))
	a.DashCooldown = t.DashCooldownS
	w.pushEvent(protocol.Event{Name: protocol.EventDash})
}

// systemAnimation advances the swim cycle, at half speed under
// autopilot so the idle frog looks lazy.
func (w *World) systemAnimation(dt float64) {
	a := w.avatar
	if a == nil {
		return
	}
	rate := dt
	if w.auto.Active {
		rate = dt * w.tune.Autopilot.AnimIdleRate
	}
	a.AnimTime += rate
}
