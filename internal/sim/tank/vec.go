package tank

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func lerpVec(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// safeNormalize guards the zero vector; mgl64.Normalize would return NaNs.
func safeNormalize(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l < 1e-9 {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}

func clampVec(v mgl64.Vec3, max float64) mgl64.Vec3 {
	if max <= 0 {
		return v
	}
	l := v.Len()
	if l <= max {
		return v
	}
	return v.Mul(max / l)
}

// wrapAngle maps a into [-pi, pi], the shortest signed form.
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

func horizontalLen(v mgl64.Vec3) float64 { return math.Hypot(v[0], v[2]) }

// Yaw 0 faces +Z, increasing toward +X: yaw = atan2(x, z).
func forwardFromYaw(yaw float64) mgl64.Vec3 {
	s, c := math.Sincos(yaw)
	return mgl64.Vec3{s, 0, c}
}

func rotateYaw(v mgl64.Vec3, yaw float64) mgl64.Vec3 {
	s, c := math.Sincos(yaw)
	return mgl64.Vec3{v[0]*c + v[2]*s, v[1], -v[0]*s + v[2]*c}
}

func arr3(v mgl64.Vec3) [3]float64 { return [3]float64{v[0], v[1], v[2]} }

func vec3(a [3]float64) mgl64.Vec3 { return mgl64.Vec3{a[0], a[1], a[2]} }

func arr2(v mgl64.Vec2) [2]float64 { return [2]float64{v[0], v[1]} }

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
