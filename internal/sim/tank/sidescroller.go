package tank

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"frogtank.app/internal/sim/tuning"
)

// ScrollIntent is the held keys inside a folder.
type ScrollIntent struct {
	Left  bool
	Right bool
	Jump  bool
	Down  bool
}

// ScrollPlayer is the 2D frog. Horizontal velocity is instant, there
// is no horizontal inertia; vertical motion is jump impulses against
// gravity.
type ScrollPlayer struct {
	Pos       mgl64.Vec2
	Vel       mgl64.Vec2
	Grounded  bool
	OnBase    bool
	JumpCount int
	MaxJumps  int

	dropping bool
	prevJump bool
	handles  renderHandles
	mixer    uint64
}

// Platform is one file inside the folder, rendered as a ledge the
// player can stand on. Pos is the center of the top edge.
type Platform struct {
	Pos     mgl64.Vec2
	Width   float64
	Label   string
	Kind    ObjectType
	handles renderHandles
}

// SideScroller is the self-contained folder-interior simulation. It
// owns its own scene registry so leaving the folder can prove every
// handle it allocated was released.
type SideScroller struct {
	Folder    *WorldObject
	Player    ScrollPlayer
	Platforms []Platform
	CamX      float64
	CamY      float64

	reg  *SceneRegistry
	tune tuning.Scroller
}

// platformHeights staggers ledges so the higher ones need a double
// jump with the default impulse and gravity.
var platformHeights = []float64{2.2, 3.4, 2.8, 4.2, 3.0}

func newSideScroller(folder *WorldObject, files []FileEntry, t tuning.Scroller) *SideScroller {
	ss := &SideScroller{
		Folder: folder,
		tune:   t,
		reg:    newSceneRegistry("folder:" + folder.ID),
	}
	ss.Player = ScrollPlayer{
		Pos:      mgl64.Vec2{t.Spawn[0], t.Spawn[1]},
		MaxJumps: t.MaxJumps,
	}
	ss.Player.handles = allocPair(ss.reg, "player")
	ss.Player.mixer = ss.reg.AllocMixer("player")
	for i, f := range files {
		ss.Platforms = append(ss.Platforms, Platform{
			Pos:     mgl64.Vec2{t.Spawn[0] + float64(i+1)*t.PlatformSpacing, platformHeights[i%len(platformHeights)]},
			Width:   t.PlatformWidth,
			Label:   f.Name,
			Kind:    f.Type,
			handles: allocPair(ss.reg, "platform:"+f.Path),
		})
	}
	ss.CamX = ss.Player.Pos[0]
	ss.CamY = math.Max(ss.Player.Pos[1]+t.CamOffsetY, t.MinCamY)
	return ss
}

// step advances the platformer one tick. Jumps fire on the rising edge
// of the key only, and only while the key that drops through platforms
// is not held. Dropping disables platform collision until the key is
// released; the base ground always catches the player regardless.
func (ss *SideScroller) step(dt float64, in ScrollIntent) {
	t := ss.tune
	p := &ss.Player

	switch {
	case in.Left && !in.Right:
		p.Vel[0] = -t.MoveSpeed
	case in.Right && !in.Left:
		p.Vel[0] = t.MoveSpeed
	default:
		p.Vel[0] = 0
	}

	jumpEdge := in.Jump && !p.prevJump
	p.prevJump = in.Jump
	if jumpEdge && !in.Down && p.JumpCount < p.MaxJumps {
		p.Vel[1] = t.JumpImpulse
		p.JumpCount++
		p.Grounded = false
		p.OnBase = false
	}

	if in.Down && p.Grounded && !p.OnBase {
		p.dropping = true
		p.Grounded = false
	}
	if !in.Down {
		p.dropping = false
	}

	if !p.Grounded {
		p.Vel[1] -= t.Gravity * dt
	}

	p.Pos = p.Pos.Add(p.Vel.Mul(dt))

	grounded := false
	onBase := false
	if p.Vel[1] <= 0 && !p.dropping {
		// The tolerance band grows with fall speed so a fast drop
		// cannot tunnel straight through a thin ledge.
		band := t.SnapTolerance + math.Max(0, -p.Vel[1]*dt)
		for i := range ss.Platforms {
			pl := &ss.Platforms[i]
			if p.Pos[0]+t.PlayerHalfWidth < pl.Pos[0]-pl.Width/2 ||
				p.Pos[0]-t.PlayerHalfWidth > pl.Pos[0]+pl.Width/2 {
				continue
			}
			top := pl.Pos[1]
			if p.Pos[1] >= top-band && p.Pos[1] <= top+t.SnapTolerance {
				p.Pos[1] = top
				p.Vel[1] = 0
				grounded = true
				break
			}
		}
	}
	if !grounded && p.Pos[1] <= t.GroundY && p.Vel[1] <= 0 {
		p.Pos[1] = t.GroundY
		p.Vel[1] = 0
		grounded = true
		onBase = true
	}
	if grounded {
		p.JumpCount = 0
	}
	p.Grounded = grounded
	p.OnBase = onBase

	ss.CamX = lerp(ss.CamX, p.Pos[0], t.CamBlendX)
	ss.CamY = lerp(ss.CamY, math.Max(p.Pos[1]+t.CamOffsetY, t.MinCamY), t.CamBlendY)
}

// dispose releases the player mixer and every scene handle. Platforms
// are dropped so a stale pointer cannot resurrect them.
func (ss *SideScroller) dispose() {
	ss.reg.ReleaseMixer(ss.Player.mixer)
	ss.reg.DisposeAll()
	ss.Platforms = nil
}
