package tank

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"frogtank.app/internal/protocol"
	"frogtank.app/internal/sim/tuning"
)

const scrollDt = 1.0 / 30.0

func testScroller() *SideScroller {
	folder := &WorldObject{ID: "f", Type: ObjectFolder, Scale: 1, Meta: ObjectMeta{Name: "f"}}
	return newSideScroller(folder, testFolderFiles, tuning.Default().Scroller)
}

func stepScroller(ss *SideScroller, n int, in ScrollIntent) {
	for i := 0; i < n; i++ {
		ss.step(scrollDt, in)
	}
}

// parkOnPlatform drops the player from above the i-th platform and
// waits for the snap.
func parkOnPlatform(t *testing.T, ss *SideScroller, i int) {
	t.Helper()
	pl := ss.Platforms[i]
	ss.Player.Pos = mgl64.Vec2{pl.Pos[0], pl.Pos[1] + 1}
	ss.Player.Vel = mgl64.Vec2{}
	ss.Player.Grounded = false
	ss.Player.OnBase = false
	for j := 0; j < 60 && !ss.Player.Grounded; j++ {
		ss.step(scrollDt, ScrollIntent{})
	}
	if !ss.Player.Grounded || ss.Player.OnBase {
		t.Fatalf("player did not land on platform %d", i)
	}
	if ss.Player.Pos[1] != pl.Pos[1] {
		t.Fatalf("landing height: got %v want %v", ss.Player.Pos[1], pl.Pos[1])
	}
}

func TestPlayerFallsToBaseGround(t *testing.T) {
	ss := testScroller()
	stepScroller(ss, 5, ScrollIntent{})
	p := ss.Player
	if !p.Grounded || !p.OnBase {
		t.Fatalf("player not resting on base: grounded=%v onBase=%v", p.Grounded, p.OnBase)
	}
	if p.Pos[1] != tuning.Default().Scroller.GroundY {
		t.Fatalf("rest height: got %v want %v", p.Pos[1], tuning.Default().Scroller.GroundY)
	}
}

func TestHorizontalVelocityIsInstant(t *testing.T) {
	ss := testScroller()
	stepScroller(ss, 3, ScrollIntent{})
	speed := ss.tune.MoveSpeed

	ss.step(scrollDt, ScrollIntent{Right: true})
	if ss.Player.Vel[0] != speed {
		t.Fatalf("right velocity: got %v want %v", ss.Player.Vel[0], speed)
	}
	ss.step(scrollDt, ScrollIntent{Left: true})
	if ss.Player.Vel[0] != -speed {
		t.Fatalf("left velocity: got %v want %v", ss.Player.Vel[0], -speed)
	}
	ss.step(scrollDt, ScrollIntent{Left: true, Right: true})
	if ss.Player.Vel[0] != 0 {
		t.Fatalf("opposed keys should cancel, got %v", ss.Player.Vel[0])
	}
	ss.step(scrollDt, ScrollIntent{})
	if ss.Player.Vel[0] != 0 {
		t.Fatalf("release should stop instantly, got %v", ss.Player.Vel[0])
	}
}

func TestDoubleJumpThenThirdRejected(t *testing.T) {
	ss := testScroller()
	stepScroller(ss, 3, ScrollIntent{})

	ss.step(scrollDt, ScrollIntent{Jump: true})
	if ss.Player.JumpCount != 1 || ss.Player.Grounded {
		t.Fatalf("first jump: count=%d grounded=%v", ss.Player.JumpCount, ss.Player.Grounded)
	}
	stepScroller(ss, 4, ScrollIntent{})

	ss.step(scrollDt, ScrollIntent{Jump: true})
	if ss.Player.JumpCount != 2 {
		t.Fatalf("second jump: count=%d want 2", ss.Player.JumpCount)
	}
	if ss.Player.Vel[1] < ss.tune.JumpImpulse-2 {
		t.Fatalf("second jump did not reset vertical speed: %v", ss.Player.Vel[1])
	}
	stepScroller(ss, 4, ScrollIntent{})

	before := ss.Player.Vel[1]
	ss.step(scrollDt, ScrollIntent{Jump: true})
	if ss.Player.JumpCount != 2 {
		t.Fatalf("third jump changed count: %d", ss.Player.JumpCount)
	}
	if ss.Player.Vel[1] >= before {
		t.Fatalf("third jump fired: vel %v -> %v", before, ss.Player.Vel[1])
	}
}

func TestHeldJumpKeyFiresOnce(t *testing.T) {
	ss := testScroller()
	stepScroller(ss, 3, ScrollIntent{})
	stepScroller(ss, 10, ScrollIntent{Jump: true})
	if ss.Player.JumpCount != 1 {
		t.Fatalf("held key fired %d jumps", ss.Player.JumpCount)
	}
}

func TestLandingResetsJumpBudget(t *testing.T) {
	ss := testScroller()
	stepScroller(ss, 3, ScrollIntent{})
	ss.step(scrollDt, ScrollIntent{Jump: true})
	stepScroller(ss, 4, ScrollIntent{})
	ss.step(scrollDt, ScrollIntent{Jump: true})

	for i := 0; i < 120 && !ss.Player.Grounded; i++ {
		ss.step(scrollDt, ScrollIntent{})
	}
	if !ss.Player.Grounded {
		t.Fatalf("player never landed")
	}
	if ss.Player.JumpCount != 0 {
		t.Fatalf("landing kept jump count %d", ss.Player.JumpCount)
	}
	ss.step(scrollDt, ScrollIntent{Jump: true})
	if ss.Player.JumpCount != 1 || ss.Player.Vel[1] <= 0 {
		t.Fatalf("jump after landing rejected: count=%d vy=%v", ss.Player.JumpCount, ss.Player.Vel[1])
	}
}

func TestFallingSnapsOntoPlatformTop(t *testing.T) {
	ss := testScroller()
	parkOnPlatform(t, ss, 0)
}

func TestFastFallDoesNotTunnelThroughPlatform(t *testing.T) {
	ss := testScroller()
	pl := ss.Platforms[0]
	ss.Player.Pos = mgl64.Vec2{pl.Pos[0], 20}
	ss.Player.Vel = mgl64.Vec2{}
	ss.Player.Grounded = false
	ss.Player.OnBase = false
	for i := 0; i < 120 && !ss.Player.Grounded; i++ {
		ss.step(scrollDt, ScrollIntent{})
	}
	if ss.Player.Pos[1] != pl.Pos[1] || ss.Player.OnBase {
		t.Fatalf("fast fall missed the ledge: y=%v onBase=%v", ss.Player.Pos[1], ss.Player.OnBase)
	}
}

func TestJumpRisesThroughPlatformThenLandsOnIt(t *testing.T) {
	ss := testScroller()
	pl := ss.Platforms[0]
	ss.Player.Pos = mgl64.Vec2{pl.Pos[0], 0}
	stepScroller(ss, 2, ScrollIntent{})
	if !ss.Player.OnBase {
		t.Fatalf("fixture: player not on base under the platform")
	}

	ss.step(scrollDt, ScrollIntent{Jump: true})
	maxY := ss.Player.Pos[1]
	for i := 0; i < 120 && !ss.Player.Grounded; i++ {
		ss.step(scrollDt, ScrollIntent{})
		if ss.Player.Pos[1] > maxY {
			maxY = ss.Player.Pos[1]
		}
	}
	if maxY <= pl.Pos[1]+0.1 {
		t.Fatalf("ascent was blocked by the ledge: max %v", maxY)
	}
	if ss.Player.Pos[1] != pl.Pos[1] || ss.Player.OnBase {
		t.Fatalf("player should land on the ledge: y=%v onBase=%v", ss.Player.Pos[1], ss.Player.OnBase)
	}
}

func TestDropThroughPlatformReachesBase(t *testing.T) {
	ss := testScroller()
	parkOnPlatform(t, ss, 0)

	for i := 0; i < 60 && !ss.Player.OnBase; i++ {
		ss.step(scrollDt, ScrollIntent{Down: true})
	}
	if !ss.Player.OnBase || ss.Player.Pos[1] != ss.tune.GroundY {
		t.Fatalf("drop-through did not reach base: y=%v onBase=%v", ss.Player.Pos[1], ss.Player.OnBase)
	}

	// Base never lets the player through.
	stepScroller(ss, 10, ScrollIntent{Down: true})
	if !ss.Player.Grounded || !ss.Player.OnBase {
		t.Fatalf("base ground dropped the player")
	}

	// Release re-arms platform collision for the climb back up.
	stepScroller(ss, 2, ScrollIntent{})
	if ss.Player.dropping {
		t.Fatalf("dropping flag stuck after release")
	}
	if ss.Player.JumpCount != 0 {
		t.Fatalf("jump budget not restored on base: %d", ss.Player.JumpCount)
	}
}

func TestJumpSuppressedWhileDownHeld(t *testing.T) {
	ss := testScroller()
	stepScroller(ss, 3, ScrollIntent{})
	ss.step(scrollDt, ScrollIntent{Jump: true, Down: true})
	if ss.Player.JumpCount != 0 {
		t.Fatalf("jump fired while down was held")
	}
	if ss.Player.Pos[1] != ss.tune.GroundY {
		t.Fatalf("player left the ground: %v", ss.Player.Pos[1])
	}
}

func TestCameraClampsToMinHeight(t *testing.T) {
	ss := testScroller()
	minY := ss.tune.MinCamY
	stepScroller(ss, 10, ScrollIntent{})
	if ss.CamY != minY {
		t.Fatalf("camera at rest: got %v want %v", ss.CamY, minY)
	}

	ss.step(scrollDt, ScrollIntent{Jump: true})
	stepScroller(ss, 4, ScrollIntent{})
	ss.step(scrollDt, ScrollIntent{Jump: true})
	rose := false
	for i := 0; i < 200; i++ {
		ss.step(scrollDt, ScrollIntent{})
		if ss.CamY > minY+0.5 {
			rose = true
		}
		if ss.CamY < minY {
			t.Fatalf("camera sank below floor: %v", ss.CamY)
		}
	}
	if !rose {
		t.Fatalf("camera never followed the double jump")
	}
	if ss.CamY > minY+0.05 {
		t.Fatalf("camera did not settle back: %v", ss.CamY)
	}
}

func TestCameraTrailsHorizontalRun(t *testing.T) {
	ss := testScroller()
	stepScroller(ss, 3, ScrollIntent{})
	start := ss.CamX
	stepScroller(ss, 20, ScrollIntent{Right: true})
	if ss.CamX <= start {
		t.Fatalf("camera did not follow the run")
	}
	if ss.CamX >= ss.Player.Pos[0] {
		t.Fatalf("camera should trail the player: cam=%v player=%v", ss.CamX, ss.Player.Pos[0])
	}
	stepScroller(ss, 300, ScrollIntent{})
	if diff := ss.Player.Pos[0] - ss.CamX; diff > 0.01 {
		t.Fatalf("camera never caught up: off by %v", diff)
	}
}

// Inside a folder the world routes the shared direction keys to the
// platformer and ignores the swim-only ones.
func TestWorldRoutesIntentsByMode(t *testing.T) {
	w := folderWorld(t, 81)
	command(w, protocol.CmdEnterFolder)

	press(w, protocol.IntentRight)
	startX := w.scroller.Player.Pos[0]
	stepN(w, 15)
	if w.scroller.Player.Pos[0] <= startX {
		t.Fatalf("platformer ignored the right key")
	}

	press(w, protocol.IntentForward)
	if w.intent != (Intent{}) {
		t.Fatalf("swim intent latched inside a folder: %+v", w.intent)
	}
	if !w.ssIntent.Right {
		t.Fatalf("scroller intent lost: %+v", w.ssIntent)
	}

	release(w, protocol.IntentRight)
	w.StepOnce(nil, nil, nil, nil, nil)
	if w.scroller.Player.Vel[0] != 0 {
		t.Fatalf("release did not stop the run: %v", w.scroller.Player.Vel[0])
	}
}
