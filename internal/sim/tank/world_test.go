package tank

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"frogtank.app/internal/assets"
	"frogtank.app/internal/protocol"
	"frogtank.app/internal/sim/tuning"
)

func testWorld(t *testing.T, seed int64) *World {
	t.Helper()
	w, err := New(Config{ID: "test", Seed: seed}, tuning.Default())
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func spawnTestAvatar(t *testing.T, w *World) {
	t.Helper()
	load := assets.Result{
		Name:  w.tune.Assets.AvatarModel,
		Model: assets.Model{Name: w.tune.Assets.AvatarModel, Mesh: "frog.glb", Scale: 1},
	}
	w.StepOnce(nil, nil, nil, nil, []assets.Result{load})
	if w.avatar == nil {
		t.Fatalf("avatar did not spawn from load result")
	}
}

func stepN(w *World, n int) {
	for i := 0; i < n; i++ {
		w.StepOnce(nil, nil, nil, nil, nil)
	}
}

func inputEnv(intent string, pressed bool) InputEnvelope {
	return InputEnvelope{Input: &protocol.InputMsg{
		Type:            protocol.TypeInput,
		ProtocolVersion: protocol.Version,
		Intent:          intent,
		Pressed:         pressed,
	}}
}

func cmdEnv(clientID, name string) InputEnvelope {
	return InputEnvelope{ClientID: clientID, Cmd: &protocol.CommandMsg{
		Type:            protocol.TypeCmd,
		ProtocolVersion: protocol.Version,
		Name:            name,
	}}
}

func press(w *World, intent string) {
	w.StepOnce(nil, nil, []InputEnvelope{inputEnv(intent, true)}, nil, nil)
}

func release(w *World, intent string) {
	w.StepOnce(nil, nil, []InputEnvelope{inputEnv(intent, false)}, nil, nil)
}

func command(w *World, name string) {
	w.StepOnce(nil, nil, []InputEnvelope{cmdEnv("", name)}, nil, nil)
}

// testLayout is a small deterministic scene: one folder in front of
// the spawn camera, one document, one image off to the side.
func testLayout() []*WorldObject {
	return []*WorldObject{
		{ID: "projects", Pos: mgl64.Vec3{0, 10, 8}, Scale: 1, Type: ObjectFolder, Meta: ObjectMeta{Name: "projects", Path: "projects", Count: 3}},
		{ID: "notes.txt", Pos: mgl64.Vec3{6, 9, 10}, Scale: 1, Type: ObjectDocument, Meta: ObjectMeta{Name: "notes.txt", Path: "notes.txt", SizeBytes: 1024, SizeText: "1.0 KiB"}},
		{ID: "photo.png", Pos: mgl64.Vec3{-7, 12, 12}, Scale: 1, Type: ObjectImage, Meta: ObjectMeta{Name: "photo.png", Path: "photo.png", SizeBytes: 2048, SizeText: "2.0 KiB"}},
	}
}

type stubIndex struct {
	files []FileEntry
	err   error
}

func (s stubIndex) FilesUnder(string) ([]FileEntry, error) { return s.files, s.err }

var testFolderFiles = []FileEntry{
	{Name: "a.txt", Path: "projects/a.txt", Type: ObjectDocument, SizeBytes: 100},
	{Name: "b.png", Path: "projects/b.png", Type: ObjectImage, SizeBytes: 200},
	{Name: "c.md", Path: "projects/c.md", Type: ObjectDocument, SizeBytes: 300},
}

type captureLog struct {
	entries []TickLogEntry
}

func (c *captureLog) WriteTick(e TickLogEntry) error {
	c.entries = append(c.entries, e)
	return nil
}

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func TestWelcomeCarriesWorldParamsAndObjects(t *testing.T) {
	w := testWorld(t, 1)
	w.SetObjects(testLayout())
	resp := make(chan JoinResponse, 1)
	w.StepOnce([]JoinRequest{{Name: "viewer", Role: protocol.RoleObserver, Resp: resp}}, nil, nil, nil, nil)
	jr := <-resp
	if jr.ErrCode != "" {
		t.Fatalf("observer join failed: %s", jr.ErrCode)
	}
	wm := jr.Welcome
	if wm.Type != protocol.TypeWelcome || wm.Role != protocol.RoleObserver {
		t.Fatalf("unexpected welcome header: %+v", wm)
	}
	if wm.WorldParams.TickRateHz != 30 || wm.WorldParams.Seed != 1 {
		t.Fatalf("world params wrong: %+v", wm.WorldParams)
	}
	if len(wm.Objects) != 3 {
		t.Fatalf("welcome objects: got %d want 3", len(wm.Objects))
	}
	if wm.Objects[0].ID != "projects" || wm.Objects[0].ObjType != "folder" {
		t.Fatalf("first object wrong: %+v", wm.Objects[0])
	}
}

func TestPilotSeatIsExclusive(t *testing.T) {
	w := testWorld(t, 2)
	r1 := make(chan JoinResponse, 1)
	r2 := make(chan JoinResponse, 1)
	joins := []JoinRequest{
		{Name: "one", Role: protocol.RolePilot, Resp: r1},
		{Name: "two", Role: protocol.RolePilot, Resp: r2},
	}
	w.StepOnce(joins, nil, nil, nil, nil)
	first := <-r1
	second := <-r2
	if first.ErrCode != "" {
		t.Fatalf("first pilot rejected: %s", first.ErrCode)
	}
	if second.ErrCode != protocol.ErrPilotTaken {
		t.Fatalf("second pilot: got %q want %q", second.ErrCode, protocol.ErrPilotTaken)
	}

	// Seat frees on leave.
	r3 := make(chan JoinResponse, 1)
	w.StepOnce([]JoinRequest{{Name: "three", Role: protocol.RolePilot, Resp: r3}}, []string{first.Welcome.ClientID}, nil, nil, nil)
	third := <-r3
	if third.ErrCode != "" {
		t.Fatalf("pilot seat did not free: %s", third.ErrCode)
	}
}

func TestFramesReachClients(t *testing.T) {
	w := testWorld(t, 3)
	spawnTestAvatar(t, w)
	out := make(chan []byte, 4)
	resp := make(chan JoinResponse, 1)
	w.StepOnce([]JoinRequest{{Name: "viewer", Role: protocol.RoleObserver, Out: out, Resp: resp}}, nil, nil, nil, nil)
	<-resp

	var fm protocol.FrameMsg
	select {
	case b := <-out:
		if err := json.Unmarshal(b, &fm); err != nil {
			t.Fatalf("frame decode: %v", err)
		}
	default:
		t.Fatalf("no frame delivered")
	}
	if fm.Type != protocol.TypeFrame || fm.Mode != protocol.ModeOpenWater {
		t.Fatalf("frame header wrong: type=%s mode=%s", fm.Type, fm.Mode)
	}
	if fm.Avatar == nil {
		t.Fatalf("frame missing avatar")
	}
}

func TestSendLatestDropsOldestForSlowClient(t *testing.T) {
	ch := make(chan []byte, 1)
	sendLatest(ch, []byte("a"))
	sendLatest(ch, []byte("b"))
	sendLatest(ch, []byte("c"))
	got := string(<-ch)
	if got != "c" {
		t.Fatalf("slow client frame: got %q want %q", got, "c")
	}
	select {
	case extra := <-ch:
		t.Fatalf("queue should be empty, got %q", extra)
	default:
	}
}

func TestFrameBeforeAvatarHasCameraOnly(t *testing.T) {
	w := testWorld(t, 4)
	f := w.buildFrame(0)
	if f.Avatar != nil {
		t.Fatalf("avatar present before any load result")
	}
	if f.Camera.Pos == ([3]float64{}) {
		t.Fatalf("camera not initialized")
	}
}

func TestPlaceholderAvatarOnLoadTimeout(t *testing.T) {
	w := testWorld(t, 5)
	w.StepOnce(nil, nil, nil, nil, []assets.Result{{Name: w.tune.Assets.AvatarModel, TimedOut: true}})
	if w.avatar == nil {
		t.Fatalf("avatar missing after timed-out load")
	}
	if !w.avatar.Placeholder {
		t.Fatalf("avatar should be a placeholder")
	}
}

func TestCommandRateLimit(t *testing.T) {
	w := testWorld(t, 6)
	spawnTestAvatar(t, w)
	max := w.tune.RateLimits.CmdMax

	var envs []InputEnvelope
	for i := 0; i < max+3; i++ {
		envs = append(envs, cmdEnv("P1", protocol.CmdToggleDebug))
	}
	log := &captureLog{}
	w.SetTickLogger(log)
	w.StepOnce(nil, nil, envs, nil, nil)

	applied := len(log.entries[len(log.entries)-1].Commands)
	if applied != max {
		t.Fatalf("applied commands: got %d want %d", applied, max)
	}

	// The window expires and commands flow again.
	stepN(w, w.tune.RateLimits.CmdWindowTicks)
	log.entries = nil
	w.StepOnce(nil, nil, []InputEnvelope{cmdEnv("P1", protocol.CmdToggleDebug)}, nil, nil)
	if len(log.entries[0].Commands) != 1 {
		t.Fatalf("command after window expiry was not applied")
	}
}

func TestUnknownIntentAndCommandAreRejected(t *testing.T) {
	w := testWorld(t, 7)
	spawnTestAvatar(t, w)
	log := &captureLog{}
	w.SetTickLogger(log)
	envs := []InputEnvelope{
		inputEnv("warp", true),
		cmdEnv("", "self_destruct"),
	}
	w.StepOnce(nil, nil, envs, nil, nil)
	e := log.entries[0]
	if len(e.Inputs) != 0 || len(e.Commands) != 0 {
		t.Fatalf("rejected messages were recorded: %+v", e)
	}
}

// The one test that matters most: a world fed from a recorded session
// must walk the exact same digest sequence as the world that produced
// the recording.
func TestRecordedSessionReplaysToSameDigests(t *testing.T) {
	script := func(tick uint64) ([]InputEnvelope, []ObjectEdit, []assets.Result) {
		var envs []InputEnvelope
		var edits []ObjectEdit
		var loads []assets.Result
		switch tick {
		case 0:
			loads = append(loads, assets.Result{Name: "frog", Model: assets.Model{Name: "frog", Scale: 1}})
		case 2:
			envs = append(envs, inputEnv(protocol.IntentForward, true))
		case 30:
			envs = append(envs, inputEnv(protocol.IntentForward, false))
		case 31:
			envs = append(envs, cmdEnv("", protocol.CmdDash))
		case 40:
			edits = append(edits, ObjectEdit{Object: &WorldObject{
				ID: "late.txt", Pos: mgl64.Vec3{3, 11, 6}, Scale: 1,
				Type: ObjectDocument, Meta: ObjectMeta{Name: "late.txt", Path: "late.txt"},
			}})
		case 45:
			envs = append(envs, cmdEnv("", protocol.CmdToggleFlock))
		case 100:
			envs = append(envs, inputEnv(protocol.IntentUp, true))
		case 110:
			envs = append(envs, inputEnv(protocol.IntentUp, false))
		case 120:
			edits = append(edits, ObjectEdit{Remove: true, ID: "photo.png"})
		case 121:
			edits = append(edits, ObjectEdit{Remove: true, ID: "notes.txt"})
		case 122:
			edits = append(edits, ObjectEdit{Remove: true, ID: "late.txt"})
		case 130:
			envs = append(envs, cmdEnv("", protocol.CmdEnterFolder))
		case 135:
			envs = append(envs, inputEnv(protocol.IntentRight, true))
		case 150:
			envs = append(envs, inputEnv(protocol.IntentJump, true))
		case 152:
			envs = append(envs, inputEnv(protocol.IntentJump, false))
		case 170:
			envs = append(envs, inputEnv(protocol.IntentRight, false))
		case 180:
			envs = append(envs, cmdEnv("", protocol.CmdExitFolder))
		}
		return envs, edits, loads
	}

	const seed = 11
	const ticks = 220

	live := testWorld(t, seed)
	live.SetObjects(testLayout())
	live.SetContentIndex(stubIndex{files: testFolderFiles})
	log := &captureLog{}
	live.SetTickLogger(log)
	for i := uint64(0); i < ticks; i++ {
		envs, edits, loads := script(i)
		live.StepOnce(nil, nil, envs, edits, loads)
		if i == 130 && live.mode != ModeInsideFolder {
			t.Fatalf("folder entry did not take at tick 130")
		}
		if i == 180 && live.mode != ModeOpenWater {
			t.Fatalf("folder exit did not take at tick 180")
		}
	}
	if len(log.entries) != ticks {
		t.Fatalf("log entries: got %d want %d", len(log.entries), ticks)
	}

	replay := testWorld(t, seed)
	replay.SetObjects(testLayout())
	replay.SetContentIndex(stubIndex{files: testFolderFiles})
	for i, e := range log.entries {
		var envs []InputEnvelope
		for _, in := range e.Inputs {
			envs = append(envs, inputEnv(in.Intent, in.Pressed))
		}
		for _, c := range e.Commands {
			envs = append(envs, cmdEnv("", c.Name))
		}
		var edits []ObjectEdit
		for _, ed := range e.Edits {
			if ed.Remove {
				edits = append(edits, ObjectEdit{Remove: true, ID: ed.ID})
			} else {
				edits = append(edits, ObjectEdit{Object: objectFromState(*ed.Object)})
			}
		}
		var loads []assets.Result
		for _, l := range e.Loads {
			loads = append(loads, ReplayLoad(l, replay.tune))
		}
		_, digest := replay.StepOnce(nil, nil, envs, edits, loads)
		if digest != e.Digest {
			t.Fatalf("digest diverged at tick %d:\n  live   %s\n  replay %s", i, e.Digest, digest)
		}
	}
}

// Two worlds with different wall clocks but identical inputs must not
// diverge; the highlight pulse is cosmetic.
func TestWallClockDoesNotAffectDigest(t *testing.T) {
	a := testWorld(t, 9)
	a.SetObjects(testLayout())
	a.SetClock(&fakeClock{t: time.Unix(1000, 0)})
	b := testWorld(t, 9)
	b.SetObjects(testLayout())
	b.SetClock(&fakeClock{t: time.Unix(987654, 321)})

	spawnTestAvatar(t, a)
	spawnTestAvatar(t, b)
	for i := 0; i < 50; i++ {
		_, da := a.StepOnce(nil, nil, nil, nil, nil)
		_, db := b.StepOnce(nil, nil, nil, nil, nil)
		if da != db {
			t.Fatalf("digest diverged under different wall clocks at step %d", i)
		}
	}
}
