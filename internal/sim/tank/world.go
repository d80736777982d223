package tank

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"frogtank.app/internal/assets"
	"frogtank.app/internal/protocol"
	"frogtank.app/internal/sim/tuning"
)

// Config identifies one tank instance.
type Config struct {
	ID   string
	Seed int64
}

// TickLogger persists one entry per tick for auditing and replay.
type TickLogger interface {
	WriteTick(e TickLogEntry) error
}

// TickLogEntry records everything external the simulation consumed on
// a tick, plus the digest of the state it produced. Feeding the same
// entries back through StepOnce must reproduce the same digests.
type TickLogEntry struct {
	Tick     uint64            `json:"tick"`
	Inputs   []RecordedInput   `json:"inputs,omitempty"`
	Commands []RecordedCommand `json:"commands,omitempty"`
	Edits    []RecordedEdit    `json:"edits,omitempty"`
	Loads    []RecordedLoad    `json:"loads,omitempty"`
	Digest   string            `json:"digest"`
}

type RecordedInput struct {
	Intent  string `json:"intent"`
	Pressed bool   `json:"pressed"`
}

type RecordedCommand struct {
	Name string `json:"name"`
}

type RecordedEdit struct {
	Remove bool                  `json:"remove,omitempty"`
	ID     string                `json:"id,omitempty"`
	Object *protocol.ObjectState `json:"object,omitempty"`
}

// RecordedLoad captures an asset load result: which model arrived and
// whether the sim fell back to a placeholder.
type RecordedLoad struct {
	Kind        string `json:"kind"`
	ModelName   string `json:"model_name"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

const (
	LoadKindAvatar     = "avatar"
	LoadKindAgentModel = "agent_model"
)

// InputEnvelope carries one client message into the loop. Authority is
// the transport's problem: only pilot connections may feed inputs, so
// the simulation applies whatever arrives. ClientID is used for
// command rate limiting only; an empty one is exempt.
type InputEnvelope struct {
	ClientID string
	Input    *protocol.InputMsg
	Cmd      *protocol.CommandMsg
}

// JoinRequest asks for a seat. The single pilot slot is first come,
// first served; observers always fit.
type JoinRequest struct {
	Name string
	Role string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
	ErrCode string
	ErrMsg  string
}

type clientState struct {
	ID   string
	Name string
	Role string
	Out  chan []byte
}

type rateWindow struct {
	StartTick uint64
	Count     int
}

// World is the authoritative simulation. All state is owned by the
// single goroutine in Run; everything external arrives over channels
// and is applied at tick boundaries in a fixed order.
type World struct {
	cfg  Config
	tune tuning.Tuning
	dt   float64

	tick  atomic.Uint64
	rng   *rand.Rand
	clock Clock

	mode     Mode
	avatar   *Avatar
	camera   CameraRig
	auto     Autopilot
	flock    flockState
	sel      Selector
	scroller *SideScroller

	objects []*WorldObject
	objByID map[string]*WorldObject

	openScene *SceneRegistry

	intent   Intent
	ssIntent ScrollIntent

	pilotID   string
	clients   map[string]*clientState
	clientSeq int
	cmdRL     map[string]*rateWindow

	events       []protocol.Event
	debugOverlay bool

	content  ContentIndex
	loader   *assets.Loader
	sink     FocusSink
	manifest protocol.ModelManifest

	inbox   chan InputEnvelope
	join    chan JoinRequest
	leave   chan string
	edits   chan []ObjectEdit
	assetCh chan assets.Result
	stop    chan struct{}

	tickLogger TickLogger
	lastDigest string
}

func New(cfg Config, tune tuning.Tuning) (*World, error) {
	if err := tune.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}
	if cfg.ID == "" {
		cfg.ID = "tank"
	}
	w := &World{
		cfg:       cfg,
		tune:      tune,
		dt:        1.0 / float64(tune.TickRateHz),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		clock:     systemClock{},
		mode:      ModeOpenWater,
		objByID:   map[string]*WorldObject{},
		openScene: newSceneRegistry("open_water"),
		clients:   map[string]*clientState{},
		cmdRL:     map[string]*rateWindow{},
		inbox:     make(chan InputEnvelope, 1024),
		join:      make(chan JoinRequest, 16),
		leave:     make(chan string, 16),
		edits:     make(chan []ObjectEdit, 16),
		assetCh:   make(chan assets.Result, 8),
		stop:      make(chan struct{}),
	}
	w.camera = newCameraRig(w.spawnPos(), tune.Camera.Offset)
	return w, nil
}

func (w *World) SetTickLogger(l TickLogger)                { w.tickLogger = l }
func (w *World) SetContentIndex(ci ContentIndex)           { w.content = ci }
func (w *World) SetLoader(l *assets.Loader)                { w.loader = l }
func (w *World) SetFocusSink(s FocusSink)                  { w.sink = s }
func (w *World) SetClock(c Clock)                          { w.clock = c }
func (w *World) SetModelManifest(m protocol.ModelManifest) { w.manifest = m }

// SetObjects installs the initial layout. Call before Run.
func (w *World) SetObjects(objs []*WorldObject) {
	for _, o := range objs {
		w.insertObject(o)
	}
}

func (w *World) Inbox() chan<- InputEnvelope { return w.inbox }
func (w *World) Joins() chan<- JoinRequest   { return w.join }
func (w *World) Leaves() chan<- string       { return w.leave }
func (w *World) Edits() chan<- []ObjectEdit  { return w.edits }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) Stop() { close(w.stop) }

// Run owns the world until the context ends or Stop is called. It
// batches everything that arrived between ticks and applies it in one
// step; nothing else may touch world state while it runs.
func (w *World) Run(ctx context.Context) error {
	if w.loader != nil {
		w.loader.Request(w.tune.Assets.AvatarModel, w.assetCh)
		w.loader.Request(w.tune.Assets.AgentModel, w.assetCh)
	}

	ticker := time.NewTicker(time.Second / time.Duration(w.tune.TickRateHz))
	defer ticker.Stop()

	var pendingJoins []JoinRequest
	var pendingLeaves []string
	var pendingInputs []InputEnvelope
	var pendingEdits []ObjectEdit
	var pendingLoads []assets.Result

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingInputs = append(pendingInputs, env)
		case batch := <-w.edits:
			pendingEdits = append(pendingEdits, batch...)
		case r := <-w.assetCh:
			pendingLoads = append(pendingLoads, r)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingInputs, pendingEdits, pendingLoads)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingInputs = pendingInputs[:0]
			pendingEdits = pendingEdits[:0]
			pendingLoads = pendingLoads[:0]
		}
	}
}

// StepOnce drives a single tick synchronously. Tests and the replay
// verifier use it; it must never run concurrently with Run.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, inputs []InputEnvelope, edits []ObjectEdit, loads []assets.Result) (uint64, string) {
	tick := w.tick.Load()
	w.step(joins, leaves, inputs, edits, loads)
	return tick, w.lastDigest
}

func (w *World) step(joins []JoinRequest, leaves []string, inputs []InputEnvelope, edits []ObjectEdit, loads []assets.Result) {
	nowTick := w.tick.Load()

	for _, id := range leaves {
		w.handleLeave(id)
	}
	for _, req := range joins {
		w.handleJoin(req)
	}

	var recEdits []RecordedEdit
	for _, e := range edits {
		if rec := w.applyEdit(e); rec != nil {
			recEdits = append(recEdits, *rec)
		}
	}

	var recLoads []RecordedLoad
	for _, r := range loads {
		if rec := w.applyLoad(r); rec != nil {
			recLoads = append(recLoads, *rec)
		}
	}

	// Intent edges apply before commands within a tick; the log stores
	// them in that order, so replay walks the same sequence.
	var recInputs []RecordedInput
	var recCmds []RecordedCommand
	for _, env := range inputs {
		if env.Input != nil && w.applyInput(*env.Input) {
			recInputs = append(recInputs, RecordedInput{Intent: env.Input.Intent, Pressed: env.Input.Pressed})
		}
	}
	for _, env := range inputs {
		if env.Cmd != nil && w.applyCommand(env.ClientID, *env.Cmd) {
			recCmds = append(recCmds, RecordedCommand{Name: env.Cmd.Name})
		}
	}

	w.runSystems(w.dt)

	frame := w.buildFrame(nowTick)
	if b, err := json.Marshal(frame); err == nil {
		for _, cl := range w.clients {
			sendLatest(cl.Out, b)
		}
	}

	digest := w.stateDigest(nowTick)
	w.lastDigest = digest
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:     nowTick,
			Inputs:   recInputs,
			Commands: recCmds,
			Edits:    recEdits,
			Loads:    recLoads,
			Digest:   digest,
		})
	}

	w.events = w.events[:0]
	w.tick.Add(1)
}

func (w *World) runSystems(dt float64) {
	switch w.mode {
	case ModeOpenWater:
		// Fixed order; each system reads what earlier ones wrote.
		w.systemMovement(dt)
		w.systemAutopilot(dt)
		w.systemAnimation(dt)
		w.systemFlock(dt)
		w.systemCamera()
		w.systemSelection()
	case ModeInsideFolder:
		if w.scroller != nil {
			w.scroller.step(dt, w.ssIntent)
		}
	}
}

func (w *World) handleJoin(req JoinRequest) {
	role := protocol.RoleObserver
	if req.Role == protocol.RolePilot {
		role = protocol.RolePilot
	}
	if role == protocol.RolePilot && w.pilotID != "" {
		if req.Resp != nil {
			req.Resp <- JoinResponse{ErrCode: protocol.ErrPilotTaken, ErrMsg: "pilot seat is taken"}
		}
		return
	}
	w.clientSeq++
	prefix := "O"
	if role == protocol.RolePilot {
		prefix = "P"
	}
	id := fmt.Sprintf("%s%d", prefix, w.clientSeq)
	w.clients[id] = &clientState{ID: id, Name: req.Name, Role: role, Out: req.Out}
	if role == protocol.RolePilot {
		w.pilotID = id
	}
	if req.Resp != nil {
		req.Resp <- JoinResponse{Welcome: w.buildWelcome(id, role)}
	}
}

func (w *World) handleLeave(id string) {
	cl, ok := w.clients[id]
	if !ok {
		return
	}
	delete(w.clients, id)
	delete(w.cmdRL, id)
	if cl.Role == protocol.RolePilot && w.pilotID == id {
		// Seat opens again; held keys cannot outlive the connection.
		w.pilotID = ""
		w.intent = Intent{}
		w.ssIntent = ScrollIntent{}
	}
}

func (w *World) applyEdit(e ObjectEdit) *RecordedEdit {
	if e.Remove {
		if !w.removeObject(e.ID) {
			return nil
		}
		return &RecordedEdit{Remove: true, ID: e.ID}
	}
	if e.Object == nil {
		return nil
	}
	if !w.addObject(e.Object) {
		return nil
	}
	st := objectState(e.Object)
	return &RecordedEdit{Object: &st}
}

func (w *World) applyLoad(r assets.Result) *RecordedLoad {
	placeholder := r.Err != nil || r.TimedOut
	model := r.Model
	if placeholder {
		model = assets.Model{Name: r.Name, Scale: 1}
	}
	switch r.Name {
	case w.tune.Assets.AvatarModel:
		if w.avatar != nil {
			return nil
		}
		w.spawnAvatar(model, placeholder)
		return &RecordedLoad{Kind: LoadKindAvatar, ModelName: model.Name, Placeholder: placeholder}
	case w.tune.Assets.AgentModel:
		if w.flock.modelReady {
			return nil
		}
		w.flock.model = model
		w.flock.placeholder = placeholder
		w.flock.modelReady = true
		if w.flock.enabled {
			w.spawnFlock()
		}
		return &RecordedLoad{Kind: LoadKindAgentModel, ModelName: model.Name, Placeholder: placeholder}
	}
	return nil
}

// ReplayLoad reconstructs the asset result a recorded entry stands
// for, for feeding back through StepOnce.
func ReplayLoad(rec RecordedLoad, tune tuning.Tuning) assets.Result {
	name := tune.Assets.AvatarModel
	if rec.Kind == LoadKindAgentModel {
		name = tune.Assets.AgentModel
	}
	return assets.Result{
		Name:     name,
		Model:    assets.Model{Name: rec.ModelName, Scale: 1},
		TimedOut: rec.Placeholder,
	}
}

// applyInput resolves one intent flag. Valid intents count as pilot
// activity even when the current mode has no use for them; unknown
// names only produce an error event.
func (w *World) applyInput(in protocol.InputMsg) bool {
	switch in.Intent {
	case protocol.IntentForward, protocol.IntentBackward, protocol.IntentLeft,
		protocol.IntentRight, protocol.IntentUp, protocol.IntentDown, protocol.IntentJump:
	default:
		w.pushError(protocol.ErrBadIntent, "unknown intent "+in.Intent)
		return false
	}
	w.noteInput()
	switch w.mode {
	case ModeOpenWater:
		switch in.Intent {
		case protocol.IntentForward:
			w.intent.Forward = in.Pressed
		case protocol.IntentBackward:
			w.intent.Backward = in.Pressed
		case protocol.IntentLeft:
			w.intent.Left = in.Pressed
		case protocol.IntentRight:
			w.intent.Right = in.Pressed
		case protocol.IntentUp:
			w.intent.Up = in.Pressed
		case protocol.IntentDown:
			w.intent.Down = in.Pressed
		}
	case ModeInsideFolder:
		switch in.Intent {
		case protocol.IntentLeft:
			w.ssIntent.Left = in.Pressed
		case protocol.IntentRight:
			w.ssIntent.Right = in.Pressed
		case protocol.IntentJump:
			w.ssIntent.Jump = in.Pressed
		case protocol.IntentDown:
			w.ssIntent.Down = in.Pressed
		}
	}
	return true
}

func (w *World) applyCommand(clientID string, cmd protocol.CommandMsg) bool {
	if clientID != "" && !w.rateLimitAllow(clientID, w.tick.Load()) {
		w.pushError(protocol.ErrRateLimit, "too many commands")
		return false
	}
	switch cmd.Name {
	case protocol.CmdDash:
		if w.mode != ModeOpenWater {
			w.pushError(protocol.ErrBadMode, "dash needs open water")
			return false
		}
		w.noteInput()
		w.dash()
	case protocol.CmdToggleFlock:
		w.noteInput()
		w.toggleFlock()
	case protocol.CmdToggleDebug:
		// Watching the overlay is not piloting; autopilot stays put.
		w.debugOverlay = !w.debugOverlay
		enabled := w.debugOverlay
		w.pushEvent(protocol.Event{Name: protocol.EventDebugToggled, Enabled: &enabled})
	case protocol.CmdRealignCamera:
		if w.mode != ModeOpenWater {
			w.pushError(protocol.ErrBadMode, "camera realign needs open water")
			return false
		}
		w.noteInput()
		w.realignCamera()
	case protocol.CmdEnterFolder:
		w.noteInput()
		return w.enterFolder()
	case protocol.CmdExitFolder:
		w.noteInput()
		return w.exitFolder()
	default:
		w.pushError(protocol.ErrBadCmd, "unknown command "+cmd.Name)
		return false
	}
	return true
}

func (w *World) rateLimitAllow(clientID string, nowTick uint64) bool {
	window := uint64(w.tune.RateLimits.CmdWindowTicks)
	max := w.tune.RateLimits.CmdMax
	if window == 0 || max <= 0 {
		return true
	}
	rw, ok := w.cmdRL[clientID]
	if !ok {
		rw = &rateWindow{StartTick: nowTick}
		w.cmdRL[clientID] = rw
	}
	if nowTick-rw.StartTick >= window {
		rw.StartTick = nowTick
		rw.Count = 0
	}
	rw.Count++
	return rw.Count <= max
}

func (w *World) pushEvent(ev protocol.Event) {
	w.events = append(w.events, ev)
}

func (w *World) pushError(code, msg string) {
	w.pushEvent(protocol.Event{Name: protocol.EventError, Code: code, Message: msg})
}

func (w *World) buildWelcome(clientID, role string) protocol.WelcomeMsg {
	objs := make([]protocol.ObjectState, 0, len(w.objects))
	for _, o := range w.objects {
		objs = append(objs, objectState(o))
	}
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		ClientID:        clientID,
		Role:            role,
		WorldParams: protocol.WorldParams{
			TickRateHz: w.tune.TickRateHz,
			Seed:       w.cfg.Seed,
			TankWidth:  w.tune.Tank.Width,
			FloorY:     w.tune.Tank.FloorY,
			CeilingY:   w.tune.Tank.CeilingY,
			Mode:       string(w.mode),
			Spawn:      arr3(w.spawnPos()),
		},
		Models:  w.manifest,
		Objects: objs,
	}
}

// sendLatest delivers b without ever blocking the loop. When the
// client's queue is full the oldest frame is dropped to make room; a
// slow consumer sees fresh state, never a growing backlog.
func sendLatest(ch chan []byte, b []byte) {
	if ch == nil {
		return
	}
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
