package protocol

// Event names emitted inside FRAME messages.
const (
	EventFocusChanged    = "focus_changed"
	EventModeChanged     = "mode_changed"
	EventDash            = "dash"
	EventFlockToggled    = "flock_toggled"
	EventDebugToggled    = "debug_toggled"
	EventCameraRealigned = "camera_realigned"
	EventObjectAdded     = "object_added"
	EventObjectRemoved   = "object_removed"
	EventAvatarReady     = "avatar_ready"
	EventError           = "error"
)

// Mode names.
const (
	ModeOpenWater    = "open_water"
	ModeInsideFolder = "inside_folder"
)

// FRAME (server -> client): the full render state for one tick. Clients
// draw the latest frame they hold; frames are droppable.
type FrameMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Mode            string `json:"mode"`

	Avatar    *AvatarState    `json:"avatar,omitempty"`
	Camera    CameraState     `json:"camera"`
	Agents    []AgentState    `json:"agents,omitempty"`
	FocusID   string          `json:"focus_id,omitempty"`
	Highlight *HighlightState `json:"highlight,omitempty"`
	Scroller  *ScrollerState  `json:"scroller,omitempty"`
	Events    []Event         `json:"events,omitempty"`
	Debug     *DebugState     `json:"debug,omitempty"`
}

type AvatarState struct {
	Pos          [3]float64 `json:"pos"`
	Vel          [3]float64 `json:"vel"`
	Yaw          float64    `json:"yaw"`
	AnimTime     float64    `json:"anim_time"`
	DashCooldown float64    `json:"dash_cooldown"`
	Autopilot    bool       `json:"autopilot,omitempty"`
	Placeholder  bool       `json:"placeholder,omitempty"`
}

type CameraState struct {
	Pos    [3]float64 `json:"pos"`
	LookAt [3]float64 `json:"look_at"`
}

type AgentState struct {
	ID       int        `json:"id"`
	Pos      [3]float64 `json:"pos"`
	Vel      [3]float64 `json:"vel"`
	Yaw      float64    `json:"yaw"`
	Moving   bool       `json:"moving"`
	TargetID string     `json:"target_id,omitempty"`
}

// HighlightState carries the wall-clock pulse for the focused object.
// Cosmetic: excluded from replay digests.
type HighlightState struct {
	ObjectID string  `json:"object_id"`
	Opacity  float64 `json:"opacity"`
	Scale    float64 `json:"scale"`
}

type ScrollerState struct {
	FolderID  string          `json:"folder_id"`
	Player    PlayerState     `json:"player"`
	Platforms []PlatformState `json:"platforms"`
	Camera    [2]float64      `json:"camera"`
}

type PlayerState struct {
	Pos       [2]float64 `json:"pos"`
	Vel       [2]float64 `json:"vel"`
	Grounded  bool       `json:"grounded"`
	JumpCount int        `json:"jump_count"`
	MaxJumps  int        `json:"max_jumps"`
}

type PlatformState struct {
	Pos   [2]float64 `json:"pos"`
	Width float64    `json:"width"`
	Label string     `json:"label,omitempty"`
	Kind  string     `json:"kind,omitempty"`
}

type Event struct {
	Name     string       `json:"name"`
	ObjectID string       `json:"object_id,omitempty"`
	Object   *ObjectState `json:"object,omitempty"`
	Mode     string       `json:"mode,omitempty"`
	Enabled  *bool        `json:"enabled,omitempty"`
	Code     string       `json:"code,omitempty"`
	Message  string       `json:"message,omitempty"`
}

// DebugState mirrors the overlay toggled by CmdToggleDebug.
type DebugState struct {
	FlockEnabled    bool    `json:"flock_enabled"`
	AutopilotActive bool    `json:"autopilot_active"`
	FocusScore      float64 `json:"focus_score"`
	MinAgentGap     float64 `json:"min_agent_gap"`
	ObjectCount     int     `json:"object_count"`
	OpenGeoms       int     `json:"open_geoms"`
	OpenMats        int     `json:"open_mats"`
	FolderGeoms     int     `json:"folder_geoms"`
	FolderMats      int     `json:"folder_mats"`
}
