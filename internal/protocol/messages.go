package protocol

// Named intents carried by INPUT messages. Key bindings are a client
// concern; the server only sees intent names.
const (
	IntentForward  = "forward"
	IntentBackward = "backward"
	IntentLeft     = "left"
	IntentRight    = "right"
	IntentUp       = "up"
	IntentDown     = "down"
	IntentJump     = "jump"
)

// Command names carried by CMD messages (fire and forget).
const (
	CmdDash          = "dash"
	CmdToggleFlock   = "toggle_flock"
	CmdToggleDebug   = "toggle_debug"
	CmdRealignCamera = "realign_camera"
	CmdEnterFolder   = "enter_folder"
	CmdExitFolder    = "exit_folder"
)

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name"`
	Role            string            `json:"role,omitempty"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
}

type HelloCapabilities struct {
	MaxQueue int `json:"max_queue,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	ClientID        string        `json:"client_id"`
	Role            string        `json:"role"`
	WorldParams     WorldParams   `json:"world_params"`
	Models          ModelManifest `json:"models"`
	Objects         []ObjectState `json:"objects"`
}

type WorldParams struct {
	TickRateHz int        `json:"tick_rate_hz"`
	Seed       int64      `json:"seed"`
	TankWidth  float64    `json:"tank_width"`
	FloorY     float64    `json:"floor_y"`
	CeilingY   float64    `json:"ceiling_y"`
	Mode       string     `json:"mode"`
	Spawn      [3]float64 `json:"spawn"`
}

type ModelManifest struct {
	Avatar ModelInfo `json:"avatar"`
	Agent  ModelInfo `json:"agent"`
}

type ModelInfo struct {
	Name       string   `json:"name"`
	Mesh       string   `json:"mesh"`
	Animations []string `json:"animations,omitempty"`
	Scale      float64  `json:"scale,omitempty"`
}

// ObjectState is the wire form of a placed world object. Meta fields are
// display-only; the sim reads nothing but id, pos and type.
type ObjectState struct {
	ID        string     `json:"id"`
	Pos       [3]float64 `json:"pos"`
	Yaw       float64    `json:"yaw"`
	Scale     float64    `json:"scale"`
	ObjType   string     `json:"obj_type"`
	Name      string     `json:"name"`
	SizeText  string     `json:"size_text,omitempty"`
	SizeBytes int64      `json:"size_bytes,omitempty"`
	Count     int        `json:"count,omitempty"`
}

// ERROR (server -> client), sent before close on handshake failure.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}

// INPUT (pilot -> server): one intent edge, pressed or released.
type InputMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Intent          string `json:"intent"`
	Pressed         bool   `json:"pressed"`
}

// CMD (pilot -> server)
type CommandMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name"`
}
