package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrBadVersion      = "E_BAD_VERSION"
	ErrPilotTaken      = "E_PILOT_TAKEN"

	// Input/command layer.
	ErrBadIntent = "E_BAD_INTENT"
	ErrBadCmd    = "E_BAD_CMD"
	ErrBadMode   = "E_BAD_MODE"
	ErrNotFolder = "E_NOT_FOLDER"
	ErrRateLimit = "E_RATE_LIMIT"
	ErrInternal  = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadVersion:      {},
	ErrPilotTaken:      {},
	ErrBadIntent:       {},
	ErrBadCmd:          {},
	ErrBadMode:         {},
	ErrNotFolder:       {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
