package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Rule/action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrOutOfBounds   = "E_OUT_OF_BOUNDS"
	ErrOccupied      = "E_OCCUPIED"
	ErrNotEditable   = "E_NOT_EDITABLE"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrConflict      = "E_CONFLICT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrInvalidTarget:   {},
	ErrOutOfBounds:     {},
	ErrOccupied:        {},
	ErrNotEditable:     {},
	ErrRateLimit:       {},
	ErrConflict:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
