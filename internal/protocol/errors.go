package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoSchema     = "E_PROTO_SCHEMA"

	// Screen routing/state.
	ErrNoScreen     = "E_NO_SCREEN"
	ErrStaleScreen  = "E_STALE_SCREEN"
	ErrUnknownStore = "E_UNKNOWN_CONTAINER"

	// Inventory rule layer.
	ErrBadRequest   = "E_BAD_REQUEST"
	ErrNoPermission = "E_NO_PERMISSION"
	ErrInvalidSlot  = "E_INVALID_SLOT"
	ErrBadReorder   = "E_BAD_REORDER"
	ErrInternal     = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoSchema:     {},
	ErrNoScreen:        {},
	ErrStaleScreen:     {},
	ErrUnknownStore:    {},
	ErrBadRequest:      {},
	ErrNoPermission:    {},
	ErrInvalidSlot:     {},
	ErrBadReorder:      {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
