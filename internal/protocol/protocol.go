package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello      = "HELLO"
	TypeWelcome    = "WELCOME"
	TypeOpen       = "OPEN"
	TypeClose      = "CLOSE"
	TypeScreen     = "SCREEN"
	TypeSlotUpdate = "SLOT_UPDATE"
	TypeCursor     = "CURSOR"
	TypeConfirm    = "CONFIRM"
	TypeClick      = "CLICK"
	TypeReorder    = "REORDER"
	TypeError      = "ERROR"
)

// Click actions. Only PICKUP is accepted by the authority.
const (
	ActionPickup = "PICKUP"
)

// PlayerSyncID is the sync id of the always-open player inventory screen.
const PlayerSyncID = 0

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
