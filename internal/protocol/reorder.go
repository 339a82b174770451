package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrOddMappings is returned for a REORDER whose slot_mappings cannot be paired.
var ErrOddMappings = errors.New("reorder: slot_mappings has odd length")

// SlotPair moves the content of Origin into Dest.
type SlotPair struct {
	Origin int
	Dest   int
}

// ReorderRequest is a decoded REORDER: one bulk move declaration for one screen.
type ReorderRequest struct {
	SyncID int
	Pairs  []SlotPair
}

func NewReorderMsg(req ReorderRequest) ReorderMsg {
	flat := make([]int32, 0, len(req.Pairs)*2)
	for _, p := range req.Pairs {
		flat = append(flat, int32(p.Origin), int32(p.Dest))
	}
	return ReorderMsg{
		Type:            TypeReorder,
		ProtocolVersion: Version,
		SyncID:          req.SyncID,
		SlotMappings:    flat,
	}
}

// Request pairs up the flat mappings. Nothing is returned for odd lengths.
func (m ReorderMsg) Request() (ReorderRequest, error) {
	if len(m.SlotMappings)%2 != 0 {
		return ReorderRequest{}, fmt.Errorf("%w (%d)", ErrOddMappings, len(m.SlotMappings))
	}
	req := ReorderRequest{SyncID: m.SyncID, Pairs: make([]SlotPair, 0, len(m.SlotMappings)/2)}
	for i := 0; i < len(m.SlotMappings); i += 2 {
		req.Pairs = append(req.Pairs, SlotPair{Origin: int(m.SlotMappings[i]), Dest: int(m.SlotMappings[i+1])})
	}
	return req, nil
}

func DecodeReorder(b []byte) (ReorderRequest, error) {
	var m ReorderMsg
	if err := json.Unmarshal(b, &m); err != nil {
		return ReorderRequest{}, fmt.Errorf("reorder: %w", err)
	}
	return m.Request()
}
