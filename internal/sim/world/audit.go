package world

import (
	"fmt"

	"github.com/google/uuid"

	"slotsort.ai/internal/protocol"
	"slotsort.ai/internal/sim/world/feature/inventory/reorder"
)

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick    uint64           `json:"tick"`
	Joins   []RecordedJoin   `json:"joins,omitempty"`
	Leaves  []string         `json:"leaves,omitempty"`
	Actions []RecordedAction `json:"actions,omitempty"`
	Digest  string           `json:"digest"`
}

type RecordedAction struct {
	PlayerID string `json:"player_id"`
	Type     string `json:"type"`
	SyncID   int    `json:"sync_id"`
	Slot     int    `json:"slot,omitempty"`
	Button   int    `json:"button,omitempty"`
	Action   string `json:"action,omitempty"`
	// Pairs is the flat origin/dest list of a REORDER.
	Pairs     []int32 `json:"pairs,omitempty"`
	Container string  `json:"container,omitempty"`
	Accepted  bool    `json:"accepted"`
}

// Envelope rebuilds the message a recorded action was decoded from.
func (ra RecordedAction) Envelope() (ActionEnvelope, error) {
	env := ActionEnvelope{PlayerID: ra.PlayerID}
	switch ra.Type {
	case protocol.TypeClick:
		env.Msg = protocol.ClickMsg{Type: ra.Type, ProtocolVersion: protocol.Version, SyncID: ra.SyncID, Slot: ra.Slot, Button: ra.Button, Action: ra.Action}
	case protocol.TypeReorder:
		req, err := protocol.ReorderMsg{SyncID: ra.SyncID, SlotMappings: ra.Pairs}.Request()
		if err != nil {
			return env, err
		}
		env.Msg = req
	case protocol.TypeOpen:
		env.Msg = protocol.OpenMsg{Type: ra.Type, ProtocolVersion: protocol.Version, Container: ra.Container}
	case protocol.TypeClose:
		env.Msg = protocol.CloseMsg{Type: ra.Type, ProtocolVersion: protocol.Version, SyncID: ra.SyncID}
	default:
		return env, fmt.Errorf("unknown recorded action type %q", ra.Type)
	}
	return env, nil
}

// AuditEntry records one reorder decision, accepted or not.
type AuditEntry struct {
	ID        string  `json:"id"`
	Tick      uint64  `json:"tick"`
	PlayerID  string  `json:"player_id"`
	Name      string  `json:"name"`
	SyncID    int     `json:"sync_id"`
	Inventory string  `json:"inventory,omitempty"`
	Pairs     []int32 `json:"pairs"`
	Accepted  bool    `json:"accepted"`
	Code      string  `json:"code,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	Severe    bool    `json:"severe,omitempty"`
}

func (w *World) auditReorder(nowTick uint64, p *Player, req protocol.ReorderRequest, inv string, err error) {
	if w.auditLogger == nil {
		return
	}
	e := AuditEntry{
		ID:        uuid.NewString(),
		Tick:      nowTick,
		PlayerID:  p.ID,
		Name:      p.Name,
		SyncID:    req.SyncID,
		Inventory: inv,
		Pairs:     protocol.NewReorderMsg(req).SlotMappings,
		Accepted:  err == nil,
	}
	if err != nil {
		e.Code = reorder.Code(err)
		e.Reason = err.Error()
		e.Severe = reorder.Severe(err)
	}
	if werr := w.auditLogger.WriteAudit(e); werr != nil {
		w.logger.Printf("WARN audit write: %v", werr)
	}
}
