package world

import (
	"encoding/json"
	"sort"

	"slotsort.ai/internal/protocol"
)

// send never blocks the world loop. A dropped message marks the client out
// of sync so the end of the step resends its whole screen.
func (w *World) send(p *Player, msg any) {
	cl := w.clients[p.ID]
	if cl == nil || cl.Out == nil {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		w.logger.Printf("WARN marshal %T: %v", msg, err)
		return
	}
	select {
	case cl.Out <- b:
	default:
		cl.Desync = true
	}
}

func (w *World) sendScreen(p *Player, s *screen) { w.send(p, w.screenMsg(p, s)) }

func (w *World) sendError(p *Player, code, message string) {
	w.send(p, protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         message,
	})
}

func (w *World) confirm(p *Player, syncID int, accepted bool, code string) {
	w.send(p, protocol.ConfirmMsg{
		Type:            protocol.TypeConfirm,
		ProtocolVersion: protocol.Version,
		SyncID:          syncID,
		StateID:         p.stateID,
		Accepted:        accepted,
		Code:            code,
	})
}

func (w *World) slotUpdate(p *Player, s *screen, id int) {
	w.send(p, protocol.SlotUpdateMsg{
		Type:            protocol.TypeSlotUpdate,
		ProtocolVersion: protocol.Version,
		SyncID:          s.syncID,
		StateID:         p.stateID,
		Slot:            id,
		Stack:           s.stack(id),
	})
}

func (w *World) cursorUpdate(p *Player, syncID int) {
	w.send(p, protocol.CursorMsg{
		Type:            protocol.TypeCursor,
		ProtocolVersion: protocol.Version,
		SyncID:          syncID,
		Stack:           p.Cursor,
	})
}

func (w *World) resyncDesynced() {
	ids := make([]string, 0)
	for id, cl := range w.clients {
		if cl.Desync {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := w.players[id]
		if p == nil {
			continue
		}
		w.clients[id].Desync = false
		w.sendScreen(p, w.currentScreen(p))
	}
}
