package world

import (
	"slotsort.ai/internal/inventory"
	"slotsort.ai/internal/protocol"
)

func (w *World) applyAction(p *Player, msg any, nowTick uint64) (RecordedAction, bool) {
	switch m := msg.(type) {
	case protocol.ClickMsg:
		ok := w.handleClick(p, m)
		return RecordedAction{PlayerID: p.ID, Type: protocol.TypeClick, SyncID: m.SyncID, Slot: m.Slot, Button: m.Button, Action: m.Action, Accepted: ok}, true
	case protocol.ReorderRequest:
		ok, handled := w.handleReorder(p, m, nowTick)
		if !handled {
			return RecordedAction{}, false
		}
		return RecordedAction{PlayerID: p.ID, Type: protocol.TypeReorder, SyncID: m.SyncID, Pairs: protocol.NewReorderMsg(m).SlotMappings, Accepted: ok}, true
	case protocol.OpenMsg:
		w.openContainer(p, m)
		return RecordedAction{PlayerID: p.ID, Type: protocol.TypeOpen, Container: m.Container, Accepted: p.open != nil}, true
	case protocol.CloseMsg:
		w.handleClose(p, m)
		return RecordedAction{PlayerID: p.ID, Type: protocol.TypeClose, SyncID: m.SyncID, Accepted: true}, true
	default:
		w.logger.Printf("WARN %s: unsupported action %T", p.ID, msg)
		return RecordedAction{}, false
	}
}

// handleClick applies one PICKUP and answers with the changed slot, the
// cursor and a CONFIRM.
func (w *World) handleClick(p *Player, m protocol.ClickMsg) bool {
	s, ok := w.screenFor(p, m.SyncID)
	switch {
	case !ok:
		w.confirm(p, m.SyncID, false, protocol.ErrStaleScreen)
		return false
	case m.Action != protocol.ActionPickup || m.Button != 0:
		w.confirm(p, m.SyncID, false, protocol.ErrBadRequest)
		return false
	case !s.valid(m.Slot):
		w.confirm(p, m.SyncID, false, protocol.ErrInvalidSlot)
		return false
	}

	w.counters.clicks++
	sl := s.slots[m.Slot]
	before := sl.backing[sl.index]
	cursor, after := inventory.Pickup(p.Cursor, before, &w.catalogs.Items, sl.access)
	slotChanged := !inventory.Equal(before, after)
	cursorChanged := !inventory.Equal(p.Cursor, cursor)
	sl.backing[sl.index] = after
	p.Cursor = cursor
	if slotChanged || cursorChanged {
		p.stateID++
	}

	if slotChanged {
		w.slotUpdate(p, s, m.Slot)
		if s.container != nil && m.Slot < len(s.container.Slots) {
			w.broadcastContainerSlot(s.container, p, m.Slot)
		}
	}
	if cursorChanged {
		w.cursorUpdate(p, m.SyncID)
	}
	w.confirm(p, m.SyncID, true, "")
	return true
}

// broadcastContainerSlot forwards a container slot change to the other viewers.
// Container slots carry the same id on every container screen.
func (w *World) broadcastContainerSlot(c *Container, actor *Player, id int) {
	for _, v := range w.otherViewers(c, actor) {
		vs := w.containerScreen(v, v.open)
		v.stateID++
		w.slotUpdate(v, vs, id)
	}
}
