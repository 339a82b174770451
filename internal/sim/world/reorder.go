package world

import (
	"slotsort.ai/internal/protocol"
	"slotsort.ai/internal/sim/world/feature/inventory/reorder"
)

// handleReorder validates and applies a bulk reorder. handled is false when
// the sync id matches neither the player screen nor the open container; such
// requests are ignored.
func (w *World) handleReorder(p *Player, req protocol.ReorderRequest, nowTick uint64) (accepted, handled bool) {
	s, ok := w.screenFor(p, req.SyncID)
	if !ok {
		w.logger.Printf("WARN reorder from %s ignored: sync id %d is not open", p.ID, req.SyncID)
		return false, false
	}

	inv := ""
	if len(req.Pairs) > 0 {
		if first, ok := s.Slot(req.Pairs[0].Origin); ok {
			inv = first.Inventory
		}
	}

	err := reorder.Apply(s, req.Pairs)
	w.auditReorder(nowTick, p, req, inv, err)
	w.counters.reorders++
	if err != nil {
		w.counters.rejected++
		if reorder.Severe(err) {
			w.counters.severe++
			w.logger.Printf("SEVERE reorder from %s refused: %v", p.ID, err)
		} else {
			w.logger.Printf("WARN reorder from %s rejected: %v", p.ID, err)
		}
		w.confirm(p, req.SyncID, false, reorder.Code(err))
		return false, true
	}

	p.stateID++
	w.sendScreen(p, s)
	w.confirm(p, req.SyncID, true, "")
	if s.container != nil && inv == containerInventory(s.container.Name) {
		for _, v := range w.otherViewers(s.container, p) {
			v.stateID++
			w.sendScreen(v, w.containerScreen(v, v.open))
		}
	}
	return true, true
}
