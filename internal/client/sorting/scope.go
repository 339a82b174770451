package sorting

import "slotsort.ai/internal/protocol"

// Scope returns the slots of screen that sort together with the slot whose
// id is origin: same backing inventory and same section. Armor and offhand
// slots never sort; an unknown origin gives nil.
func Scope(screen []protocol.SlotState, origin int) []protocol.SlotState {
	var key scopeKey
	found := false
	for _, s := range screen {
		if s.ID == origin {
			key, found = scopeOf(s)
			break
		}
	}
	if !found {
		return nil
	}
	var out []protocol.SlotState
	for _, s := range screen {
		if k, ok := scopeOf(s); ok && k == key {
			out = append(out, s)
		}
	}
	return out
}

type scopeKey struct {
	inventory string
	section   string
}

func scopeOf(s protocol.SlotState) (scopeKey, bool) {
	switch s.Section {
	case protocol.SectionArmor, protocol.SectionOffhand:
		return scopeKey{}, false
	}
	return scopeKey{inventory: s.Inventory, section: s.Section}, true
}
