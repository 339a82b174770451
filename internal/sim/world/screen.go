package world

import (
	"strings"

	"slotsort.ai/internal/inventory"
	"slotsort.ai/internal/protocol"
	"slotsort.ai/internal/sim/world/feature/inventory/reorder"
)

// screen is one player's view over backing inventories. Slot ids index slots.
type screen struct {
	syncID    int
	title     string
	container *Container // nil for the player screen
	slots     []screenSlot
}

type screenSlot struct {
	inventory string
	section   string
	backing   []inventory.Stack
	index     int
	access    inventory.Access
}

var openAccess = inventory.Access{CanTake: true}

// playerScreen lays out main, hotbar, armor and offhand under sync id 0.
func (w *World) playerScreen(p *Player) *screen {
	s := &screen{syncID: protocol.PlayerSyncID, title: p.Name}
	s.addPlayerStorage(p)
	for i, part := range armorOrder {
		idx := armorStart + i
		s.slots = append(s.slots, screenSlot{
			inventory: playerInventory,
			section:   protocol.SectionArmor,
			backing:   p.Inv,
			index:     idx,
			access:    w.armorAccess(part, p.Inv[idx]),
		})
	}
	s.slots = append(s.slots, screenSlot{
		inventory: playerInventory,
		section:   protocol.SectionOffhand,
		backing:   p.Inv,
		index:     offhandIndex,
		access:    openAccess,
	})
	return s
}

// containerScreen lays out the container slots followed by main and hotbar.
func (w *World) containerScreen(p *Player, oc *openContainer) *screen {
	s := &screen{syncID: oc.syncID, title: oc.c.Name, container: oc.c}
	inv := containerInventory(oc.c.Name)
	for i := range oc.c.Slots {
		s.slots = append(s.slots, screenSlot{
			inventory: inv,
			section:   protocol.SectionContainer,
			backing:   oc.c.Slots,
			index:     i,
			access:    openAccess,
		})
	}
	s.addPlayerStorage(p)
	return s
}

func (s *screen) addPlayerStorage(p *Player) {
	for i := 0; i < mainSlots; i++ {
		s.slots = append(s.slots, screenSlot{inventory: playerInventory, section: protocol.SectionMain, backing: p.Inv, index: mainStart + i, access: openAccess})
	}
	for i := 0; i < hotbarSlots; i++ {
		s.slots = append(s.slots, screenSlot{inventory: playerInventory, section: protocol.SectionHotbar, backing: p.Inv, index: hotbarStart + i, access: openAccess})
	}
}

// armorAccess only admits items for the given body part and keeps cursed
// pieces in place.
func (w *World) armorAccess(part string, current inventory.Stack) inventory.Access {
	return inventory.Access{
		CanTake: !bound(current),
		CanInsert: func(st inventory.Stack) bool {
			def, ok := w.catalogs.Items.Def(st.Item)
			return ok && def.ArmorSlot == part
		},
	}
}

func bound(s inventory.Stack) bool {
	return !s.IsEmpty() && strings.Contains(s.Components.Enchantments, "binding_curse")
}

func (s *screen) valid(id int) bool { return id >= 0 && id < len(s.slots) }

func (s *screen) stack(id int) inventory.Stack {
	sl := s.slots[id]
	return sl.backing[sl.index]
}

// Slot and SetStack let the reorder validator operate on the screen.
func (s *screen) Slot(id int) (reorder.Slot, bool) {
	if !s.valid(id) {
		return reorder.Slot{}, false
	}
	sl := s.slots[id]
	return reorder.Slot{Inventory: sl.inventory, Stack: sl.backing[sl.index], Access: sl.access}, true
}

func (s *screen) SetStack(id int, st inventory.Stack) {
	sl := s.slots[id]
	sl.backing[sl.index] = st
}

func (s *screen) states() []protocol.SlotState {
	out := make([]protocol.SlotState, len(s.slots))
	for i, sl := range s.slots {
		out[i] = protocol.SlotState{ID: i, Inventory: sl.inventory, Section: sl.section, Stack: sl.backing[sl.index]}
	}
	return out
}

// screenFor resolves the screen a message with syncID targets.
func (w *World) screenFor(p *Player, syncID int) (*screen, bool) {
	if syncID == protocol.PlayerSyncID {
		return w.playerScreen(p), true
	}
	if p.open != nil && p.open.syncID == syncID {
		return w.containerScreen(p, p.open), true
	}
	return nil, false
}

func (w *World) screenMsg(p *Player, s *screen) protocol.ScreenMsg {
	return protocol.ScreenMsg{
		Type:            protocol.TypeScreen,
		ProtocolVersion: protocol.Version,
		SyncID:          s.syncID,
		StateID:         p.stateID,
		Title:           s.title,
		Slots:           s.states(),
		Cursor:          p.Cursor,
	}
}

// currentScreen is the screen the player is looking at.
func (w *World) currentScreen(p *Player) *screen {
	if p.open != nil {
		return w.containerScreen(p, p.open)
	}
	return w.playerScreen(p)
}
