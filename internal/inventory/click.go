package inventory

// MaxCounter resolves per-item stack limits. *catalogs.ItemCatalog satisfies it.
type MaxCounter interface {
	MaxCount(item string) int
}

// Access is the permission pair a slot exposes to a clicking player.
type Access struct {
	CanTake   bool
	CanInsert func(Stack) bool
}

func (a Access) insertable(s Stack) bool {
	return a.CanInsert == nil || a.CanInsert(s)
}

// Pickup applies one left-click pick-up/place to a slot and returns the new
// cursor and slot contents. It is the only primitive the authority accepts:
//   - empty cursor: take the whole slot
//   - empty slot: place as much of the cursor as fits
//   - combinable stacks: top the slot up, keep the remainder on the cursor
//   - different stacks: swap when both directions are permitted
//
// A combinable cursor clicked onto a full slot is a no-op.
func Pickup(cursor, slot Stack, limits MaxCounter, access Access) (Stack, Stack) {
	switch {
	case cursor.IsEmpty() && slot.IsEmpty():
		return Empty, Empty
	case cursor.IsEmpty():
		if !access.CanTake {
			return cursor, slot
		}
		return slot, Empty
	case slot.IsEmpty():
		if !access.insertable(cursor) {
			return cursor, slot
		}
		n := min(cursor.Count, limits.MaxCount(cursor.Item))
		return cursor.WithCount(cursor.Count - n), cursor.WithCount(n)
	case CanCombine(cursor, slot):
		if !access.insertable(cursor) {
			return cursor, slot
		}
		room := limits.MaxCount(slot.Item) - slot.Count
		if room <= 0 {
			return cursor, slot
		}
		n := min(room, cursor.Count)
		return cursor.WithCount(cursor.Count - n), slot.WithCount(slot.Count + n)
	default:
		if !access.CanTake || !access.insertable(cursor) || cursor.Count > limits.MaxCount(cursor.Item) {
			return cursor, slot
		}
		return slot, cursor
	}
}
