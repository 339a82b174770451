package reorder

import (
	"errors"
	"testing"

	"slotsort.ai/internal/inventory"
	"slotsort.ai/internal/protocol"
)

type fakeScreen struct {
	slots []Slot
}

func (f *fakeScreen) Slot(id int) (Slot, bool) {
	if id < 0 || id >= len(f.slots) {
		return Slot{}, false
	}
	return f.slots[id], true
}

func (f *fakeScreen) SetStack(id int, s inventory.Stack) { f.slots[id].Stack = s }

func (f *fakeScreen) stacks() []inventory.Stack {
	out := make([]inventory.Stack, len(f.slots))
	for i, s := range f.slots {
		out[i] = s.Stack
	}
	return out
}

var open = inventory.Access{CanTake: true}

func newScreen() *fakeScreen {
	return &fakeScreen{slots: []Slot{
		{Inventory: "chest", Stack: inventory.Stack{Item: "STONE", Count: 3}, Access: open},
		{Inventory: "chest", Stack: inventory.Stack{Item: "DIRT", Count: 7}, Access: open},
		{Inventory: "chest", Stack: inventory.Stack{Item: "SAND", Count: 1}, Access: open},
		{Inventory: "chest", Access: open},
		{Inventory: "player", Stack: inventory.Stack{Item: "APPLE", Count: 2}, Access: open},
	}}
}

func pairs(flat ...int) []protocol.SlotPair {
	out := make([]protocol.SlotPair, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		out = append(out, protocol.SlotPair{Origin: flat[i], Dest: flat[i+1]})
	}
	return out
}

func sameStacks(a, b []inventory.Stack) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !inventory.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func TestApply_Cycle(t *testing.T) {
	s := newScreen()
	before := s.stacks()
	// 0 -> 1, 1 -> 2, 2 -> 0: overlapping chain must read from the snapshot.
	if err := Apply(s, pairs(0, 1, 1, 2, 2, 0)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got := s.stacks()
	if !inventory.Equal(got[1], before[0]) || !inventory.Equal(got[2], before[1]) || !inventory.Equal(got[0], before[2]) {
		t.Fatalf("got %v", got)
	}
}

func TestApply_IdentityPairsAllowed(t *testing.T) {
	s := newScreen()
	s.slots[3].Access = inventory.Access{} // locked, but untouched
	if err := Apply(s, pairs(0, 1, 1, 0, 3, 3)); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func TestCheck_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		pairs []protocol.SlotPair
		setup func(*fakeScreen)
		want  error
	}{
		{"duplicate destination", pairs(0, 0, 1, 0), nil, ErrDestination},
		{"one pair", pairs(0, 1), nil, ErrTooFewPairs},
		{"no pairs", nil, nil, ErrTooFewPairs},
		{"unknown origin", pairs(9, 0, 0, 9), nil, ErrUnknownSlot},
		{"unknown destination", pairs(0, 9, 1, 0), nil, ErrUnknownSlot},
		{"negative slot", pairs(0, -1, -1, 0), nil, ErrUnknownSlot},
		{"mixed inventories", pairs(0, 4, 4, 0), nil, ErrMixedInventories},
		{"duplicate origin", pairs(0, 1, 0, 2), nil, ErrDuplicateOrigin},
		{"destination outside origins", pairs(0, 1, 1, 3), nil, ErrDestination},
		{"cannot take", pairs(0, 1, 1, 0), func(f *fakeScreen) { f.slots[0].Access.CanTake = false }, ErrNoTake},
		{"cannot insert", pairs(0, 1, 1, 0), func(f *fakeScreen) {
			f.slots[1].Access.CanInsert = func(s inventory.Stack) bool { return s.Item != "STONE" }
		}, ErrNoInsert},
	}
	for _, tc := range cases {
		s := newScreen()
		if tc.setup != nil {
			tc.setup(s)
		}
		before := s.stacks()
		err := Apply(s, tc.pairs)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: err=%v want %v", tc.name, err, tc.want)
		}
		if !sameStacks(before, s.stacks()) {
			t.Fatalf("%s: state changed on reject", tc.name)
		}
		if Severe(err) {
			t.Fatalf("%s: ordinary rejection reported as severe", tc.name)
		}
	}
}

func TestCheck_InsertIgnoredForEmptyOrigin(t *testing.T) {
	s := newScreen()
	s.slots[0].Access.CanInsert = func(inventory.Stack) bool { return false }
	// Slot 3 is empty; moving nothing into slot 0 needs no insert permission,
	// but STONE out of 0 still needs 3 to accept it, which it does.
	if err := Check(s, pairs(3, 0, 0, 3)); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestDrainDestinations_Invariant(t *testing.T) {
	requested := map[int]struct{}{0: {}, 1: {}, 7: {}}
	err := drainDestinations(requested, pairs(0, 1, 1, 0))
	if !errors.Is(err, ErrInvariant) || !Severe(err) {
		t.Fatalf("err=%v", err)
	}
	if Code(err) != protocol.ErrInternal {
		t.Fatalf("code=%q", Code(err))
	}
}

func TestCode(t *testing.T) {
	cases := map[error]string{
		nil:                 "",
		ErrUnknownSlot:      protocol.ErrInvalidSlot,
		ErrNoTake:           protocol.ErrNoPermission,
		ErrNoInsert:         protocol.ErrNoPermission,
		ErrDestination:      protocol.ErrBadReorder,
		ErrMixedInventories: protocol.ErrBadReorder,
		ErrTooFewPairs:      protocol.ErrBadReorder,
	}
	for err, want := range cases {
		if got := Code(err); got != want {
			t.Fatalf("Code(%v)=%q want %q", err, got, want)
		}
		if !protocol.IsKnownCode(Code(err)) {
			t.Fatalf("unknown code for %v", err)
		}
	}
}
