package sorting

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"slotsort.ai/internal/client/interaction"
	"slotsort.ai/internal/inventory"
	"slotsort.ai/internal/protocol"
	"slotsort.ai/internal/sim/catalogs"
)

func loadOracle(t *testing.T) *inventory.CatalogOracle {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return inventory.NewCatalogOracle(cats)
}

func st(item string, n int) inventory.Stack { return inventory.Stack{Item: item, Count: n} }

// sim replays pick-up clicks against a slot array the way the authority does.
type sim struct {
	slots  []inventory.Stack
	cursor inventory.Stack
	limits inventory.MaxCounter
}

func newSim(stacks []inventory.Stack, limits inventory.MaxCounter) *sim {
	return &sim{slots: append([]inventory.Stack(nil), stacks...), limits: limits}
}

func (s *sim) click(pos int) {
	s.cursor, s.slots[pos] = inventory.Pickup(s.cursor, s.slots[pos], s.limits, inventory.Access{CanTake: true})
}

func (s *sim) clickAll(positions []int) {
	for _, p := range positions {
		s.click(p)
	}
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

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type fakeQueue struct {
	batches [][]interaction.Event
}

func (q *fakeQueue) Enqueue(ev interaction.Event) { q.batches = append(q.batches, []interaction.Event{ev}) }

func (q *fakeQueue) EnqueueBatch(evs []interaction.Event) { q.batches = append(q.batches, evs) }

func (q *fakeQueue) clickSlots() []int {
	var out []int
	for _, b := range q.batches {
		for _, ev := range b {
			if c, ok := ev.(interaction.ClickEvent); ok {
				out = append(out, c.Slot)
			}
		}
	}
	return out
}

func scopeOfStacks(stacks []inventory.Stack, firstID int) []protocol.SlotState {
	out := make([]protocol.SlotState, len(stacks))
	for i, s := range stacks {
		out[i] = protocol.SlotState{ID: firstID + i, Inventory: "chest", Section: protocol.SectionContainer, Stack: s}
	}
	return out
}

func TestMerge_ConsolidatesPartials(t *testing.T) {
	o := loadOracle(t)
	orig := []inventory.Stack{st("STONE", 60), st("DIRT", 3), st("STONE", 10), inventory.Empty, st("STONE", 2)}
	stacks := append([]inventory.Stack(nil), orig...)
	batches := Merge(stacks, o)

	want := [][]int{{4, 0}, {2, 0, 2}}
	if len(batches) != len(want) {
		t.Fatalf("batches=%v", batches)
	}
	for i := range want {
		if !sameInts(batches[i], want[i]) {
			t.Fatalf("batch %d = %v, want %v", i, batches[i], want[i])
		}
	}
	wantStacks := []inventory.Stack{st("STONE", 64), st("DIRT", 3), st("STONE", 8), inventory.Empty, inventory.Empty}
	if !sameStacks(stacks, wantStacks) {
		t.Fatalf("stacks=%v", stacks)
	}

	s := newSim(orig, o)
	for _, b := range batches {
		s.clickAll(b)
	}
	if !sameStacks(s.slots, wantStacks) || !s.cursor.IsEmpty() {
		t.Fatalf("simulated=%v cursor=%v", s.slots, s.cursor)
	}
}

func TestMerge_SkipsLoneSources(t *testing.T) {
	o := loadOracle(t)
	named := inventory.Stack{Item: "STONE", Count: 4, Components: inventory.Components{CustomName: "keep"}}
	stacks := []inventory.Stack{st("STONE", 64), named, st("DIRT", 2)}
	if b := Merge(stacks, o); len(b) != 0 {
		t.Fatalf("expected no batches, got %v", b)
	}
}

func TestPlanPrimitive_ThreeCycle(t *testing.T) {
	o := loadOracle(t)
	stacks := []inventory.Stack{st("STONE", 1), st("DIRT", 1), st("SAND", 1)}
	perm := []int{1, 2, 0}
	clicks := PlanPrimitive(stacks, perm)
	// One pick-up opens the chain, then one click per cycle member; the last
	// click returns to the chain's origin.
	if !sameInts(clicks, []int{1, 0, 2, 1}) {
		t.Fatalf("clicks=%v", clicks)
	}
	s := newSim(stacks, o)
	s.clickAll(clicks)
	if !sameStacks(s.slots, Apply(stacks, perm)) || !s.cursor.IsEmpty() {
		t.Fatalf("slots=%v cursor=%v", s.slots, s.cursor)
	}
}

func TestPlanPrimitive_EmptyBreaksChain(t *testing.T) {
	o := loadOracle(t)
	stacks := []inventory.Stack{st("STONE", 1), st("DIRT", 1), inventory.Empty, st("SAND", 1)}
	perm := []int{3, 0, 1, 2}
	clicks := PlanPrimitive(stacks, perm)
	s := newSim(stacks, o)
	s.clickAll(clicks)
	if !sameStacks(s.slots, Apply(stacks, perm)) || !s.cursor.IsEmpty() {
		t.Fatalf("clicks=%v slots=%v cursor=%v", clicks, s.slots, s.cursor)
	}
}

func TestPlanPrimitive_PartialDeposit(t *testing.T) {
	o := loadOracle(t)
	// The carried partial pearls meet a full stack of pearls in slot 0.
	stacks := []inventory.Stack{st("ENDER_PEARL", 16), st("ENDER_PEARL", 5), st("DIRT", 1)}
	perm := []int{1, 2, 0}
	clicks := PlanPrimitive(stacks, perm)
	if !sameInts(clicks, []int{1, 1, 0, 1, 0, 1, 2, 1}) {
		t.Fatalf("clicks=%v", clicks)
	}
	s := newSim(stacks, o)
	s.clickAll(clicks)
	if !sameStacks(s.slots, Apply(stacks, perm)) || !s.cursor.IsEmpty() {
		t.Fatalf("clicks=%v slots=%v cursor=%v", clicks, s.slots, s.cursor)
	}
}

func TestPlanPrimitive_IdenticalStacksSkipSwap(t *testing.T) {
	stacks := []inventory.Stack{st("STONE", 64), st("STONE", 64)}
	// The swap is skipped; the opened stack is put straight back.
	if clicks := PlanPrimitive(stacks, []int{1, 0}); !sameInts(clicks, []int{1, 1}) {
		t.Fatalf("clicks=%v", clicks)
	}
}

func TestPlanPrimitive_MatchesRemap(t *testing.T) {
	o := loadOracle(t)
	pool := []inventory.Stack{
		st("STONE", 64), st("STONE", 17), st("DIRT", 64), st("DIRT", 9),
		st("ENDER_PEARL", 16), st("ENDER_PEARL", 3), st("IRON_PICKAXE", 1),
		{Item: "STONE", Count: 5, Components: inventory.Components{CustomName: "Marked"}},
		inventory.Empty, inventory.Empty,
	}
	r := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		n := 2 + r.Intn(12)
		orig := make([]inventory.Stack, n)
		for i := range orig {
			orig[i] = pool[r.Intn(len(pool))]
		}
		stacks := append([]inventory.Stack(nil), orig...)
		s := newSim(orig, o)
		for _, b := range Merge(stacks, o) {
			s.clickAll(b)
		}
		if !sameStacks(s.slots, stacks) {
			t.Fatalf("iter %d: merge diverged: sim=%v plan=%v", iter, s.slots, stacks)
		}

		perm := r.Perm(n)
		clicks := PlanPrimitive(stacks, perm)
		s.clickAll(clicks)
		want := Apply(stacks, perm)
		if !sameStacks(s.slots, want) || !s.cursor.IsEmpty() {
			t.Fatalf("iter %d: start=%v perm=%v clicks=%v\n got=%v cursor=%v\nwant=%v",
				iter, stacks, perm, clicks, s.slots, s.cursor, want)
		}
	}
}

func TestOrder_Modes(t *testing.T) {
	o := loadOracle(t)
	stacks := []inventory.Stack{
		inventory.Empty,       // 0
		st("SAND", 10),        // 1 raw 33, creative 6
		st("APPLE", 3),        // 2 raw 789, creative 17
		st("SAND", 20),        // 3
		st("COBBLESTONE", 64), // 4 raw 12, creative 3
		st("MYSTERY", 1),      // 5 unknown everywhere
	}
	cases := []struct {
		mode Mode
		want []int
	}{
		{ModeNone, []int{0, 1, 2, 3, 4, 5}},
		{ModeAlphabet, []int{2, 4, 5, 3, 1, 0}},
		{ModeCreative, []int{4, 3, 1, 2, 5, 0}},
		{ModeQuantity, []int{4, 3, 1, 2, 5, 0}},
		{ModeRawID, []int{4, 3, 1, 2, 5, 0}},
	}
	for _, tc := range cases {
		got := Order(stacks, tc.mode, o, true)
		if !sameInts(got, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.mode, got, tc.want)
		}
	}
}

func TestOrder_CreativeScanMatchesLookup(t *testing.T) {
	o := loadOracle(t)
	book := func(ench string) inventory.Stack {
		return inventory.Stack{Item: "ENCHANTED_BOOK", Count: 1, Components: inventory.Components{Enchantments: ench}}
	}
	stacks := []inventory.Stack{
		book("unbreaking:1"), book("mending:1"), st("STONE", 1), book("sharpness:1"),
		inventory.Empty, st("MYSTERY", 2), st("DIRT", 4),
	}
	fast := Order(stacks, ModeCreative, o, true)
	slow := Order(stacks, ModeCreative, o, false)
	if !sameInts(fast, slow) {
		t.Fatalf("lookup=%v scan=%v", fast, slow)
	}
	// mending is not listed and falls back to the first plain book entry.
	want := []int{2, 6, 1, 3, 0, 5, 4}
	if !sameInts(fast, want) {
		t.Fatalf("got %v want %v", fast, want)
	}
}

func TestOrder_TieBreakByCount(t *testing.T) {
	o := loadOracle(t)
	stacks := []inventory.Stack{st("DIRT", 4), st("DIRT", 64), st("DIRT", 12)}
	if got := Order(stacks, ModeAlphabet, o, true); !sameInts(got, []int{1, 2, 0}) {
		t.Fatalf("got %v", got)
	}
}

func TestSorter_MergeThenIdentity(t *testing.T) {
	o := loadOracle(t)
	q := &fakeQueue{}
	s := New(q, o, Config{SyncID: 3}, nil)
	scope := scopeOfStacks([]inventory.Stack{st("STONE", 5), inventory.Empty, st("STONE", 3)}, 0)
	res := s.Sort(scope, ModeQuantity)
	if res.MergeBatches != 1 || res.Clicks != 2 {
		t.Fatalf("result=%+v", res)
	}
	if !IsIdentity(res.Permutation) {
		t.Fatalf("perm=%v", res.Permutation)
	}
	if len(q.batches) != 1 || !sameInts(q.clickSlots(), []int{2, 0}) {
		t.Fatalf("queued=%v", q.clickSlots())
	}
	c := q.batches[0][0].(interaction.ClickEvent)
	if c.SyncID != 3 || c.Action != protocol.ActionPickup {
		t.Fatalf("click=%+v", c)
	}
}

func TestSorter_SortedInputQueuesNothing(t *testing.T) {
	o := loadOracle(t)
	for _, mode := range []Mode{ModeAlphabet, ModeCreative, ModeQuantity, ModeRawID} {
		q := &fakeQueue{}
		s := New(q, o, Config{}, nil)
		stacks := []inventory.Stack{st("STONE", 64), st("DIRT", 9), st("APPLE", 64), inventory.Empty}
		first := Order(stacks, mode, o, true)
		sorted := Apply(stacks, first)

		res := s.Sort(scopeOfStacks(sorted, 0), mode)
		if !IsIdentity(res.Permutation) || len(q.batches) != 0 {
			t.Fatalf("%s: perm=%v queued=%d", mode, res.Permutation, len(q.batches))
		}
	}
}

func TestSorter_TooFewSlots(t *testing.T) {
	q := &fakeQueue{}
	s := New(q, loadOracle(t), Config{}, nil)
	if res := s.Sort(scopeOfStacks([]inventory.Stack{st("DIRT", 1)}, 0), ModeAlphabet); res.Permutation != nil || len(q.batches) != 0 {
		t.Fatalf("single slot must be a no-op: %+v", res)
	}
	if res := s.Sort(nil, ModeAlphabet); res.Permutation != nil {
		t.Fatalf("empty scope must be a no-op")
	}
}

func TestSorter_BulkPairsUseSlotIDs(t *testing.T) {
	o := loadOracle(t)
	q := &fakeQueue{}
	s := New(q, o, Config{SyncID: 1, Bulk: true}, nil)
	scope := scopeOfStacks([]inventory.Stack{st("DIRT", 1), st("STONE", 1), inventory.Empty}, 10)
	res := s.Sort(scope, ModeCreative)
	if !res.Bulk || res.Clicks != 0 {
		t.Fatalf("result=%+v", res)
	}
	if len(q.batches) != 1 {
		t.Fatalf("queued=%d", len(q.batches))
	}
	ev, ok := q.batches[0][0].(interaction.MessageEvent)
	if !ok {
		t.Fatalf("expected a message event, got %T", q.batches[0][0])
	}
	msg := ev.Payload.(protocol.ReorderMsg)
	req, err := msg.Request()
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	want := []protocol.SlotPair{{Origin: 11, Dest: 10}, {Origin: 10, Dest: 11}, {Origin: 12, Dest: 12}}
	if req.SyncID != 1 || fmt.Sprint(req.Pairs) != fmt.Sprint(want) {
		t.Fatalf("req=%+v", req)
	}
}

func TestScope(t *testing.T) {
	screen := []protocol.SlotState{
		{ID: 0, Inventory: "chest", Section: protocol.SectionContainer},
		{ID: 1, Inventory: "chest", Section: protocol.SectionContainer},
		{ID: 2, Inventory: "player", Section: protocol.SectionMain},
		{ID: 3, Inventory: "player", Section: protocol.SectionMain},
		{ID: 4, Inventory: "player", Section: protocol.SectionHotbar},
		{ID: 5, Inventory: "player", Section: protocol.SectionArmor},
	}
	ids := func(ss []protocol.SlotState) []int {
		var out []int
		for _, s := range ss {
			out = append(out, s.ID)
		}
		return out
	}
	if got := ids(Scope(screen, 1)); !sameInts(got, []int{0, 1}) {
		t.Fatalf("chest scope=%v", got)
	}
	if got := ids(Scope(screen, 3)); !sameInts(got, []int{2, 3}) {
		t.Fatalf("main scope=%v", got)
	}
	if got := Scope(screen, 5); got != nil {
		t.Fatalf("armor must not sort, got %v", ids(got))
	}
	if got := Scope(screen, 99); got != nil {
		t.Fatalf("unknown origin gave %v", ids(got))
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeNone, ModeAlphabet, ModeCreative, ModeQuantity, ModeRawID} {
		got, err := ParseMode(" " + m.String() + " ")
		if err != nil || got != m {
			t.Fatalf("%s: got %v err=%v", m, got, err)
		}
	}
	if _, err := ParseMode("bogo"); err == nil {
		t.Fatalf("expected error")
	}
}
