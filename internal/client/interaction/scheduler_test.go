package interaction

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type click struct{ sync, slot int }

type fakeRemote struct {
	mu     sync.Mutex
	clicks []click
	sent   []any
	err    error
	// onSend runs after a message is recorded, outside mu.
	onSend func(msg any)
}

func (r *fakeRemote) Click(syncID, slot, button int, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clicks = append(r.clicks, click{syncID, slot})
	return r.err
}

func (r *fakeRemote) Send(msg any) error {
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	err := r.err
	r.mu.Unlock()
	if r.onSend != nil {
		r.onSend(msg)
	}
	return err
}

func (r *fakeRemote) clickSlots() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.clicks))
	for _, c := range r.clicks {
		out = append(out, c.slot)
	}
	return out
}

func (r *fakeRemote) sentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func newTestScheduler() (*Scheduler, *fakeRemote, *MainLoop) {
	r := &fakeRemote{}
	exec := NewMainLoop(nil)
	return New(r, exec, nil), r, exec
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

func TestScheduler_TickWhileIdleIsNoop(t *testing.T) {
	s, r, exec := newTestScheduler()
	s.NotifyTrigger(Tick)
	if !s.IsIdle() {
		t.Fatalf("expected idle")
	}
	if exec.RunPending() != 0 || len(r.clickSlots()) != 0 {
		t.Fatalf("expected no work")
	}
}

func TestScheduler_ClicksArePacedByTicks(t *testing.T) {
	s, r, exec := newTestScheduler()
	s.EnqueueBatch([]Event{Pickup(0, 1), Pickup(0, 2), Pickup(0, 3)})

	if got := r.clickSlots(); len(got) != 0 {
		t.Fatalf("click must wait for the main executor, got %v", got)
	}
	if s.IsIdle() {
		t.Fatalf("hand-off in flight must not look idle")
	}
	exec.RunPending()
	if got := r.clickSlots(); !sameInts(got, []int{1}) {
		t.Fatalf("after first hand-off: %v", got)
	}

	// Non-tick triggers do not advance a TickWaiter.
	s.NotifyTrigger(SlotUpdate)
	exec.RunPending()
	if got := r.clickSlots(); !sameInts(got, []int{1}) {
		t.Fatalf("slot update advanced tick waiter: %v", got)
	}

	for i := 0; i < 2; i++ {
		s.NotifyTrigger(Tick)
		exec.RunPending()
	}
	if got := r.clickSlots(); !sameInts(got, []int{1, 2, 3}) {
		t.Fatalf("clicks=%v", got)
	}
	s.NotifyTrigger(Tick)
	if !s.IsIdle() {
		t.Fatalf("expected idle after last tick")
	}
}

func TestScheduler_TriggerDuringHandoffIsAbsorbed(t *testing.T) {
	s, r, exec := newTestScheduler()
	s.EnqueueBatch([]Event{Pickup(0, 1), Pickup(0, 2)})
	// Placeholder waiter rejects everything until the hand-off lands.
	s.NotifyTrigger(Tick)
	s.NotifyTrigger(Tick)
	exec.RunPending()
	if got := r.clickSlots(); !sameInts(got, []int{1}) {
		t.Fatalf("clicks=%v", got)
	}
}

func TestScheduler_ClearMidChain(t *testing.T) {
	s, r, exec := newTestScheduler()
	s.EnqueueBatch([]Event{Pickup(0, 1), Pickup(0, 2), Pickup(0, 3)})
	exec.RunPending()
	s.NotifyTrigger(Tick) // hands off slot 2
	s.Clear()
	if !s.IsIdle() {
		t.Fatalf("expected idle after clear")
	}
	exec.RunPending()
	s.NotifyTrigger(Tick)
	exec.RunPending()
	if got := r.clickSlots(); !sameInts(got, []int{1}) {
		t.Fatalf("no primitive may be dispatched after clear, got %v", got)
	}
	if !s.IsIdle() {
		t.Fatalf("stale hand-off must not install a waiter")
	}
}

func TestScheduler_StaleHandoffDropped(t *testing.T) {
	s, r, exec := newTestScheduler()
	s.Enqueue(Pickup(0, 7))
	s.Clear()
	s.Enqueue(Pickup(0, 8))
	exec.RunPending()
	if got := r.clickSlots(); !sameInts(got, []int{8}) {
		t.Fatalf("clicks=%v", got)
	}
}

func TestScheduler_CountUntilWaiter(t *testing.T) {
	r := &fakeRemote{}
	s := New(r, nil, nil)
	s.EnqueueBatch([]Event{
		MessageEvent{Payload: "a", Wait: SlotUpdates(2)},
		MessageEvent{Payload: "b", Wait: Always()},
	})
	if r.sentCount() != 1 {
		t.Fatalf("sent=%d", r.sentCount())
	}
	s.NotifyTrigger(SlotUpdate)
	if r.sentCount() != 1 {
		t.Fatalf("advanced after one of two slot updates")
	}
	s.NotifyTrigger(Tick)
	s.NotifyTrigger(SlotUpdate)
	if r.sentCount() != 2 {
		t.Fatalf("sent=%d after second slot update", r.sentCount())
	}
	if !s.IsIdle() {
		t.Fatalf("Always waiter on the last event should leave queue idle")
	}
}

func TestScheduler_ImmediateWaitersChain(t *testing.T) {
	s, _, _ := newTestScheduler()
	var order []int
	var evs []Event
	for i := 0; i < 4; i++ {
		i := i
		evs = append(evs, CallbackEvent{Fn: func() Waiter { order = append(order, i); return Always() }})
	}
	s.EnqueueBatch(evs)
	if !sameInts(order, []int{0, 1, 2, 3}) {
		t.Fatalf("order=%v", order)
	}
	if !s.IsIdle() {
		t.Fatalf("expected idle")
	}
}

func TestScheduler_MainCallbackResumesDrain(t *testing.T) {
	s, r, exec := newTestScheduler()
	ran := false
	s.EnqueueBatch([]Event{
		CallbackEvent{Fn: func() Waiter { ran = true; return Always() }, Main: true},
		MessageEvent{Payload: "after"},
	})
	if ran || r.sentCount() != 0 {
		t.Fatalf("main callback must wait for executor")
	}
	exec.RunPending()
	if !ran || r.sentCount() != 1 {
		t.Fatalf("ran=%v sent=%d", ran, r.sentCount())
	}
}

func TestScheduler_NilIgnored(t *testing.T) {
	s, _, _ := newTestScheduler()
	s.Enqueue(nil)
	s.EnqueueBatch([]Event{nil, nil})
	if !s.IsIdle() || s.Pending() != 0 {
		t.Fatalf("nil events must be ignored")
	}
}

func TestScheduler_DispatchErrorKeepsPacing(t *testing.T) {
	r := &fakeRemote{err: errors.New("closed")}
	s := New(r, nil, nil)
	s.EnqueueBatch([]Event{Pickup(0, 1), Pickup(0, 2)})
	if got := r.clickSlots(); !sameInts(got, []int{1}) {
		t.Fatalf("clicks=%v", got)
	}
	s.NotifyTrigger(Tick)
	if got := r.clickSlots(); !sameInts(got, []int{1, 2}) {
		t.Fatalf("clicks=%v", got)
	}
}

func TestScheduler_TickRecoversPanics(t *testing.T) {
	s := New(&fakeRemote{}, nil, nil)
	s.SetWaiter(TickWaiter())
	s.Enqueue(CallbackEvent{Fn: func() Waiter { panic("boom") }})
	s.tick()
	// The panicking callback counts as Always and the queue drains.
	if s.Pending() != 0 || !s.IsIdle() {
		t.Fatalf("pending=%d", s.Pending())
	}
}

func TestScheduler_SetTickRate(t *testing.T) {
	r := &fakeRemote{}
	s := New(r, nil, nil)
	defer s.Close()
	s.EnqueueBatch([]Event{
		MessageEvent{Payload: 1, Wait: TickWaiter()},
		MessageEvent{Payload: 2, Wait: TickWaiter()},
		MessageEvent{Payload: 3, Wait: TickWaiter()},
	})
	s.SetTickRate(time.Hour)
	s.SetTickRate(time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for !s.IsIdle() {
		if time.Now().After(deadline) {
			t.Fatalf("ticks did not drain queue, sent=%d", r.sentCount())
		}
		time.Sleep(time.Millisecond)
	}
	if r.sentCount() != 3 {
		t.Fatalf("sent=%d", r.sentCount())
	}
}

func TestWaiter(t *testing.T) {
	w := CountUntil(GuiConfirm, 2)
	if w.Trigger(Initial) || w.Trigger(GuiConfirm) || !w.Trigger(GuiConfirm) {
		t.Fatalf("count waiter sequence wrong")
	}
	n := Never()
	if n.Trigger(Tick) || n.Trigger(Initial) {
		t.Fatalf("never waiter advanced")
	}
	var zero Waiter
	if !zero.Trigger(Initial) {
		t.Fatalf("zero waiter should behave like always")
	}
	if c := CountUntil(Tick, 0); !c.Trigger(Initial) {
		t.Fatalf("count 0 should be immediate")
	}
	e := Equals(HeldItemChange)
	if e.Trigger(Tick) || !e.Trigger(HeldItemChange) {
		t.Fatalf("equals waiter wrong")
	}
}

// within fails the test if fn does not return in time.
func within(t *testing.T, what string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s did not return", what)
	}
}

func TestScheduler_CallbackMayEnqueue(t *testing.T) {
	r := &fakeRemote{}
	s := New(r, nil, nil)
	within(t, "enqueue from callback", func() {
		s.Enqueue(CallbackEvent{Fn: func() Waiter {
			s.Enqueue(MessageEvent{Payload: "follow-up", Wait: Always()})
			return Always()
		}})
	})
	if r.sentCount() != 1 || !s.IsIdle() {
		t.Fatalf("sent=%d idle=%v", r.sentCount(), s.IsIdle())
	}
}

func TestScheduler_MainCallbackMayQueryScheduler(t *testing.T) {
	s, r, exec := newTestScheduler()
	pending, idle := -1, true
	s.EnqueueBatch([]Event{
		CallbackEvent{Fn: func() Waiter {
			pending, idle = s.Pending(), s.IsIdle()
			return Always()
		}, Main: true},
		MessageEvent{Payload: "after"},
	})
	within(t, "main callback", func() { exec.RunPending() })
	if pending != 1 || idle {
		t.Fatalf("pending=%d idle=%v inside callback", pending, idle)
	}
	if r.sentCount() != 1 || !s.IsIdle() {
		t.Fatalf("sent=%d idle=%v", r.sentCount(), s.IsIdle())
	}
}

func TestScheduler_ClearInsideCallback(t *testing.T) {
	r := &fakeRemote{}
	s := New(r, nil, nil)
	within(t, "clear from callback", func() {
		s.EnqueueBatch([]Event{
			CallbackEvent{Fn: func() Waiter {
				s.Clear()
				s.Enqueue(MessageEvent{Payload: "fresh", Wait: Always()})
				return Never()
			}},
			MessageEvent{Payload: "dropped"},
		})
	})
	if r.sentCount() != 1 || r.sent[0] != "fresh" {
		t.Fatalf("sent=%v", r.sent)
	}
	if !s.IsIdle() {
		t.Fatalf("stale callback waiter was installed")
	}
}

func TestScheduler_AckDuringSendIsKept(t *testing.T) {
	r := &fakeRemote{}
	s := New(r, nil, nil)
	// The authority answers before Send returns.
	r.onSend = func(msg any) {
		if msg == "a" {
			s.NotifyTrigger(SlotUpdate)
		}
	}
	within(t, "send with inline ack", func() {
		s.EnqueueBatch([]Event{
			MessageEvent{Payload: "a", Wait: SlotUpdates(1)},
			MessageEvent{Payload: "b", Wait: Always()},
		})
	})
	if r.sentCount() != 2 || !s.IsIdle() {
		t.Fatalf("sent=%d idle=%v", r.sentCount(), s.IsIdle())
	}
}

func TestScheduler_PanickingMainEventDoesNotStall(t *testing.T) {
	s, r, exec := newTestScheduler()
	s.EnqueueBatch([]Event{
		CallbackEvent{Fn: func() Waiter { panic("boom") }, Main: true},
		MessageEvent{Payload: "after"},
	})
	exec.RunPending()
	if r.sentCount() != 1 || !s.IsIdle() {
		t.Fatalf("sent=%d idle=%v", r.sentCount(), s.IsIdle())
	}
}
