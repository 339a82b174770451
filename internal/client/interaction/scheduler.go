// Package interaction paces client inventory interactions against the
// authority. Events wait in one FIFO; after each dispatch a Waiter decides
// which trigger lets the next event go.
package interaction

import (
	"io"
	"log"
	"sync"
	"time"
)

type Scheduler struct {
	remote Remote
	exec   Executor
	log    *log.Logger

	mu     sync.Mutex
	queue  []Event
	waiter *Waiter // nil when idle
	// handoff is the token of the in-flight dispatch, 0 when none. A dispatch
	// whose token is no longer current when it returns is discarded.
	handoff uint64
	seq     uint64
	// Events run with mu released. Triggers that arrive meanwhile are kept in
	// early and offered to the Waiter the event returns.
	dispatching bool
	early       []TriggerKind

	tickMu   sync.Mutex
	tickStop chan struct{}
}

// New returns an idle scheduler. A nil exec dispatches main-context events
// inline on the triggering goroutine.
func New(remote Remote, exec Executor, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Scheduler{remote: remote, exec: exec, log: logger}
}

// Enqueue appends ev and starts draining when no Waiter is active. nil is ignored.
// Events may call Enqueue from their own dispatch.
func (s *Scheduler) Enqueue(ev Event) {
	if ev == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, ev)
	if s.waiter == nil && !s.dispatching {
		s.drainLocked(Initial)
	}
}

// EnqueueBatch appends all events before deciding whether to drain, so
// triggers from other goroutines cannot interleave with the batch.
func (s *Scheduler) EnqueueBatch(evs []Event) {
	if len(evs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range evs {
		if ev != nil {
			s.queue = append(s.queue, ev)
		}
	}
	if s.waiter == nil && !s.dispatching {
		s.drainLocked(Initial)
	}
}

// NotifyTrigger is the single entry point for acknowledgments, confirms and
// ticks. Safe for concurrent use.
func (s *Scheduler) NotifyTrigger(k TriggerKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatching {
		s.early = append(s.early, k)
		return
	}
	s.drainLocked(k)
}

func (s *Scheduler) drainLocked(k TriggerKind) {
	if s.waiter != nil && !s.waiter.Trigger(k) {
		return
	}
	s.runLocked()
}

// runLocked dispatches until the queue is empty, a fresh Waiter rejects the
// Initial self-check, or a main-context event is handed off.
func (s *Scheduler) runLocked() {
	for {
		if len(s.queue) == 0 {
			s.waiter = nil
			s.early = nil
			return
		}
		ev := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]

		token := s.parkLocked()
		if ev.OnMain() && s.exec != nil {
			s.early = nil
			s.exec.Submit(func() { s.completeHandoff(token, ev) })
			return
		}
		if !s.invokeLocked(token, ev) {
			return
		}
	}
}

// parkLocked installs a non-advancing placeholder under a fresh token.
func (s *Scheduler) parkLocked() uint64 {
	s.seq++
	s.handoff = s.seq
	placeholder := Never()
	s.waiter = &placeholder
	return s.seq
}

// invokeLocked dispatches ev with mu released and installs the resulting
// Waiter if token is still current. It reports whether draining may go on.
func (s *Scheduler) invokeLocked(token uint64, ev Event) bool {
	s.dispatching = true
	s.mu.Unlock()
	w := s.send(ev)
	s.mu.Lock()
	s.dispatching = false

	if s.handoff != token {
		// Clear or SetWaiter ran during the dispatch.
		s.log.Printf("dropping stale dispatch %d", token)
		s.early = nil
		return s.waiter == nil && len(s.queue) > 0
	}
	s.handoff = 0
	s.waiter = &w
	if s.waiter.Trigger(Initial) {
		return true
	}
	for len(s.early) > 0 {
		k := s.early[0]
		s.early = s.early[1:]
		if s.waiter.Trigger(k) {
			return true
		}
	}
	return false
}

// completeHandoff runs on the main executor. It dispatches ev only if token
// is still the current hand-off; Clear or SetWaiter makes it stale.
func (s *Scheduler) completeHandoff(token uint64, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handoff != token {
		s.log.Printf("dropping stale hand-off %d", token)
		return
	}
	if s.invokeLocked(token, ev) {
		s.runLocked()
	}
}

// send dispatches ev. A panicking event is logged and treated as Always so
// the queue keeps moving.
func (s *Scheduler) send(ev Event) (w Waiter) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Printf("WARN dispatch %T panicked: %v", ev, r)
			w = Always()
		}
	}()
	var err error
	w, err = ev.Dispatch(s.remote)
	if err != nil {
		s.log.Printf("WARN dispatch %T: %v", ev, err)
	}
	return w
}

// SetWaiter replaces the active Waiter and invalidates any in-flight hand-off.
func (s *Scheduler) SetWaiter(w Waiter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handoff = 0
	s.waiter = &w
}

// Clear drops all pending work and returns to idle. In-flight hand-offs are
// discarded when they reach the main executor.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.queue {
		s.queue[i] = nil
	}
	s.queue = s.queue[:0]
	s.waiter = nil
	s.handoff = 0
	s.early = nil
}

func (s *Scheduler) IsIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiter == nil && len(s.queue) == 0 && !s.dispatching
}

// Pending is the number of queued, not yet dispatched events.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// SetTickRate replaces the periodic Tick generator. d <= 0 stops it.
func (s *Scheduler) SetTickRate(d time.Duration) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if s.tickStop != nil {
		close(s.tickStop)
		s.tickStop = nil
	}
	if d <= 0 {
		return
	}
	stop := make(chan struct{})
	s.tickStop = stop
	go func() {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Printf("error while ticking: %v", r)
		}
	}()
	s.NotifyTrigger(Tick)
}

// Close stops the tick generator. Queued events are kept; call Clear to drop them.
func (s *Scheduler) Close() {
	s.SetTickRate(0)
}
