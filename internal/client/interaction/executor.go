package interaction

import (
	"context"
	"io"
	"log"
	"sync"
)

// Executor runs functions on the single context that owns live state.
// Submit must not run fn synchronously: the scheduler submits while holding its lock.
type Executor interface {
	Submit(fn func())
}

// MainLoop is an unbounded single-goroutine executor. Submit never blocks.
type MainLoop struct {
	log *log.Logger

	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}
}

func NewMainLoop(logger *log.Logger) *MainLoop {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &MainLoop{log: logger, wake: make(chan struct{}, 1)}
}

func (l *MainLoop) Submit(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run executes submitted tasks in order until ctx is done.
func (l *MainLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.RunPending()
		}
	}
}

// RunPending executes every task queued so far on the calling goroutine and
// returns how many ran. Tasks submitted meanwhile run in the same call.
func (l *MainLoop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		tasks := l.tasks
		l.tasks = nil
		l.mu.Unlock()
		if len(tasks) == 0 {
			return n
		}
		for _, fn := range tasks {
			l.run(fn)
			n++
		}
	}
}

func (l *MainLoop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Printf("main task panicked: %v", r)
		}
	}()
	fn()
}
