// Package eventloop runs posted tasks one at a time on a single goroutine.
//
// The application core assumes a UI-thread model: publish, start, end and
// every capability call run to completion before the next task. Host entry
// points (HTTP handlers, timers, transport responses) post work here instead
// of touching the core from their own goroutines.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/infrastructure/logging"
)

var (
	ErrStopped        = errors.New("event loop is stopped")
	ErrAlreadyRunning = errors.New("event loop is already running")
)

// Loop is a FIFO task executor backed by one goroutine
type Loop struct {
	logger *logging.Logger

	mu      sync.Mutex
	queue   []func()
	running bool
	stopped bool

	wake     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a loop; call Run to start executing tasks.
func New(logger *logging.Logger) *Loop {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loop{
		logger: logger.Named("eventloop"),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Post queues a task. It never blocks, so tasks may post follow-up tasks.
func (l *Loop) Post(task func()) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Do posts a task and waits for it to finish. It must not be called from a task.
func (l *Loop) Do(ctx context.Context, task func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		task()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc posts task once d has elapsed. The returned func cancels it and
// reports whether the timer was stopped before firing.
func (l *Loop) AfterFunc(d time.Duration, task func()) func() bool {
	timer := time.AfterFunc(d, func() {
		if err := l.Post(task); err != nil {
			l.logger.Debug("Dropped timer task", zap.Error(err))
		}
	})
	return timer.Stop
}

// Run executes tasks until ctx is cancelled or Stop is called. Tasks still
// queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrAlreadyRunning
	}
	if l.stopped {
		l.mu.Unlock()
		l.doneOnce.Do(func() { close(l.done) })
		return ErrStopped
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		l.doneOnce.Do(func() { close(l.done) })
	}()

	for {
		for {
			task, ok := l.next()
			if !ok {
				break
			}
			l.execute(task)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.stop:
				return nil
			default:
			}
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		}
	}
}

// Stop ends Run after the current task.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	close(l.stop)
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

func (l *Loop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Task panicked",
				zap.Error(fmt.Errorf("panic: %v", r)),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()
	task()
}
