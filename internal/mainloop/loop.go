// Package mainloop provides a serial, run-to-completion task loop.
//
// Every task posted to a Loop runs on the loop goroutine, one at a time, in
// posting order. State owned by a loop is only touched from its tasks, so it
// needs no further locking.
package mainloop

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned when posting to a loop that has been stopped.
var ErrStopped = errors.New("main loop stopped")

// Loop runs posted closures one at a time.
type Loop struct {
	mu      sync.Mutex
	queue   []*task
	keyed   map[string]*task
	wake    chan struct{}
	done    chan struct{}
	stopped bool
	running bool
}

type task struct {
	key string
	fn  func()
}

// New creates a stopped-until-Run loop.
func New() *Loop {
	return &Loop{
		keyed: make(map[string]*task),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Post queues fn. It never blocks and is safe from any goroutine,
// including from a task running on the loop.
func (l *Loop) Post(fn func()) error {
	if fn == nil {
		return nil
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	l.queue = append(l.queue, &task{fn: fn})
	l.mu.Unlock()

	l.signal()
	return nil
}

// PostCoalesced merges bursts of same-key tasks: while a task for key is
// still queued, later posts replace its closure instead of queueing again.
func (l *Loop) PostCoalesced(key string, fn func()) error {
	if fn == nil || key == "" {
		return nil
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	if pending, ok := l.keyed[key]; ok {
		pending.fn = fn
		l.mu.Unlock()
		return nil
	}
	t := &task{key: key, fn: fn}
	l.keyed[key] = t
	l.queue = append(l.queue, t)
	l.mu.Unlock()

	l.signal()
	return nil
}

// Call posts fn and waits until it has run.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		// The task may have run just before the loop exited.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes tasks until Stop is called or ctx is cancelled.
// Tasks still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) {
	l.mu.Lock()
	if l.running || l.stopped {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	defer close(l.done)

	for {
		t, ok := l.next(ctx)
		if !ok {
			return
		}
		t.fn()
	}
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start(ctx context.Context) {
	go l.Run(ctx)
}

func (l *Loop) next(ctx context.Context) (*task, bool) {
	for {
		l.mu.Lock()
		if l.stopped {
			l.mu.Unlock()
			return nil, false
		}
		if len(l.queue) > 0 {
			t := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			if t.key != "" {
				delete(l.keyed, t.key)
			}
			l.mu.Unlock()
			return t, true
		}
		l.mu.Unlock()

		select {
		case <-l.wake:
		case <-ctx.Done():
			l.Stop()
			return nil, false
		}
	}
}

// Stop ends the loop and drops queued work. Safe to call repeatedly.
func (l *Loop) Stop() {
	l.mu.Lock()
	wasRunning := l.running
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.queue = nil
	l.keyed = map[string]*task{}
	l.mu.Unlock()

	if !wasRunning {
		close(l.done)
		return
	}
	l.signal()
}

// Done is closed once the loop has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
