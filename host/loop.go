package host

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrLoopBusy is returned when a second goroutine tries to drive the loop.
var ErrLoopBusy = errors.New("host loop is already running")

// Loop is a single-consumer callback queue.
// Post is safe from any goroutine; Run and RunUntilIdle must be driven by one
// goroutine at a time.
type Loop struct {
	queue   []func()
	wake    chan struct{}
	mu      sync.Mutex
	holds   int
	running atomic.Bool
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{
		queue: make([]func(), 0, 16),
		wake:  make(chan struct{}, 1),
	}
}

// Post enqueues fn to run on the loop.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

// Hold marks outstanding work that will eventually Post to the loop.
// RunUntilIdle does not return while holds are outstanding. The returned
// release function is idempotent.
func (l *Loop) Hold() func() {
	l.mu.Lock()
	l.holds++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.holds--
			l.mu.Unlock()
			l.signal()
		})
	}
}

// Pending returns the number of queued callbacks and outstanding holds.
func (l *Loop) Pending() (queued, holds int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue), l.holds
}

// RunUntilIdle drains the queue until it is empty and no holds remain.
func (l *Loop) RunUntilIdle(ctx context.Context) error {
	return l.run(ctx, true)
}

// Run drains the queue until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	return l.run(ctx, false)
}

func (l *Loop) run(ctx context.Context, stopWhenIdle bool) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopBusy
	}
	defer l.running.Store(false)

	for {
		fn, idle := l.next()
		if fn != nil {
			fn()
			continue
		}
		if idle && stopWhenIdle {
			return nil
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) > 0 {
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		return fn, false
	}
	return nil, l.holds == 0
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
