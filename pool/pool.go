// Package pool runs native work off the host thread.
//
// A Pool has a resizable number of workers, each with a stable index in
// [0, Size()). Tasks see their worker's index through WorkerIndex. Submit
// never blocks: tasks queue until a worker is free.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var ErrClosed = errors.New("worker pool closed")

type workerKey struct{}

// WorkerIndex returns the index of the pool worker running ctx's task.
func WorkerIndex(ctx context.Context) (int, bool) {
	idx, ok := ctx.Value(workerKey{}).(int)
	return idx, ok
}

type task struct {
	ctx context.Context
	fn  func(ctx context.Context)
}

// Pool is a bounded set of goroutines draining a FIFO task queue.
type Pool struct {
	cond   *sync.Cond
	queue  []task
	alive  []bool
	wg     sync.WaitGroup
	mu     sync.Mutex
	target int
	closed bool
}

// New creates a pool with size workers. Sizes below 1 are raised to 1.
func New(size int) *Pool {
	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)
	p.Resize(size)
	return p
}

// Size returns the configured number of workers.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// Resize changes the worker count. Shrinking lets busy workers finish their
// current task before exiting.
func (p *Pool) Resize(size int) {
	if size < 1 {
		size = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.target = size
	for len(p.alive) < size {
		p.alive = append(p.alive, false)
	}
	for i := 0; i < size; i++ {
		if !p.alive[i] {
			p.alive[i] = true
			p.wg.Add(1)
			go p.worker(i)
		}
	}
	p.cond.Broadcast()
}

// Submit queues fn. The context handed to fn carries the worker index.
func (p *Pool) Submit(ctx context.Context, fn func(ctx context.Context)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.queue = append(p.queue, task{ctx: ctx, fn: fn})
	p.cond.Signal()
	return nil
}

// Queued returns the number of tasks waiting for a worker.
func (p *Pool) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Close stops accepting tasks, drains the queue and waits for the workers.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

func (p *Pool) worker(idx int) {
	defer p.wg.Done()

	p.mu.Lock()
	for {
		for len(p.queue) == 0 && !p.closed && idx < p.target {
			p.cond.Wait()
		}
		if idx >= p.target || (p.closed && len(p.queue) == 0) {
			p.alive[idx] = false
			p.mu.Unlock()
			return
		}

		t := p.queue[0]
		p.queue[0] = task{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(idx, t)

		p.mu.Lock()
	}
}

func (p *Pool) run(idx int, t task) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("task panicked",
				zap.Int("worker", idx),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	t.fn(context.WithValue(t.ctx, workerKey{}, idx))
}
