package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsTasks(t *testing.T) {
	p := New(4)
	defer p.Close()

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		if err := p.Submit(context.Background(), func(context.Context) {
			defer wg.Done()
			count.Add(1)
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	wg.Wait()

	if count.Load() != 50 {
		t.Fatalf("Expected 50 tasks, ran %d", count.Load())
	}
}

func TestPool_WorkerIndexInRange(t *testing.T) {
	p := New(3)
	defer p.Close()

	var wg sync.WaitGroup
	var bad atomic.Int32
	for i := 0; i < 30; i++ {
		wg.Add(1)
		p.Submit(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			idx, ok := WorkerIndex(ctx)
			if !ok || idx < 0 || idx >= 3 {
				bad.Add(1)
			}
		})
	}
	wg.Wait()

	if bad.Load() != 0 {
		t.Fatalf("%d tasks saw an out-of-range worker index", bad.Load())
	}
	if _, ok := WorkerIndex(context.Background()); ok {
		t.Fatal("Background context should carry no worker index")
	}
}

func TestPool_ResizeBoundsConcurrency(t *testing.T) {
	p := New(4)
	defer p.Close()
	p.Resize(2)

	if p.Size() != 2 {
		t.Fatalf("Expected size 2, got %d", p.Size())
	}

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		p.Submit(context.Background(), func(context.Context) {
			defer wg.Done()
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
		})
	}
	wg.Wait()

	if peak.Load() > 2 {
		t.Fatalf("Expected at most 2 concurrent tasks, saw %d", peak.Load())
	}
}

func TestPool_ResizeBelowOne(t *testing.T) {
	p := New(0)
	defer p.Close()
	if p.Size() != 1 {
		t.Fatalf("Expected size 1, got %d", p.Size())
	}
}

func TestPool_PanicKeepsWorker(t *testing.T) {
	p := New(1)
	defer p.Close()

	p.Submit(context.Background(), func(context.Context) { panic("boom") })

	done := make(chan struct{})
	p.Submit(context.Background(), func(context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Worker did not survive a panicking task")
	}
}

func TestPool_CloseDrainsAndRejects(t *testing.T) {
	p := New(1)

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		p.Submit(context.Background(), func(context.Context) { count.Add(1) })
	}
	p.Close()

	if count.Load() != 10 {
		t.Fatalf("Expected queue to drain, ran %d", count.Load())
	}
	if err := p.Submit(context.Background(), func(context.Context) {}); err != ErrClosed {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}
}
