package resource

import (
	"errors"
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend()

	handle, gen, err := b.Create(1, "test value")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if handle == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, classID, ok := b.Get(handle, gen)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test value" || classID != 1 {
		t.Fatalf("Expected ('test value', 1), got (%v, %d)", val, classID)
	}

	val, _, ok = b.Drop(handle, gen)
	if !ok || val != "test value" {
		t.Fatalf("Drop returned (%v, %v)", val, ok)
	}

	if _, _, ok := b.Get(handle, gen); ok {
		t.Fatal("Expected Get to fail after Drop")
	}
	if _, _, ok := b.Drop(handle, gen); ok {
		t.Fatal("Expected second Drop to fail")
	}
}

func TestLocalBackend_HandleReuseBumpsGeneration(t *testing.T) {
	b := NewLocalBackend()

	h1, gen1, _ := b.Create(1, "first")
	b.Drop(h1, gen1)

	h2, gen2, _ := b.Create(1, "second")
	if h2 != h1 {
		t.Fatalf("Expected slot %d to be reused, got %d", h1, h2)
	}
	if gen2 == gen1 {
		t.Fatal("Expected generation to change on reuse")
	}

	if _, _, ok := b.Get(h1, gen1); ok {
		t.Fatal("Stale handle resolved to reused slot")
	}
	if v, _, ok := b.Get(h2, gen2); !ok || v != "second" {
		t.Fatalf("Expected 'second', got %v", v)
	}
}

func TestLocalBackend_Close(t *testing.T) {
	b := NewLocalBackend()
	b.Create(1, "a")
	h, gen, _ := b.Create(1, "b")
	b.Drop(h, gen)

	live := b.Close()
	if len(live) != 1 || live[0] != "a" {
		t.Fatalf("Expected [a] live at close, got %v", live)
	}

	_, _, err := b.Create(1, "c")
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}
	if b.Close() != nil {
		t.Fatal("Second Close should return nothing")
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, gen, err := b.Create(1, i)
			if err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			if v, _, ok := b.Get(h, gen); !ok || v != i {
				t.Errorf("Get(%d) = %v, %v", h, v, ok)
			}
			b.Drop(h, gen)
		}(i)
	}
	wg.Wait()

	if b.Len() != 0 {
		t.Fatalf("Expected empty backend, got %d", b.Len())
	}
}

func TestLocalBackend_Each(t *testing.T) {
	b := NewLocalBackend()
	b.Create(1, "a")
	b.Create(2, "b")
	b.Create(3, "c")

	var seen []any
	b.Each(func(_ Handle, _, _ uint32, v any) bool {
		seen = append(seen, v)
		return len(seen) < 2
	})
	if len(seen) != 2 {
		t.Fatalf("Expected iteration to stop after 2, got %d", len(seen))
	}
}

func TestLocalBackend_InvalidHandle(t *testing.T) {
	b := NewLocalBackend()

	if _, _, ok := b.Get(0, 1); ok {
		t.Fatal("Handle 0 should be invalid")
	}
	if _, _, ok := b.Get(42, 1); ok {
		t.Fatal("Out of range handle should be invalid")
	}
}
