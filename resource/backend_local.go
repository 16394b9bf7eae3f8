package resource

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("resource table closed")

// LocalBackend is an in-memory slot store with a free list.
// Every slot carries a generation so that a handle outliving its value never
// resolves to whatever reused the slot.
type LocalBackend struct {
	entries  []entry
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value   any
	classID uint32
	gen     uint32
	valid   bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Create stores a value and returns its handle and generation.
func (b *LocalBackend) Create(classID uint32, value any) (Handle, uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, 0, ErrClosed
	}

	if n := len(b.freeList); n > 0 {
		handle := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		e := &b.entries[handle-1]
		e.gen++
		e.classID = classID
		e.value = value
		e.valid = true
		return handle, e.gen, nil
	}

	b.entries = append(b.entries, entry{classID: classID, value: value, gen: 1, valid: true})
	return Handle(len(b.entries)), 1, nil
}

func (b *LocalBackend) lookup(handle Handle, gen uint32) (*entry, bool) {
	if handle == 0 {
		return nil, false
	}
	idx := int(handle - 1)
	if idx >= len(b.entries) {
		return nil, false
	}
	e := &b.entries[idx]
	if !e.valid || e.gen != gen {
		return nil, false
	}
	return e, true
}

// Get retrieves a value and its class id.
func (b *LocalBackend) Get(handle Handle, gen uint32) (any, uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.lookup(handle, gen)
	if !ok {
		return nil, 0, false
	}
	return e.value, e.classID, true
}

// Drop frees the slot and returns the value it held.
func (b *LocalBackend) Drop(handle Handle, gen uint32) (any, uint32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.lookup(handle, gen)
	if !ok {
		return nil, 0, false
	}

	value, classID := e.value, e.classID
	e.valid = false
	e.value = nil
	b.freeList = append(b.freeList, handle)
	return value, classID, true
}

// Close empties the backend and returns the values that were still live.
func (b *LocalBackend) Close() []any {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var live []any
	for i := range b.entries {
		if b.entries[i].valid {
			live = append(live, b.entries[i].value)
		}
	}
	b.entries = nil
	b.freeList = nil
	return live
}

// Len returns the number of live slots.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over live slots until fn returns false.
func (b *LocalBackend) Each(fn func(h Handle, gen, classID uint32, value any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid && !fn(Handle(i+1), e.gen, e.classID, e.value) {
			break
		}
	}
}
