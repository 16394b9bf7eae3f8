package resource

import (
	"sync"
)

// Table maps handles to native values for every wrapped class.
type Table struct {
	backend   *LocalBackend
	observers []observerEntry
	classes   []string
	obsMu     sync.RWMutex
	classMu   sync.RWMutex
	nextObs   uint64
}

type observerEntry struct {
	o  Observer
	id uint64
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		backend: NewLocalBackend(),
		classes: []string{""},
	}
}

// RegisterClass returns the id for a class name, allocating one on first use.
func (t *Table) RegisterClass(name string) uint32 {
	t.classMu.Lock()
	defer t.classMu.Unlock()

	for id, n := range t.classes {
		if id > 0 && n == name {
			return uint32(id)
		}
	}
	t.classes = append(t.classes, name)
	return uint32(len(t.classes) - 1)
}

// ClassName returns the name registered for id.
func (t *Table) ClassName(id uint32) string {
	t.classMu.RLock()
	defer t.classMu.RUnlock()

	if int(id) < len(t.classes) {
		return t.classes[id]
	}
	return ""
}

// Insert stores value under classID.
func (t *Table) Insert(classID uint32, value any) (Handle, uint32, error) {
	handle, gen, err := t.backend.Create(classID, value)
	if err != nil {
		return 0, 0, err
	}

	t.notify(Event{
		Type:    EventWrapped,
		Handle:  handle,
		ClassID: classID,
		Class:   t.ClassName(classID),
		Value:   value,
	})
	return handle, gen, nil
}

// Get retrieves a live value.
func (t *Table) Get(handle Handle, gen uint32) (any, bool) {
	v, _, ok := t.backend.Get(handle, gen)
	return v, ok
}

// GetTyped retrieves a live value only if it belongs to classID.
func (t *Table) GetTyped(handle Handle, gen, classID uint32) (any, bool) {
	v, id, ok := t.backend.Get(handle, gen)
	if !ok || id != classID {
		return nil, false
	}
	return v, true
}

// Remove releases a handle, dropping its value. Stale handles are ignored.
func (t *Table) Remove(handle Handle, gen uint32) (any, bool) {
	value, classID, ok := t.backend.Drop(handle, gen)
	if !ok {
		return nil, false
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:    EventReleased,
		Handle:  handle,
		ClassID: classID,
		Class:   t.ClassName(classID),
		Value:   value,
	})
	return value, true
}

// Subscribe adds an observer for lifecycle events and returns a function
// that removes it.
func (t *Table) Subscribe(o Observer) (unsubscribe func()) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()

	t.nextObs++
	id := t.nextObs
	t.observers = append(t.observers, observerEntry{id: id, o: o})

	return func() {
		t.obsMu.Lock()
		defer t.obsMu.Unlock()
		for i, e := range t.observers {
			if e.id == id {
				t.observers = append(t.observers[:i], t.observers[i+1:]...)
				return
			}
		}
	}
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	return t.backend.Len()
}

// Clear releases every live handle.
func (t *Table) Clear() {
	type ref struct {
		h   Handle
		gen uint32
	}
	var refs []ref
	t.backend.Each(func(h Handle, gen, _ uint32, _ any) bool {
		refs = append(refs, ref{h, gen})
		return true
	})
	for _, r := range refs {
		t.Remove(r.h, r.gen)
	}
}

// Close drops every live value and stops accepting new ones.
func (t *Table) Close() error {
	for _, v := range t.backend.Close() {
		if d, ok := v.(Dropper); ok {
			d.Drop()
		}
	}
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, entry := range t.observers {
		entry.o.OnResourceEvent(e)
	}
}
