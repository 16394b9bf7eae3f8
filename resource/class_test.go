package resource

import (
	"testing"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
)

type buffer struct {
	data    []float64
	dropped int
}

func (b *buffer) Drop() { b.dropped++ }

func TestClass_WrapUnwrap(t *testing.T) {
	table := NewTable()
	buffers := NewClass[*buffer](table, "Buffer")

	b := &buffer{data: []float64{1, 2}}
	obj := buffers.Wrap(b)
	if obj.ClassName() != "Buffer" || !obj.Alive() {
		t.Fatalf("Unexpected object state: %v", obj)
	}

	var hv host.Value = obj
	if host.KindOf(hv) != host.KindWrapped {
		t.Fatalf("Expected wrapped kind, got %s", host.KindOf(hv))
	}

	got, err := buffers.Unwrap(hv)
	if err != nil {
		t.Fatalf("Unwrap failed: %v", err)
	}
	if got != b {
		t.Fatal("Unwrap returned a different native value")
	}
}

func TestClass_ReleasedObjectIsInvalidHandle(t *testing.T) {
	table := NewTable()
	buffers := NewClass[*buffer](table, "Buffer")

	b := &buffer{}
	obj := buffers.Wrap(b)
	if err := obj.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if b.dropped != 1 {
		t.Fatalf("Expected Drop once, got %d", b.dropped)
	}
	if obj.Alive() {
		t.Fatal("Released object reports alive")
	}

	_, err := buffers.Unwrap(obj)
	if errors.KindOf(err) != errors.KindInvalidHandle {
		t.Fatalf("Expected invalid handle, got %v", err)
	}

	err = obj.Release()
	if errors.KindOf(err) != errors.KindInvalidHandle {
		t.Fatalf("Expected invalid handle on double release, got %v", err)
	}
	if b.dropped != 1 {
		t.Fatalf("Double release dropped again: %d", b.dropped)
	}
}

func TestClass_WrongClass(t *testing.T) {
	table := NewTable()
	buffers := NewClass[*buffer](table, "Buffer")
	names := NewClass[string](table, "Name")

	obj := names.Wrap("x")
	if buffers.Is(obj) {
		t.Fatal("Name object accepted as Buffer")
	}
	_, err := buffers.Unwrap(obj)
	if errors.KindOf(err) != errors.KindInvalidHandle {
		t.Fatalf("Expected invalid handle, got %v", err)
	}

	_, err = buffers.Unwrap(3.0)
	if errors.KindOf(err) != errors.KindInvalidHandle {
		t.Fatalf("Expected invalid handle for number, got %v", err)
	}
}

func TestClass_WrapAfterCloseIsDead(t *testing.T) {
	table := NewTable()
	buffers := NewClass[*buffer](table, "Buffer")
	table.Close()

	b := &buffer{}
	obj := buffers.Wrap(b)
	if obj.Alive() {
		t.Fatal("Object wrapped into closed table should be dead")
	}
	if b.dropped != 1 {
		t.Fatalf("Expected value to be dropped, got %d", b.dropped)
	}
	if _, err := buffers.Unwrap(obj); err == nil {
		t.Fatal("Expected Unwrap of dead object to fail")
	}
}
