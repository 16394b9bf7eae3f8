package resource

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/wippyai/nativebind/errors"
)

// Object is the host-visible identity of a wrapped native value.
// It holds the only reference from the host side to its table slot; the
// native value is dropped on Release or when the Object is collected.
type Object struct {
	table    *Table
	class    string
	cleanup  runtime.Cleanup
	handle   Handle
	gen      uint32
	classID  uint32
	released atomic.Bool
}

type slotRef struct {
	table  *Table
	handle Handle
	gen    uint32
}

func newObject(t *Table, class string, classID uint32, h Handle, gen uint32) *Object {
	o := &Object{table: t, class: class, classID: classID, handle: h, gen: gen}
	o.cleanup = runtime.AddCleanup(o, func(r slotRef) {
		r.table.Remove(r.handle, r.gen)
	}, slotRef{table: t, handle: h, gen: gen})
	return o
}

func deadObject(class string) *Object {
	o := &Object{class: class}
	o.released.Store(true)
	return o
}

// ClassName returns the wrapped class name.
func (o *Object) ClassName() string { return o.class }

// Handle returns the table slot backing the object.
func (o *Object) Handle() Handle { return o.handle }

// Alive reports whether the native value is still reachable.
func (o *Object) Alive() bool {
	if o == nil || o.released.Load() {
		return false
	}
	_, ok := o.table.Get(o.handle, o.gen)
	return ok
}

// Release drops the native value now. Releasing twice is an InvalidHandle error.
func (o *Object) Release() error {
	if o == nil {
		return errors.InvalidHandle("", "nil object")
	}
	if !o.released.CompareAndSwap(false, true) {
		return errors.InvalidHandle(o.class, "already released")
	}
	o.cleanup.Stop()
	if _, ok := o.table.Remove(o.handle, o.gen); !ok {
		return errors.InvalidHandle(o.class, "native value no longer exists")
	}
	return nil
}

func (o *Object) String() string {
	if !o.Alive() {
		return fmt.Sprintf("%s<released>", o.class)
	}
	return fmt.Sprintf("%s<%d>", o.class, o.handle)
}

func (o *Object) value(classID uint32) (any, error) {
	if o.released.Load() {
		return nil, errors.InvalidHandle(o.class, "object has been released")
	}
	if o.classID != classID {
		return nil, errors.InvalidHandle(o.class, "object belongs to a different class")
	}
	v, ok := o.table.GetTyped(o.handle, o.gen, classID)
	if !ok {
		return nil, errors.InvalidHandle(o.class, "native value no longer exists")
	}
	return v, nil
}
