package resource

import (
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
)

// Class binds a host class name to a native type stored in a Table.
type Class[T any] struct {
	table *Table
	name  string
	id    uint32
}

// NewClass registers name in table. Registering the same name twice returns
// classes sharing one id.
func NewClass[T any](table *Table, name string) *Class[T] {
	return &Class[T]{table: table, name: name, id: table.RegisterClass(name)}
}

// Name returns the host class name.
func (c *Class[T]) Name() string { return c.name }

// Wrap hands value to a new host object. When the table is closed the value
// is dropped immediately and the returned object is already dead.
func (c *Class[T]) Wrap(value T) *Object {
	h, gen, err := c.table.Insert(c.id, value)
	if err != nil {
		if d, ok := any(value).(Dropper); ok {
			d.Drop()
		}
		return deadObject(c.name)
	}
	return newObject(c.table, c.name, c.id, h, gen)
}

// Unwrap resolves a host value to the native value of this class.
func (c *Class[T]) Unwrap(v host.Value) (T, error) {
	var zero T

	obj, ok := v.(*Object)
	if !ok || obj == nil {
		return zero, errors.InvalidHandle(c.name, "expected instance of "+c.name+", got "+host.TypeName(v))
	}
	if obj.table != c.table && !obj.released.Load() {
		return zero, errors.InvalidHandle(c.name, "object belongs to a different table")
	}

	raw, err := obj.value(c.id)
	if err != nil {
		return zero, err
	}
	native, ok := raw.(T)
	if !ok {
		return zero, errors.InvalidHandle(c.name, "native value has unexpected type")
	}
	return native, nil
}

// Is reports whether v is a live instance of this class.
func (c *Class[T]) Is(v host.Value) bool {
	_, err := c.Unwrap(v)
	return err == nil
}
