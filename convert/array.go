package convert

import (
	"fmt"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
)

type arrayConverter[T any] struct {
	elem Converter[T]
}

// Array converts homogeneous host arrays. The first element that fails to
// convert is reported with its index.
func Array[T any](elem Converter[T]) Converter[[]T] {
	return arrayConverter[T]{elem: elem}
}

func (c arrayConverter[T]) TypeName() string {
	return "Array<" + c.elem.TypeName() + ">"
}

func (c arrayConverter[T]) ToNative(v host.Value) ([]T, error) {
	items, ok := v.(host.Array)
	if !ok {
		return nil, mismatch(c.TypeName(), v)
	}

	out := make([]T, len(items))
	for i, item := range items {
		n, err := c.elem.ToNative(item)
		if err != nil {
			return nil, atIndex(err, i, c.elem.TypeName(), item)
		}
		out[i] = n
	}
	return out, nil
}

func (c arrayConverter[T]) ToHost(v []T) host.Value {
	out := make(host.Array, len(v))
	for i, n := range v {
		out[i] = c.elem.ToHost(n)
	}
	return out
}

// atIndex prefixes an element error with its index.
func atIndex(err error, index int, nativeType string, item host.Value) error {
	var e *errors.Error
	if !errors.As(err, &e) {
		return errors.ElementMismatch("", index, nativeType, host.TypeName(item))
	}
	c := *e
	c.Path = append([]string{fmt.Sprintf("[%d]", index)}, e.Path...)
	return &c
}
