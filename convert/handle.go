package convert

import (
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/resource"
)

// Handle converts wrapped objects of class. Dead or foreign objects fail
// with an invalid handle error.
func Handle[T any](class *resource.Class[T]) Converter[T] {
	return Func[T]{
		Name: class.Name(),
		From: func(v host.Value) (T, error) { return class.Unwrap(v) },
		To:   func(v T) host.Value { return class.Wrap(v) },
	}
}
