package convert

import (
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
)

// Converter converts between host values and native T.
type Converter[T any] interface {
	// TypeName names T in error messages.
	TypeName() string
	ToNative(v host.Value) (T, error)
	ToHost(v T) host.Value
}

// Func builds a Converter from functions.
type Func[T any] struct {
	Name string
	From func(v host.Value) (T, error)
	To   func(v T) host.Value
}

func (f Func[T]) TypeName() string                 { return f.Name }
func (f Func[T]) ToNative(v host.Value) (T, error) { return f.From(v) }
func (f Func[T]) ToHost(v T) host.Value            { return f.To(v) }

// Matches reports whether v converts to T. It is the instance check used to
// dispatch on argument shape.
func Matches[T any](c Converter[T], v host.Value) bool {
	_, err := c.ToNative(v)
	return err == nil
}

// Cast derives a converter for U from one for T.
func Cast[T, U any](c Converter[T], name string, to func(T) (U, error), from func(U) T) Converter[U] {
	return Func[U]{
		Name: name,
		From: func(v host.Value) (U, error) {
			var zero U
			t, err := c.ToNative(v)
			if err != nil {
				return zero, retype(err, name)
			}
			u, err := to(t)
			if err != nil {
				return zero, errors.New(errors.PhaseValidate, errors.KindArgument).
					NativeType(name).
					HostType(host.TypeName(v)).
					Cause(err).
					Build()
			}
			return u, nil
		},
		To: func(u U) host.Value { return c.ToHost(from(u)) },
	}
}

func mismatch(nativeType string, v host.Value) *errors.Error {
	return errors.TypeMismatch("", nativeType, host.TypeName(v))
}

func retype(err error, nativeType string) error {
	var e *errors.Error
	if errors.As(err, &e) && len(e.Path) == 0 {
		c := *e
		c.NativeType = nativeType
		return &c
	}
	return err
}
