package convert

import (
	"fmt"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
)

type readMode uint8

const (
	readRequired readMode = iota + 1
	readOptional
	readOptions
)

// Args is the argument list of one call.
type Args struct {
	err     error
	reads   map[int]readMode
	op      string
	values  []host.Value
	optsPos int
}

// NewArgs wraps the host arguments of op.
func NewArgs(op string, values []host.Value) *Args {
	return &Args{op: op, values: values, optsPos: -1}
}

// Op returns the operation the arguments belong to.
func (a *Args) Op() string { return a.op }

// Len returns the number of supplied arguments.
func (a *Args) Len() int { return len(a.values) }

// Get returns the argument at pos, or Undefined.
func (a *Args) Get(pos int) host.Value {
	if pos < 0 || pos >= len(a.values) {
		return host.Undefined
	}
	return a.values[pos]
}

// Has reports whether an argument other than Undefined is present at pos.
func (a *Args) Has(pos int) bool {
	return !host.IsUndefined(a.Get(pos))
}

// Kind classifies the argument at pos.
func (a *Args) Kind(pos int) host.Kind {
	return host.KindOf(a.Get(pos))
}

// IsObject reports whether pos holds a plain record.
func (a *Args) IsObject(pos int) bool {
	return host.KindOf(a.Get(pos)) == host.KindObject
}

// IsArray reports whether pos holds an array.
func (a *Args) IsArray(pos int) bool {
	return host.KindOf(a.Get(pos)) == host.KindArray
}

// IsFunction reports whether pos holds a function.
func (a *Args) IsFunction(pos int) bool {
	return host.KindOf(a.Get(pos)) == host.KindFunction
}

// UseOptions selects named mode when the argument at pos is a trailing
// options record. Optional parameters from pos onwards are then read from
// that record by name instead of by position.
func (a *Args) UseOptions(pos int) bool {
	if pos != len(a.values)-1 || !a.IsObject(pos) {
		return false
	}
	if a.Failed() || !a.mark(pos, readOptions) {
		return false
	}
	a.optsPos = pos
	return true
}

// Options returns the options record selected by UseOptions.
func (a *Args) Options() (host.Record, bool) {
	if a.optsPos < 0 {
		return nil, false
	}
	return a.values[a.optsPos].(host.Record), true
}

// Err returns the first recorded failure tagged with the operation name.
func (a *Args) Err() error {
	if a.err == nil {
		return nil
	}
	return errors.Tag(a.err, a.op)
}

// Failed reports whether a failure has been recorded.
func (a *Args) Failed() bool { return a.err != nil }

// Fail records err unless a failure is already recorded. It returns true.
func (a *Args) Fail(err error) bool {
	if a.err == nil && err != nil {
		a.err = err
	}
	return true
}

// Throw records an argument error for param.
func (a *Args) Throw(param, format string, args ...any) bool {
	return a.Fail(errors.Argument(param, format, args...))
}

// mark records that pos was read in mode. Reading one position in two modes
// is a binding defect.
func (a *Args) mark(pos int, mode readMode) bool {
	if a.reads == nil {
		a.reads = make(map[int]readMode)
	}
	prev, seen := a.reads[pos]
	if seen && prev != mode {
		a.Fail(errors.New(errors.PhaseValidate, errors.KindInternalConversion).
			Param(Param(pos)).
			Detail("argument read as both %s and %s", prev, mode).
			Build())
		return false
	}
	a.reads[pos] = mode
	return true
}

func (m readMode) String() string {
	switch m {
	case readRequired:
		return "required"
	case readOptional:
		return "optional"
	case readOptions:
		return "options"
	}
	return "unknown"
}

// Param names a positional parameter in error messages.
func Param(pos int) string {
	return fmt.Sprintf("arg %d", pos)
}

func at(err error, param string) error {
	var e *errors.Error
	if !errors.As(err, &e) {
		return errors.New(errors.PhaseValidate, errors.KindArgument).Param(param).Cause(err).Build()
	}
	c := *e
	if c.Param == "" {
		c.Param = param
	}
	return &c
}

// Arg converts the required argument at pos into out.
// It returns true if this or an earlier read failed.
func Arg[T any](a *Args, pos int, c Converter[T], out *T) bool {
	if a.Failed() || !a.mark(pos, readRequired) {
		return true
	}
	if !a.Has(pos) {
		return a.Fail(errors.Missing(Param(pos), c.TypeName()))
	}
	v, err := c.ToNative(a.values[pos])
	if err != nil {
		return a.Fail(at(err, Param(pos)))
	}
	*out = v
	return false
}

// OptArg converts the argument at pos into out when present; out keeps its
// default otherwise.
func OptArg[T any](a *Args, pos int, c Converter[T], out *T) bool {
	if a.Failed() || !a.mark(pos, readOptional) {
		return true
	}
	if !a.Has(pos) {
		return false
	}
	v, err := c.ToNative(a.values[pos])
	if err != nil {
		return a.Fail(at(err, Param(pos)))
	}
	*out = v
	return false
}

// Prop converts the required field name of rec into out.
func Prop[T any](a *Args, rec host.Record, name string, c Converter[T], out *T) bool {
	if a.Failed() {
		return true
	}
	raw, ok := rec[name]
	if !ok || host.IsUndefined(raw) {
		return a.Fail(errors.Missing(name, c.TypeName()))
	}
	v, err := c.ToNative(raw)
	if err != nil {
		return a.Fail(at(err, name))
	}
	*out = v
	return false
}

// OptProp converts field name of rec into out when present.
func OptProp[T any](a *Args, rec host.Record, name string, c Converter[T], out *T) bool {
	if a.Failed() {
		return true
	}
	raw, ok := rec[name]
	if !ok || host.IsUndefined(raw) {
		return false
	}
	v, err := c.ToNative(raw)
	if err != nil {
		return a.Fail(at(err, name))
	}
	*out = v
	return false
}

// Opt reads an optional parameter either by name from the options record
// selected with UseOptions, or positionally.
func Opt[T any](a *Args, pos int, name string, c Converter[T], out *T) bool {
	if rec, ok := a.Options(); ok && pos >= a.optsPos {
		return OptProp(a, rec, name, c, out)
	}
	return OptArg(a, pos, c, out)
}
