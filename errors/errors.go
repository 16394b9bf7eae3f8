package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in a call the error occurred
type Phase string

const (
	PhaseValidate Phase = "validate" // argument conversion and preconditions
	PhaseExecute  Phase = "execute"  // native routine
	PhaseResult   Phase = "result"   // native to host conversion
	PhaseDispatch Phase = "dispatch" // operation lookup and scheduling
	PhaseRegister Phase = "register" // operation registration
)

// Kind categorizes the error
type Kind string

const (
	KindArgument           Kind = "argument"
	KindPrecondition       Kind = "precondition"
	KindNative             Kind = "native"
	KindInvalidHandle      Kind = "invalid_handle"
	KindInternalConversion Kind = "internal_conversion"
	KindNotFound           Kind = "not_found"
	KindRegistration       Kind = "registration"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrArgument           = &Error{Kind: KindArgument}
	ErrPrecondition       = &Error{Kind: KindPrecondition}
	ErrNative             = &Error{Kind: KindNative}
	ErrInvalidHandle      = &Error{Kind: KindInvalidHandle}
	ErrInternalConversion = &Error{Kind: KindInternalConversion}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrRegistration       = &Error{Kind: KindRegistration}
)

// Error is the structured error type used by every binding
type Error struct {
	Value      any
	Cause      error
	Op         string
	Phase      Phase
	Kind       Kind
	Param      string
	HostType   string
	NativeType string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Param != "" || len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(e.location())
	}

	if e.HostType != "" || e.NativeType != "" {
		b.WriteString(": ")
		switch {
		case e.HostType != "" && e.NativeType != "":
			b.WriteString("expected ")
			b.WriteString(e.NativeType)
			b.WriteString(", got ")
			b.WriteString(e.HostType)
		case e.NativeType != "":
			b.WriteString("expected ")
			b.WriteString(e.NativeType)
		default:
			b.WriteString("got ")
			b.WriteString(e.HostType)
		}
	}

	if e.Detail != "" {
		if e.HostType != "" || e.NativeType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

func (e *Error) location() string {
	parts := make([]string, 0, len(e.Path)+1)
	if e.Param != "" {
		parts = append(parts, e.Param)
	}
	parts = append(parts, e.Path...)
	return strings.Join(parts, ".")
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// Empty Phase or Kind on the target act as wildcards.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return t.Kind != "" || t.Phase != ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the qualified operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Param sets the offending parameter
func (b *Builder) Param(param string) *Builder {
	b.err.Param = param
	return b
}

// Path sets the element path below the parameter
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// HostType sets the host type name that was received
func (b *Builder) HostType(t string) *Builder {
	b.err.HostType = t
	return b
}

// NativeType sets the native type name that was expected
func (b *Builder) NativeType(t string) *Builder {
	b.err.NativeType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// Convenience constructors for common error patterns

// Argument creates an argument error with a free-form detail
func Argument(param, detail string, args ...any) *Error {
	return New(PhaseValidate, KindArgument).Param(param).Detail(detail, args...).Build()
}

// TypeMismatch creates an argument error for a value of the wrong host type
func TypeMismatch(param, nativeType, hostType string) *Error {
	return &Error{
		Phase:      PhaseValidate,
		Kind:       KindArgument,
		Param:      param,
		NativeType: nativeType,
		HostType:   hostType,
	}
}

// Missing creates an argument error for an absent required parameter
func Missing(param, nativeType string) *Error {
	return &Error{
		Phase:      PhaseValidate,
		Kind:       KindArgument,
		Param:      param,
		NativeType: nativeType,
		Detail:     "required argument is missing",
	}
}

// ElementMismatch creates an argument error for the first offending element of a container
func ElementMismatch(param string, index int, nativeType, hostType string) *Error {
	return &Error{
		Phase:      PhaseValidate,
		Kind:       KindArgument,
		Param:      param,
		Path:       []string{fmt.Sprintf("[%d]", index)},
		NativeType: nativeType,
		HostType:   hostType,
		Value:      index,
	}
}

// Precondition creates a value-level invariant violation
func Precondition(param, detail string, args ...any) *Error {
	return New(PhaseValidate, KindPrecondition).Param(param).Detail(detail, args...).Build()
}

// Native wraps a failure raised by the native routine
func Native(cause error) *Error {
	return &Error{
		Phase: PhaseExecute,
		Kind:  KindNative,
		Cause: cause,
	}
}

// InvalidHandle creates an invalid receiver / released handle error
func InvalidHandle(className, detail string) *Error {
	return &Error{
		Phase:      PhaseValidate,
		Kind:       KindInvalidHandle,
		NativeType: className,
		Detail:     detail,
	}
}

// InternalConversion creates a result conversion defect
func InternalConversion(cause error, detail string, args ...any) *Error {
	return New(PhaseResult, KindInternalConversion).Cause(cause).Detail(detail, args...).Build()
}

// NotFound creates a not-found error
func NotFound(what, name string) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Registration creates a registration error
func Registration(name, detail string) *Error {
	return &Error{
		Phase:  PhaseRegister,
		Kind:   KindRegistration,
		Param:  name,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Tag returns err as an *Error carrying op. Errors that already name an
// operation are returned unchanged; foreign errors become native errors.
func Tag(err error, op string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		if e.Op != "" {
			return e
		}
		tagged := *e
		tagged.Op = op
		return &tagged
	}
	n := Native(err)
	n.Op = op
	return n
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is is errors.Is re-exported so callers need a single import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is errors.As re-exported so callers need a single import.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
