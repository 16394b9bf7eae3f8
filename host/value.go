package host

import (
	"fmt"
	"math"
)

// Value is any value that can cross into the host.
type Value = any

// Array is the host array representation.
type Array = []any

// Record is the host object representation, also used for options bags.
type Record = map[string]any

// Function is a callable host function.
type Function func(args ...Value) (Value, error)

// Wrapped is implemented by host objects bound to a native handle.
type Wrapped interface {
	ClassName() string
	Alive() bool
}

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the value of an absent argument or a call without result.
var Undefined Value = undefined{}

// Kind enumerates host value kinds.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindBuffer
	KindArray
	KindObject
	KindFunction
	KindWrapped
	KindError
	KindUnknown
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBool:      "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindBuffer:    "buffer",
	KindArray:     "array",
	KindObject:    "object",
	KindFunction:  "function",
	KindWrapped:   "wrapped",
	KindError:     "error",
	KindUnknown:   "unknown",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// KindOf classifies v.
func KindOf(v Value) Kind {
	switch v.(type) {
	case undefined:
		return KindUndefined
	case nil:
		return KindNull
	case bool:
		return KindBool
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindNumber
	case string:
		return KindString
	case []byte:
		return KindBuffer
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	case Function, func(args ...Value) (Value, error):
		return KindFunction
	case Wrapped:
		return KindWrapped
	case error:
		return KindError
	default:
		return KindUnknown
	}
}

// TypeName describes v for error messages. Wrapped objects report their class.
func TypeName(v Value) string {
	if w, ok := v.(Wrapped); ok {
		return w.ClassName()
	}
	if k := KindOf(v); k != KindUnknown {
		return k.String()
	}
	return fmt.Sprintf("%T", v)
}

// IsUndefined reports whether v is Undefined.
func IsUndefined(v Value) bool {
	_, ok := v.(undefined)
	return ok
}

// AsNumber returns v as float64 when v is any Go numeric kind.
func AsNumber(v Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// AsFunction returns v as a Function.
func AsFunction(v Value) (Function, bool) {
	switch f := v.(type) {
	case Function:
		return f, f != nil
	case func(args ...Value) (Value, error):
		return Function(f), f != nil
	}
	return nil, false
}

// IsInteger reports whether f is integral and finite.
func IsInteger(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
}
