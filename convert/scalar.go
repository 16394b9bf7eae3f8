package convert

import (
	"math"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"

	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
)

func number(name string, v host.Value) (float64, error) {
	f, ok := host.AsNumber(v)
	if !ok {
		return 0, mismatch(name, v)
	}
	return f, nil
}

func integer(name string, v host.Value, lo, hi float64) (float64, error) {
	f, err := number(name, v)
	if err != nil {
		return 0, err
	}
	if !host.IsInteger(f) {
		return 0, errors.New(errors.PhaseValidate, errors.KindArgument).
			NativeType(name).
			HostType("number").
			Value(f).
			Detail("%v is not an integer", f).
			Build()
	}
	if f < lo || f > hi {
		return 0, errors.New(errors.PhaseValidate, errors.KindArgument).
			NativeType(name).
			HostType("number").
			Value(f).
			Detail("%v out of range [%v, %v]", f, lo, hi).
			Build()
	}
	return f, nil
}

// Int accepts integral numbers in int32 range.
var Int Converter[int] = Func[int]{
	Name: "int",
	From: func(v host.Value) (int, error) {
		f, err := integer("int", v, math.MinInt32, math.MaxInt32)
		return int(f), err
	},
	To: func(v int) host.Value { return float64(v) },
}

// Uint accepts non-negative integral numbers in uint32 range.
var Uint Converter[uint] = Func[uint]{
	Name: "uint",
	From: func(v host.Value) (uint, error) {
		f, err := integer("uint", v, 0, math.MaxUint32)
		return uint(f), err
	},
	To: func(v uint) host.Value { return float64(v) },
}

// Double accepts any number, NaN and infinities included.
var Double Converter[float64] = Func[float64]{
	Name: "double",
	From: func(v host.Value) (float64, error) { return number("double", v) },
	To:   func(v float64) host.Value { return v },
}

// Float accepts any number and narrows it to float32.
var Float Converter[float32] = Func[float32]{
	Name: "float",
	From: func(v host.Value) (float32, error) {
		f, err := number("float", v)
		return float32(f), err
	},
	To: func(v float32) host.Value { return float64(v) },
}

// Bool accepts booleans only.
var Bool Converter[bool] = Func[bool]{
	Name: "bool",
	From: func(v host.Value) (bool, error) {
		b, ok := v.(bool)
		if !ok {
			return false, mismatch("bool", v)
		}
		return b, nil
	},
	To: func(v bool) host.Value { return v },
}

// String accepts strings only.
var String Converter[string] = Func[string]{
	Name: "string",
	From: func(v host.Value) (string, error) {
		s, ok := v.(string)
		if !ok {
			return "", mismatch("string", v)
		}
		return s, nil
	},
	To: func(v string) host.Value { return v },
}

var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// WString converts host strings to UTF-16 code units.
var WString Converter[[]uint16] = Func[[]uint16]{
	Name: "wstring",
	From: func(v host.Value) ([]uint16, error) {
		s, ok := v.(string)
		if !ok {
			return nil, mismatch("wstring", v)
		}
		raw, err := utf16LE.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil, errors.New(errors.PhaseValidate, errors.KindArgument).
				NativeType("wstring").
				HostType("string").
				Cause(err).
				Build()
		}
		units := make([]uint16, len(raw)/2)
		for i := range units {
			units[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
		}
		return units, nil
	},
	To: func(v []uint16) host.Value { return string(utf16.Decode(v)) },
}

// Bytes accepts buffers and copies them.
var Bytes Converter[[]byte] = Func[[]byte]{
	Name: "buffer",
	From: func(v host.Value) ([]byte, error) {
		b, ok := v.([]byte)
		if !ok {
			return nil, mismatch("buffer", v)
		}
		return append([]byte(nil), b...), nil
	},
	To: func(v []byte) host.Value { return append([]byte(nil), v...) },
}

// Function accepts host functions.
var Function Converter[host.Function] = Func[host.Function]{
	Name: "function",
	From: func(v host.Value) (host.Function, error) {
		fn, ok := host.AsFunction(v)
		if !ok {
			return nil, mismatch("function", v)
		}
		return fn, nil
	},
	To: func(v host.Function) host.Value { return v },
}

// Object accepts plain records.
var Object Converter[host.Record] = Func[host.Record]{
	Name: "object",
	From: func(v host.Value) (host.Record, error) {
		r, ok := v.(host.Record)
		if !ok {
			return nil, mismatch("object", v)
		}
		return r, nil
	},
	To: func(v host.Record) host.Value { return v },
}

// Any passes values through unchanged.
var Any Converter[host.Value] = Func[host.Value]{
	Name: "any",
	From: func(v host.Value) (host.Value, error) { return v, nil },
	To:   func(v host.Value) host.Value { return v },
}
