package core

import (
	"context"

	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/native"
)

// partition labels the elements of arg 0 by the equivalence classes of the
// host predicate in arg 1. The predicate runs on the calling goroutine, so
// partition has no async form.
func (m *Module) partition(_ context.Context, a *convert.Args) (host.Value, error) {
	if !a.IsArray(0) {
		return nil, errors.TypeMismatch(convert.Param(0), "array", host.TypeName(a.Get(0)))
	}
	var pred host.Function
	if convert.Arg(a, 1, convert.Function, &pred) {
		return nil, a.Err()
	}
	data := a.Get(0).(host.Array)
	if len(data) < 2 {
		return nil, errors.Precondition(convert.Param(0), "expected data to contain at least 2 elements, got %d", len(data))
	}

	var n int
	var failed bool
	switch first := data[0]; {
	case convert.Matches(convert.Point2, first):
		n, failed = count(a, convert.Point2)
	case convert.Matches(convert.Point3, first):
		n, failed = count(a, convert.Point3)
	case convert.Matches(convert.Vec2, first):
		n, failed = count(a, convert.Vec2)
	case convert.Matches(convert.Vec3, first):
		n, failed = count(a, convert.Vec3)
	case convert.Matches(convert.Vec4, first):
		n, failed = count(a, convert.Vec4)
	case m.Mats.Is(first):
		n, failed = count(a, convert.Handle(m.Mats))
	default:
		return nil, errors.TypeMismatch(convert.Param(0),
			"Array<Point2|Point3|Vec2|Vec3|Vec4|Mat>", "Array<"+host.TypeName(first)+">")
	}
	if failed {
		return nil, a.Err()
	}

	// The predicate sees the caller's own elements.
	index := make([]int, n)
	for i := range index {
		index[i] = i
	}
	labels, numLabels, err := native.Partition(index, func(i, j int) (bool, error) {
		v, err := pred(data[i], data[j])
		if err != nil {
			return false, err
		}
		eq, ok := v.(bool)
		if !ok {
			return false, errors.Argument(convert.Param(1), "predicate must return a boolean, got %s", host.TypeName(v))
		}
		return eq, nil
	})
	if err != nil {
		return nil, err
	}

	return host.Record{
		"labels":    convert.Array(convert.Int).ToHost(labels),
		"numLabels": convert.Int.ToHost(numLabels),
	}, nil
}

// count validates every element of arg 0 with c.
func count[T any](a *convert.Args, c convert.Converter[T]) (int, bool) {
	var items []T
	if convert.Arg(a, 0, convert.Array(c), &items) {
		return 0, true
	}
	return len(items), false
}
