package core

import (
	"context"

	"github.com/wippyai/nativebind/binding"
	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/native"
)

// kmeansWorker clusters Point2 or Point3 records. The point kind of the
// first element selects the converter and the kind of returned centers.
type kmeansWorker struct {
	result   *native.KmeansResult
	data     [][]float64
	initial  []int
	criteria native.TermCriteria
	k        int
	attempts int
	flags    int
	is3D     bool
}

func (w *kmeansWorker) Unwrap(a *convert.Args) error {
	if !a.IsArray(0) {
		return errors.TypeMismatch(convert.Param(0), "Array<Point2|Point3>", host.TypeName(a.Get(0)))
	}
	if data := a.Get(0).(host.Array); len(data) > 0 {
		w.is3D = convert.Matches(convert.Point3, data[0])
	}

	if w.is3D {
		var pts []native.Point3
		if convert.Arg(a, 0, convert.Array(convert.Point3), &pts) {
			return a.Err()
		}
		for _, p := range pts {
			w.data = append(w.data, []float64{p.X, p.Y, p.Z})
		}
	} else {
		var pts []native.Point2
		if convert.Arg(a, 0, convert.Array(convert.Point2), &pts) {
			return a.Err()
		}
		for _, p := range pts {
			w.data = append(w.data, []float64{p.X, p.Y})
		}
	}

	if convert.Arg(a, 1, convert.Int, &w.k) ||
		convert.Arg(a, 2, convert.TermCriteria, &w.criteria) ||
		convert.Arg(a, 3, convert.Int, &w.attempts) ||
		convert.Arg(a, 4, convert.Int, &w.flags) ||
		convert.OptArg(a, 5, convert.Array(convert.Int), &w.initial) {
		return a.Err()
	}
	return nil
}

func (w *kmeansWorker) Validate() error {
	switch {
	case len(w.data) < 1:
		return errors.Precondition(convert.Param(0), "expected data to contain at least 1 element")
	case w.k < 1:
		return errors.Precondition(convert.Param(1), "k must be positive, got %d", w.k)
	case len(w.data) < w.k:
		return errors.Precondition(convert.Param(1), "%d points cannot form %d clusters", len(w.data), w.k)
	case w.attempts < 1:
		return errors.Precondition(convert.Param(3), "attempts must be positive, got %d", w.attempts)
	case w.flags&native.KmeansUseInitialLabels != 0 && len(w.initial) != len(w.data):
		return errors.Precondition(convert.Param(5), "expected %d initial labels, got %d", len(w.data), len(w.initial))
	}
	return nil
}

func (w *kmeansWorker) Execute(context.Context) error {
	res, err := native.Kmeans(w.data, w.k, w.criteria, w.attempts, w.flags, w.initial)
	if err != nil {
		return err
	}
	w.result = res
	return nil
}

func (w *kmeansWorker) Result() (host.Value, error) {
	centers := make(host.Array, len(w.result.Centers))
	for i, c := range w.result.Centers {
		if w.is3D {
			centers[i] = convert.Point3.ToHost(native.Point3{X: c[0], Y: c[1], Z: c[2]})
		} else {
			centers[i] = convert.Point2.ToHost(native.Point2{X: c[0], Y: c[1]})
		}
	}
	return host.Record{
		"labels":      convert.Array(convert.Int).ToHost(w.result.Labels),
		"centers":     centers,
		"compactness": w.result.Compactness,
	}, nil
}

var _ binding.Validator = (*kmeansWorker)(nil)
