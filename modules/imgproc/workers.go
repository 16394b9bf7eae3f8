package imgproc

import (
	"context"
	"fmt"

	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/native"
	"github.com/wippyai/nativebind/resource"
)

type affineWorker struct {
	mats     *resource.Class[*native.Mat]
	src, dst []native.Point2
	out      *native.Mat
}

func (w *affineWorker) Unwrap(a *convert.Args) error {
	if convert.Arg(a, 0, convert.Array(convert.Point2), &w.src) ||
		convert.Arg(a, 1, convert.Array(convert.Point2), &w.dst) {
		return a.Err()
	}
	return nil
}

func (w *affineWorker) Validate() error {
	if len(w.src) != 3 {
		return errors.Precondition(convert.Param(0), "expected 3 points, got %d", len(w.src))
	}
	if len(w.dst) != 3 {
		return errors.Precondition(convert.Param(1), "expected 3 points, got %d", len(w.dst))
	}
	return nil
}

func (w *affineWorker) Execute(context.Context) (err error) {
	w.out, err = native.GetAffineTransform(w.src, w.dst)
	return err
}

func (w *affineWorker) Result() (host.Value, error) { return w.mats.Wrap(w.out), nil }

// fitLineWorker fits Point2 data to (vx, vy, x0, y0) and Point3 data to
// (vx, vy, vz, x0, y0, z0).
type fitLineWorker struct {
	pts2        []native.Point2
	pts3        []native.Point3
	line        []float64
	distType    uint
	param, reps float64
	aeps        float64
	is3D        bool
}

func (w *fitLineWorker) Unwrap(a *convert.Args) error {
	if !a.IsArray(0) {
		return errors.TypeMismatch(convert.Param(0), "Array<Point2|Point3>", host.TypeName(a.Get(0)))
	}
	if data := a.Get(0).(host.Array); len(data) > 0 {
		w.is3D = convert.Matches(convert.Point3, data[0])
	}

	var failed bool
	if w.is3D {
		failed = convert.Arg(a, 0, convert.Array(convert.Point3), &w.pts3)
	} else {
		failed = convert.Arg(a, 0, convert.Array(convert.Point2), &w.pts2)
	}
	if failed ||
		convert.Arg(a, 1, convert.Uint, &w.distType) ||
		convert.Arg(a, 2, convert.Double, &w.param) ||
		convert.Arg(a, 3, convert.Double, &w.reps) ||
		convert.Arg(a, 4, convert.Double, &w.aeps) {
		return a.Err()
	}
	return nil
}

func (w *fitLineWorker) Validate() error {
	if n := max(len(w.pts2), len(w.pts3)); n < 2 {
		return errors.Precondition(convert.Param(0), "expected at least 2 points, got %d", n)
	}
	return nil
}

func (w *fitLineWorker) Execute(context.Context) error {
	if w.is3D {
		line, err := native.FitLine3D(w.pts3, int(w.distType), w.param, w.reps, w.aeps)
		if err != nil {
			return err
		}
		w.line = line[:]
		return nil
	}
	line, err := native.FitLine2D(w.pts2, int(w.distType), w.param, w.reps, w.aeps)
	if err != nil {
		return err
	}
	w.line = line[:]
	return nil
}

func (w *fitLineWorker) Result() (host.Value, error) {
	return convert.Array(convert.Double).ToHost(w.line), nil
}

// calcHistWorker owns its axis and output buffers for the duration of one
// call.
type calcHistWorker struct {
	mats      *resource.Class[*native.Mat]
	img, mask *native.Mat
	axes      []native.HistAxis
	hist      *native.Mat
}

func (w *calcHistWorker) Unwrap(a *convert.Args) error {
	mat := convert.Handle(w.mats)
	if convert.Arg(a, 0, mat, &w.img) ||
		convert.Arg(a, 1, convert.Array(convert.HistAxis), &w.axes) ||
		convert.OptArg(a, 2, mat, &w.mask) {
		return a.Err()
	}
	return nil
}

func (w *calcHistWorker) Validate() error {
	if w.img.Empty() {
		return errors.Precondition(convert.Param(0), "image is empty")
	}
	if len(w.axes) < 1 || len(w.axes) > 4 {
		return errors.Precondition(convert.Param(1), "expected 1 to 4 histogram axes, got %d", len(w.axes))
	}
	for i, ax := range w.axes {
		if ax.Channel < 0 || ax.Channel >= w.img.Channels {
			return errors.New(errors.PhaseValidate, errors.KindPrecondition).
				Param(convert.Param(1)).
				Path(fmt.Sprintf("[%d]", i), "channel").
				Detail("image has %d channels, got channel %d", w.img.Channels, ax.Channel).
				Build()
		}
	}
	if !w.mask.Empty() && (w.mask.Rows != w.img.Rows || w.mask.Cols != w.img.Cols || w.mask.Channels != 1) {
		return errors.Precondition(convert.Param(2), "mask is %dx%dx%d, expected %dx%dx1",
			w.mask.Rows, w.mask.Cols, w.mask.Channels, w.img.Rows, w.img.Cols)
	}
	return nil
}

func (w *calcHistWorker) Execute(context.Context) (err error) {
	w.hist, err = native.CalcHist(w.img, w.axes, w.mask)
	return err
}

func (w *calcHistWorker) Result() (host.Value, error) { return w.mats.Wrap(w.hist), nil }
