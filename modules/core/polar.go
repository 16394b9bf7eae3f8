package core

import (
	"context"

	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/native"
	"github.com/wippyai/nativebind/resource"
)

type cartToPolarWorker struct {
	mats             *resource.Class[*native.Mat]
	x, y             *native.Mat
	magnitude, angle *native.Mat
	degrees          bool
}

func (w *cartToPolarWorker) Unwrap(a *convert.Args) error {
	mat := convert.Handle(w.mats)
	if convert.Arg(a, 0, mat, &w.x) ||
		convert.Arg(a, 1, mat, &w.y) ||
		convert.OptArg(a, 2, convert.Bool, &w.degrees) {
		return a.Err()
	}
	return nil
}

func (w *cartToPolarWorker) Validate() error {
	if w.x.Empty() {
		return errors.Precondition("x", "matrix is empty")
	}
	if !w.x.SameShape(w.y) {
		return errors.Precondition("y", "expected %dx%dx%d, got %dx%dx%d",
			w.x.Rows, w.x.Cols, w.x.Channels, w.y.Rows, w.y.Cols, w.y.Channels)
	}
	return nil
}

func (w *cartToPolarWorker) Execute(context.Context) (err error) {
	w.magnitude, w.angle, err = native.CartToPolar(w.x, w.y, w.degrees)
	return err
}

func (w *cartToPolarWorker) Result() (host.Value, error) {
	return host.Record{
		"magnitude": w.mats.Wrap(w.magnitude),
		"angle":     w.mats.Wrap(w.angle),
	}, nil
}

type polarToCartWorker struct {
	mats             *resource.Class[*native.Mat]
	magnitude, angle *native.Mat
	x, y             *native.Mat
	degrees          bool
}

func (w *polarToCartWorker) Unwrap(a *convert.Args) error {
	mat := convert.Handle(w.mats)
	if convert.Arg(a, 0, mat, &w.magnitude) ||
		convert.Arg(a, 1, mat, &w.angle) ||
		convert.OptArg(a, 2, convert.Bool, &w.degrees) {
		return a.Err()
	}
	return nil
}

func (w *polarToCartWorker) Validate() error {
	if w.angle.Empty() {
		return errors.Precondition("angle", "matrix is empty")
	}
	if !w.magnitude.Empty() && !w.magnitude.SameShape(w.angle) {
		return errors.Precondition("magnitude", "expected %dx%dx%d or empty, got %dx%dx%d",
			w.angle.Rows, w.angle.Cols, w.angle.Channels, w.magnitude.Rows, w.magnitude.Cols, w.magnitude.Channels)
	}
	return nil
}

func (w *polarToCartWorker) Execute(context.Context) (err error) {
	w.x, w.y, err = native.PolarToCart(w.magnitude, w.angle, w.degrees)
	return err
}

func (w *polarToCartWorker) Result() (host.Value, error) {
	return host.Record{
		"x": w.mats.Wrap(w.x),
		"y": w.mats.Wrap(w.y),
	}, nil
}
