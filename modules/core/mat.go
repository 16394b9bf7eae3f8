package core

import (
	"context"

	"github.com/wippyai/nativebind/binding"
	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/native"
	"github.com/wippyai/nativebind/resource"
)

func (m *Module) registerMat(ns *binding.Namespace) error {
	if err := ns.Constructor("Mat", m.newMat,
		binding.WithDoc("Mat(data: MatData) or Mat(rows, cols, channels = 1, fill = 0)")); err != nil {
		return err
	}
	if err := binding.SyncMethod(ns, m.Mats, "at", matAt, binding.WithDoc("element at (row, col, channel = 0)")); err != nil {
		return err
	}
	if err := binding.SyncMethod(ns, m.Mats, "getData", matData, binding.WithDoc("record form {rows, cols, channels, data}")); err != nil {
		return err
	}
	if err := binding.Method(ns, m.Mats, "sum", func(self *native.Mat) binding.Worker {
		return &sumWorker{self: self}
	}, binding.WithDoc("per-channel element sums")); err != nil {
		return err
	}
	if err := binding.Method(ns, m.Mats, "guidedFilter", func(self *native.Mat) binding.Worker {
		return &guidedFilterWorker{self: self, mats: m.Mats}
	}, binding.WithDoc("edge-preserving smoothing by a single channel guide (guide, radius, eps)")); err != nil {
		return err
	}
	return binding.Release(ns, m.Mats)
}

func (m *Module) newMat(_ context.Context, a *convert.Args) (host.Value, error) {
	if a.IsObject(0) {
		var mat *native.Mat
		if convert.Arg(a, 0, convert.MatData, &mat) {
			return nil, a.Err()
		}
		return m.Mats.Wrap(mat), nil
	}

	rows, cols, channels, fill := 0, 0, 1, 0.0
	if a.Len() > 0 {
		if convert.Arg(a, 0, convert.Int, &rows) ||
			convert.Arg(a, 1, convert.Int, &cols) ||
			convert.OptArg(a, 2, convert.Int, &channels) ||
			convert.OptArg(a, 3, convert.Double, &fill) {
			return nil, a.Err()
		}
	}
	mat, err := native.NewMat(rows, cols, channels)
	if err != nil {
		return nil, errors.Precondition("", "%v", err)
	}
	if fill != 0 {
		for i := range mat.Data {
			mat.Data[i] = fill
		}
	}
	return m.Mats.Wrap(mat), nil
}

func matAt(_ context.Context, self *native.Mat, a *convert.Args) (host.Value, error) {
	var row, col, ch int
	if convert.Arg(a, 0, convert.Int, &row) ||
		convert.Arg(a, 1, convert.Int, &col) ||
		convert.OptArg(a, 2, convert.Int, &ch) {
		return nil, a.Err()
	}
	v, err := self.At(row, col, ch)
	if err != nil {
		return nil, errors.Precondition("", "%v", err)
	}
	return v, nil
}

func matData(_ context.Context, self *native.Mat, _ *convert.Args) (host.Value, error) {
	return convert.MatData.ToHost(self), nil
}

type sumWorker struct {
	self *native.Mat
	sums []float64
}

func (w *sumWorker) Unwrap(*convert.Args) error { return nil }

func (w *sumWorker) Execute(context.Context) error {
	w.sums = w.self.Sum()
	return nil
}

func (w *sumWorker) Result() (host.Value, error) {
	return convert.Array(convert.Double).ToHost(w.sums), nil
}

type guidedFilterWorker struct {
	self   *native.Mat
	mats   *resource.Class[*native.Mat]
	guide  *native.Mat
	radius int
	eps    float64
	out    *native.Mat
}

func (w *guidedFilterWorker) Unwrap(a *convert.Args) error {
	if convert.Arg(a, 0, convert.Handle(w.mats), &w.guide) ||
		convert.Arg(a, 1, convert.Int, &w.radius) ||
		convert.Arg(a, 2, convert.Double, &w.eps) {
		return a.Err()
	}
	return nil
}

func (w *guidedFilterWorker) Validate() error {
	if w.self.Empty() {
		return errors.Precondition("", "source is empty")
	}
	if w.guide.Empty() {
		return errors.Precondition(convert.Param(0), "guide is empty")
	}
	if w.guide.Channels != 1 {
		return errors.Precondition(convert.Param(0), "guide must be single channel, got %d channels", w.guide.Channels)
	}
	if w.guide.Rows != w.self.Rows || w.guide.Cols != w.self.Cols {
		return errors.Precondition(convert.Param(0), "guide is %dx%d, source is %dx%d",
			w.guide.Rows, w.guide.Cols, w.self.Rows, w.self.Cols)
	}
	if w.radius < 1 {
		return errors.Precondition(convert.Param(1), "radius must be positive, got %d", w.radius)
	}
	if w.eps <= 0 {
		return errors.Precondition(convert.Param(2), "eps must be positive, got %v", w.eps)
	}
	return nil
}

func (w *guidedFilterWorker) Execute(context.Context) (err error) {
	w.out, err = native.GuidedFilter(w.guide, w.self, w.radius, w.eps)
	return err
}

func (w *guidedFilterWorker) Result() (host.Value, error) {
	return w.mats.Wrap(w.out), nil
}
