// Package imgproc binds the image processing helpers.
package imgproc

import (
	"context"

	"github.com/wippyai/nativebind/binding"
	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/modules/core"
	"github.com/wippyai/nativebind/native"
	"github.com/wippyai/nativebind/resource"
)

// Namespace is the qualifier of imgproc operations in error tags.
const Namespace = "Imgproc"

type module struct {
	mats *resource.Class[*native.Mat]
}

// Register adds the imgproc operations to reg. Matrices are exchanged
// through the Mat class of c.
func Register(reg *binding.Registry, c *core.Module) error {
	ns := reg.Namespace(Namespace)
	m := &module{mats: c.Mats}

	if err := ns.Func("getStructuringElement", m.getStructuringElement,
		binding.WithDoc("0/1 kernel of shape (0 rect, 1 cross, 2 ellipse), size and optional anchor")); err != nil {
		return err
	}
	if err := ns.Func("getRotationMatrix2D", m.getRotationMatrix2D,
		binding.WithDoc("2x3 rotation matrix around center by angle degrees and scale")); err != nil {
		return err
	}
	if err := ns.SyncBinding("getAffineTransform", func() binding.Worker { return &affineWorker{mats: m.mats} },
		binding.WithDoc("2x3 affine matrix mapping three src points to three dst points")); err != nil {
		return err
	}
	if err := ns.SyncBinding("fitLine", func() binding.Worker { return &fitLineWorker{} },
		binding.WithDoc("robust line fit through Point2 or Point3 data")); err != nil {
		return err
	}
	return ns.Binding("calcHist", func() binding.Worker { return &calcHistWorker{mats: m.mats} },
		binding.WithDoc("histogram of img over up to four axes {channel, bins, ranges}"))
}

func (m *module) getStructuringElement(_ context.Context, a *convert.Args) (host.Value, error) {
	var (
		shape  uint
		size   native.Size
		anchor = native.Point2{X: -1, Y: -1}
	)
	if convert.Arg(a, 0, convert.Uint, &shape) ||
		convert.Arg(a, 1, convert.Size, &size) ||
		convert.OptArg(a, 2, convert.Point2, &anchor) {
		return nil, a.Err()
	}
	kernel, err := native.GetStructuringElement(int(shape), size, anchor)
	if err != nil {
		return nil, errors.Precondition("", "%v", err)
	}
	return m.mats.Wrap(kernel), nil
}

func (m *module) getRotationMatrix2D(_ context.Context, a *convert.Args) (host.Value, error) {
	var (
		center native.Point2
		angle  float64
		scale  = 1.0
	)
	if convert.Arg(a, 0, convert.Point2, &center) ||
		convert.Arg(a, 1, convert.Double, &angle) ||
		convert.OptArg(a, 2, convert.Double, &scale) {
		return nil, a.Err()
	}
	return m.mats.Wrap(native.GetRotationMatrix2D(center, angle, scale)), nil
}
