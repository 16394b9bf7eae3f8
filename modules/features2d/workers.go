package features2d

import (
	"context"

	"github.com/wippyai/nativebind/convert"
	"github.com/wippyai/nativebind/errors"
	"github.com/wippyai/nativebind/host"
	"github.com/wippyai/nativebind/native"
	"github.com/wippyai/nativebind/resource"
)

func checkGray(param string, img *native.Mat) error {
	if img.Empty() {
		return errors.Precondition(param, "image is empty")
	}
	if img.Channels != 1 {
		return errors.Precondition(param, "expected a single channel image, got %d channels", img.Channels)
	}
	return nil
}

type detectWorker struct {
	det       native.Detector
	mats      *resource.Class[*native.Mat]
	img, mask *native.Mat
	keypoints []native.KeyPoint
}

func (w *detectWorker) Unwrap(a *convert.Args) error {
	mat := convert.Handle(w.mats)
	if convert.Arg(a, 0, mat, &w.img) ||
		convert.OptArg(a, 1, mat, &w.mask) {
		return a.Err()
	}
	return nil
}

func (w *detectWorker) Validate() error {
	if err := checkGray(convert.Param(0), w.img); err != nil {
		return err
	}
	if !w.mask.Empty() && (w.mask.Rows != w.img.Rows || w.mask.Cols != w.img.Cols) {
		return errors.Precondition(convert.Param(1), "mask is %dx%d, image is %dx%d",
			w.mask.Rows, w.mask.Cols, w.img.Rows, w.img.Cols)
	}
	return nil
}

func (w *detectWorker) Execute(context.Context) (err error) {
	w.keypoints, err = w.det.Detect(w.img, w.mask)
	return err
}

func (w *detectWorker) Result() (host.Value, error) {
	return convert.Array(convert.KeyPoint).ToHost(w.keypoints), nil
}

type computeWorker struct {
	det         native.Detector
	mats        *resource.Class[*native.Mat]
	img         *native.Mat
	keypoints   []native.KeyPoint
	descriptors *native.Mat
}

func (w *computeWorker) Unwrap(a *convert.Args) error {
	if convert.Arg(a, 0, convert.Handle(w.mats), &w.img) ||
		convert.Arg(a, 1, convert.Array(convert.KeyPoint), &w.keypoints) {
		return a.Err()
	}
	return nil
}

func (w *computeWorker) Validate() error {
	return checkGray(convert.Param(0), w.img)
}

func (w *computeWorker) Execute(context.Context) (err error) {
	w.keypoints, w.descriptors, err = w.det.Compute(w.img, w.keypoints)
	return err
}

func (w *computeWorker) Result() (host.Value, error) {
	return host.Record{
		"keypoints":   convert.Array(convert.KeyPoint).ToHost(w.keypoints),
		"descriptors": w.mats.Wrap(w.descriptors),
	}, nil
}
