// Package tracking binds the single object trackers.
//
// A TrackerMIL keeps its template and last position between calls, so
// init must run before update. The native tracker serializes calls, but
// async calls run in pool order, so wait for initAsync before updateAsync.
package tracking

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

// Namespace is the qualifier of tracking operations in error tags.
const Namespace = "Tracking"

// MILOptions are the constructor options of TrackerMIL.
type MILOptions struct {
	SamplerSearchWinSize int     `json:"samplerSearchWinSize,omitempty" validate:"gt=0" jsonschema:"description=search radius in pixels around the last position"`
	LearningRate         float64 `json:"learningRate,omitempty" validate:"gte=0,lte=1"`
}

type module struct {
	mats     *resource.Class[*native.Mat]
	trackers *resource.Class[*native.Tracker]
}

// Register adds the tracker classes to reg.
func Register(reg *binding.Registry, c *core.Module) error {
	ns := reg.Namespace(Namespace)
	m := &module{
		mats:     c.Mats,
		trackers: resource.NewClass[*native.Tracker](reg.Env().Table, "TrackerMIL"),
	}

	if err := ns.Constructor("TrackerMIL", m.newMIL,
		binding.WithOptions(0, &MILOptions{}),
		binding.WithDoc("TrackerMIL(options) or TrackerMIL(samplerSearchWinSize, learningRate)")); err != nil {
		return err
	}
	if err := binding.Method(ns, m.trackers, "init", func(t *native.Tracker) binding.Worker {
		return &initWorker{tracker: t, mats: m.mats}
	}, binding.WithDoc("capture the object under a bounding box (frame, bbox)")); err != nil {
		return err
	}
	if err := binding.Method(ns, m.trackers, "update", func(t *native.Tracker) binding.Worker {
		return &updateWorker{tracker: t, mats: m.mats}
	}, binding.WithDoc("bounding box of the object in the next frame")); err != nil {
		return err
	}
	if err := binding.SyncMethod(ns, m.trackers, "clear", clearTracker,
		binding.WithDoc("forget the object; init must run again")); err != nil {
		return err
	}
	return binding.Release(ns, m.trackers)
}

func (m *module) newMIL(_ context.Context, a *convert.Args) (host.Value, error) {
	p := native.DefaultTrackerParams()
	o := MILOptions{SamplerSearchWinSize: p.SearchRadius, LearningRate: p.LearningRate}
	a.UseOptions(0)
	if convert.Opt(a, 0, "samplerSearchWinSize", convert.Int, &o.SamplerSearchWinSize) ||
		convert.Opt(a, 1, "learningRate", convert.Double, &o.LearningRate) {
		return nil, a.Err()
	}
	if err := binding.ValidateStruct(convert.Param(0), o); err != nil {
		return nil, err
	}

	t, err := native.NewTracker(native.TrackerParams{
		SearchRadius: o.SamplerSearchWinSize,
		LearningRate: o.LearningRate,
	})
	if err != nil {
		return nil, errors.Precondition(convert.Param(0), "%v", err)
	}
	return m.trackers.Wrap(t), nil
}

func clearTracker(_ context.Context, t *native.Tracker, _ *convert.Args) (host.Value, error) {
	t.Clear()
	return host.Undefined, nil
}

type initWorker struct {
	tracker *native.Tracker
	mats    *resource.Class[*native.Mat]
	frame   *native.Mat
	box     native.Rect
}

func (w *initWorker) Unwrap(a *convert.Args) error {
	if convert.Arg(a, 0, convert.Handle(w.mats), &w.frame) ||
		convert.Arg(a, 1, convert.Rect, &w.box) {
		return a.Err()
	}
	return nil
}

func (w *initWorker) Validate() error {
	if w.frame.Empty() {
		return errors.Precondition(convert.Param(0), "frame is empty")
	}
	if err := native.CheckBox(w.frame, w.box); err != nil {
		return errors.Precondition(convert.Param(1), "%v", err)
	}
	return nil
}

func (w *initWorker) Execute(context.Context) error {
	return w.tracker.Init(w.frame, w.box)
}

func (w *initWorker) Result() (host.Value, error) {
	return true, nil
}

type updateWorker struct {
	tracker *native.Tracker
	mats    *resource.Class[*native.Mat]
	frame   *native.Mat
	box     native.Rect
}

func (w *updateWorker) Unwrap(a *convert.Args) error {
	if convert.Arg(a, 0, convert.Handle(w.mats), &w.frame) {
		return a.Err()
	}
	return nil
}

func (w *updateWorker) Validate() error {
	if w.frame.Empty() {
		return errors.Precondition(convert.Param(0), "frame is empty")
	}
	return nil
}

func (w *updateWorker) Execute(context.Context) (err error) {
	w.box, err = w.tracker.Update(w.frame)
	return err
}

func (w *updateWorker) Result() (host.Value, error) {
	return convert.Rect.ToHost(w.box), nil
}
