// Package features2d binds the keypoint detectors.
//
// ORBDetector and AKAZEDetector wrap the closed set of native.Detector
// variants. Both classes share detect and compute; the variant is fixed
// when the detector is constructed.
package features2d

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

// Namespace is the qualifier of features2d operations in error tags.
const Namespace = "Features2d"

type module struct {
	mats  *resource.Class[*native.Mat]
	orb   *resource.Class[native.Detector]
	akaze *resource.Class[native.Detector]
}

// Register adds the detector classes to reg.
func Register(reg *binding.Registry, c *core.Module) error {
	ns := reg.Namespace(Namespace)
	table := reg.Env().Table
	m := &module{
		mats:  c.Mats,
		orb:   resource.NewClass[native.Detector](table, "ORBDetector"),
		akaze: resource.NewClass[native.Detector](table, "AKAZEDetector"),
	}

	if err := ns.Constructor("ORBDetector", m.newORB,
		binding.WithOptions(0, &ORBOptions{}),
		binding.WithDoc("ORBDetector(options) or ORBDetector(maxFeatures, scaleFactor, ...)")); err != nil {
		return err
	}
	if err := ns.Constructor("AKAZEDetector", m.newAKAZE,
		binding.WithOptions(0, &AKAZEOptions{}),
		binding.WithDoc("AKAZEDetector(options) or AKAZEDetector(descriptorType, descriptorSize, ...)")); err != nil {
		return err
	}
	for _, class := range []*resource.Class[native.Detector]{m.orb, m.akaze} {
		if err := m.registerMethods(ns, class); err != nil {
			return err
		}
	}
	return nil
}

func (m *module) registerMethods(ns *binding.Namespace, class *resource.Class[native.Detector]) error {
	if err := binding.Method(ns, class, "detect", func(d native.Detector) binding.Worker {
		return &detectWorker{det: d, mats: m.mats}
	}, binding.WithDoc("keypoints of a single channel image, optional mask")); err != nil {
		return err
	}
	if err := binding.Method(ns, class, "compute", func(d native.Detector) binding.Worker {
		return &computeWorker{det: d, mats: m.mats}
	}, binding.WithDoc("descriptors of keypoints; keypoints near the border are dropped")); err != nil {
		return err
	}
	if err := binding.SyncMethod(ns, class, "params", detectorParams,
		binding.WithDoc("construction parameters")); err != nil {
		return err
	}
	return binding.Release(ns, class)
}

func (m *module) newORB(_ context.Context, a *convert.Args) (host.Value, error) {
	o := defaultORBOptions()
	a.UseOptions(0)
	if convert.Opt(a, 0, "maxFeatures", convert.Int, &o.MaxFeatures) ||
		convert.Opt(a, 1, "scaleFactor", convert.Double, &o.ScaleFactor) ||
		convert.Opt(a, 2, "nLevels", convert.Int, &o.NLevels) ||
		convert.Opt(a, 3, "edgeThreshold", convert.Int, &o.EdgeThreshold) ||
		convert.Opt(a, 4, "firstLevel", convert.Int, &o.FirstLevel) ||
		convert.Opt(a, 5, "WTA_K", convert.Int, &o.WTAK) ||
		convert.Opt(a, 6, "scoreType", convert.Int, &o.ScoreType) ||
		convert.Opt(a, 7, "patchSize", convert.Int, &o.PatchSize) ||
		convert.Opt(a, 8, "fastThreshold", convert.Int, &o.FastThreshold) {
		return nil, a.Err()
	}
	if err := binding.ValidateStruct(convert.Param(0), o); err != nil {
		return nil, err
	}

	det, err := native.NewORB(o.params())
	if err != nil {
		return nil, errors.Precondition(convert.Param(0), "%v", err)
	}
	return m.orb.Wrap(det), nil
}

func (m *module) newAKAZE(_ context.Context, a *convert.Args) (host.Value, error) {
	o := defaultAKAZEOptions()
	a.UseOptions(0)
	if convert.Opt(a, 0, "descriptorType", convert.Int, &o.DescriptorType) ||
		convert.Opt(a, 1, "descriptorSize", convert.Int, &o.DescriptorSize) ||
		convert.Opt(a, 2, "descriptorChannels", convert.Int, &o.DescriptorChannels) ||
		convert.Opt(a, 3, "threshold", convert.Double, &o.Threshold) ||
		convert.Opt(a, 4, "nOctaves", convert.Int, &o.NOctaves) ||
		convert.Opt(a, 5, "nOctaveLayers", convert.Int, &o.NOctaveLayers) ||
		convert.Opt(a, 6, "diffusivity", convert.Int, &o.Diffusivity) {
		return nil, a.Err()
	}
	if err := binding.ValidateStruct(convert.Param(0), o); err != nil {
		return nil, err
	}

	det, err := native.NewAKAZE(o.params())
	if err != nil {
		return nil, errors.Precondition(convert.Param(0), "%v", err)
	}
	return m.akaze.Wrap(det), nil
}

func detectorParams(_ context.Context, d native.Detector, _ *convert.Args) (host.Value, error) {
	switch d := d.(type) {
	case *native.ORB:
		p := d.Params
		return host.Record{
			"maxFeatures":   float64(p.MaxFeatures),
			"scaleFactor":   p.ScaleFactor,
			"nLevels":       float64(p.NLevels),
			"edgeThreshold": float64(p.EdgeThreshold),
			"firstLevel":    float64(p.FirstLevel),
			"WTA_K":         float64(p.WTAK),
			"scoreType":     float64(p.ScoreType),
			"patchSize":     float64(p.PatchSize),
			"fastThreshold": float64(p.FastThreshold),
		}, nil
	case *native.AKAZE:
		p := d.Params
		return host.Record{
			"descriptorType":     float64(p.DescriptorType),
			"descriptorSize":     float64(p.DescriptorSize),
			"descriptorChannels": float64(p.DescriptorChannels),
			"threshold":          p.Threshold,
			"nOctaves":           float64(p.NOctaves),
			"nOctaveLayers":      float64(p.NOctaveLayers),
			"diffusivity":        float64(p.Diffusivity),
		}, nil
	}
	return nil, errors.InternalConversion(nil, "unknown detector %s", d.Name())
}
