package features2d

import "github.com/wippyai/nativebind/native"

// ORBOptions are the constructor options of ORBDetector.
type ORBOptions struct {
	MaxFeatures   int     `json:"maxFeatures,omitempty" validate:"gt=0" jsonschema:"description=maximum number of retained keypoints"`
	ScaleFactor   float64 `json:"scaleFactor,omitempty" validate:"gt=1"`
	NLevels       int     `json:"nLevels,omitempty" validate:"gt=0"`
	EdgeThreshold int     `json:"edgeThreshold,omitempty" validate:"gte=0"`
	FirstLevel    int     `json:"firstLevel,omitempty" validate:"gte=0"`
	WTAK          int     `json:"WTA_K,omitempty" validate:"oneof=2 3 4"`
	ScoreType     int     `json:"scoreType,omitempty" validate:"oneof=0 1"`
	PatchSize     int     `json:"patchSize,omitempty" validate:"gte=2"`
	FastThreshold int     `json:"fastThreshold,omitempty" validate:"gte=0"`
}

func defaultORBOptions() ORBOptions {
	p := native.DefaultORBParams()
	return ORBOptions{
		MaxFeatures:   p.MaxFeatures,
		ScaleFactor:   p.ScaleFactor,
		NLevels:       p.NLevels,
		EdgeThreshold: p.EdgeThreshold,
		FirstLevel:    p.FirstLevel,
		WTAK:          p.WTAK,
		ScoreType:     p.ScoreType,
		PatchSize:     p.PatchSize,
		FastThreshold: p.FastThreshold,
	}
}

func (o ORBOptions) params() native.ORBParams {
	return native.ORBParams{
		MaxFeatures:   o.MaxFeatures,
		ScaleFactor:   o.ScaleFactor,
		NLevels:       o.NLevels,
		EdgeThreshold: o.EdgeThreshold,
		FirstLevel:    o.FirstLevel,
		WTAK:          o.WTAK,
		ScoreType:     o.ScoreType,
		PatchSize:     o.PatchSize,
		FastThreshold: o.FastThreshold,
	}
}

// AKAZEOptions are the constructor options of AKAZEDetector.
type AKAZEOptions struct {
	DescriptorType     int     `json:"descriptorType,omitempty" validate:"gte=0"`
	DescriptorSize     int     `json:"descriptorSize,omitempty" validate:"gte=0"`
	DescriptorChannels int     `json:"descriptorChannels,omitempty" validate:"oneof=1 2 3"`
	Threshold          float64 `json:"threshold,omitempty" validate:"gt=0"`
	NOctaves           int     `json:"nOctaves,omitempty" validate:"gt=0"`
	NOctaveLayers      int     `json:"nOctaveLayers,omitempty" validate:"gt=0"`
	Diffusivity        int     `json:"diffusivity,omitempty" validate:"oneof=0 1 2 3"`
}

func defaultAKAZEOptions() AKAZEOptions {
	p := native.DefaultAKAZEParams()
	return AKAZEOptions{
		DescriptorType:     p.DescriptorType,
		DescriptorSize:     p.DescriptorSize,
		DescriptorChannels: p.DescriptorChannels,
		Threshold:          p.Threshold,
		NOctaves:           p.NOctaves,
		NOctaveLayers:      p.NOctaveLayers,
		Diffusivity:        p.Diffusivity,
	}
}

func (o AKAZEOptions) params() native.AKAZEParams {
	return native.AKAZEParams(o)
}
