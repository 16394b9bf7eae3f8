package native

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// Detector finds keypoints and computes their descriptors.
type Detector interface {
	Name() string
	Detect(img, mask *Mat) ([]KeyPoint, error)
	// Compute drops keypoints too close to the border and returns one
	// descriptor row per remaining keypoint.
	Compute(img *Mat, keypoints []KeyPoint) ([]KeyPoint, *Mat, error)
}

// ORB score types.
const (
	ORBHarrisScore = 0
	ORBFastScore   = 1
)

// ORBParams configures the ORB detector.
type ORBParams struct {
	MaxFeatures   int
	ScaleFactor   float64
	NLevels       int
	EdgeThreshold int
	FirstLevel    int
	WTAK          int
	ScoreType     int
	PatchSize     int
	FastThreshold int
}

// DefaultORBParams mirrors the usual ORB defaults.
func DefaultORBParams() ORBParams {
	return ORBParams{
		MaxFeatures:   500,
		ScaleFactor:   1.2,
		NLevels:       8,
		EdgeThreshold: 31,
		FirstLevel:    0,
		WTAK:          2,
		ScoreType:     ORBHarrisScore,
		PatchSize:     31,
		FastThreshold: 20,
	}
}

// ORB is a corner detector with binary intensity-test descriptors.
type ORB struct {
	pairs  [][4]int
	Params ORBParams
}

const orbDescriptorBits = 256

// NewORB creates an ORB detector.
func NewORB(p ORBParams) (*ORB, error) {
	if p.MaxFeatures < 1 || p.PatchSize < 2 || p.EdgeThreshold < 0 || p.ScaleFactor <= 1 || p.NLevels < 1 {
		return nil, fmt.Errorf("%w: invalid ORB parameters %+v", ErrBadArgument, p)
	}
	r := p.PatchSize / 2
	rng := rand.New(rand.NewPCG(uint64(p.PatchSize), orbDescriptorBits))
	pairs := make([][4]int, orbDescriptorBits)
	for i := range pairs {
		pairs[i] = [4]int{rng.IntN(2*r+1) - r, rng.IntN(2*r+1) - r, rng.IntN(2*r+1) - r, rng.IntN(2*r+1) - r}
	}
	return &ORB{Params: p, pairs: pairs}, nil
}

func (o *ORB) Name() string { return "ORB" }

func (o *ORB) Detect(img, mask *Mat) ([]KeyPoint, error) {
	if err := checkGray(img, mask); err != nil {
		return nil, err
	}
	border := max(o.Params.EdgeThreshold, 1)
	thr := float64(o.Params.FastThreshold)

	score := func(y, x int) (float64, bool) {
		c := img.at(y, x)
		count, sum := 0, 0.0
		for _, d := range ring8 {
			diff := math.Abs(img.at(y+d[0], x+d[1]) - c)
			if diff > thr {
				count++
				sum += diff
			}
		}
		return sum, count >= 3
	}

	var kps []KeyPoint
	for y := border; y < img.Rows-border; y++ {
		for x := border; x < img.Cols-border; x++ {
			if !mask.Empty() && mask.at(y, x) == 0 {
				continue
			}
			s, ok := score(y, x)
			if !ok || !localMax(img, y, x, border, s, score) {
				continue
			}
			kps = append(kps, KeyPoint{
				Pt:       Point2{X: float64(x), Y: float64(y)},
				Size:     float64(o.Params.PatchSize),
				Angle:    centroidAngle(img, y, x),
				Response: s,
				Octave:   o.Params.FirstLevel,
				ClassID:  -1,
			})
		}
	}
	return retainBest(kps, o.Params.MaxFeatures), nil
}

func (o *ORB) Compute(img *Mat, keypoints []KeyPoint) ([]KeyPoint, *Mat, error) {
	if err := checkGray(img, nil); err != nil {
		return nil, nil, err
	}
	r := o.Params.PatchSize / 2
	kept := keepInside(img, keypoints, r)

	desc, err := NewMat(len(kept), orbDescriptorBits/8, 1)
	if err != nil {
		return nil, nil, err
	}
	for k, kp := range kept {
		x, y := int(kp.Pt.X), int(kp.Pt.Y)
		for i, p := range o.pairs {
			if img.at(y+p[1], x+p[0]) < img.at(y+p[3], x+p[2]) {
				desc.Data[k*desc.Cols+i/8] += float64(int(1) << (i % 8))
			}
		}
	}
	return kept, desc, nil
}

// AKAZE diffusivity types.
const (
	DiffPMG1        = 0
	DiffPMG2        = 1
	DiffWeickert    = 2
	DiffCharbonnier = 3
)

// AKAZEParams configures the AKAZE detector.
type AKAZEParams struct {
	DescriptorType     int
	DescriptorSize     int
	DescriptorChannels int
	Threshold          float64
	NOctaves           int
	NOctaveLayers      int
	Diffusivity        int
}

// DefaultAKAZEParams mirrors the usual AKAZE defaults.
func DefaultAKAZEParams() AKAZEParams {
	return AKAZEParams{
		DescriptorType:     5,
		DescriptorSize:     0,
		DescriptorChannels: 3,
		Threshold:          0.001,
		NOctaves:           4,
		NOctaveLayers:      4,
		Diffusivity:        DiffPMG2,
	}
}

// AKAZE is a blob detector on the Hessian determinant with gradient
// descriptors.
type AKAZE struct {
	Params AKAZEParams
}

const akazeRadius = 2

// NewAKAZE creates an AKAZE detector.
func NewAKAZE(p AKAZEParams) (*AKAZE, error) {
	if p.Threshold <= 0 || p.NOctaves < 1 || p.NOctaveLayers < 1 || p.DescriptorSize < 0 {
		return nil, fmt.Errorf("%w: invalid AKAZE parameters %+v", ErrBadArgument, p)
	}
	if p.Diffusivity < DiffPMG1 || p.Diffusivity > DiffCharbonnier {
		return nil, fmt.Errorf("%w: diffusivity %d", ErrUnsupported, p.Diffusivity)
	}
	return &AKAZE{Params: p}, nil
}

func (a *AKAZE) Name() string { return "AKAZE" }

func (a *AKAZE) Detect(img, mask *Mat) ([]KeyPoint, error) {
	if err := checkGray(img, mask); err != nil {
		return nil, err
	}
	score := func(y, x int) (float64, bool) {
		v := func(dy, dx int) float64 { return img.at(y+dy, x+dx) / 255 }
		dxx := v(0, 1) - 2*v(0, 0) + v(0, -1)
		dyy := v(1, 0) - 2*v(0, 0) + v(-1, 0)
		dxy := (v(1, 1) - v(1, -1) - v(-1, 1) + v(-1, -1)) / 4
		det := math.Abs(dxx*dyy - dxy*dxy)
		return det, det > a.Params.Threshold
	}

	var kps []KeyPoint
	for y := 1; y < img.Rows-1; y++ {
		for x := 1; x < img.Cols-1; x++ {
			if !mask.Empty() && mask.at(y, x) == 0 {
				continue
			}
			s, ok := score(y, x)
			if !ok || !localMax(img, y, x, 1, s, score) {
				continue
			}
			kps = append(kps, KeyPoint{
				Pt:       Point2{X: float64(x), Y: float64(y)},
				Size:     2 * akazeRadius * 1.6,
				Angle:    centroidAngle(img, y, x),
				Response: s,
				ClassID:  -1,
			})
		}
	}
	return retainBest(kps, 0), nil
}

func (a *AKAZE) Compute(img *Mat, keypoints []KeyPoint) ([]KeyPoint, *Mat, error) {
	if err := checkGray(img, nil); err != nil {
		return nil, nil, err
	}
	kept := keepInside(img, keypoints, akazeRadius+1)

	const full = 8
	size := full
	if a.Params.DescriptorSize > 0 && a.Params.DescriptorSize < full {
		size = a.Params.DescriptorSize
	}
	desc, err := NewMat(len(kept), size, 1)
	if err != nil {
		return nil, nil, err
	}
	for k, kp := range kept {
		x, y := int(kp.Pt.X), int(kp.Pt.Y)
		var cells [full]float64
		for dy := -akazeRadius; dy <= akazeRadius; dy++ {
			for dx := -akazeRadius; dx <= akazeRadius; dx++ {
				gx := (img.at(y+dy, x+dx+1) - img.at(y+dy, x+dx-1)) / 2
				gy := (img.at(y+dy+1, x+dx) - img.at(y+dy-1, x+dx)) / 2
				q := 0
				if dx >= 0 {
					q++
				}
				if dy >= 0 {
					q += 2
				}
				cells[2*q] += gx
				cells[2*q+1] += gy
			}
		}
		copy(desc.Data[k*size:(k+1)*size], cells[:size])
	}
	return kept, desc, nil
}

var ring8 = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}}

func checkGray(img, mask *Mat) error {
	if img.Empty() {
		return ErrEmpty
	}
	if img.Channels != 1 {
		return fmt.Errorf("%w: detectors need a single channel image, got %d", ErrChannels, img.Channels)
	}
	if !mask.Empty() && (mask.Rows != img.Rows || mask.Cols != img.Cols) {
		return fmt.Errorf("%w: mask must be %dx%d", ErrSizeMismatch, img.Rows, img.Cols)
	}
	return nil
}

// localMax reports whether s beats the scores of all in-bounds neighbours.
func localMax(img *Mat, y, x, border int, s float64, score func(y, x int) (float64, bool)) bool {
	for _, d := range ring8 {
		ny, nx := y+d[0], x+d[1]
		if ny < border || nx < border || ny >= img.Rows-border || nx >= img.Cols-border {
			continue
		}
		if ns, ok := score(ny, nx); ok && ns > s {
			return false
		}
	}
	return true
}

func centroidAngle(img *Mat, y, x int) float64 {
	m01, m10 := 0.0, 0.0
	for _, d := range ring8 {
		v := img.at(y+d[0], x+d[1])
		m01 += float64(d[0]) * v
		m10 += float64(d[1]) * v
	}
	a := math.Atan2(m01, m10) * 180 / math.Pi
	if a < 0 {
		a += 360
	}
	return a
}

func retainBest(kps []KeyPoint, limit int) []KeyPoint {
	sort.SliceStable(kps, func(i, j int) bool { return kps[i].Response > kps[j].Response })
	if limit > 0 && len(kps) > limit {
		kps = kps[:limit]
	}
	return kps
}

func keepInside(img *Mat, kps []KeyPoint, r int) []KeyPoint {
	kept := make([]KeyPoint, 0, len(kps))
	for _, kp := range kps {
		x, y := int(kp.Pt.X), int(kp.Pt.Y)
		if x-r >= 0 && y-r >= 0 && x+r < img.Cols && y+r < img.Rows {
			kept = append(kept, kp)
		}
	}
	return kept
}
