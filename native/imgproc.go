package native

import (
	"fmt"
	"math"
)

// Structuring element shapes.
const (
	MorphRect    = 0
	MorphCross   = 1
	MorphEllipse = 2
)

// GetStructuringElement builds a 0/1 kernel. An anchor of (-1, -1) selects
// the center.
func GetStructuringElement(shape int, ksize Size, anchor Point2) (*Mat, error) {
	w, h := int(ksize.Width), int(ksize.Height)
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: kernel size %dx%d", ErrBadArgument, w, h)
	}
	ax, ay := int(anchor.X), int(anchor.Y)
	if ax == -1 && ay == -1 {
		ax, ay = w/2, h/2
	}
	if ax < 0 || ax >= w || ay < 0 || ay >= h {
		return nil, fmt.Errorf("%w: anchor (%d, %d) outside %dx%d kernel", ErrOutOfRange, ax, ay, w, h)
	}

	m, _ := NewMat(h, w, 1)
	switch shape {
	case MorphRect:
		for i := range m.Data {
			m.Data[i] = 1
		}
	case MorphCross:
		for j := 0; j < w; j++ {
			m.Data[ay*w+j] = 1
		}
		for i := 0; i < h; i++ {
			m.Data[i*w+ax] = 1
		}
	case MorphEllipse:
		r, c := h/2, w/2
		invR2 := 0.0
		if r > 0 {
			invR2 = 1 / float64(r*r)
		}
		for i := 0; i < h; i++ {
			dy := i - r
			if dy < -r || dy > r {
				continue
			}
			dx := int(math.Round(float64(c) * math.Sqrt(float64(r*r-dy*dy)*invR2)))
			j1, j2 := max(c-dx, 0), min(c+dx+1, w)
			for j := j1; j < j2; j++ {
				m.Data[i*w+j] = 1
			}
		}
	default:
		return nil, fmt.Errorf("%w: structuring element shape %d", ErrUnsupported, shape)
	}
	return m, nil
}

// GetRotationMatrix2D returns the 2x3 affine matrix rotating by angle
// degrees around center and scaling by scale.
func GetRotationMatrix2D(center Point2, angle, scale float64) *Mat {
	rad := angle * math.Pi / 180
	alpha := scale * math.Cos(rad)
	beta := scale * math.Sin(rad)

	m, _ := NewMatFromData(2, 3, 1, []float64{
		alpha, beta, (1-alpha)*center.X - beta*center.Y,
		-beta, alpha, beta*center.X + (1-alpha)*center.Y,
	})
	return m
}

// GetAffineTransform solves for the 2x3 matrix mapping three src points
// onto three dst points.
func GetAffineTransform(src, dst []Point2) (*Mat, error) {
	if len(src) != 3 || len(dst) != 3 {
		return nil, fmt.Errorf("%w: need 3 point pairs, got %d and %d", ErrBadArgument, len(src), len(dst))
	}

	var a [6][7]float64
	for i := 0; i < 3; i++ {
		a[2*i] = [7]float64{src[i].X, src[i].Y, 1, 0, 0, 0, dst[i].X}
		a[2*i+1] = [7]float64{0, 0, 0, src[i].X, src[i].Y, 1, dst[i].Y}
	}

	for col := 0; col < 6; col++ {
		pivot := col
		for r := col + 1; r < 6; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, ErrSingular
		}
		a[col], a[pivot] = a[pivot], a[col]
		for r := 0; r < 6; r++ {
			if r == col {
				continue
			}
			f := a[r][col] / a[col][col]
			for c := col; c < 7; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	out := make([]float64, 6)
	for i := range out {
		out[i] = a[i][6] / a[i][i]
	}
	return NewMatFromData(2, 3, 1, out)
}

// Distance types for FitLine.
const (
	DistUser   = -1
	DistL1     = 1
	DistL2     = 2
	DistC      = 3
	DistL12    = 4
	DistFair   = 5
	DistWelsch = 6
	DistHuber  = 7
)

const fitLineIterations = 30

func lineWeight(distType int, param float64) (func(r float64) float64, error) {
	switch distType {
	case DistL2:
		return func(float64) float64 { return 1 }, nil
	case DistL1:
		return func(r float64) float64 { return 1 / math.Max(r, 1e-6) }, nil
	case DistL12:
		return func(r float64) float64 { return 1 / math.Sqrt(1+r*r/2) }, nil
	case DistFair:
		c := param
		if c <= 0 {
			c = 1.3998
		}
		return func(r float64) float64 { return 1 / (1 + r/c) }, nil
	case DistWelsch:
		c := param
		if c <= 0 {
			c = 2.9846
		}
		return func(r float64) float64 { return math.Exp(-(r / c) * (r / c)) }, nil
	case DistHuber:
		c := param
		if c <= 0 {
			c = 1.345
		}
		return func(r float64) float64 {
			if r < c {
				return 1
			}
			return c / r
		}, nil
	}
	return nil, fmt.Errorf("%w: distance type %d", ErrUnsupported, distType)
}

// FitLine2D fits a line to points, returning (vx, vy, x0, y0).
func FitLine2D(points []Point2, distType int, param, reps, aeps float64) (Vec4, error) {
	rows := make([][]float64, len(points))
	for i, p := range points {
		rows[i] = []float64{p.X, p.Y}
	}
	dir, pt, err := fitLine(rows, distType, param, reps, aeps)
	if err != nil {
		return Vec4{}, err
	}
	return Vec4{dir[0], dir[1], pt[0], pt[1]}, nil
}

// FitLine3D fits a line to points, returning (vx, vy, vz, x0, y0, z0).
func FitLine3D(points []Point3, distType int, param, reps, aeps float64) (Vec6, error) {
	rows := make([][]float64, len(points))
	for i, p := range points {
		rows[i] = []float64{p.X, p.Y, p.Z}
	}
	dir, pt, err := fitLine(rows, distType, param, reps, aeps)
	if err != nil {
		return Vec6{}, err
	}
	return Vec6{dir[0], dir[1], dir[2], pt[0], pt[1], pt[2]}, nil
}

// fitLine runs iteratively reweighted least squares; L2 converges in one
// pass.
func fitLine(points [][]float64, distType int, param, reps, aeps float64) (dir, pt []float64, err error) {
	if len(points) < 2 {
		return nil, nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrTooFewSamples, len(points))
	}
	weightOf, err := lineWeight(distType, param)
	if err != nil {
		return nil, nil, err
	}
	if reps <= 0 {
		reps = 0.01
	}
	if aeps <= 0 {
		aeps = 0.01
	}

	weights := make([]float64, len(points))
	for i := range weights {
		weights[i] = 1
	}

	for it := 0; it < fitLineIterations; it++ {
		nextDir, nextPt, err := weightedLine(points, weights)
		if err != nil {
			return nil, nil, err
		}
		if dir != nil && dot(nextDir, dir) < 0 {
			for i := range nextDir {
				nextDir[i] = -nextDir[i]
			}
		}

		converged := dir != nil &&
			math.Sqrt(sqDist(dir, nextDir)) < aeps &&
			math.Sqrt(sqDist(pt, nextPt)) < reps
		dir, pt = nextDir, nextPt
		if distType == DistL2 || converged {
			break
		}

		for i, p := range points {
			weights[i] = weightOf(distanceToLine(p, dir, pt))
		}
	}
	return dir, pt, nil
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func weightedLine(points [][]float64, weights []float64) (dir, pt []float64, err error) {
	dims := len(points[0])
	pt = make([]float64, dims)
	total := 0.0
	for i, p := range points {
		for d := range p {
			pt[d] += weights[i] * p[d]
		}
		total += weights[i]
	}
	if total == 0 {
		return nil, nil, ErrSingular
	}
	for d := range pt {
		pt[d] /= total
	}

	cov := make([][]float64, dims)
	for d := range cov {
		cov[d] = make([]float64, dims)
	}
	for i, p := range points {
		for r := 0; r < dims; r++ {
			for c := 0; c < dims; c++ {
				cov[r][c] += weights[i] * (p[r] - pt[r]) * (p[c] - pt[c])
			}
		}
	}

	if dims == 2 {
		theta := 0.5 * math.Atan2(2*cov[0][1], cov[0][0]-cov[1][1])
		return []float64{math.Cos(theta), math.Sin(theta)}, pt, nil
	}
	dir, err = principalAxis(cov)
	return dir, pt, err
}

// principalAxis finds the dominant eigenvector by power iteration.
func principalAxis(cov [][]float64) ([]float64, error) {
	dims := len(cov)
	v := make([]float64, dims)
	for i := range v {
		v[i] = 1 / math.Sqrt(float64(dims))
	}
	for it := 0; it < 200; it++ {
		next := make([]float64, dims)
		for r := 0; r < dims; r++ {
			for c := 0; c < dims; c++ {
				next[r] += cov[r][c] * v[c]
			}
		}
		norm := 0.0
		for _, x := range next {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if norm < 1e-15 {
			return nil, fmt.Errorf("%w: points do not span a line", ErrSingular)
		}
		for i := range next {
			next[i] /= norm
		}
		if sqDist(v, next) < 1e-24 {
			return next, nil
		}
		v = next
	}
	return v, nil
}

func distanceToLine(p, dir, pt []float64) float64 {
	diff := make([]float64, len(p))
	proj := 0.0
	for d := range p {
		diff[d] = p[d] - pt[d]
		proj += diff[d] * dir[d]
	}
	s := 0.0
	for d := range diff {
		r := diff[d] - proj*dir[d]
		s += r * r
	}
	return math.Sqrt(s)
}

// HistAxis describes one histogram dimension.
type HistAxis struct {
	Channel int
	Bins    int
	Lower   float64
	Upper   float64
}

// CalcHist counts image values per bin. The result has Bins[0] rows and the
// product of the remaining bins as columns. Values outside [Lower, Upper)
// and pixels where mask is zero are skipped.
func CalcHist(img *Mat, axes []HistAxis, mask *Mat) (*Mat, error) {
	if img.Empty() {
		return nil, ErrEmpty
	}
	if len(axes) < 1 || len(axes) > 4 {
		return nil, fmt.Errorf("%w: %d histogram dimensions", ErrBadArgument, len(axes))
	}
	for i, ax := range axes {
		if ax.Channel < 0 || ax.Channel >= img.Channels {
			return nil, fmt.Errorf("%w: axis %d channel %d of %d", ErrOutOfRange, i, ax.Channel, img.Channels)
		}
		if ax.Bins < 1 {
			return nil, fmt.Errorf("%w: axis %d has %d bins", ErrBadArgument, i, ax.Bins)
		}
		if !(ax.Lower < ax.Upper) {
			return nil, fmt.Errorf("%w: axis %d range [%g, %g)", ErrBadArgument, i, ax.Lower, ax.Upper)
		}
	}
	if !mask.Empty() && (mask.Rows != img.Rows || mask.Cols != img.Cols || mask.Channels != 1) {
		return nil, fmt.Errorf("%w: mask must be a single channel %dx%d matrix", ErrSizeMismatch, img.Rows, img.Cols)
	}

	cols := 1
	for _, ax := range axes[1:] {
		cols *= ax.Bins
	}
	hist, err := NewMat(axes[0].Bins, cols, 1)
	if err != nil {
		return nil, err
	}

	bins := make([]int, len(axes))
	for px := 0; px < img.Total(); px++ {
		if !mask.Empty() && mask.Data[px] == 0 {
			continue
		}
		inside := true
		for i, ax := range axes {
			v := img.Data[px*img.Channels+ax.Channel]
			if v < ax.Lower || v >= ax.Upper {
				inside = false
				break
			}
			bins[i] = int((v - ax.Lower) / (ax.Upper - ax.Lower) * float64(ax.Bins))
			if bins[i] >= ax.Bins {
				bins[i] = ax.Bins - 1
			}
		}
		if !inside {
			continue
		}
		idx := 0
		for i, ax := range axes {
			idx = idx*ax.Bins + bins[i]
		}
		hist.Data[idx]++
	}
	return hist, nil
}
