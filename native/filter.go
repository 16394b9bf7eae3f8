package native

import "fmt"

// GuidedFilter smooths src while keeping the edges of guide. guide must be
// single channel with the same size as src; every channel of src is
// filtered independently. Windows are (2*radius+1) squares clipped at the
// border.
func GuidedFilter(guide, src *Mat, radius int, eps float64) (*Mat, error) {
	if guide.Empty() || src.Empty() {
		return nil, ErrEmpty
	}
	if guide.Channels != 1 {
		return nil, fmt.Errorf("%w: guide has %d channels", ErrChannels, guide.Channels)
	}
	if guide.Rows != src.Rows || guide.Cols != src.Cols {
		return nil, fmt.Errorf("%w: guide is %dx%d, src is %dx%d",
			ErrSizeMismatch, guide.Rows, guide.Cols, src.Rows, src.Cols)
	}
	if radius < 1 {
		return nil, fmt.Errorf("%w: radius %d", ErrBadArgument, radius)
	}
	if eps <= 0 {
		return nil, fmt.Errorf("%w: eps %v", ErrBadArgument, eps)
	}

	rows, cols, n := src.Rows, src.Cols, src.Total()
	box := newBoxMean(rows, cols, radius)

	g := guide.Data
	gg := make([]float64, n)
	for i, v := range g {
		gg[i] = v * v
	}
	meanG := box.apply(g)
	varG := box.apply(gg)
	for i := range varG {
		varG[i] -= meanG[i] * meanG[i]
	}

	out, _ := NewMat(rows, cols, src.Channels)
	p := make([]float64, n)
	gp := make([]float64, n)
	a := make([]float64, n)
	b := make([]float64, n)
	for ch := 0; ch < src.Channels; ch++ {
		for i := range p {
			p[i] = src.Data[i*src.Channels+ch]
			gp[i] = g[i] * p[i]
		}
		meanP := box.apply(p)
		corrGP := box.apply(gp)
		for i := range a {
			a[i] = (corrGP[i] - meanG[i]*meanP[i]) / (varG[i] + eps)
			b[i] = meanP[i] - a[i]*meanG[i]
		}
		meanA := box.apply(a)
		meanB := box.apply(b)
		for i := range p {
			out.Data[i*src.Channels+ch] = meanA[i]*g[i] + meanB[i]
		}
	}
	return out, nil
}

// boxMean averages over clipped square windows using an integral image.
type boxMean struct {
	rows, cols, radius int
	sum                []float64
}

func newBoxMean(rows, cols, radius int) *boxMean {
	return &boxMean{rows: rows, cols: cols, radius: radius, sum: make([]float64, (rows+1)*(cols+1))}
}

func (b *boxMean) apply(src []float64) []float64 {
	w := b.cols + 1
	for r := 0; r < b.rows; r++ {
		row := 0.0
		for c := 0; c < b.cols; c++ {
			row += src[r*b.cols+c]
			b.sum[(r+1)*w+c+1] = b.sum[r*w+c+1] + row
		}
	}

	out := make([]float64, len(src))
	for r := 0; r < b.rows; r++ {
		r0, r1 := max(r-b.radius, 0), min(r+b.radius+1, b.rows)
		for c := 0; c < b.cols; c++ {
			c0, c1 := max(c-b.radius, 0), min(c+b.radius+1, b.cols)
			s := b.sum[r1*w+c1] - b.sum[r0*w+c1] - b.sum[r1*w+c0] + b.sum[r0*w+c0]
			out[r*b.cols+c] = s / float64((r1-r0)*(c1-c0))
		}
	}
	return out
}
