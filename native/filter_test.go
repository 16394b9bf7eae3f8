package native

import (
	"errors"
	"math"
	"testing"
)

func TestGuidedFilter_Constant(t *testing.T) {
	guide, _ := NewMatFromData(3, 3, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	src, _ := NewMat(3, 3, 2)
	for i := range src.Data {
		src.Data[i] = 4
	}

	out, err := GuidedFilter(guide, src, 1, 0.01)
	if err != nil {
		t.Fatalf("GuidedFilter failed: %v", err)
	}
	if !out.SameShape(src) {
		t.Fatalf("Expected %dx%dx%d, got %dx%dx%d", src.Rows, src.Cols, src.Channels, out.Rows, out.Cols, out.Channels)
	}
	for i, v := range out.Data {
		if math.Abs(v-4) > 1e-9 {
			t.Fatalf("Expected constant 4, got %v at %d", v, i)
		}
	}
}

func TestGuidedFilter_KeepsEdges(t *testing.T) {
	// step edge between columns 2 and 3
	data := make([]float64, 6*6)
	for r := 0; r < 6; r++ {
		for c := 3; c < 6; c++ {
			data[r*6+c] = 1
		}
	}
	img, _ := NewMatFromData(6, 6, 1, data)

	sharp, err := GuidedFilter(img, img, 2, 1e-6)
	if err != nil {
		t.Fatalf("GuidedFilter failed: %v", err)
	}
	for i, v := range sharp.Data {
		if math.Abs(v-data[i]) > 1e-3 {
			t.Fatalf("Expected edge to survive small eps, got %v want %v at %d", v, data[i], i)
		}
	}

	smooth, _ := GuidedFilter(img, img, 2, 1e6)
	if v := smooth.Data[2*6+2]; v < 0.2 || v > 0.8 {
		t.Fatalf("Expected large eps to blur the edge, got %v", v)
	}
}

func TestGuidedFilter_Invalid(t *testing.T) {
	guide, _ := NewMat(2, 2, 1)
	src, _ := NewMat(2, 2, 1)
	color, _ := NewMat(2, 2, 3)
	wide, _ := NewMat(2, 3, 1)

	cases := []struct {
		name       string
		guide, src *Mat
		radius     int
		eps        float64
		want       error
	}{
		{"empty", &Mat{}, src, 1, 0.1, ErrEmpty},
		{"color guide", color, src, 1, 0.1, ErrChannels},
		{"size", wide, src, 1, 0.1, ErrSizeMismatch},
		{"radius", guide, src, 0, 0.1, ErrBadArgument},
		{"eps", guide, src, 1, 0, ErrBadArgument},
	}
	for _, tc := range cases {
		if _, err := GuidedFilter(tc.guide, tc.src, tc.radius, tc.eps); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}
