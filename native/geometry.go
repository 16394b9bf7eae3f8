package native

// Point2 is a 2D point.
type Point2 struct {
	X, Y float64
}

// Point3 is a 3D point.
type Point3 struct {
	X, Y, Z float64
}

type (
	Vec2 [2]float64
	Vec3 [3]float64
	Vec4 [4]float64
	Vec6 [6]float64
)

// Size is a 2D extent.
type Size struct {
	Width, Height float64
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, Width, Height float64
}

// Area returns Width*Height.
func (r Rect) Area() float64 { return r.Width * r.Height }

// Contains reports whether p lies inside r, right and bottom edges excluded.
func (r Rect) Contains(p Point2) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X < r.X+r.Width && p.Y < r.Y+r.Height
}

// Termination criteria type bits.
const (
	TermCount = 1
	TermEps   = 2
)

// TermCriteria bounds iterative algorithms.
type TermCriteria struct {
	Type     int
	MaxCount int
	Epsilon  float64
}

func (c TermCriteria) maxIter(fallback int) int {
	if c.Type&TermCount != 0 && c.MaxCount > 0 {
		return c.MaxCount
	}
	return fallback
}

func (c TermCriteria) epsilon() float64 {
	if c.Type&TermEps != 0 && c.Epsilon > 0 {
		return c.Epsilon
	}
	return 0
}

// KeyPoint is a salient image location found by a detector.
type KeyPoint struct {
	Pt       Point2
	Size     float64
	Angle    float64
	Response float64
	Octave   int
	ClassID  int
}
