package native

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Partition splits items into equivalence classes of the transitive closure
// of equal. Labels are numbered in order of first appearance. A non-nil
// error from equal aborts the partition.
func Partition[T any](items []T, equal func(a, b T) (bool, error)) ([]int, int, error) {
	n := len(items)
	parent := make([]int, n)
	rank := make([]int, n)
	for i := range parent {
		parent[i] = i
	}

	find := func(i int) int {
		root := i
		for parent[root] != root {
			root = parent[root]
		}
		for parent[i] != root {
			parent[i], i = root, parent[i]
		}
		return root
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ri, rj := find(i), find(j)
			if ri == rj {
				continue
			}
			eq, err := equal(items[i], items[j])
			if err != nil {
				return nil, 0, err
			}
			if !eq {
				continue
			}
			switch {
			case rank[ri] < rank[rj]:
				parent[ri] = rj
			case rank[ri] > rank[rj]:
				parent[rj] = ri
			default:
				parent[rj] = ri
				rank[ri]++
			}
		}
	}

	labels := make([]int, n)
	classOf := make(map[int]int, n)
	for i := 0; i < n; i++ {
		root := find(i)
		label, ok := classOf[root]
		if !ok {
			label = len(classOf)
			classOf[root] = label
		}
		labels[i] = label
	}
	return labels, len(classOf), nil
}

// Kmeans flags.
const (
	KmeansRandomCenters    = 0
	KmeansUseInitialLabels = 1
	KmeansPPCenters        = 2
)

// KmeansResult holds the best clustering over all attempts.
type KmeansResult struct {
	Labels      []int
	Centers     [][]float64
	Compactness float64
}

const kmeansSeed = 0x5eed

// Kmeans clusters data rows into k groups with Lloyd iterations.
// Initialisation is seeded and therefore reproducible.
func Kmeans(data [][]float64, k int, criteria TermCriteria, attempts, flags int, initial []int) (*KmeansResult, error) {
	n := len(data)
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrBadArgument, k)
	}
	if n < k {
		return nil, fmt.Errorf("%w: %d samples for %d clusters", ErrTooFewSamples, n, k)
	}
	if attempts < 1 {
		return nil, fmt.Errorf("%w: attempts must be positive, got %d", ErrBadArgument, attempts)
	}
	dims := len(data[0])
	if dims == 0 {
		return nil, fmt.Errorf("%w: samples have no dimensions", ErrBadArgument)
	}
	for i, row := range data {
		if len(row) != dims {
			return nil, fmt.Errorf("%w: sample %d has %d dimensions, expected %d", ErrSizeMismatch, i, len(row), dims)
		}
	}
	useInitial := flags&KmeansUseInitialLabels != 0
	if useInitial {
		if len(initial) != n {
			return nil, fmt.Errorf("%w: %d initial labels for %d samples", ErrSizeMismatch, len(initial), n)
		}
		for i, l := range initial {
			if l < 0 || l >= k {
				return nil, fmt.Errorf("%w: initial label %d at %d", ErrOutOfRange, l, i)
			}
		}
	}

	maxIter := criteria.maxIter(100)
	eps := criteria.epsilon()

	var best *KmeansResult
	for a := 0; a < attempts; a++ {
		rng := rand.New(rand.NewPCG(kmeansSeed, uint64(a)))

		var centers [][]float64
		if useInitial && a == 0 {
			centers = kmeansCentersFromLabels(data, initial, k, dims)
		} else if flags&KmeansPPCenters != 0 {
			centers = kmeansPP(data, k, rng)
		} else {
			centers = kmeansRandom(data, k, rng)
		}

		labels := make([]int, n)
		for it := 0; it < maxIter; it++ {
			kmeansAssign(data, centers, labels)
			next := kmeansCentersFromLabels(data, labels, k, dims)
			kmeansFillEmpty(data, labels, next, centers)

			shift := 0.0
			for c := range centers {
				shift = math.Max(shift, sqDist(centers[c], next[c]))
			}
			centers = next
			if shift <= eps*eps {
				break
			}
		}
		compactness := kmeansAssign(data, centers, labels)

		if best == nil || compactness < best.Compactness {
			best = &KmeansResult{Labels: labels, Centers: centers, Compactness: compactness}
		}
	}
	return best, nil
}

func kmeansAssign(data, centers [][]float64, labels []int) float64 {
	total := 0.0
	for i, row := range data {
		bestC, bestD := 0, math.Inf(1)
		for c, center := range centers {
			if d := sqDist(row, center); d < bestD {
				bestC, bestD = c, d
			}
		}
		labels[i] = bestC
		total += bestD
	}
	return total
}

func kmeansCentersFromLabels(data [][]float64, labels []int, k, dims int) [][]float64 {
	centers := make([][]float64, k)
	counts := make([]int, k)
	for c := range centers {
		centers[c] = make([]float64, dims)
	}
	for i, row := range data {
		c := labels[i]
		counts[c]++
		for d, v := range row {
			centers[c][d] += v
		}
	}
	for c := range centers {
		if counts[c] == 0 {
			centers[c] = nil
			continue
		}
		for d := range centers[c] {
			centers[c][d] /= float64(counts[c])
		}
	}
	return centers
}

// kmeansFillEmpty moves every empty cluster onto the sample farthest from
// its current center.
func kmeansFillEmpty(data [][]float64, labels []int, next, prev [][]float64) {
	for c := range next {
		if next[c] != nil {
			continue
		}
		far, farD := 0, -1.0
		for i, row := range data {
			ref := next[labels[i]]
			if ref == nil {
				ref = prev[labels[i]]
			}
			if d := sqDist(row, ref); d > farD {
				far, farD = i, d
			}
		}
		next[c] = append([]float64(nil), data[far]...)
		labels[far] = c
	}
}

func kmeansRandom(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, k)
	for c, i := range rng.Perm(len(data))[:k] {
		centers[c] = append([]float64(nil), data[i]...)
	}
	return centers
}

func kmeansPP(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(data)
	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64(nil), data[rng.IntN(n)]...))

	dist := make([]float64, n)
	for i, row := range data {
		dist[i] = sqDist(row, centers[0])
	}
	for len(centers) < k {
		sum := 0.0
		for _, d := range dist {
			sum += d
		}
		pick := 0
		if sum > 0 {
			target := rng.Float64() * sum
			for i, d := range dist {
				target -= d
				if target <= 0 && d > 0 {
					pick = i
					break
				}
				pick = i
			}
		} else {
			pick = rng.IntN(n)
		}
		c := append([]float64(nil), data[pick]...)
		centers = append(centers, c)
		for i, row := range data {
			dist[i] = math.Min(dist[i], sqDist(row, c))
		}
	}
	return centers
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// CartToPolar computes per-element magnitude and angle of (x, y).
// Angles are in [0, 2π) or [0, 360).
func CartToPolar(x, y *Mat, degrees bool) (magnitude, angle *Mat, err error) {
	if x.Empty() || y.Empty() {
		return nil, nil, ErrEmpty
	}
	if !x.SameShape(y) {
		return nil, nil, fmt.Errorf("%w: x is %dx%dx%d, y is %dx%dx%d",
			ErrSizeMismatch, x.Rows, x.Cols, x.Channels, y.Rows, y.Cols, y.Channels)
	}

	magnitude, angle = x.Clone(), x.Clone()
	for i := range x.Data {
		magnitude.Data[i] = math.Hypot(x.Data[i], y.Data[i])
		a := math.Atan2(y.Data[i], x.Data[i])
		if a < 0 {
			a += 2 * math.Pi
		}
		if degrees {
			a *= 180 / math.Pi
		}
		angle.Data[i] = a
	}
	return magnitude, angle, nil
}

// PolarToCart inverts CartToPolar. An empty magnitude is taken as all ones.
func PolarToCart(magnitude, angle *Mat, degrees bool) (x, y *Mat, err error) {
	if angle.Empty() {
		return nil, nil, ErrEmpty
	}
	if !magnitude.Empty() && !magnitude.SameShape(angle) {
		return nil, nil, fmt.Errorf("%w: magnitude is %dx%dx%d, angle is %dx%dx%d", ErrSizeMismatch,
			magnitude.Rows, magnitude.Cols, magnitude.Channels, angle.Rows, angle.Cols, angle.Channels)
	}

	x, y = angle.Clone(), angle.Clone()
	for i, a := range angle.Data {
		if degrees {
			a *= math.Pi / 180
		}
		m := 1.0
		if !magnitude.Empty() {
			m = magnitude.Data[i]
		}
		x.Data[i] = m * math.Cos(a)
		y.Data[i] = m * math.Sin(a)
	}
	return x, y, nil
}
