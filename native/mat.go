package native

import "fmt"

// Mat is a dense row-major matrix of float64 elements with interleaved
// channels.
type Mat struct {
	Data     []float64
	Rows     int
	Cols     int
	Channels int
}

// NewMat allocates a zero matrix.
func NewMat(rows, cols, channels int) (*Mat, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: negative size %dx%d", ErrBadArgument, rows, cols)
	}
	if channels < 1 || channels > 4 {
		return nil, fmt.Errorf("%w: %d", ErrChannels, channels)
	}
	return &Mat{
		Rows:     rows,
		Cols:     cols,
		Channels: channels,
		Data:     make([]float64, rows*cols*channels),
	}, nil
}

// NewMatFromData wraps data without copying.
func NewMatFromData(rows, cols, channels int, data []float64) (*Mat, error) {
	m := &Mat{Rows: rows, Cols: cols, Channels: channels}
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: negative size %dx%d", ErrBadArgument, rows, cols)
	}
	if channels < 1 || channels > 4 {
		return nil, fmt.Errorf("%w: %d", ErrChannels, channels)
	}
	if len(data) != rows*cols*channels {
		return nil, fmt.Errorf("%w: %dx%dx%d needs %d elements, got %d",
			ErrSizeMismatch, rows, cols, channels, rows*cols*channels, len(data))
	}
	m.Data = data
	return m, nil
}

// Empty reports whether the matrix has no elements.
func (m *Mat) Empty() bool {
	return m == nil || len(m.Data) == 0
}

// Total returns Rows*Cols.
func (m *Mat) Total() int {
	return m.Rows * m.Cols
}

// SameShape reports whether o has the same rows, cols and channels.
func (m *Mat) SameShape(o *Mat) bool {
	return o != nil && m.Rows == o.Rows && m.Cols == o.Cols && m.Channels == o.Channels
}

func (m *Mat) index(row, col, ch int) (int, error) {
	if row < 0 || row >= m.Rows || col < 0 || col >= m.Cols || ch < 0 || ch >= m.Channels {
		return 0, fmt.Errorf("%w: (%d, %d, %d) in %dx%dx%d",
			ErrOutOfRange, row, col, ch, m.Rows, m.Cols, m.Channels)
	}
	return (row*m.Cols+col)*m.Channels + ch, nil
}

// At returns one element.
func (m *Mat) At(row, col, ch int) (float64, error) {
	i, err := m.index(row, col, ch)
	if err != nil {
		return 0, err
	}
	return m.Data[i], nil
}

// Set writes one element.
func (m *Mat) Set(row, col, ch int, v float64) error {
	i, err := m.index(row, col, ch)
	if err != nil {
		return err
	}
	m.Data[i] = v
	return nil
}

func (m *Mat) at(row, col int) float64 {
	return m.Data[(row*m.Cols+col)*m.Channels]
}

// Clone deep-copies the matrix.
func (m *Mat) Clone() *Mat {
	c := *m
	c.Data = append([]float64(nil), m.Data...)
	return &c
}

// Sum returns the per-channel element sums.
func (m *Mat) Sum() []float64 {
	sums := make([]float64, m.Channels)
	for i, v := range m.Data {
		sums[i%m.Channels] += v
	}
	return sums
}

// Drop frees the element buffer.
func (m *Mat) Drop() {
	m.Data = nil
	m.Rows, m.Cols = 0, 0
}
