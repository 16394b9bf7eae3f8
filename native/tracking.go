package native

import (
	"fmt"
	"math"
	"sync"
)

// TrackerParams configure a Tracker.
type TrackerParams struct {
	// SearchRadius bounds the displacement, in pixels, between two updates.
	SearchRadius int
	// LearningRate blends the matched patch into the template after each
	// update. Zero keeps the initial template.
	LearningRate float64
}

// DefaultTrackerParams returns the defaults of TrackerMIL.
func DefaultTrackerParams() TrackerParams {
	return TrackerParams{SearchRadius: 25, LearningRate: 0}
}

// Tracker follows one object across frames. Init captures the object's
// appearance under a bounding box; each Update finds the window of the
// next frame closest to that appearance within SearchRadius of the last
// position. Calls are serialized, so a Tracker may be shared by workers.
type Tracker struct {
	Params TrackerParams

	mu       sync.Mutex
	template []float64
	channels int
	box      Rect
	ready    bool
}

// NewTracker validates params.
func NewTracker(params TrackerParams) (*Tracker, error) {
	if params.SearchRadius < 1 {
		return nil, fmt.Errorf("%w: search radius %d", ErrBadArgument, params.SearchRadius)
	}
	if params.LearningRate < 0 || params.LearningRate > 1 {
		return nil, fmt.Errorf("%w: learning rate %v", ErrBadArgument, params.LearningRate)
	}
	return &Tracker{Params: params}, nil
}

// CheckBox reports whether box is a whole-pixel window inside frame.
func CheckBox(frame *Mat, box Rect) error {
	if box.Width < 1 || box.Height < 1 {
		return fmt.Errorf("%w: box %vx%v is empty", ErrBadArgument, box.Width, box.Height)
	}
	for _, v := range []float64{box.X, box.Y, box.Width, box.Height} {
		if v != math.Trunc(v) {
			return fmt.Errorf("%w: box %+v is not pixel aligned", ErrBadArgument, box)
		}
	}
	if box.X < 0 || box.Y < 0 || box.X+box.Width > float64(frame.Cols) || box.Y+box.Height > float64(frame.Rows) {
		return fmt.Errorf("%w: box %+v outside %dx%d frame", ErrOutOfRange, box, frame.Cols, frame.Rows)
	}
	return nil
}

// Init captures the template under box and resets the position.
func (t *Tracker) Init(frame *Mat, box Rect) error {
	if frame.Empty() {
		return ErrEmpty
	}
	if err := CheckBox(frame, box); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.template = patch(frame, int(box.X), int(box.Y), int(box.Width), int(box.Height))
	t.channels = frame.Channels
	t.box = box
	t.ready = true
	return nil
}

// Update moves the box to the best match in frame and returns it.
func (t *Tracker) Update(frame *Mat) (Rect, error) {
	if frame.Empty() {
		return Rect{}, ErrEmpty
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return Rect{}, fmt.Errorf("%w: tracker is not initialized", ErrEmpty)
	}
	if frame.Channels != t.channels {
		return Rect{}, fmt.Errorf("%w: frame has %d channels, tracker was initialized with %d",
			ErrChannels, frame.Channels, t.channels)
	}
	w, h := int(t.box.Width), int(t.box.Height)
	if w > frame.Cols || h > frame.Rows {
		return Rect{}, fmt.Errorf("%w: %dx%d frame is smaller than the %dx%d box",
			ErrSizeMismatch, frame.Cols, frame.Rows, w, h)
	}

	x0, y0 := int(t.box.X), int(t.box.Y)
	r := t.Params.SearchRadius
	bestX, bestY, best := -1, -1, math.Inf(1)
	for y := max(y0-r, 0); y <= min(y0+r, frame.Rows-h); y++ {
		for x := max(x0-r, 0); x <= min(x0+r, frame.Cols-w); x++ {
			d := t.distance(frame, x, y, w, h, best)
			// ties go to the smaller displacement
			if d < best || d == best && shift(x-x0, y-y0) < shift(bestX-x0, bestY-y0) {
				bestX, bestY, best = x, y, d
			}
		}
	}

	if bestX < 0 {
		return Rect{}, fmt.Errorf("%w: no window within %d pixels of %+v", ErrOutOfRange, r, t.box)
	}

	if rate := t.Params.LearningRate; rate > 0 {
		next := patch(frame, bestX, bestY, w, h)
		for i := range t.template {
			t.template[i] = (1-rate)*t.template[i] + rate*next[i]
		}
	}
	t.box.X, t.box.Y = float64(bestX), float64(bestY)
	return t.box, nil
}

// Box returns the last tracked position.
func (t *Tracker) Box() (Rect, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.box, t.ready
}

// Clear forgets the template; Init must run again before Update.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.template = nil
	t.box = Rect{}
	t.ready = false
}

// distance is the sum of squared differences between the template and the
// window at (x, y). It stops early once bound is exceeded.
func (t *Tracker) distance(frame *Mat, x, y, w, h int, bound float64) float64 {
	d, k := 0.0, 0
	for r := 0; r < h; r++ {
		row := ((y+r)*frame.Cols + x) * frame.Channels
		for i := 0; i < w*frame.Channels; i++ {
			diff := frame.Data[row+i] - t.template[k]
			d += diff * diff
			k++
		}
		if d > bound {
			return d
		}
	}
	return d
}

func patch(frame *Mat, x, y, w, h int) []float64 {
	out := make([]float64, 0, w*h*frame.Channels)
	for r := 0; r < h; r++ {
		row := ((y+r)*frame.Cols + x) * frame.Channels
		out = append(out, frame.Data[row:row+w*frame.Channels]...)
	}
	return out
}

func shift(dx, dy int) int {
	return dx*dx + dy*dy
}
