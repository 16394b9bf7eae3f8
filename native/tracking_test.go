package native

import (
	"errors"
	"sync"
	"testing"
)

// frameWithPattern draws a 3x3 pattern with its top-left corner at (x, y).
func frameWithPattern(rows, cols, x, y int) *Mat {
	m, _ := NewMat(rows, cols, 1)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Data[(y+r)*cols+x+c] = float64(10 * (r*3 + c + 1))
		}
	}
	return m
}

func TestTracker_FollowsPattern(t *testing.T) {
	tr, err := NewTracker(DefaultTrackerParams())
	if err != nil {
		t.Fatalf("NewTracker failed: %v", err)
	}

	if err := tr.Init(frameWithPattern(20, 20, 4, 5), Rect{X: 4, Y: 5, Width: 3, Height: 3}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	path := [][2]int{{7, 6}, {9, 9}, {12, 8}}
	for _, p := range path {
		box, err := tr.Update(frameWithPattern(20, 20, p[0], p[1]))
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		want := Rect{X: float64(p[0]), Y: float64(p[1]), Width: 3, Height: 3}
		if box != want {
			t.Fatalf("Expected %+v, got %+v", want, box)
		}
	}

	if box, ok := tr.Box(); !ok || box.X != 12 || box.Y != 8 {
		t.Fatalf("Expected last box at (12, 8), got %+v", box)
	}
}

func TestTracker_SearchRadius(t *testing.T) {
	tr, _ := NewTracker(TrackerParams{SearchRadius: 2})
	_ = tr.Init(frameWithPattern(20, 20, 2, 2), Rect{X: 2, Y: 2, Width: 3, Height: 3})

	// the pattern jumps beyond the radius, so the box stays within reach
	box, err := tr.Update(frameWithPattern(20, 20, 12, 12))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if box.X < 0 || box.X > 4 || box.Y < 0 || box.Y > 4 {
		t.Fatalf("Expected box within 2 pixels of (2, 2), got %+v", box)
	}
}

func TestTracker_State(t *testing.T) {
	tr, _ := NewTracker(DefaultTrackerParams())
	frame := frameWithPattern(10, 10, 0, 0)

	if _, err := tr.Update(frame); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Expected update before init to fail, got %v", err)
	}
	if err := tr.Init(frame, Rect{X: 8, Y: 8, Width: 3, Height: 3}); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Expected out of range box, got %v", err)
	}
	if err := tr.Init(frame, Rect{X: 0.5, Y: 0, Width: 3, Height: 3}); !errors.Is(err, ErrBadArgument) {
		t.Fatalf("Expected unaligned box to fail, got %v", err)
	}
	if err := tr.Init(frame, Rect{X: 0, Y: 0, Width: 3, Height: 3}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	color, _ := NewMat(10, 10, 3)
	if _, err := tr.Update(color); !errors.Is(err, ErrChannels) {
		t.Fatalf("Expected channel mismatch, got %v", err)
	}
	small, _ := NewMat(2, 2, 1)
	if _, err := tr.Update(small); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("Expected size mismatch, got %v", err)
	}

	tr.Clear()
	if _, ok := tr.Box(); ok {
		t.Fatal("Expected cleared tracker to have no box")
	}
	if _, err := tr.Update(frame); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Expected update after clear to fail, got %v", err)
	}

	if _, err := NewTracker(TrackerParams{SearchRadius: 0}); !errors.Is(err, ErrBadArgument) {
		t.Fatalf("Expected bad radius, got %v", err)
	}
	if _, err := NewTracker(TrackerParams{SearchRadius: 1, LearningRate: 2}); !errors.Is(err, ErrBadArgument) {
		t.Fatalf("Expected bad learning rate, got %v", err)
	}
}

func TestTracker_ConcurrentUpdates(t *testing.T) {
	tr, _ := NewTracker(TrackerParams{SearchRadius: 4, LearningRate: 0.5})
	frame := frameWithPattern(16, 16, 6, 6)
	_ = tr.Init(frame, Rect{X: 6, Y: 6, Width: 3, Height: 3})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tr.Update(frame); err != nil {
				t.Errorf("Update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if box, _ := tr.Box(); box.X != 6 || box.Y != 6 {
		t.Fatalf("Expected box to stay at (6, 6), got %+v", box)
	}
}
