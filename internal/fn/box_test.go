package fn

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestBoxClipContains(t *testing.T) {
	box, err := NewBox([]float64{0, -1}, []float64{1, 1})
	if err != nil {
		t.Fatalf("Failed to build box: %v", err)
	}

	if !box.Contains([]float64{0.5, 0}) {
		t.Error("Interior point should be contained")
	}
	if !box.Contains([]float64{0, 1}) {
		t.Error("Boundary point should be contained")
	}
	if box.Contains([]float64{2, 0}) {
		t.Error("Exterior point should not be contained")
	}

	clipped := box.Clip([]float64{2, -3})
	if !floats.Equal(clipped, []float64{1, -1}) {
		t.Errorf("Expected clip (1, -1), got %v", clipped)
	}
	if !box.Contains(clipped) {
		t.Error("Clipped point must be feasible")
	}
}

func TestNewBoxRejectsInvertedBounds(t *testing.T) {
	if _, err := NewBox([]float64{1}, []float64{0}); err == nil {
		t.Error("Expected error for lower > upper")
	}
	if _, err := NewBox([]float64{0, 0}, []float64{1}); err == nil {
		t.Error("Expected error for mismatched bound lengths")
	}
}

func TestBoxVertex(t *testing.T) {
	box := UnitBox(3)

	// Minimizing vertex of g'y picks upper where g < 0, lower otherwise.
	v := box.Vertex([]float64{-1, 2, 0})
	if !floats.Equal(v, []float64{1, 0, 0}) {
		t.Errorf("Expected vertex (1, 0, 0), got %v", v)
	}
}

func TestBoxMaxStep(t *testing.T) {
	box := UnitBox(2)
	x := []float64{0.5, 0.5}

	// Moving toward the upper corner hits it at t = 0.5.
	if tMax := box.MaxStep(x, []float64{1, 1}); math.Abs(tMax-0.5) > 1e-12 {
		t.Errorf("Expected max step 0.5, got %g", tMax)
	}

	// A zero direction never leaves the box.
	if tMax := box.MaxStep(x, []float64{0, 0}); !math.IsInf(tMax, 1) {
		t.Errorf("Expected +Inf for zero direction, got %g", tMax)
	}
}
