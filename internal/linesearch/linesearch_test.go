package linesearch

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/optikit/internal/fn"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func testQuadratic(t *testing.T) *fn.Quadratic {
	t.Helper()
	Q := mat.NewSymDense(2, []float64{2, 0, 0, 10})
	f, err := fn.NewQuadratic(Q, []float64{0, 0})
	if err != nil {
		t.Fatalf("Failed to build quadratic: %v", err)
	}
	return f
}

func TestExactMinimizesAlongDirection(t *testing.T) {
	f := testQuadratic(t)
	x := []float64{3, 1}
	g := f.Gradient(x)
	d := []float64{-g[0], -g[1]}

	res, err := Exact{}.Search(f, x, d, f.Value(x), g)
	if err != nil {
		t.Fatalf("Exact search failed: %v", err)
	}

	// At the accepted point the directional derivative must vanish.
	nx := step(x, res.Alpha, d)
	if slope := floats.Dot(f.Gradient(nx), d); math.Abs(slope) > 1e-10 {
		t.Errorf("Expected zero slope at exact step, got %g", slope)
	}

	// Closed form: alpha = g'g / g'Qg.
	want := floats.Dot(g, g) / f.Curvature(d)
	if math.Abs(res.Alpha-want) > 1e-12 {
		t.Errorf("Expected alpha %g, got %g", want, res.Alpha)
	}
}

func TestExactRejectsNonQuadratic(t *testing.T) {
	f := fn.Rosenbrock{N: 2}
	x := []float64{-1.2, 1}
	g := f.Gradient(x)
	d := []float64{-g[0], -g[1]}

	_, err := Exact{}.Search(f, x, d, f.Value(x), g)
	if !errors.Is(err, fn.ErrNonQuadratic) {
		t.Errorf("Expected ErrNonQuadratic, got %v", err)
	}
}

func TestExactUnboundedDirection(t *testing.T) {
	// Indefinite quadratic: concave along the second coordinate.
	Q := mat.NewSymDense(2, []float64{1, 0, 0, -1})
	f, _ := fn.NewQuadratic(Q, []float64{0, 0})

	x := []float64{0, 1}
	g := f.Gradient(x) // (0, -1)
	d := []float64{0, 1}

	_, err := Exact{}.Search(f, x, d, f.Value(x), g)
	if !errors.Is(err, fn.ErrUnbounded) {
		t.Errorf("Expected ErrUnbounded, got %v", err)
	}
}

func TestBacktrackingSatisfiesArmijo(t *testing.T) {
	f := testQuadratic(t)
	x := []float64{3, 1}
	fx := f.Value(x)
	g := f.Gradient(x)
	d := []float64{-g[0], -g[1]}
	slope := floats.Dot(g, d)

	b := NewBacktracking()
	res, err := b.Search(f, x, d, fx, g)
	if err != nil {
		t.Fatalf("Backtracking failed: %v", err)
	}
	if res.Alpha <= 0 {
		t.Fatalf("Expected positive step, got %g", res.Alpha)
	}
	if res.F > fx+b.C1*res.Alpha*slope {
		t.Errorf("Accepted step violates sufficient decrease: f=%g", res.F)
	}
}

func TestBacktrackingRejectsAscent(t *testing.T) {
	f := testQuadratic(t)
	x := []float64{3, 1}
	g := f.Gradient(x)

	// The gradient itself is an ascent direction.
	_, err := NewBacktracking().Search(f, x, g, f.Value(x), g)
	if !errors.Is(err, ErrNotDescent) {
		t.Errorf("Expected ErrNotDescent, got %v", err)
	}
}

func TestBacktrackingFailsOnFlatObjective(t *testing.T) {
	// Constant objective with a lying nonzero gradient: no step decreases
	// f. At tiny trial steps the Armijo bound rounds to f(x), so without
	// the minimum-step floor and the strict-decrease check the search
	// would accept a numerically null move instead of failing.
	f := &fn.Func{
		N: 2,
		F: func(x []float64) float64 { return 1 },
		G: func(x []float64) []float64 { return []float64{1, 1} },
	}
	x := []float64{0, 0}
	g := f.Gradient(x)
	d := []float64{-1, -1}

	res, err := NewBacktracking().Search(f, x, d, f.Value(x), g)
	if !errors.Is(err, ErrLineSearch) {
		t.Fatalf("Expected ErrLineSearch, got %v (alpha %g)", err, res.Alpha)
	}
}

func TestBacktrackingWarmStart(t *testing.T) {
	f := testQuadratic(t)
	x := []float64{3, 1}
	g := f.Gradient(x)
	d := []float64{-g[0], -g[1]}

	b := NewBacktracking()
	b.WarmStart = true

	first, err := b.Search(f, x, d, f.Value(x), g)
	if err != nil {
		t.Fatalf("First search failed: %v", err)
	}

	// The second search starts from the previously accepted step, so it
	// cannot accept anything larger.
	second, err := b.Search(f, x, d, f.Value(x), g)
	if err != nil {
		t.Fatalf("Second search failed: %v", err)
	}
	if second.Alpha > first.Alpha {
		t.Errorf("Warm-started step %g exceeds previous %g", second.Alpha, first.Alpha)
	}
}

func TestWolfeSatisfiesBothConditions(t *testing.T) {
	f := fn.Rosenbrock{N: 2}
	x := []float64{-1.2, 1}
	fx := f.Value(x)
	g := f.Gradient(x)
	d := []float64{-g[0], -g[1]}
	slope0 := floats.Dot(g, d)

	w := NewWolfe()
	res, err := w.Search(f, x, d, fx, g)
	if err != nil {
		t.Fatalf("Wolfe search failed: %v", err)
	}

	if res.F > fx+w.C1*res.Alpha*slope0 {
		t.Errorf("Accepted step violates sufficient decrease: f=%g", res.F)
	}

	nx := step(x, res.Alpha, d)
	slope := floats.Dot(f.Gradient(nx), d)
	if math.Abs(slope) > w.C2*math.Abs(slope0) {
		t.Errorf("Accepted step violates curvature condition: slope %g", slope)
	}

	// Wolfe returns the gradient at the accepted point.
	if res.Grad == nil {
		t.Fatal("Expected gradient in result")
	}
	if !floats.EqualApprox(res.Grad, f.Gradient(nx), 1e-12) {
		t.Errorf("Result gradient %v disagrees with gradient at accepted point", res.Grad)
	}
}

func TestWolfeRejectsAscent(t *testing.T) {
	f := testQuadratic(t)
	x := []float64{3, 1}
	g := f.Gradient(x)

	_, err := NewWolfe().Search(f, x, g, f.Value(x), g)
	if !errors.Is(err, ErrNotDescent) {
		t.Errorf("Expected ErrNotDescent, got %v", err)
	}
}
