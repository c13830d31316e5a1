package solver

import (
	"testing"

	"github.com/cwbudde/optikit/internal/fn"
	"gonum.org/v1/gonum/floats"
)

func TestAdamWindowedDecrease(t *testing.T) {
	f := fn.Sphere{N: 4}
	cfg := quietConfig()
	cfg.LineSearch = LineSearchNone
	cfg.Tol = 0
	cfg.MaxIter = 1000
	cfg.Patience = 0

	a, err := NewAdaptive(f, []float64{2, -2, 1.5, -1}, NewAdam(0.1), cfg)
	if err != nil {
		t.Fatalf("Failed to build solver: %v", err)
	}
	result, err := a.Run()
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	if result.Status != StatusMaxIter {
		t.Fatalf("Expected max_iter with zero tolerance, got %s", result.Status)
	}
	values := result.History.Values()
	if len(values) != 1001 {
		t.Fatalf("Expected 1001 history entries, got %d", len(values))
	}

	// Single Adam steps overshoot; a 50-iteration moving average must
	// still decrease window over window.
	const window = 50
	prev := floats.Sum(values[:window]) / window
	for start := window; start+window <= len(values); start += window {
		mean := floats.Sum(values[start:start+window]) / window
		if mean > prev+1e-12 {
			t.Fatalf("Window mean rose from %g to %g at iteration %d", prev, mean, start)
		}
		prev = mean
	}
}

func TestSteppersReduceSphere(t *testing.T) {
	x0 := []float64{2, -1.5, 1}
	f := fn.Sphere{N: 3}
	f0 := f.Value(x0)

	steppers := map[string]Stepper{
		"adam":     NewAdam(0.05),
		"amsgrad":  NewAMSGrad(0.05),
		"adamax":   NewAdaMax(0.05),
		"adagrad":  NewAdaGrad(0.5),
		"adadelta": NewAdaDelta(),
		"rmsprop":  NewRMSProp(0.05),
		"rprop":    NewRProp(),
	}

	for name, stepper := range steppers {
		cfg := quietConfig()
		cfg.LineSearch = LineSearchNone
		cfg.Tol = 1e-8
		cfg.MaxIter = 3000
		cfg.Patience = 0

		a, err := NewAdaptive(f, x0, stepper, cfg)
		if err != nil {
			t.Fatalf("%s: failed to build solver: %v", name, err)
		}
		result, err := a.Run()
		if err != nil {
			t.Fatalf("%s: solve failed: %v", name, err)
		}
		if result.F >= f0/2 {
			t.Errorf("%s: expected substantial decrease from %g, got %g", name, f0, result.F)
		}
	}
}

func TestAdaptiveRejectsLineSearch(t *testing.T) {
	f := fn.Sphere{N: 2}
	x0 := []float64{1, 1}

	cfg := quietConfig()
	cfg.LineSearch = LineSearchBacktracking
	if _, err := NewAdaptive(f, x0, NewAdam(0.1), cfg); err == nil {
		t.Error("Expected error for backtracking line search")
	}

	cfg.LineSearch = LineSearchWolfe
	if _, err := NewAdaptive(f, x0, NewAdam(0.1), cfg); err == nil {
		t.Error("Expected error for wolfe line search")
	}

	cfg.LineSearch = LineSearchExact
	if _, err := NewAdaptive(f, x0, NewAdam(0.1), cfg); err == nil {
		t.Error("Expected error for exact line search")
	}
}

func TestRPropHoldsCoordinateOnSignFlip(t *testing.T) {
	r := NewRProp()

	u1 := r.Update([]float64{1, 1}, 1)
	if u1[0] != r.StepInit {
		t.Fatalf("Expected initial step %g, got %g", r.StepInit, u1[0])
	}

	// Same sign grows the step.
	u2 := r.Update([]float64{1, 1}, 2)
	if u2[0] <= u1[0] {
		t.Errorf("Expected grown step, got %g after %g", u2[0], u1[0])
	}

	// Sign flip suppresses the update and shrinks the stored step.
	u3 := r.Update([]float64{-1, 1}, 3)
	if u3[0] != 0 {
		t.Errorf("Expected held coordinate on sign flip, got %g", u3[0])
	}
	if u3[1] <= u2[1] {
		t.Errorf("Expected agreeing coordinate to keep growing, got %g", u3[1])
	}
}

func TestAMSGradStepNeverExceedsAdam(t *testing.T) {
	// With the same gradient stream the AMSGrad denominator dominates
	// Adam's, so its steps can only be smaller or equal.
	adam := NewAdam(0.1)
	ams := NewAMSGrad(0.1)

	grads := [][]float64{{1}, {0.5}, {2}, {0.1}, {0.05}}
	for k, g := range grads {
		ua := adam.Update(append([]float64(nil), g...), k+1)
		um := ams.Update(append([]float64(nil), g...), k+1)
		if um[0] > ua[0]+1e-15 {
			t.Fatalf("AMSGrad step %g exceeds Adam step %g at iteration %d", um[0], ua[0], k+1)
		}
	}
}
