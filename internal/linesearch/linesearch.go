// Package linesearch provides the step-size selection subroutines shared by
// the line-search descent solvers: exact minimization along a direction for
// quadratics, Armijo backtracking, and strong-Wolfe bracketing.
package linesearch

import (
	"errors"
	"fmt"

	"github.com/cwbudde/optikit/internal/fn"
	"gonum.org/v1/gonum/floats"
)

// ErrLineSearch reports that the trial-evaluation budget was exhausted
// without satisfying the acceptance conditions. Callers treat this as
// non-fatal and either terminate with a line-search-failed status or fall
// back to a minimal safeguarded step.
var ErrLineSearch = errors.New("line search failed")

// ErrNotDescent reports a search direction with nonnegative slope; no step
// along it can satisfy a decrease condition.
var ErrNotDescent = errors.New("not a descent direction")

// Result is the outcome of one line search, consumed immediately by the
// calling solver to form its next iterate.
type Result struct {
	// Alpha is the accepted step size.
	Alpha float64

	// F is the objective value at x + Alpha*d.
	F float64

	// Grad is the gradient at the new point when the search computed it
	// (Wolfe), nil otherwise.
	Grad []float64

	// Evals counts objective/gradient evaluations spent by this search.
	Evals int
}

// Searcher chooses a step size along a descent direction.
// x is the current point, d the direction, fx and g the objective value and
// gradient at x. The first trial point satisfying the searcher's acceptance
// conditions wins; no further search for a better step is performed.
type Searcher interface {
	Search(f fn.Function, x, d []float64, fx float64, g []float64) (Result, error)
}

// quadratic is the oracle shape the exact search needs: a function whose
// curvature along any direction is available in closed form.
type quadratic interface {
	fn.Function
	Curvature(d []float64) float64
}

// Exact computes the closed-form minimizer of a quadratic along d:
// alpha = -g'd / d'Qd. It applies to quadratic objectives only and fails
// with ErrNonQuadratic for anything else.
type Exact struct{}

// Search returns the exact minimizing step along d.
// Fails with fn.ErrUnbounded when the curvature along d is nonpositive with
// a nonzero slope (f decreases to -inf along d).
func (Exact) Search(f fn.Function, x, d []float64, fx float64, g []float64) (Result, error) {
	q, ok := f.(quadratic)
	if !ok {
		return Result{}, fmt.Errorf("exact line search: %w", fn.ErrNonQuadratic)
	}
	slope := floats.Dot(g, d)
	if slope >= 0 {
		return Result{}, fmt.Errorf("exact line search: %w", ErrNotDescent)
	}
	den := q.Curvature(d)
	if den <= 1e-16 {
		// f is linear or concave along d with negative slope.
		return Result{}, fmt.Errorf("exact line search: %w", fn.ErrUnbounded)
	}
	alpha := -slope / den
	nx := step(x, alpha, d)
	return Result{Alpha: alpha, F: f.Value(nx), Evals: 1}, nil
}

// Backtracking is the Armijo sufficient-decrease search: start from an
// initial trial step and shrink by a fixed contraction factor until
//
//	f(x + a*d) <= f(x) + C1*a*g'd
//
// holds with strictly decreasing f. The search fails once the trial step
// falls below MinStep. Zero-value fields fall back to the defaults from
// NewBacktracking.
type Backtracking struct {
	// C1 is the sufficient-decrease constant, in (0,1).
	C1 float64

	// Contraction multiplies the trial step after each rejection, in (0,1).
	Contraction float64

	// Init is the first trial step of a fresh search.
	Init float64

	// MaxEval caps objective evaluations per search.
	MaxEval int

	// MinStep is the smallest admissible trial step. A step this small
	// means the direction or the gradient is wrong, so the search fails
	// instead of accepting a numerically null move.
	MinStep float64

	// WarmStart reuses the previously accepted step as the next initial
	// trial instead of Init.
	WarmStart bool

	prev float64
}

// NewBacktracking returns a backtracking search with the standard defaults:
// C1 = 1e-4, contraction 0.5, initial step 1, minimum step 1e-16,
// 1000 evaluations.
func NewBacktracking() *Backtracking {
	return &Backtracking{C1: 1e-4, Contraction: 0.5, Init: 1, MinStep: 1e-16, MaxEval: 1000}
}

// Search backtracks along d until the Armijo condition holds.
func (b *Backtracking) Search(f fn.Function, x, d []float64, fx float64, g []float64) (Result, error) {
	b.applyDefaults()
	slope := floats.Dot(g, d)
	if slope >= 0 {
		return Result{}, fmt.Errorf("backtracking: %w", ErrNotDescent)
	}

	alpha := b.Init
	if b.WarmStart && b.prev > 0 {
		alpha = b.prev
	}

	evals := 0
	for evals < b.MaxEval && alpha >= b.MinStep {
		nx := step(x, alpha, d)
		fv := f.Value(nx)
		evals++
		// The strict decrease guards against the Armijo bound rounding to
		// fx at tiny steps, which would accept a numerically null move.
		if fv <= fx+b.C1*alpha*slope && fv < fx {
			b.prev = alpha
			return Result{Alpha: alpha, F: fv, Evals: evals}, nil
		}
		alpha *= b.Contraction
	}
	return Result{Evals: evals}, fmt.Errorf("backtracking after %d evaluations: %w", evals, ErrLineSearch)
}

func (b *Backtracking) applyDefaults() {
	if b.C1 == 0 {
		b.C1 = 1e-4
	}
	if b.Contraction == 0 {
		b.Contraction = 0.5
	}
	if b.Init == 0 {
		b.Init = 1
	}
	if b.MinStep == 0 {
		b.MinStep = 1e-16
	}
	if b.MaxEval == 0 {
		b.MaxEval = 1000
	}
}

// Wolfe is the strong-Wolfe search: bracketing plus bisection zoom, after
// Nocedal & Wright's two-phase scheme. Accepts the first step satisfying
// both the sufficient-decrease and the strong curvature condition
//
//	|g(x+a*d)'d| <= C2*|g'd|
type Wolfe struct {
	// C1 is the sufficient-decrease constant, in (0, C2).
	C1 float64

	// C2 is the curvature constant, in (C1, 1).
	C2 float64

	// Init is the first trial step.
	Init float64

	// MaxStep bounds the bracketing expansion.
	MaxStep float64

	// MaxEval caps objective/gradient evaluations per search.
	MaxEval int
}

// NewWolfe returns a strong-Wolfe search with C1 = 1e-4, C2 = 0.9,
// initial step 1, expansion cap 1e3 and 1000 evaluations.
func NewWolfe() *Wolfe {
	return &Wolfe{C1: 1e-4, C2: 0.9, Init: 1, MaxStep: 1e3, MaxEval: 1000}
}

// Search brackets and zooms until the strong Wolfe conditions hold.
// The gradient at the accepted point is returned in Result.Grad so the
// caller need not recompute it.
func (w *Wolfe) Search(f fn.Function, x, d []float64, fx float64, g []float64) (Result, error) {
	w.applyDefaults()
	slope0 := floats.Dot(g, d)
	if slope0 >= 0 {
		return Result{}, fmt.Errorf("wolfe: %w", ErrNotDescent)
	}

	evals := 0
	eval := func(alpha float64) (float64, []float64, float64) {
		nx := step(x, alpha, d)
		fv := f.Value(nx)
		gv := f.Gradient(nx)
		evals++
		return fv, gv, floats.Dot(gv, d)
	}

	// Bracketing phase: expand until the minimizer is trapped between
	// aPrev and alpha, or the conditions hold outright.
	aPrev, fPrev := 0.0, fx
	alpha := w.Init
	for i := 0; evals < w.MaxEval; i++ {
		fv, gv, slope := eval(alpha)
		if fv > fx+w.C1*alpha*slope0 || (i > 0 && fv >= fPrev) {
			return w.zoom(fx, slope0, aPrev, fPrev, alpha, eval, &evals)
		}
		if abs(slope) <= w.C2*abs(slope0) {
			return Result{Alpha: alpha, F: fv, Grad: gv, Evals: evals}, nil
		}
		if slope >= 0 {
			return w.zoom(fx, slope0, alpha, fv, aPrev, eval, &evals)
		}
		aPrev, fPrev = alpha, fv
		alpha *= 2
		if alpha > w.MaxStep {
			break
		}
	}
	return Result{Evals: evals}, fmt.Errorf("wolfe bracketing after %d evaluations: %w", evals, ErrLineSearch)
}

// zoom shrinks the bracket [lo, hi] by bisection until a point satisfying
// both conditions is found or the budget runs out. lo always holds the
// lowest objective value seen that passed the decrease condition.
func (w *Wolfe) zoom(fx, slope0, lo, fLo, hi float64,
	eval func(float64) (float64, []float64, float64), evals *int) (Result, error) {

	for *evals < w.MaxEval {
		if abs(hi-lo) < 1e-16 {
			break
		}
		alpha := 0.5 * (lo + hi)
		fv, gv, slope := eval(alpha)
		if fv > fx+w.C1*alpha*slope0 || fv >= fLo {
			hi = alpha
			continue
		}
		if abs(slope) <= w.C2*abs(slope0) {
			return Result{Alpha: alpha, F: fv, Grad: gv, Evals: *evals}, nil
		}
		if slope*(hi-lo) >= 0 {
			hi = lo
		}
		lo, fLo = alpha, fv
	}
	return Result{Evals: *evals}, fmt.Errorf("wolfe zoom after %d evaluations: %w", *evals, ErrLineSearch)
}

func (w *Wolfe) applyDefaults() {
	if w.C1 == 0 {
		w.C1 = 1e-4
	}
	if w.C2 == 0 {
		w.C2 = 0.9
	}
	if w.Init == 0 {
		w.Init = 1
	}
	if w.MaxStep == 0 {
		w.MaxStep = 1e3
	}
	if w.MaxEval == 0 {
		w.MaxEval = 1000
	}
}

func step(x []float64, alpha float64, d []float64) []float64 {
	nx := make([]float64, len(x))
	for i := range x {
		nx[i] = x[i] + alpha*d[i]
	}
	return nx
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
