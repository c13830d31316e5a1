package solver

import (
	"github.com/cwbudde/optikit/internal/fn"
)

// State is the read-only view of the current solve handed to direction
// rules. Previous-iteration fields are nil on the first step.
type State struct {
	// F is the objective oracle.
	F fn.Function

	// X and Grad are the current point and its gradient.
	X    []float64
	Grad []float64

	// PrevX, PrevGrad and PrevDir are the previous point, gradient and
	// search direction.
	PrevX    []float64
	PrevGrad []float64
	PrevDir  []float64

	// Iter is the 1-based iteration index.
	Iter int
}

// Rule computes the search direction for one iteration. Each method of the
// unconstrained family is a distinct Rule carrying its own private
// accumulator state (momentum buffers, conjugate-direction memory, inverse
// Hessian approximation); there is no shared mutable base.
type Rule interface {
	// Direction returns the search direction at the current state. A rule
	// may recover internally from numerical trouble (indefinite Hessian,
	// failed curvature) by falling back to steepest descent; a returned
	// error aborts the solve.
	Direction(st *State) ([]float64, error)

	// Reset clears accumulated state, as after a restart.
	Reset()
}

// Steepest is plain gradient descent: direction = -gradient.
type Steepest struct{}

// Direction returns the negated gradient.
func (Steepest) Direction(st *State) ([]float64, error) {
	return negate(st.Grad), nil
}

// Reset is a no-op; steepest descent carries no state.
func (Steepest) Reset() {}

func negate(g []float64) []float64 {
	d := make([]float64, len(g))
	for i, v := range g {
		d[i] = -v
	}
	return d
}
