package solver

// Iterate is one point of the solve trajectory. Created once per step,
// appended to the history, never mutated afterwards.
type Iterate struct {
	// X is the point, owned by the history.
	X []float64

	// F is the objective value at X.
	F float64

	// GradNorm is the gradient norm at X.
	GradNorm float64

	// K is the iteration index (0 for the starting point).
	K int

	// Step is the step size used to reach X (0 for the starting point).
	Step float64
}

// History is the append-only iterate sequence of one solve.
type History []Iterate

// Last returns the most recent iterate.
func (h History) Last() Iterate {
	return h[len(h)-1]
}

// Best returns the iterate with the lowest objective value.
func (h History) Best() Iterate {
	best := h[0]
	for _, it := range h[1:] {
		if it.F < best.F {
			best = it
		}
	}
	return best
}

// Values returns the objective value sequence, mostly for convergence plots
// and tests.
func (h History) Values() []float64 {
	out := make([]float64, len(h))
	for i, it := range h {
		out[i] = it.F
	}
	return out
}
