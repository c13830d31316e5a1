package boxcon

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/mayfly"
	"github.com/cwbudde/optikit/internal/fn"
	"github.com/cwbudde/optikit/internal/solver"
)

// Problem is the standardized description handed to an external convex
// solver: the quadratic objective and the box bounds. The core depends only
// on this contract, never on a collaborator's internals.
type Problem struct {
	Objective *fn.Quadratic
	Box       *fn.Box
}

// Solution is the external solver's answer. The point must be feasible;
// Status carries the collaborator's own status string.
type Solution struct {
	X      []float64
	F      float64
	Status string
}

// ExternalSolver is the boundary contract for third-party solvers. Any
// non-success outcome must surface as an error wrapping ErrExternalSolver;
// the core never inspects collaborator-specific status values.
type ExternalSolver interface {
	Solve(p Problem) (Solution, error)
}

// MayflyAdapter runs the external mayfly optimizer behind the
// ExternalSolver boundary. It is derivative-free, so it serves as the
// fallback when a problem's curvature makes the gradient-based family
// unusable. The external library uses scalar bounds; the adapter assumes a
// uniform box and uses the first coordinate's bounds.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a mayfly adapter with the given budget, population size
// and random seed.
func NewMayfly(maxIters, popSize int, seed int64) *MayflyAdapter {
	return &MayflyAdapter{maxIters: maxIters, popSize: popSize, seed: seed}
}

// Solve runs the external optimizer on the boxed quadratic.
func (m *MayflyAdapter) Solve(p Problem) (Solution, error) {
	dim := p.Objective.Dim()
	if p.Box.Dim() != dim {
		return Solution{}, &fn.DimensionError{Want: dim, Got: p.Box.Dim()}
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = p.Objective.Value
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = p.Box.Lower[0]
	config.UpperBound = p.Box.Upper[0]
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		return Solution{}, fmt.Errorf("mayfly: %v: %w", err, ErrExternalSolver)
	}

	x := p.Box.Clip(result.GlobalBest.Position)
	return Solution{
		X:      x,
		F:      p.Objective.Value(x),
		Status: solver.StatusConverged.String(),
	}, nil
}
