package solver

import (
	"fmt"

	"github.com/cwbudde/optikit/internal/fn"
	"gonum.org/v1/gonum/mat"
)

// Newton solves H d = -g each iteration via Cholesky. When the Hessian is
// not positive definite the Newton direction is undefined; the rule then
// falls back to steepest descent for that iteration and the solve
// continues. The number of fallbacks is observable for diagnostics.
type Newton struct {
	fallbacks int
}

// NewNewton returns a Newton rule. The objective must implement
// fn.Hessianer; this is checked at solver construction.
func NewNewton() *Newton { return &Newton{} }

// Direction computes the Newton direction, or -g when the Hessian is
// indefinite.
func (nr *Newton) Direction(st *State) ([]float64, error) {
	h, ok := st.F.(fn.Hessianer)
	if !ok {
		return nil, fmt.Errorf("newton rule: objective has no hessian")
	}

	hess := h.Hessian(st.X)
	var chol mat.Cholesky
	if !chol.Factorize(hess) {
		// Indefinite Hessian: safeguarded fallback, not an abort.
		nr.fallbacks++
		return negate(st.Grad), nil
	}

	n := len(st.X)
	rhs := mat.NewVecDense(n, negate(st.Grad))
	var d mat.VecDense
	if err := chol.SolveVecTo(&d, rhs); err != nil {
		nr.fallbacks++
		return negate(st.Grad), nil
	}
	out := make([]float64, n)
	copy(out, d.RawVector().Data)
	return out, nil
}

// Fallbacks returns how often the rule degraded to steepest descent because
// of an indefinite Hessian.
func (nr *Newton) Fallbacks() int { return nr.fallbacks }

// Reset clears the fallback counter.
func (nr *Newton) Reset() { nr.fallbacks = 0 }
