package fn

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Quadratic is the convex quadratic f(x) = 1/2 x'Qx + q'x with symmetric Q.
// Its gradient Qx + q and constant Hessian Q are exact, which makes it the
// natural target for exact line searches and the box-constrained QP solvers.
type Quadratic struct {
	Q   *mat.SymDense
	Lin []float64
}

// NewQuadratic creates a quadratic from a symmetric matrix and a linear term.
func NewQuadratic(Q *mat.SymDense, q []float64) (*Quadratic, error) {
	if Q.SymmetricDim() != len(q) {
		return nil, &DimensionError{Want: Q.SymmetricDim(), Got: len(q)}
	}
	return &Quadratic{Q: Q, Lin: append([]float64(nil), q...)}, nil
}

// Dim returns the dimension of the quadratic.
func (f *Quadratic) Dim() int { return len(f.Lin) }

// Value evaluates 1/2 x'Qx + q'x.
func (f *Quadratic) Value(x []float64) float64 {
	qx := f.apply(x)
	return 0.5*floats.Dot(x, qx) + floats.Dot(f.Lin, x)
}

// Gradient evaluates Qx + q.
func (f *Quadratic) Gradient(x []float64) []float64 {
	g := f.apply(x)
	floats.Add(g, f.Lin)
	return g
}

// Hessian returns the constant Hessian Q.
func (f *Quadratic) Hessian(x []float64) *mat.SymDense {
	out := mat.NewSymDense(f.Dim(), nil)
	out.CopySym(f.Q)
	return out
}

// HessVec applies Q to v.
func (f *Quadratic) HessVec(x, v []float64) []float64 {
	return f.apply(v)
}

// Curvature returns d'Qd, the curvature of f along d.
func (f *Quadratic) Curvature(d []float64) float64 {
	return floats.Dot(d, f.apply(d))
}

// Solve returns the unconstrained minimizer -Q^-1 q via Cholesky.
// Fails with ErrIndefinite when Q is not positive definite.
func (f *Quadratic) Solve() ([]float64, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(f.Q); !ok {
		return nil, fmt.Errorf("solving quadratic: %w", ErrIndefinite)
	}
	n := f.Dim()
	rhs := mat.NewVecDense(n, nil)
	for i, v := range f.Lin {
		rhs.SetVec(i, -v)
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, rhs); err != nil {
		return nil, fmt.Errorf("solving quadratic: %w", err)
	}
	out := make([]float64, n)
	copy(out, sol.RawVector().Data)
	return out, nil
}

func (f *Quadratic) apply(x []float64) []float64 {
	n := f.Dim()
	out := mat.NewVecDense(n, nil)
	out.MulVec(f.Q, mat.NewVecDense(n, append([]float64(nil), x...)))
	res := make([]float64, n)
	copy(res, out.RawVector().Data)
	return res
}

// BoxQuadratic is a quadratic restricted to a box domain, the canonical
// problem of the box-constrained solver family.
type BoxQuadratic struct {
	*Quadratic
	Box *Box
}

// NewBoxQuadratic couples a quadratic with box bounds of the same dimension.
func NewBoxQuadratic(q *Quadratic, box *Box) (*BoxQuadratic, error) {
	if q.Dim() != box.Dim() {
		return nil, &DimensionError{Want: q.Dim(), Got: box.Dim()}
	}
	return &BoxQuadratic{Quadratic: q, Box: box}, nil
}

// Bounds returns the feasible box.
func (f *BoxQuadratic) Bounds() *Box { return f.Box }

// RandomConvexQuadratic generates a random positive definite quadratic of
// dimension n, for tests and benchmarks. The spectrum is shifted so the
// smallest eigenvalue is at least 1.
func RandomConvexQuadratic(n int, rng *rand.Rand) *Quadratic {
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
	}
	// Q = A'A + I is symmetric positive definite.
	var sym mat.Dense
	sym.Mul(a.T(), a)
	Q := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := sym.At(i, j)
			if i == j {
				v++
			}
			Q.SetSym(i, j, v)
		}
	}
	q := make([]float64, n)
	for i := range q {
		q[i] = rng.NormFloat64()
	}
	f, _ := NewQuadratic(Q, q)
	return f
}
