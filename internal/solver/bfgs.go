package solver

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// BFGS maintains an explicit approximation H of the inverse Hessian,
// rank-2 updated each iteration from the step s = x_k - x_{k-1} and the
// gradient difference y = g_k - g_{k-1}:
//
//	H <- (I - rho*s*y') H (I - rho*y*s') + rho*s*s',  rho = 1/(y's)
//
// The update keeps H symmetric positive definite as long as the curvature
// y's is positive. On non-positive curvature the update is skipped, leaving
// H intact; after several consecutive skips H is reset to the identity.
// The approximation persists across iterations and is only rebuilt at
// restart.
type BFGS struct {
	h     *mat.Dense
	n     int
	skips int
}

// maxConsecutiveSkips is the number of failed curvature checks tolerated
// before the approximation is rebuilt from the identity.
const maxConsecutiveSkips = 3

// NewBFGS returns a BFGS rule for dimension n, starting from the identity.
func NewBFGS(n int) *BFGS {
	b := &BFGS{n: n}
	b.Reset()
	return b
}

// Direction updates the inverse-Hessian approximation from the previous
// step and returns d = -H g.
func (b *BFGS) Direction(st *State) ([]float64, error) {
	if st.PrevGrad != nil {
		b.update(st)
	}

	g := mat.NewVecDense(b.n, append([]float64(nil), st.Grad...))
	var d mat.VecDense
	d.MulVec(b.h, g)
	out := make([]float64, b.n)
	for i := 0; i < b.n; i++ {
		out[i] = -d.AtVec(i)
	}
	if floats.Dot(st.Grad, out) >= 0 {
		// The approximation lost descent; rebuild and use -g.
		b.Reset()
		return negate(st.Grad), nil
	}
	return out, nil
}

// Reset rebuilds the approximation as the identity.
func (b *BFGS) Reset() {
	b.h = mat.NewDense(b.n, b.n, nil)
	for i := 0; i < b.n; i++ {
		b.h.Set(i, i, 1)
	}
	b.skips = 0
}

// Hessian exposes the current inverse-Hessian approximation for property
// tests; the returned matrix is a copy.
func (b *BFGS) Hessian() *mat.Dense {
	out := mat.NewDense(b.n, b.n, nil)
	out.Copy(b.h)
	return out
}

// Skips returns the number of consecutive curvature-failure skips.
func (b *BFGS) Skips() int { return b.skips }

func (b *BFGS) update(st *State) {
	n := b.n
	s := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		s[i] = st.X[i] - st.PrevX[i]
		y[i] = st.Grad[i] - st.PrevGrad[i]
	}

	ys := floats.Dot(y, s)
	if ys <= 1e-12*floats.Norm(y, 2)*floats.Norm(s, 2) {
		// Curvature condition failed: skip, never corrupt H.
		b.skips++
		if b.skips >= maxConsecutiveSkips {
			b.Reset()
		}
		return
	}
	b.skips = 0

	rho := 1 / ys
	sv := mat.NewVecDense(n, s)
	yv := mat.NewVecDense(n, y)

	// a = I - rho * s * y'
	a := mat.NewDense(n, n, nil)
	a.Outer(-rho, sv, yv)
	for i := 0; i < n; i++ {
		a.Set(i, i, a.At(i, i)+1)
	}

	var tmp, next mat.Dense
	tmp.Mul(a, b.h)
	next.Mul(&tmp, a.T())

	var ss mat.Dense
	ss.Outer(rho, sv, sv)
	next.Add(&next, &ss)

	b.h.Copy(&next)
}
