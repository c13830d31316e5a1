// Package fn defines the objective-function oracle consumed by the solvers:
// value/gradient evaluation, optional Hessian capabilities, and box domains.
package fn

import (
	"gonum.org/v1/gonum/mat"
)

// Function is the oracle every solver iterates against.
// Implementations must be pure and deterministic: evaluating the same point
// twice returns the same value, with no side effects.
type Function interface {
	// Dim returns the dimension of the function's input space.
	Dim() int

	// Value evaluates the objective at x.
	Value(x []float64) float64

	// Gradient evaluates the gradient at x. The returned slice is owned by
	// the caller.
	Gradient(x []float64) []float64
}

// Hessianer is implemented by functions with an available Hessian.
// Newton-type solvers require it.
type Hessianer interface {
	Hessian(x []float64) *mat.SymDense
}

// HessVeccer is implemented by functions that can apply the Hessian to a
// vector without materializing the full matrix.
type HessVeccer interface {
	HessVec(x, v []float64) []float64
}

// Bounded is implemented by functions whose domain is a box.
// Unbounded functions simply don't implement it.
type Bounded interface {
	Bounds() *Box
}

// CheckDim fails with ErrDimension when x does not match the function's
// declared dimension.
func CheckDim(f Function, x []float64) error {
	if len(x) != f.Dim() {
		return &DimensionError{Want: f.Dim(), Got: len(x)}
	}
	return nil
}

// CheckDomain fails with ErrDomain when f declares a box domain and x lies
// outside it. Functions without bounds always pass.
func CheckDomain(f Function, x []float64) error {
	if err := CheckDim(f, x); err != nil {
		return err
	}
	b, ok := f.(Bounded)
	if !ok {
		return nil
	}
	if !b.Bounds().Contains(x) {
		return &DomainError{X: append([]float64(nil), x...)}
	}
	return nil
}

// Func adapts plain closures to the Function interface. When G is nil the
// gradient is approximated by central differences.
type Func struct {
	N int
	F func(x []float64) float64
	G func(x []float64) []float64
}

// Dim returns the declared input dimension.
func (f *Func) Dim() int { return f.N }

// Value evaluates F at x.
func (f *Func) Value(x []float64) float64 { return f.F(x) }

// Gradient evaluates G at x, or a central-difference approximation when no
// analytic gradient was supplied.
func (f *Func) Gradient(x []float64) []float64 {
	if f.G != nil {
		return f.G(x)
	}
	return NumGradient(f.F, x)
}

// NumGradient approximates the gradient of f at x by central differences.
// Intended for tests and for objectives without an analytic gradient; costs
// 2n evaluations per call.
func NumGradient(f func([]float64) float64, x []float64) []float64 {
	const h = 1e-6
	g := make([]float64, len(x))
	xx := append([]float64(nil), x...)
	for i := range x {
		xx[i] = x[i] + h
		fp := f(xx)
		xx[i] = x[i] - h
		fm := f(xx)
		xx[i] = x[i]
		g[i] = (fp - fm) / (2 * h)
	}
	return g
}
