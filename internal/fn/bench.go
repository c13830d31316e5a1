package fn

// Benchmark objectives used across tests and the CLI demo commands.

// Rosenbrock is the classic banana-valley function
//
//	f(x) = sum_i (1-x_i)^2 + 100 (x_{i+1} - x_i^2)^2
//
// with global minimum f = 0 at (1, ..., 1). Its curved narrow valley makes
// it the standard stress test for line-search descent methods.
type Rosenbrock struct {
	N int
}

// Dim returns the dimension.
func (r Rosenbrock) Dim() int { return r.N }

// Value evaluates the Rosenbrock function at x.
func (r Rosenbrock) Value(x []float64) float64 {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		a := 1 - x[i]
		b := x[i+1] - x[i]*x[i]
		sum += a*a + 100*b*b
	}
	return sum
}

// Gradient evaluates the analytic Rosenbrock gradient at x.
func (r Rosenbrock) Gradient(x []float64) []float64 {
	g := make([]float64, len(x))
	for i := 0; i < len(x)-1; i++ {
		b := x[i+1] - x[i]*x[i]
		g[i] += -2*(1-x[i]) - 400*x[i]*b
		g[i+1] += 200 * b
	}
	return g
}

// Sphere is f(x) = sum x_i^2, minimized at the origin.
type Sphere struct {
	N int
}

// Dim returns the dimension.
func (s Sphere) Dim() int { return s.N }

// Value evaluates the sphere function at x.
func (s Sphere) Value(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// Gradient evaluates 2x.
func (s Sphere) Gradient(x []float64) []float64 {
	g := make([]float64, len(x))
	for i, v := range x {
		g[i] = 2 * v
	}
	return g
}

// AbsSum is the non-smooth f(x) = sum |x_i|, minimized at the origin.
// Gradient returns a subgradient (sign vector, zero at kinks), which is what
// the subgradient method expects.
type AbsSum struct {
	N int
}

// Dim returns the dimension.
func (a AbsSum) Dim() int { return a.N }

// Value evaluates the L1 norm of x.
func (a AbsSum) Value(x []float64) float64 {
	var sum float64
	for _, v := range x {
		if v < 0 {
			sum -= v
		} else {
			sum += v
		}
	}
	return sum
}

// Gradient returns a subgradient of the L1 norm at x.
func (a AbsSum) Gradient(x []float64) []float64 {
	g := make([]float64, len(x))
	for i, v := range x {
		switch {
		case v > 0:
			g[i] = 1
		case v < 0:
			g[i] = -1
		}
	}
	return g
}
