package solver

import (
	"fmt"
	"math"

	"github.com/cwbudde/optikit/internal/fn"
	"gonum.org/v1/gonum/floats"
)

// Stepper is the fixed-step adaptive-gradient sub-family: given the
// gradient at the current point it produces the full update vector u with
// x <- x - u. Per-coordinate moment accumulators live inside the stepper;
// no line search is involved, so line-search failure states do not apply
// to this sub-family.
type Stepper interface {
	// Update returns the update vector for the 1-based iteration k.
	Update(g []float64, k int) []float64

	// Reset clears all accumulators.
	Reset()
}

// Default decay rates and stability epsilon shared by the Adam family.
const (
	defaultBeta1 = 0.9
	defaultBeta2 = 0.999
	defaultEps   = 1e-8
)

// Adam is adaptive moment estimation: exponential moving averages of the
// gradient and its elementwise square with bias correction.
// AMSGrad keeps the running maximum of the second moment instead of the
// raw average, which restores a non-increasing effective step.
type Adam struct {
	// LR is the global step size.
	LR float64

	// Beta1, Beta2 are the first/second moment decay rates.
	Beta1, Beta2 float64

	// Eps is the numerical-stability term.
	Eps float64

	// AMSGrad selects the max-of-second-moment variant.
	AMSGrad bool

	m, v, vhat []float64
}

// NewAdam returns an Adam stepper with the usual defaults
// (beta1 0.9, beta2 0.999, eps 1e-8).
func NewAdam(lr float64) *Adam {
	return &Adam{LR: lr, Beta1: defaultBeta1, Beta2: defaultBeta2, Eps: defaultEps}
}

// NewAMSGrad returns the AMSGrad variant of Adam.
func NewAMSGrad(lr float64) *Adam {
	a := NewAdam(lr)
	a.AMSGrad = true
	return a
}

// Update advances the moment estimates and returns the bias-corrected step.
func (a *Adam) Update(g []float64, k int) []float64 {
	n := len(g)
	if a.m == nil {
		a.m = make([]float64, n)
		a.v = make([]float64, n)
		a.vhat = make([]float64, n)
	}
	c1 := 1 - math.Pow(a.Beta1, float64(k))
	c2 := 1 - math.Pow(a.Beta2, float64(k))

	u := make([]float64, n)
	for i, gi := range g {
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*gi
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*gi*gi
		v := a.v[i]
		if a.AMSGrad {
			if v > a.vhat[i] {
				a.vhat[i] = v
			}
			v = a.vhat[i]
		}
		u[i] = a.LR * (a.m[i] / c1) / (math.Sqrt(v/c2) + a.Eps)
	}
	return u
}

// Reset clears the moment accumulators.
func (a *Adam) Reset() { a.m, a.v, a.vhat = nil, nil, nil }

// AdaMax replaces the second raw moment with an exponentially weighted
// infinity norm of past gradients.
type AdaMax struct {
	LR           float64
	Beta1, Beta2 float64
	Eps          float64

	m, u []float64
}

// NewAdaMax returns an AdaMax stepper with the Adam defaults.
func NewAdaMax(lr float64) *AdaMax {
	return &AdaMax{LR: lr, Beta1: defaultBeta1, Beta2: defaultBeta2, Eps: defaultEps}
}

// Update advances the first moment and the weighted infinity norm.
func (a *AdaMax) Update(g []float64, k int) []float64 {
	n := len(g)
	if a.m == nil {
		a.m = make([]float64, n)
		a.u = make([]float64, n)
	}
	c1 := 1 - math.Pow(a.Beta1, float64(k))

	out := make([]float64, n)
	for i, gi := range g {
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*gi
		a.u[i] = math.Max(a.Beta2*a.u[i], math.Abs(gi))
		out[i] = a.LR * (a.m[i] / c1) / (a.u[i] + a.Eps)
	}
	return out
}

// Reset clears the accumulators.
func (a *AdaMax) Reset() { a.m, a.u = nil, nil }

// AdaGrad scales each coordinate by the accumulated historical gradient
// magnitude, shrinking steps along frequently-large directions.
type AdaGrad struct {
	LR  float64
	Eps float64

	acc []float64
}

// NewAdaGrad returns an AdaGrad stepper.
func NewAdaGrad(lr float64) *AdaGrad {
	return &AdaGrad{LR: lr, Eps: defaultEps}
}

// Update accumulates squared gradients and returns the scaled step.
func (a *AdaGrad) Update(g []float64, _ int) []float64 {
	if a.acc == nil {
		a.acc = make([]float64, len(g))
	}
	u := make([]float64, len(g))
	for i, gi := range g {
		a.acc[i] += gi * gi
		u[i] = a.LR * gi / (math.Sqrt(a.acc[i]) + a.Eps)
	}
	return u
}

// Reset clears the accumulator.
func (a *AdaGrad) Reset() { a.acc = nil }

// AdaDelta removes the global step size entirely: the step is the ratio of
// the RMS of past updates to the RMS of past gradients.
type AdaDelta struct {
	// Rho is the moving-average decay rate.
	Rho float64
	Eps float64

	accG, accDx []float64
}

// NewAdaDelta returns an AdaDelta stepper with decay 0.95.
func NewAdaDelta() *AdaDelta {
	return &AdaDelta{Rho: 0.95, Eps: 1e-6}
}

// Update advances both moving averages and returns the unitless step.
func (a *AdaDelta) Update(g []float64, _ int) []float64 {
	n := len(g)
	if a.accG == nil {
		a.accG = make([]float64, n)
		a.accDx = make([]float64, n)
	}
	u := make([]float64, n)
	for i, gi := range g {
		a.accG[i] = a.Rho*a.accG[i] + (1-a.Rho)*gi*gi
		dx := math.Sqrt(a.accDx[i]+a.Eps) / math.Sqrt(a.accG[i]+a.Eps) * gi
		a.accDx[i] = a.Rho*a.accDx[i] + (1-a.Rho)*dx*dx
		u[i] = dx
	}
	return u
}

// Reset clears both accumulators.
func (a *AdaDelta) Reset() { a.accG, a.accDx = nil, nil }

// RMSProp divides the step by a moving RMS of recent gradients. An optional
// momentum coefficient adds a velocity buffer on top.
type RMSProp struct {
	LR       float64
	Rho      float64
	Eps      float64
	Momentum float64

	acc, vel []float64
}

// NewRMSProp returns an RMSProp stepper with decay 0.9 and no momentum.
func NewRMSProp(lr float64) *RMSProp {
	return &RMSProp{LR: lr, Rho: 0.9, Eps: defaultEps}
}

// Update advances the RMS accumulator (and the velocity when momentum is
// enabled) and returns the step.
func (r *RMSProp) Update(g []float64, _ int) []float64 {
	n := len(g)
	if r.acc == nil {
		r.acc = make([]float64, n)
		r.vel = make([]float64, n)
	}
	u := make([]float64, n)
	for i, gi := range g {
		r.acc[i] = r.Rho*r.acc[i] + (1-r.Rho)*gi*gi
		step := r.LR * gi / (math.Sqrt(r.acc[i]) + r.Eps)
		if r.Momentum > 0 {
			r.vel[i] = r.Momentum*r.vel[i] + step
			step = r.vel[i]
		}
		u[i] = step
	}
	return u
}

// Reset clears the accumulators.
func (r *RMSProp) Reset() { r.acc, r.vel = nil, nil }

// Adaptive drives a Stepper over an objective with the shared convergence
// machinery. Line-search selections are rejected at construction; step
// behavior is entirely determined by the stepper's accumulators.
type Adaptive struct {
	f       fn.Function
	x0      []float64
	stepper Stepper
	cfg     Config
	status  Status
}

// NewAdaptive constructs an adaptive fixed-step solver.
func NewAdaptive(f fn.Function, x0 []float64, stepper Stepper, cfg Config) (*Adaptive, error) {
	if cfg.LineSearch != LineSearchNone {
		return nil, fmt.Errorf("adaptive methods use no line search")
	}
	if cfg.Step == nil {
		cfg.Step = ConstantStep(1) // unused, satisfies validation
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := fn.CheckDim(f, x0); err != nil {
		return nil, err
	}
	return &Adaptive{
		f:       f,
		x0:      append([]float64(nil), x0...),
		stepper: stepper,
		cfg:     cfg,
		status:  StatusInitialized,
	}, nil
}

// Status returns the solver's current state.
func (a *Adaptive) Status() Status { return a.status }

// Run executes the fixed-step loop to termination.
func (a *Adaptive) Run() (*Result, error) {
	log := a.cfg.Log()

	x := append([]float64(nil), a.x0...)
	v := a.f.Value(x)
	g := a.f.Gradient(x)

	hist := History{{X: append([]float64(nil), x...), F: v, GradNorm: floats.Norm(g, 2), K: 0}}
	tracker := NewTracker(a.cfg)
	a.stepper.Reset()
	a.status = StatusIterating

	for k := 1; ; k++ {
		if status := tracker.Check(k-1, v, floats.Norm(g, 2)); status.Terminal() {
			a.status = status
			break
		}

		u := a.stepper.Update(g, k)
		nx := make([]float64, len(x))
		for i := range x {
			nx[i] = x[i] - u[i]
		}
		x = nx
		v = a.f.Value(x)
		g = a.f.Gradient(x)

		hist = append(hist, Iterate{
			X:        append([]float64(nil), x...),
			F:        v,
			GradNorm: floats.Norm(g, 2),
			K:        k,
			Step:     floats.Norm(u, 2),
		})
		log.Debug("iteration", "iter", k, "value", v, "grad_norm", floats.Norm(g, 2))
	}

	return NewResult(hist, a.status), nil
}
