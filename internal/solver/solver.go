// Package solver implements the iterative unconstrained solver family:
// line-search descent methods (steepest descent, conjugate gradient,
// Newton, BFGS, heavy-ball), the subgradient method, and the fixed-step
// adaptive-gradient methods, sharing one convergence tracker and iterate
// history.
package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/optikit/internal/fn"
	"github.com/cwbudde/optikit/internal/linesearch"
	"gonum.org/v1/gonum/floats"
)

// minSafeguardStep is the fallback step tried once after a failed line
// search before the solve terminates with StatusLineSearchFailed.
const minSafeguardStep = 1e-16

// Result is the outcome of a solve: the best iterate found, the terminal
// status and the full trajectory. A non-converged termination is always
// visible in Status; the solve never silently returns a wrong answer.
type Result struct {
	X       []float64
	F       float64
	Status  Status
	History History
}

// Solver runs one sequential iteration loop over an objective with a
// direction rule and a line search (or step schedule). A solver instance
// owns its rule state and history exclusively and must not be shared
// across goroutines; the objective itself is read-only and may be shared
// between independent solves.
type Solver struct {
	f    fn.Function
	x0   []float64
	rule Rule
	cfg  Config

	searcher linesearch.Searcher
	status   Status
}

// New constructs a solver from an objective, a starting point, a direction
// rule and a configuration. Malformed input (dimension mismatch, domain
// violation with checking enabled, invalid configuration) fails here, at
// call time.
func New(f fn.Function, x0 []float64, rule Rule, cfg Config) (*Solver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := fn.CheckDim(f, x0); err != nil {
		return nil, err
	}
	if cfg.CheckDomain {
		if err := fn.CheckDomain(f, x0); err != nil {
			return nil, err
		}
	}
	if _, ok := rule.(*Newton); ok {
		if _, ok := f.(fn.Hessianer); !ok {
			return nil, fmt.Errorf("newton method requires a hessian oracle")
		}
	}
	if cg, ok := rule.(*ConjGrad); ok && cg.RestartEvery == 0 {
		cg.RestartEvery = cfg.RestartEvery
	}

	s := &Solver{
		f:      f,
		x0:     append([]float64(nil), x0...),
		rule:   rule,
		cfg:    cfg,
		status: StatusInitialized,
	}
	switch cfg.LineSearch {
	case LineSearchBacktracking:
		s.searcher = linesearch.NewBacktracking()
	case LineSearchWolfe:
		s.searcher = linesearch.NewWolfe()
	case LineSearchExact:
		s.searcher = linesearch.Exact{}
	case LineSearchNone:
		s.searcher = nil
	default:
		return nil, fmt.Errorf("unknown line search kind %d", cfg.LineSearch)
	}
	return s, nil
}

// NewResult assembles a Result from a finished trajectory. A converged
// solve reports its final iterate, the one the convergence criterion was
// checked at; any other termination reports the lowest-value iterate seen,
// since non-monotone methods may have passed a better point on the way.
func NewResult(hist History, status Status) *Result {
	it := hist.Best()
	if status == StatusConverged {
		it = hist.Last()
	}
	return &Result{X: it.X, F: it.F, Status: status, History: hist}
}

// Status returns the solver's current state.
func (s *Solver) Status() Status { return s.status }

// Run executes the iteration loop to termination and returns the result.
// Numerical trouble inside a rule is recovered by safeguarded fallbacks;
// a returned error means the problem itself is malformed (for example an
// exact line search on a non-quadratic objective, or a quadratic detected
// to be unbounded below).
func (s *Solver) Run() (*Result, error) {
	log := s.cfg.Log()

	x := append([]float64(nil), s.x0...)
	v := s.f.Value(x)
	g := s.f.Gradient(x)

	hist := History{{X: append([]float64(nil), x...), F: v, GradNorm: floats.Norm(g, 2), K: 0}}
	tracker := NewTracker(s.cfg)
	s.rule.Reset()
	s.status = StatusIterating

	st := &State{F: s.f, X: x, Grad: g}

	for k := 1; ; k++ {
		if status := tracker.Check(k-1, v, floats.Norm(g, 2)); status.Terminal() {
			s.status = status
			break
		}

		st.Iter = k
		d, err := s.rule.Direction(st)
		if err != nil {
			return nil, err
		}

		alpha, nv, ng, err := s.step(k, x, d, v, g)
		if err != nil {
			if errors.Is(err, linesearch.ErrLineSearch) || errors.Is(err, linesearch.ErrNotDescent) {
				log.Info("line search failed", "iter", k, "value", v)
				s.status = StatusLineSearchFailed
				break
			}
			return nil, err
		}

		nx := make([]float64, len(x))
		for i := range x {
			nx[i] = x[i] + alpha*d[i]
		}
		if ng == nil {
			ng = s.f.Gradient(nx)
		}

		st.PrevX, st.PrevGrad, st.PrevDir = x, g, d
		x, v, g = nx, nv, ng
		st.X, st.Grad = x, g

		hist = append(hist, Iterate{
			X:        append([]float64(nil), x...),
			F:        v,
			GradNorm: floats.Norm(g, 2),
			K:        k,
			Step:     alpha,
		})

		log.Debug("iteration", "iter", k, "value", v, "grad_norm", floats.Norm(g, 2), "step", alpha)
	}

	return NewResult(hist, s.status), nil
}

// step selects the step size along d: line search when configured, the
// schedule otherwise. On line-search exhaustion one safeguarded minimal
// step is tried; if even that fails to decrease f the line-search error is
// surfaced to the loop.
func (s *Solver) step(k int, x, d []float64, v float64, g []float64) (alpha, nv float64, ng []float64, err error) {
	if s.searcher == nil {
		alpha = s.cfg.Step(k)
		return alpha, s.valueAt(x, alpha, d), nil, nil
	}

	res, err := s.searcher.Search(s.f, x, d, v, g)
	if err == nil {
		return res.Alpha, res.F, res.Grad, nil
	}
	if errors.Is(err, linesearch.ErrLineSearch) {
		sv := s.valueAt(x, minSafeguardStep, d)
		if sv < v {
			return minSafeguardStep, sv, nil, nil
		}
	}
	return 0, 0, nil, err
}

func (s *Solver) valueAt(x []float64, alpha float64, d []float64) float64 {
	nx := make([]float64, len(x))
	for i := range x {
		nx[i] = x[i] + alpha*d[i]
	}
	return s.f.Value(nx)
}

// DiminishingStep returns the non-summable schedule alpha0/sqrt(k) used by
// the subgradient method.
func DiminishingStep(alpha0 float64) func(int) float64 {
	return func(k int) float64 {
		if k < 1 {
			k = 1
		}
		return alpha0 / math.Sqrt(float64(k))
	}
}

// NewGradientDescent constructs steepest descent, or its heavy-ball and
// Nesterov momentum variants per cfg.Momentum and cfg.MomentumCoeff.
func NewGradientDescent(f fn.Function, x0 []float64, cfg Config) (*Solver, error) {
	var rule Rule = Steepest{}
	if cfg.Momentum != MomentumNone {
		rule = NewHeavyBall(cfg.MomentumCoeff, cfg.Momentum)
	}
	return New(f, x0, rule, cfg)
}

// NewSubgradient constructs the subgradient method: steepest directions
// from any subgradient, a diminishing step schedule and no line search,
// since no sufficient-decrease guarantee exists at non-differentiable
// points.
func NewSubgradient(f fn.Function, x0 []float64, alpha0 float64, cfg Config) (*Solver, error) {
	cfg.LineSearch = LineSearchNone
	if cfg.Step == nil {
		cfg.Step = DiminishingStep(alpha0)
	}
	return New(f, x0, Steepest{}, cfg)
}
