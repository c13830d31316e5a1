// Package boxcon implements the box-constrained solver family: primal
// methods (projected gradient, Frank-Wolfe, active set, interior point),
// the Lagrangian dual method, and the boundary contract for external convex
// solvers. All solvers return a feasible point for every terminal status.
package boxcon

import (
	"fmt"

	"github.com/cwbudde/optikit/internal/fn"
	"github.com/cwbudde/optikit/internal/solver"
	"gonum.org/v1/gonum/floats"
)

// ProjectedGradient takes gradient steps restricted to the feasible box.
// For box quadratics the step along the projected direction is exact and
// capped by the maximum feasible step; for general bounded objectives an
// Armijo backtracking step along the projection arc is used. Convergence is
// measured on the projected gradient ||x - clip(x - g)||, which vanishes
// exactly at box-constrained stationary points.
type ProjectedGradient struct {
	f   fn.Function
	box *fn.Box
	x0  []float64
	cfg solver.Config
}

// NewProjectedGradient constructs a projected gradient solver. The
// objective must declare box bounds; the starting point is clipped into
// the box.
func NewProjectedGradient(f fn.Function, x0 []float64, cfg solver.Config) (*ProjectedGradient, error) {
	b, ok := f.(fn.Bounded)
	if !ok {
		return nil, fmt.Errorf("projected gradient requires box bounds")
	}
	if err := fn.CheckDim(f, x0); err != nil {
		return nil, err
	}
	if err := cfgValidate(&cfg); err != nil {
		return nil, err
	}
	return &ProjectedGradient{
		f:   f,
		box: b.Bounds(),
		x0:  b.Bounds().Clip(x0),
		cfg: cfg,
	}, nil
}

// Run executes the projected gradient loop to termination.
func (p *ProjectedGradient) Run() (*solver.Result, error) {
	log := p.cfg.Log()
	x := append([]float64(nil), p.x0...)
	tracker := solver.NewTracker(p.cfg)

	v := p.f.Value(x)
	g := p.f.Gradient(x)
	hist := solver.History{{X: append([]float64(nil), x...), F: v, GradNorm: projGradNorm(p.box, x, g), K: 0}}

	status := solver.StatusIterating
	for k := 1; ; k++ {
		pg := projGradNorm(p.box, x, g)
		if st := tracker.Check(k-1, v, pg); st.Terminal() {
			status = st
			break
		}

		var step float64
		var nx []float64
		if q, ok := p.f.(*fn.BoxQuadratic); ok {
			var err error
			step, nx, err = p.exactStep(q, x, g)
			if err != nil {
				return nil, err
			}
		} else {
			step, nx = p.arcStep(x, v, g)
		}
		if nx == nil {
			// No feasible decrease along the projection arc.
			log.Info("projection arc search failed", "iter", k, "value", v)
			status = solver.StatusLineSearchFailed
			break
		}

		x = nx
		v = p.f.Value(x)
		g = p.f.Gradient(x)
		hist = append(hist, solver.Iterate{
			X:        append([]float64(nil), x...),
			F:        v,
			GradNorm: projGradNorm(p.box, x, g),
			K:        k,
			Step:     step,
		})
		log.Debug("iteration", "iter", k, "value", v, "proj_grad", projGradNorm(p.box, x, g), "step", step)
	}

	return solver.NewResult(hist, status), nil
}

// exactStep moves along -g with active-bound components zeroed, taking the
// exact quadratic minimizer capped at the maximum feasible step.
func (p *ProjectedGradient) exactStep(q *fn.BoxQuadratic, x, g []float64) (float64, []float64, error) {
	const activeTol = 1e-12
	n := len(x)
	d := make([]float64, n)
	for i := range d {
		d[i] = -g[i]
		if p.box.Upper[i]-x[i] <= activeTol && d[i] > 0 {
			d[i] = 0
		}
		if x[i]-p.box.Lower[i] <= activeTol && d[i] < 0 {
			d[i] = 0
		}
	}

	maxT := p.box.MaxStep(x, d)
	den := q.Curvature(d)
	var t float64
	if den <= 1e-16 {
		// f is linear along d inside the box; walk to the boundary.
		t = maxT
	} else {
		t = -floats.Dot(g, d) / den
		if t > maxT {
			t = maxT
		}
	}

	nx := make([]float64, n)
	for i := range nx {
		nx[i] = x[i] + t*d[i]
	}
	return t, p.box.Clip(nx), nil
}

// arcStep backtracks along the projection arc x(a) = clip(x - a*g) until
// the objective decreases sufficiently. Returns a nil point on exhaustion.
func (p *ProjectedGradient) arcStep(x []float64, v float64, g []float64) (float64, []float64) {
	const c1 = 1e-4
	alpha := 1.0
	for tries := 0; tries < 60; tries++ {
		trial := make([]float64, len(x))
		for i := range trial {
			trial[i] = x[i] - alpha*g[i]
		}
		trial = p.box.Clip(trial)

		// Armijo against the actual displacement, not the raw gradient.
		var decr float64
		for i := range trial {
			decr += g[i] * (trial[i] - x[i])
		}
		if p.f.Value(trial) <= v+c1*decr && decr < 0 {
			return alpha, trial
		}
		alpha *= 0.5
	}
	return 0, nil
}

// projGradNorm is ||x - clip(x - g)||, zero exactly at box-constrained
// stationary points.
func projGradNorm(box *fn.Box, x, g []float64) float64 {
	trial := make([]float64, len(x))
	for i := range trial {
		trial[i] = x[i] - g[i]
	}
	trial = box.Clip(trial)
	for i := range trial {
		trial[i] = x[i] - trial[i]
	}
	return floats.Norm(trial, 2)
}

func cfgValidate(cfg *solver.Config) error {
	if cfg.MaxIter <= 0 {
		return fmt.Errorf("config: max iterations must be positive, got %d", cfg.MaxIter)
	}
	if cfg.Tol < 0 {
		return fmt.Errorf("config: tolerance can not be negative, got %g", cfg.Tol)
	}
	return nil
}
