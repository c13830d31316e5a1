package boxcon

import (
	"fmt"

	"github.com/cwbudde/optikit/internal/fn"
	"github.com/cwbudde/optikit/internal/solver"
	"gonum.org/v1/gonum/floats"
)

// FrankWolfe is the conditional gradient method: each iteration solves the
// linearized subproblem over the box (closed form: the vertex minimizing
// g.x) and moves toward that vertex with the diminishing step 2/(k+2).
// Every iterate is a convex combination of box vertices and the starting
// point, so feasibility holds by construction and no projection is ever
// applied. The Frank-Wolfe gap g.(x - v) is the convergence criterion; it
// upper-bounds the suboptimality on convex objectives.
type FrankWolfe struct {
	f   fn.Function
	box *fn.Box
	x0  []float64
	cfg solver.Config

	// Step overrides the default 2/(k+2) schedule when non-nil.
	Step func(k int) float64
}

// NewFrankWolfe constructs a Frank-Wolfe solver over the objective's box.
// The starting point is clipped into the box once; after that the iterates
// stay feasible without clipping.
func NewFrankWolfe(f fn.Function, x0 []float64, cfg solver.Config) (*FrankWolfe, error) {
	b, ok := f.(fn.Bounded)
	if !ok {
		return nil, fmt.Errorf("frank-wolfe requires box bounds")
	}
	if err := fn.CheckDim(f, x0); err != nil {
		return nil, err
	}
	if err := cfgValidate(&cfg); err != nil {
		return nil, err
	}
	return &FrankWolfe{
		f:   f,
		box: b.Bounds(),
		x0:  b.Bounds().Clip(x0),
		cfg: cfg,
	}, nil
}

// Run executes the conditional gradient loop to termination.
func (fw *FrankWolfe) Run() (*solver.Result, error) {
	log := fw.cfg.Log()
	x := append([]float64(nil), fw.x0...)
	tracker := solver.NewTracker(fw.cfg)

	v := fw.f.Value(x)
	g := fw.f.Gradient(x)
	hist := solver.History{{X: append([]float64(nil), x...), F: v, GradNorm: floats.Norm(g, 2), K: 0}}

	status := solver.StatusIterating
	for k := 1; ; k++ {
		vertex := fw.box.Vertex(g)
		gap := 0.0
		for i := range x {
			gap += g[i] * (x[i] - vertex[i])
		}

		// The FW gap plays the role of the gradient norm in the shared
		// stopping criteria.
		if st := tracker.Check(k-1, v, gap); st.Terminal() {
			status = st
			break
		}

		gamma := 2 / float64(k+2)
		if fw.Step != nil {
			gamma = fw.Step(k)
		}
		if gamma > 1 {
			gamma = 1
		}
		for i := range x {
			x[i] += gamma * (vertex[i] - x[i])
		}

		v = fw.f.Value(x)
		g = fw.f.Gradient(x)
		hist = append(hist, solver.Iterate{
			X:        append([]float64(nil), x...),
			F:        v,
			GradNorm: floats.Norm(g, 2),
			K:        k,
			Step:     gamma,
		})
		log.Debug("iteration", "iter", k, "value", v, "fw_gap", gap, "step", gamma)
	}

	return solver.NewResult(hist, status), nil
}
