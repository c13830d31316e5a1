package boxcon

import (
	"fmt"

	"github.com/cwbudde/optikit/internal/fn"
	"github.com/cwbudde/optikit/internal/solver"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// coordinate pin states of the active-set bookkeeping.
const (
	free = iota
	atLower
	atUpper
)

// ActiveSet solves a box-constrained quadratic by partitioning coordinates
// into a free set and an active set pinned at a bound. Each outer iteration
// solves the quadratic restricted to the free coordinates; an update that
// would cross a bound is cut at the first crossing and that coordinate is
// pinned. Pinned coordinates whose multiplier has the wrong sign are
// released again. The method terminates when no coordinate changes set
// membership and the reduced gradient vanishes.
//
// Set membership lives in one fixed-size state array over the coordinate
// indices; nothing per-coordinate is allocated inside the loop.
type ActiveSet struct {
	f   *fn.BoxQuadratic
	x0  []float64
	cfg solver.Config
}

// NewActiveSet constructs an active-set solver for a box quadratic.
func NewActiveSet(f *fn.BoxQuadratic, x0 []float64, cfg solver.Config) (*ActiveSet, error) {
	if err := fn.CheckDim(f, x0); err != nil {
		return nil, err
	}
	if err := cfgValidate(&cfg); err != nil {
		return nil, err
	}
	return &ActiveSet{f: f, x0: f.Box.Clip(x0), cfg: cfg}, nil
}

// Run executes the active-set loop to termination.
func (a *ActiveSet) Run() (*solver.Result, error) {
	log := a.cfg.Log()
	box := a.f.Box
	n := a.f.Dim()

	x := append([]float64(nil), a.x0...)
	state := make([]int, n)
	const pinTol = 1e-10
	for i := range x {
		switch {
		case x[i]-box.Lower[i] <= pinTol:
			x[i] = box.Lower[i]
			state[i] = atLower
		case box.Upper[i]-x[i] <= pinTol:
			x[i] = box.Upper[i]
			state[i] = atUpper
		}
	}

	tracker := solver.NewTracker(a.cfg)
	v := a.f.Value(x)
	g := a.f.Gradient(x)
	hist := solver.History{{X: append([]float64(nil), x...), F: v, GradNorm: reducedGradNorm(g, state), K: 0}}

	status := solver.StatusIterating
	for k := 1; ; k++ {
		rg := reducedGradNorm(g, state)
		changed := a.release(g, state)
		if !changed && rg <= a.cfg.Tol {
			log.Info("active set stable", "iter", k, "value", v, "active", countActive(state))
			status = solver.StatusConverged
			break
		}
		// The tracker's gradient criterion is ignored here: releasing a
		// coordinate means more work even at a small reduced gradient.
		if st := tracker.Check(k-1, v, rg); st.Terminal() && st != solver.StatusConverged {
			status = st
			break
		}

		target, err := a.solveFree(x, state)
		if err != nil {
			return nil, err
		}

		// Cut the move at the first bound crossing and pin that coordinate.
		t, pin, pinState := 1.0, -1, free
		for i := range x {
			if state[i] != free {
				continue
			}
			di := target[i] - x[i]
			switch {
			case di > 0 && x[i]+t*di > box.Upper[i]:
				t = (box.Upper[i] - x[i]) / di
				pin, pinState = i, atUpper
			case di < 0 && x[i]+t*di < box.Lower[i]:
				t = (box.Lower[i] - x[i]) / di
				pin, pinState = i, atLower
			}
		}
		for i := range x {
			if state[i] == free {
				x[i] += t * (target[i] - x[i])
			}
		}
		if pin >= 0 {
			if pinState == atUpper {
				x[pin] = box.Upper[pin]
			} else {
				x[pin] = box.Lower[pin]
			}
			state[pin] = pinState
		}

		v = a.f.Value(x)
		g = a.f.Gradient(x)
		hist = append(hist, solver.Iterate{
			X:        append([]float64(nil), x...),
			F:        v,
			GradNorm: reducedGradNorm(g, state),
			K:        k,
			Step:     t,
		})
		log.Debug("iteration", "iter", k, "value", v, "reduced_grad", reducedGradNorm(g, state), "active", countActive(state))
	}

	res := solver.NewResult(hist, status)
	res.X = box.Clip(res.X)
	return res, nil
}

// release frees pinned coordinates whose multiplier sign says the bound no
// longer binds: at a lower bound the multiplier is the gradient component
// and must stay nonnegative, at an upper bound nonpositive.
func (a *ActiveSet) release(g []float64, state []int) bool {
	changed := false
	for i, st := range state {
		switch st {
		case atLower:
			if g[i] < -a.cfg.Tol {
				state[i] = free
				changed = true
			}
		case atUpper:
			if g[i] > a.cfg.Tol {
				state[i] = free
				changed = true
			}
		}
	}
	return changed
}

// solveFree minimizes the quadratic over the free coordinates with the
// pinned ones fixed, via Cholesky on the reduced system
//
//	Q_FF x_F = -(q_F + Q_FB x_B)
func (a *ActiveSet) solveFree(x []float64, state []int) ([]float64, error) {
	var freeIdx []int
	for i, st := range state {
		if st == free {
			freeIdx = append(freeIdx, i)
		}
	}
	target := append([]float64(nil), x...)
	m := len(freeIdx)
	if m == 0 {
		return target, nil
	}

	qff := mat.NewSymDense(m, nil)
	rhs := mat.NewVecDense(m, nil)
	for a1, i := range freeIdx {
		for a2 := a1; a2 < m; a2++ {
			qff.SetSym(a1, a2, a.f.Q.At(i, freeIdx[a2]))
		}
		r := -a.f.Lin[i]
		for j, st := range state {
			if st != free {
				r -= a.f.Q.At(i, j) * x[j]
			}
		}
		rhs.SetVec(a1, r)
	}

	var chol mat.Cholesky
	if !chol.Factorize(qff) {
		return nil, fmt.Errorf("active set reduced system: %w", fn.ErrIndefinite)
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, rhs); err != nil {
		return nil, fmt.Errorf("active set reduced system: %w", err)
	}
	for a1, i := range freeIdx {
		target[i] = sol.AtVec(a1)
	}
	return target, nil
}

func reducedGradNorm(g []float64, state []int) float64 {
	var reduced []float64
	for i, st := range state {
		if st == free {
			reduced = append(reduced, g[i])
		}
	}
	if len(reduced) == 0 {
		return 0
	}
	return floats.Norm(reduced, 2)
}

func countActive(state []int) int {
	c := 0
	for _, st := range state {
		if st != free {
			c++
		}
	}
	return c
}
