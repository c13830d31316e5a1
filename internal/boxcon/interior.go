package boxcon

import (
	"math"

	"github.com/cwbudde/optikit/internal/fn"
	"github.com/cwbudde/optikit/internal/solver"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// InteriorPoint replaces the box constraints of a quadratic with a
// logarithmic barrier on both bound sides,
//
//	phi_mu(x) = f(x) - mu * sum_i ( log(x_i - l_i) + log(u_i - x_i) )
//
// solving a damped-Newton subproblem at each barrier coefficient mu and
// decreasing mu geometrically (factor 10 by default) across the outer loop.
// The outer loop stops when mu is below tolerance and the duality gap
// estimate 2n*mu is small. All iterates stay strictly inside the box; the
// fraction-to-boundary rule keeps Newton steps from touching a bound.
type InteriorPoint struct {
	f   *fn.BoxQuadratic
	x0  []float64
	cfg solver.Config

	// MuInit is the starting barrier coefficient.
	MuInit float64

	// MuFactor is the geometric decrease factor of the outer loop.
	MuFactor float64

	// InnerIter caps Newton iterations per barrier subproblem.
	InnerIter int
}

// NewInteriorPoint constructs an interior-point solver for a box quadratic.
// The starting point is moved strictly inside the box.
func NewInteriorPoint(f *fn.BoxQuadratic, x0 []float64, cfg solver.Config) (*InteriorPoint, error) {
	if err := fn.CheckDim(f, x0); err != nil {
		return nil, err
	}
	if err := cfgValidate(&cfg); err != nil {
		return nil, err
	}
	return &InteriorPoint{
		f:         f,
		x0:        interiorStart(f.Box, x0),
		cfg:       cfg,
		MuInit:    1,
		MuFactor:  10,
		InnerIter: 50,
	}, nil
}

// Run executes the barrier outer loop to termination.
func (ip *InteriorPoint) Run() (*solver.Result, error) {
	log := ip.cfg.Log()
	box := ip.f.Box
	n := ip.f.Dim()

	x := append([]float64(nil), ip.x0...)
	tracker := solver.NewTracker(ip.cfg)
	v := ip.f.Value(x)
	hist := solver.History{{X: append([]float64(nil), x...), F: v, GradNorm: projGradNorm(box, x, ip.f.Gradient(x)), K: 0}}

	status := solver.StatusIterating
	mu := ip.MuInit
	outer := 0
	for k := 1; ; outer++ {
		gap := 2 * float64(n) * mu
		pg := projGradNorm(box, x, ip.f.Gradient(x))
		if mu < ip.cfg.Tol && gap <= ip.cfg.Tol*math.Max(math.Abs(v), 1) {
			log.Info("barrier converged", "outer", outer, "mu", mu, "gap", gap)
			status = solver.StatusConverged
			break
		}
		if st := tracker.Check(k-1, v, pg); st.Terminal() && st != solver.StatusConverged {
			status = st
			break
		}

		// Inner damped-Newton iterations on the barrier subproblem.
		for inner := 0; inner < ip.InnerIter; inner++ {
			g, hess := ip.barrierDerivs(x, mu)
			if floats.Norm(g, 2) <= ip.cfg.Tol*math.Max(1, mu) {
				break
			}

			var chol mat.Cholesky
			var d []float64
			if chol.Factorize(hess) {
				rhs := mat.NewVecDense(n, nil)
				for i, gi := range g {
					rhs.SetVec(i, -gi)
				}
				var sol mat.VecDense
				if err := chol.SolveVecTo(&sol, rhs); err == nil {
					d = make([]float64, n)
					copy(d, sol.RawVector().Data)
				}
			}
			if d == nil {
				// The barrier Hessian is PD in exact arithmetic; a failed
				// factorization means severe ill-conditioning near a bound.
				d = make([]float64, n)
				for i, gi := range g {
					d[i] = -gi
				}
			}

			// Fraction-to-boundary: never touch a bound.
			t := math.Min(1, 0.99*box.MaxStep(x, d))
			bv := ip.barrierValue(x, mu)
			for ; t > 1e-16; t *= 0.5 {
				nx := make([]float64, n)
				for i := range x {
					nx[i] = x[i] + t*d[i]
				}
				if ip.barrierValue(nx, mu) < bv {
					x = nx
					break
				}
			}
			if t <= 1e-16 {
				break
			}

			v = ip.f.Value(x)
			hist = append(hist, solver.Iterate{
				X:        append([]float64(nil), x...),
				F:        v,
				GradNorm: projGradNorm(box, x, ip.f.Gradient(x)),
				K:        k,
				Step:     t,
			})
			k++
		}

		log.Debug("barrier outer step", "outer", outer, "mu", mu, "value", v)
		mu /= ip.MuFactor
	}

	res := solver.NewResult(hist, status)
	res.X = box.Clip(res.X)
	return res, nil
}

// barrierDerivs returns the gradient and Hessian of the barrier subproblem
// at x: the quadratic's derivatives plus the barrier terms
// -mu*(1/(x-l) - 1/(u-x)) and mu*(1/(x-l)^2 + 1/(u-x)^2) on the diagonal.
func (ip *InteriorPoint) barrierDerivs(x []float64, mu float64) ([]float64, *mat.SymDense) {
	box := ip.f.Box
	n := len(x)
	g := ip.f.Gradient(x)
	hess := ip.f.Hessian(x)
	for i := 0; i < n; i++ {
		lo := x[i] - box.Lower[i]
		hi := box.Upper[i] - x[i]
		g[i] += -mu/lo + mu/hi
		hess.SetSym(i, i, hess.At(i, i)+mu/(lo*lo)+mu/(hi*hi))
	}
	return g, hess
}

func (ip *InteriorPoint) barrierValue(x []float64, mu float64) float64 {
	box := ip.f.Box
	v := ip.f.Value(x)
	for i := range x {
		lo := x[i] - box.Lower[i]
		hi := box.Upper[i] - x[i]
		if lo <= 0 || hi <= 0 {
			return math.Inf(1)
		}
		v -= mu * (math.Log(lo) + math.Log(hi))
	}
	return v
}

// interiorStart moves x strictly inside the box, at least a small margin
// away from every bound.
func interiorStart(box *fn.Box, x []float64) []float64 {
	out := box.Clip(x)
	for i := range out {
		width := box.Upper[i] - box.Lower[i]
		margin := 1e-3 * width
		if margin == 0 {
			continue
		}
		if out[i]-box.Lower[i] < margin {
			out[i] = box.Lower[i] + margin
		}
		if box.Upper[i]-out[i] < margin {
			out[i] = box.Upper[i] - margin
		}
	}
	return out
}
