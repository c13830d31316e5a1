package solver

// HeavyBall is the momentum rule
//
//	d = -g + mu * (x_k - x_{k-1})
//
// In the Nesterov variant the gradient is evaluated at the extrapolated
// point x + mu*(x_k - x_{k-1}) instead of at the current point, which is
// what gives the accelerated rate on convex objectives.
type HeavyBall struct {
	// Coeff is the momentum coefficient mu, in [0, 1).
	Coeff float64

	// Nesterov selects the extrapolated-gradient variant.
	Nesterov bool
}

// NewHeavyBall returns a momentum rule for the given variant.
func NewHeavyBall(coeff float64, kind MomentumKind) *HeavyBall {
	return &HeavyBall{Coeff: coeff, Nesterov: kind == MomentumNesterov}
}

// Direction combines the (possibly extrapolated) negated gradient with the
// previous displacement.
func (h *HeavyBall) Direction(st *State) ([]float64, error) {
	n := len(st.X)
	if st.PrevX == nil || h.Coeff == 0 {
		return negate(st.Grad), nil
	}

	disp := make([]float64, n)
	for i := range disp {
		disp[i] = st.X[i] - st.PrevX[i]
	}

	g := st.Grad
	if h.Nesterov {
		look := make([]float64, n)
		for i := range look {
			look[i] = st.X[i] + h.Coeff*disp[i]
		}
		g = st.F.Gradient(look)
	}

	d := make([]float64, n)
	for i := range d {
		d[i] = -g[i] + h.Coeff*disp[i]
	}
	return d, nil
}

// Reset is a no-op; the displacement lives in the solve state.
func (h *HeavyBall) Reset() {}
