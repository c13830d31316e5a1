package solver

import (
	"gonum.org/v1/gonum/floats"
)

// BetaFormula selects the nonlinear conjugate gradient update coefficient.
type BetaFormula int

const (
	// FletcherReeves: beta = g'g / gPrev'gPrev.
	FletcherReeves BetaFormula = iota

	// PolakRibiere: beta = g'(g - gPrev) / gPrev'gPrev.
	PolakRibiere

	// HestenesStiefel: beta = g'(g - gPrev) / d'(g - gPrev).
	HestenesStiefel

	// DaiYuan: beta = g'g / d'(g - gPrev).
	DaiYuan
)

func (b BetaFormula) String() string {
	switch b {
	case FletcherReeves:
		return "fletcher-reeves"
	case PolakRibiere:
		return "polak-ribiere"
	case HestenesStiefel:
		return "hestenes-stiefel"
	case DaiYuan:
		return "dai-yuan"
	}
	return "unknown"
}

// ConjGrad is the nonlinear conjugate gradient rule
//
//	d = -g + beta * dPrev
//
// The direction is restarted to -g when the Polak-Ribiere or
// Hestenes-Stiefel formula yields beta < 0, every RestartEvery iterations,
// and whenever the combined direction stops being a descent direction.
// Restarting guards against direction degeneration on non-quadratic
// objectives.
type ConjGrad struct {
	// Formula selects the beta update.
	Formula BetaFormula

	// RestartEvery forces a periodic restart. Zero means every n.
	RestartEvery int

	sinceRestart int
}

// NewConjGrad returns a conjugate gradient rule with the given formula,
// restarting every n iterations by default.
func NewConjGrad(formula BetaFormula) *ConjGrad {
	return &ConjGrad{Formula: formula}
}

// Direction computes the conjugate direction for the current state.
func (c *ConjGrad) Direction(st *State) ([]float64, error) {
	restartEvery := c.RestartEvery
	if restartEvery <= 0 {
		restartEvery = len(st.X)
	}

	if st.PrevGrad == nil || c.sinceRestart >= restartEvery {
		c.sinceRestart = 1
		return negate(st.Grad), nil
	}

	beta := c.beta(st)
	if beta < 0 {
		// Degenerate accumulated direction: fall back to steepest descent.
		c.sinceRestart = 1
		return negate(st.Grad), nil
	}

	d := make([]float64, len(st.Grad))
	for i := range d {
		d[i] = -st.Grad[i] + beta*st.PrevDir[i]
	}
	if floats.Dot(st.Grad, d) >= 0 {
		c.sinceRestart = 1
		return negate(st.Grad), nil
	}
	c.sinceRestart++
	return d, nil
}

// Reset clears the restart counter.
func (c *ConjGrad) Reset() { c.sinceRestart = 0 }

func (c *ConjGrad) beta(st *State) float64 {
	n := len(st.Grad)
	y := make([]float64, n)
	for i := range y {
		y[i] = st.Grad[i] - st.PrevGrad[i]
	}

	const tiny = 1e-16
	switch c.Formula {
	case FletcherReeves:
		den := floats.Dot(st.PrevGrad, st.PrevGrad)
		if den < tiny {
			return 0
		}
		return floats.Dot(st.Grad, st.Grad) / den
	case PolakRibiere:
		den := floats.Dot(st.PrevGrad, st.PrevGrad)
		if den < tiny {
			return 0
		}
		return floats.Dot(st.Grad, y) / den
	case HestenesStiefel:
		den := floats.Dot(st.PrevDir, y)
		if den > -tiny && den < tiny {
			return 0
		}
		return floats.Dot(st.Grad, y) / den
	case DaiYuan:
		den := floats.Dot(st.PrevDir, y)
		if den > -tiny && den < tiny {
			return 0
		}
		return floats.Dot(st.Grad, st.Grad) / den
	}
	return 0
}
