package solver

import "math"

// RProp adapts a per-coordinate step size from the sign agreement of
// successive gradients: agreement grows the step geometrically,
// disagreement shrinks it and suppresses the update for that coordinate.
// Gradient magnitudes are ignored entirely.
type RProp struct {
	// EtaPlus and EtaMinus are the grow/shrink factors.
	EtaPlus, EtaMinus float64

	// StepInit, StepMin and StepMax bound the per-coordinate step.
	StepInit, StepMin, StepMax float64

	steps, prevG []float64
}

// NewRProp returns an RProp stepper with the canonical constants
// (grow 1.2, shrink 0.5, steps in [1e-6, 50]).
func NewRProp() *RProp {
	return &RProp{
		EtaPlus:  1.2,
		EtaMinus: 0.5,
		StepInit: 0.01,
		StepMin:  1e-6,
		StepMax:  50,
	}
}

// Update adapts the per-coordinate steps from gradient sign agreement and
// returns the signed update.
func (r *RProp) Update(g []float64, _ int) []float64 {
	n := len(g)
	if r.steps == nil {
		r.steps = make([]float64, n)
		for i := range r.steps {
			r.steps[i] = r.StepInit
		}
		r.prevG = make([]float64, n)
	}

	u := make([]float64, n)
	for i, gi := range g {
		prod := gi * r.prevG[i]
		switch {
		case prod > 0:
			r.steps[i] = math.Min(r.steps[i]*r.EtaPlus, r.StepMax)
		case prod < 0:
			r.steps[i] = math.Max(r.steps[i]*r.EtaMinus, r.StepMin)
			// Sign flip: hold this coordinate for one iteration.
			r.prevG[i] = 0
			continue
		}
		u[i] = sign(gi) * r.steps[i]
		r.prevG[i] = gi
	}
	return u
}

// Reset clears the adapted steps.
func (r *RProp) Reset() { r.steps, r.prevG = nil, nil }

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
