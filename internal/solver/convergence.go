package solver

import (
	"log/slog"
	"math"
	"time"
)

// Tracker evaluates the shared stopping criteria once per iteration.
// Checked in order, first satisfied wins: gradient norm below tolerance,
// relative objective improvement below the stall threshold for the patience
// window, iteration or time budget exhausted.
type Tracker struct {
	tol       float64
	threshold float64
	patience  int
	maxIter   int
	maxTime   time.Duration
	logger    *slog.Logger

	start           time.Time
	lastSignificant float64
	staleCount      int
}

// NewTracker creates a tracker from the solver configuration.
// The wall clock starts immediately.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		tol:             cfg.Tol,
		threshold:       cfg.StallThreshold,
		patience:        cfg.Patience,
		maxIter:         cfg.MaxIter,
		maxTime:         cfg.MaxTime,
		logger:          cfg.Log(),
		start:           time.Now(),
		lastSignificant: math.Inf(1),
	}
}

// Check records the current iterate and returns the solver status:
// StatusIterating while the solve should continue, a terminal status
// otherwise.
func (t *Tracker) Check(iter int, value, gradNorm float64) Status {
	if gradNorm <= t.tol {
		t.logger.Info("converged", "iter", iter, "value", value, "grad_norm", gradNorm)
		return StatusConverged
	}

	// Relative improvement against the last significant value.
	if t.patience > 0 {
		rel := relativeImprovement(t.lastSignificant, value)
		if rel >= t.threshold {
			t.lastSignificant = value
			t.staleCount = 0
		} else {
			t.staleCount++
			t.logger.Debug("no significant improvement",
				"iter", iter,
				"value", value,
				"last_significant", t.lastSignificant,
				"stale_count", t.staleCount,
				"patience", t.patience,
			)
			if t.staleCount >= t.patience {
				t.logger.Info("stalled", "iter", iter, "value", value, "stale_count", t.staleCount)
				return StatusStalled
			}
		}
	}

	if iter >= t.maxIter {
		t.logger.Info("iteration budget exhausted", "iter", iter, "value", value, "grad_norm", gradNorm)
		return StatusMaxIter
	}

	if t.maxTime > 0 && time.Since(t.start) > t.maxTime {
		t.logger.Info("time budget exhausted", "iter", iter, "elapsed", time.Since(t.start))
		return StatusMaxIter
	}

	return StatusIterating
}

// StaleCount returns the current number of iterations without significant
// improvement.
func (t *Tracker) StaleCount() int { return t.staleCount }

func relativeImprovement(old, cur float64) float64 {
	if math.IsInf(old, 1) {
		return math.Inf(1)
	}
	return (old - cur) / math.Max(math.Abs(old), 1)
}
