package solver

import (
	"fmt"
	"log/slog"
	"time"
)

// LineSearchKind selects the step-size subroutine for line-search methods.
type LineSearchKind int

const (
	// LineSearchNone disables line search; the step schedule rules. It is
	// the zero value, so configs for the fixed-step methods never carry a
	// line-search selection by accident.
	LineSearchNone LineSearchKind = iota

	// LineSearchBacktracking is Armijo backtracking, the DefaultConfig
	// choice for the line-search methods.
	LineSearchBacktracking

	// LineSearchWolfe is the strong-Wolfe bracketing search.
	LineSearchWolfe

	// LineSearchExact is the closed-form step for quadratic objectives.
	LineSearchExact
)

// MomentumKind selects the momentum variant of the heavy-ball rule.
type MomentumKind int

const (
	// MomentumNone disables momentum.
	MomentumNone MomentumKind = iota

	// MomentumStandard adds the classical heavy-ball term.
	MomentumStandard

	// MomentumNesterov evaluates the gradient at the extrapolated point.
	MomentumNesterov
)

// Config is the shared solver configuration.
// The zero value is not usable; start from DefaultConfig.
type Config struct {
	// MaxIter is the iteration budget.
	MaxIter int

	// Tol is the gradient-norm threshold for convergence.
	Tol float64

	// MaxTime is an optional wall-clock budget, checked once per iteration.
	// Zero means no time budget.
	MaxTime time.Duration

	// Patience is the number of consecutive iterations without significant
	// relative improvement before the solve is declared stalled.
	Patience int

	// StallThreshold is the minimum relative objective improvement that
	// counts as progress.
	StallThreshold float64

	// LineSearch selects the step-size subroutine.
	LineSearch LineSearchKind

	// Momentum selects the momentum variant for the heavy-ball rule.
	Momentum MomentumKind

	// MomentumCoeff is the momentum coefficient, in [0, 1).
	MomentumCoeff float64

	// Step is the step schedule used when LineSearch is LineSearchNone.
	// Called with the 1-based iteration index.
	Step func(k int) float64

	// RestartEvery forces a conjugate-gradient restart every so many
	// iterations. Zero means restart every n (the problem dimension).
	RestartEvery int

	// CheckDomain enables domain checking of the starting point for
	// bounded objectives.
	CheckDomain bool

	// Logger receives per-iteration debug records and terminal-state info
	// records. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the standard configuration: 1000 iterations,
// gradient tolerance 1e-6, backtracking line search, stall detection after
// 10 flat iterations.
func DefaultConfig() Config {
	return Config{
		MaxIter:        1000,
		Tol:            1e-6,
		Patience:       10,
		StallThreshold: 1e-12,
		LineSearch:     LineSearchBacktracking,
	}
}

func (c *Config) validate() error {
	if c.MaxIter <= 0 {
		return fmt.Errorf("config: max iterations must be positive, got %d", c.MaxIter)
	}
	if c.Tol < 0 {
		return fmt.Errorf("config: tolerance can not be negative, got %g", c.Tol)
	}
	if c.MomentumCoeff < 0 || c.MomentumCoeff >= 1 {
		return fmt.Errorf("config: momentum coefficient must be in [0,1), got %g", c.MomentumCoeff)
	}
	if c.LineSearch == LineSearchNone && c.Step == nil {
		return fmt.Errorf("config: a step schedule is required without line search")
	}
	return nil
}

// Log returns the configured logger, or slog.Default() when none is set.
func (c Config) Log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// ConstantStep returns a schedule that always yields alpha.
func ConstantStep(alpha float64) func(int) float64 {
	return func(int) float64 { return alpha }
}
