package boxcon

import "errors"

var (
	// ErrDualityGap reports that the primal point recovered from a dual
	// solve violates feasibility beyond tolerance. This indicates numerical
	// trouble in the dual and is never silently ignored.
	ErrDualityGap = errors.New("dual-to-primal recovery infeasible")

	// ErrExternalSolver reports a non-success status from a collaborating
	// external convex solver.
	ErrExternalSolver = errors.New("external solver failed")
)
