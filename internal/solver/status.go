package solver

// Status describes a solver's state machine. A solver starts Initialized,
// moves to Iterating on the first step, and ends in exactly one terminal
// state. There are no transitions out of a terminal state.
type Status int

const (
	// StatusInitialized is the state at construction, before any step.
	StatusInitialized Status = iota

	// StatusIterating means the solve is in progress.
	StatusIterating

	// StatusConverged means the gradient norm dropped below the tolerance.
	StatusConverged

	// StatusStalled means the relative objective improvement stayed below
	// the stall threshold for the configured patience window.
	StatusStalled

	// StatusMaxIter means the iteration or time budget was exhausted.
	StatusMaxIter

	// StatusLineSearchFailed means the line search exhausted its trial
	// budget and the safeguarded fallback step did not decrease f.
	StatusLineSearchFailed
)

// Terminal reports whether the status ends a solve.
func (s Status) Terminal() bool {
	switch s {
	case StatusConverged, StatusStalled, StatusMaxIter, StatusLineSearchFailed:
		return true
	}
	return false
}

func (s Status) String() string {
	switch s {
	case StatusInitialized:
		return "initialized"
	case StatusIterating:
		return "iterating"
	case StatusConverged:
		return "converged"
	case StatusStalled:
		return "stalled"
	case StatusMaxIter:
		return "max_iter"
	case StatusLineSearchFailed:
		return "line_search_failed"
	}
	return "unknown"
}
