package solver

import (
	"testing"
	"time"
)

func TestTrackerConvergesOnSmallGradient(t *testing.T) {
	cfg := quietConfig()
	tracker := NewTracker(cfg)

	if status := tracker.Check(0, 10, 1); status != StatusIterating {
		t.Errorf("Expected iterating, got %s", status)
	}
	if status := tracker.Check(1, 5, 1e-7); status != StatusConverged {
		t.Errorf("Expected converged, got %s", status)
	}
}

func TestTrackerStallsOnFlatValues(t *testing.T) {
	cfg := quietConfig()
	cfg.Patience = 5
	tracker := NewTracker(cfg)

	// First check establishes the baseline.
	if status := tracker.Check(0, 3, 1); status != StatusIterating {
		t.Fatalf("Expected iterating, got %s", status)
	}

	var status Status
	for i := 1; i <= 5; i++ {
		status = tracker.Check(i, 3, 1)
	}
	if status != StatusStalled {
		t.Errorf("Expected stalled after patience window, got %s", status)
	}
	if tracker.StaleCount() != 5 {
		t.Errorf("Expected stale count 5, got %d", tracker.StaleCount())
	}
}

func TestTrackerSignificantImprovementResetsStaleCount(t *testing.T) {
	cfg := quietConfig()
	cfg.Patience = 5
	tracker := NewTracker(cfg)

	tracker.Check(0, 3, 1)
	tracker.Check(1, 3, 1)
	tracker.Check(2, 3, 1)
	if tracker.StaleCount() != 2 {
		t.Fatalf("Expected stale count 2, got %d", tracker.StaleCount())
	}

	tracker.Check(3, 2, 1)
	if tracker.StaleCount() != 0 {
		t.Errorf("Expected stale count reset, got %d", tracker.StaleCount())
	}
}

func TestTrackerIterationBudget(t *testing.T) {
	cfg := quietConfig()
	cfg.MaxIter = 10
	cfg.Patience = 0
	tracker := NewTracker(cfg)

	if status := tracker.Check(9, 1, 1); status != StatusIterating {
		t.Errorf("Expected iterating below budget, got %s", status)
	}
	if status := tracker.Check(10, 1, 1); status != StatusMaxIter {
		t.Errorf("Expected max_iter at budget, got %s", status)
	}
}

func TestTrackerTimeBudget(t *testing.T) {
	cfg := quietConfig()
	cfg.Patience = 0
	cfg.MaxTime = time.Nanosecond
	tracker := NewTracker(cfg)

	time.Sleep(time.Millisecond)
	if status := tracker.Check(1, 1, 1); status != StatusMaxIter {
		t.Errorf("Expected max_iter on time budget, got %s", status)
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusInitialized:      false,
		StatusIterating:        false,
		StatusConverged:        true,
		StatusStalled:          true,
		StatusMaxIter:          true,
		StatusLineSearchFailed: true,
	}
	for status, want := range terminal {
		if status.Terminal() != want {
			t.Errorf("Status %s: expected Terminal() == %v", status, want)
		}
	}
}
