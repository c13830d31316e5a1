package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/cwbudde/optikit/internal/boxcon"
	"github.com/cwbudde/optikit/internal/fn"
	"github.com/cwbudde/optikit/internal/solver"
	"github.com/spf13/cobra"
)

var (
	boxMethod string
	boxDim    int
	boxIters  int
	boxTol    float64
	boxSeed   int64
	boxPop    int
)

var boxqpCmd = &cobra.Command{
	Use:   "boxqp",
	Short: "Solve a random convex box-constrained quadratic",
	Long: `Generates a random convex quadratic over the unit box and solves it
with the selected box-constrained method.`,
	RunE: runBoxQP,
}

func init() {
	boxqpCmd.Flags().StringVar(&boxMethod, "method", "projgrad", "Method: projgrad, frankwolfe, activeset, interior, dual, mayfly")
	boxqpCmd.Flags().IntVar(&boxDim, "dim", 10, "Problem dimension")
	boxqpCmd.Flags().IntVar(&boxIters, "iters", 1000, "Max iterations")
	boxqpCmd.Flags().Float64Var(&boxTol, "tol", 1e-6, "Convergence tolerance")
	boxqpCmd.Flags().Int64Var(&boxSeed, "seed", 42, "Random seed")
	boxqpCmd.Flags().IntVar(&boxPop, "pop", 30, "Population size for the mayfly method")

	rootCmd.AddCommand(boxqpCmd)
}

func runBoxQP(cmd *cobra.Command, args []string) error {
	rng := rand.New(rand.NewSource(boxSeed))
	quad := fn.RandomConvexQuadratic(boxDim, rng)
	box := fn.UnitBox(boxDim)
	prob := &fn.BoxQuadratic{Quadratic: quad, Box: box}
	x0 := box.Center()

	cfg := solver.DefaultConfig()
	cfg.MaxIter = boxIters
	cfg.Tol = boxTol

	slog.Info("Starting box QP solve", "method", boxMethod, "dim", boxDim)

	start := time.Now()
	result, err := runBoxMethod(boxMethod, prob, x0, cfg)
	if err != nil {
		return fmt.Errorf("box QP solve failed: %w", err)
	}
	elapsed := time.Since(start)

	slog.Info("Box QP solve finished",
		"status", result.Status.String(),
		"value", result.F,
		"iterations", len(result.History),
		"elapsed", elapsed)

	fmt.Printf("status:     %s\n", result.Status)
	fmt.Printf("value:      %g\n", result.F)
	fmt.Printf("iterations: %d\n", len(result.History))
	fmt.Printf("feasible:   %v\n", box.Contains(result.X))
	return nil
}

func runBoxMethod(name string, prob *fn.BoxQuadratic, x0 []float64, cfg solver.Config) (*solver.Result, error) {
	switch name {
	case "projgrad":
		s, err := boxcon.NewProjectedGradient(prob, x0, cfg)
		if err != nil {
			return nil, err
		}
		return s.Run()
	case "frankwolfe":
		s, err := boxcon.NewFrankWolfe(prob, x0, cfg)
		if err != nil {
			return nil, err
		}
		return s.Run()
	case "activeset":
		s, err := boxcon.NewActiveSet(prob, x0, cfg)
		if err != nil {
			return nil, err
		}
		return s.Run()
	case "interior":
		s, err := boxcon.NewInteriorPoint(prob, x0, cfg)
		if err != nil {
			return nil, err
		}
		return s.Run()
	case "dual":
		s, err := boxcon.NewLagrangianDual(prob, cfg)
		if err != nil {
			return nil, err
		}
		return s.Run()
	case "mayfly":
		adapter := boxcon.NewMayfly(cfg.MaxIter, boxPop, boxSeed)
		sol, err := adapter.Solve(boxcon.Problem{Objective: prob.Quadratic, Box: prob.Box})
		if err != nil {
			return nil, err
		}
		return &solver.Result{X: sol.X, F: sol.F, Status: solver.StatusMaxIter}, nil
	default:
		return nil, fmt.Errorf("unknown box method %q", name)
	}
}
