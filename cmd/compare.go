package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cwbudde/optikit/internal/solver"
	"github.com/spf13/cobra"
)

var (
	cmpProblem string
	cmpMethods string
	cmpDim     int
	cmpIters   int
	cmpTol     float64
	cmpSeed    int64
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run several methods on the same problem",
	Long:  `Runs a list of methods on one benchmark problem and prints a comparison table.`,
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&cmpProblem, "problem", "rosenbrock", "Problem: rosenbrock, sphere, abssum, quad")
	compareCmd.Flags().StringVar(&cmpMethods, "methods", "gd,cg-pr,bfgs", "Comma-separated method list")
	compareCmd.Flags().IntVar(&cmpDim, "dim", 2, "Problem dimension")
	compareCmd.Flags().IntVar(&cmpIters, "iters", 1000, "Max iterations")
	compareCmd.Flags().Float64Var(&cmpTol, "tol", 1e-6, "Gradient norm tolerance")
	compareCmd.Flags().Int64Var(&cmpSeed, "seed", 42, "Random seed for generated problems")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	methods := strings.Split(cmpMethods, ",")

	fmt.Printf("%-12s %-20s %-14s %-10s %-10s\n", "method", "status", "value", "iters", "elapsed")

	for _, name := range methods {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		// Fresh problem per method so stateful rules start clean.
		f, x0, err := buildProblem(cmpProblem, cmpDim, cmpSeed)
		if err != nil {
			return err
		}

		cfg := solver.DefaultConfig()
		cfg.MaxIter = cmpIters
		cfg.Tol = cmpTol

		start := time.Now()
		result, err := runMethod(name, f, x0, cfg)
		elapsed := time.Since(start)
		if err != nil {
			slog.Warn("Method failed", "method", name, "error", err)
			fmt.Printf("%-12s %-20s %-14s %-10s %-10s\n", name, "error", "-", "-", "-")
			continue
		}

		fmt.Printf("%-12s %-20s %-14.6g %-10d %-10s\n",
			name, result.Status, result.F, len(result.History), elapsed.Round(time.Microsecond))
	}
	return nil
}
