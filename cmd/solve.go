package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/cwbudde/optikit/internal/fn"
	"github.com/cwbudde/optikit/internal/solver"
	"github.com/cwbudde/optikit/internal/trace"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	problem   string
	method    string
	dim       int
	maxIters  int
	tol       float64
	stepSize  float64
	lineKind  string
	momentum  float64
	seed      int64
	traceDir  string
	withTrace bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run an unconstrained solver on a benchmark problem",
	Long:  `Runs a gradient-based solver on a benchmark problem and reports the result.`,
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&problem, "problem", "rosenbrock", "Problem: rosenbrock, sphere, abssum, quad")
	solveCmd.Flags().StringVar(&method, "method", "bfgs", "Method: gd, heavyball, nesterov, cg-fr, cg-pr, cg-hs, cg-dy, newton, bfgs, subgradient, adam, amsgrad, adamax, adagrad, adadelta, rmsprop, rprop")
	solveCmd.Flags().IntVar(&dim, "dim", 2, "Problem dimension")
	solveCmd.Flags().IntVar(&maxIters, "iters", 1000, "Max iterations")
	solveCmd.Flags().Float64Var(&tol, "tol", 1e-6, "Gradient norm tolerance")
	solveCmd.Flags().Float64Var(&stepSize, "step", 0.001, "Step size for fixed-step methods")
	solveCmd.Flags().StringVar(&lineKind, "line-search", "wolfe", "Line search: backtracking, wolfe, exact, none")
	solveCmd.Flags().Float64Var(&momentum, "momentum", 0.9, "Momentum coefficient for heavyball/nesterov")
	solveCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for generated problems")
	solveCmd.Flags().StringVar(&traceDir, "trace-dir", "data", "Base directory for trace output")
	solveCmd.Flags().BoolVar(&withTrace, "trace", false, "Write iterate trace as JSONL")

	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	f, x0, err := buildProblem(problem, dim, seed)
	if err != nil {
		return err
	}

	cfg := solver.DefaultConfig()
	cfg.MaxIter = maxIters
	cfg.Tol = tol

	slog.Info("Starting solve", "problem", problem, "method", method, "dim", f.Dim())

	start := time.Now()
	result, err := runMethod(method, f, x0, cfg)
	if err != nil {
		return fmt.Errorf("solve failed: %w", err)
	}
	elapsed := time.Since(start)

	slog.Info("Solve finished",
		"status", result.Status.String(),
		"value", result.F,
		"iterations", len(result.History),
		"elapsed", elapsed)

	fmt.Printf("status:     %s\n", result.Status)
	fmt.Printf("value:      %g\n", result.F)
	fmt.Printf("iterations: %d\n", len(result.History))
	fmt.Printf("grad norm:  %g\n", result.History.Last().GradNorm)

	if withTrace {
		runID := fmt.Sprintf("%s-%s-%s", problem, method, uuid.New().String()[:8])
		if err := writeTrace(traceDir, runID, result.History); err != nil {
			return err
		}
		slog.Info("Trace written", "run", runID)
	}
	return nil
}

func writeTrace(baseDir, runID string, hist solver.History) error {
	w, err := trace.NewWriter(baseDir, runID)
	if err != nil {
		return err
	}
	if err := w.WriteHistory(hist); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func buildProblem(name string, n int, seed int64) (fn.Function, []float64, error) {
	switch name {
	case "rosenbrock":
		if n < 2 {
			n = 2
		}
		x0 := make([]float64, n)
		for i := range x0 {
			if i%2 == 0 {
				x0[i] = -1.2
			} else {
				x0[i] = 1
			}
		}
		return fn.Rosenbrock{N: n}, x0, nil
	case "sphere":
		x0 := make([]float64, n)
		for i := range x0 {
			x0[i] = 2
		}
		return fn.Sphere{N: n}, x0, nil
	case "abssum":
		x0 := make([]float64, n)
		for i := range x0 {
			x0[i] = 1.5
		}
		return fn.AbsSum{N: n}, x0, nil
	case "quad":
		rng := rand.New(rand.NewSource(seed))
		q := fn.RandomConvexQuadratic(n, rng)
		x0 := make([]float64, n)
		for i := range x0 {
			x0[i] = rng.NormFloat64()
		}
		return q, x0, nil
	default:
		return nil, nil, fmt.Errorf("unknown problem %q", name)
	}
}

func parseLineSearch(name string) (solver.LineSearchKind, error) {
	switch name {
	case "backtracking":
		return solver.LineSearchBacktracking, nil
	case "wolfe":
		return solver.LineSearchWolfe, nil
	case "exact":
		return solver.LineSearchExact, nil
	case "none":
		return solver.LineSearchNone, nil
	default:
		return solver.LineSearchBacktracking, fmt.Errorf("unknown line search %q", name)
	}
}

func runMethod(name string, f fn.Function, x0 []float64, cfg solver.Config) (*solver.Result, error) {
	ls, err := parseLineSearch(lineKind)
	if err != nil {
		return nil, err
	}
	cfg.LineSearch = ls
	if ls == solver.LineSearchNone {
		cfg.Step = solver.ConstantStep(stepSize)
	}

	switch {
	case name == "gd":
		s, err := solver.NewGradientDescent(f, x0, cfg)
		if err != nil {
			return nil, err
		}
		return s.Run()
	case name == "heavyball" || name == "nesterov":
		cfg.MomentumCoeff = momentum
		cfg.Momentum = solver.MomentumStandard
		if name == "nesterov" {
			cfg.Momentum = solver.MomentumNesterov
		}
		s, err := solver.NewGradientDescent(f, x0, cfg)
		if err != nil {
			return nil, err
		}
		return s.Run()
	case strings.HasPrefix(name, "cg-"):
		formula, err := parseBeta(strings.TrimPrefix(name, "cg-"))
		if err != nil {
			return nil, err
		}
		s, err := solver.New(f, x0, solver.NewConjGrad(formula), cfg)
		if err != nil {
			return nil, err
		}
		return s.Run()
	case name == "newton":
		s, err := solver.New(f, x0, solver.NewNewton(), cfg)
		if err != nil {
			return nil, err
		}
		return s.Run()
	case name == "bfgs":
		s, err := solver.New(f, x0, solver.NewBFGS(len(x0)), cfg)
		if err != nil {
			return nil, err
		}
		return s.Run()
	case name == "subgradient":
		s, err := solver.NewSubgradient(f, x0, stepSize, cfg)
		if err != nil {
			return nil, err
		}
		return s.Run()
	default:
		stepper, err := parseStepper(name)
		if err != nil {
			return nil, err
		}
		cfg.LineSearch = solver.LineSearchNone
		a, err := solver.NewAdaptive(f, x0, stepper, cfg)
		if err != nil {
			return nil, err
		}
		return a.Run()
	}
}

func parseBeta(name string) (solver.BetaFormula, error) {
	switch name {
	case "fr":
		return solver.FletcherReeves, nil
	case "pr":
		return solver.PolakRibiere, nil
	case "hs":
		return solver.HestenesStiefel, nil
	case "dy":
		return solver.DaiYuan, nil
	default:
		return solver.FletcherReeves, fmt.Errorf("unknown beta formula %q", name)
	}
}

func parseStepper(name string) (solver.Stepper, error) {
	switch name {
	case "adam":
		return solver.NewAdam(stepSize), nil
	case "amsgrad":
		return solver.NewAMSGrad(stepSize), nil
	case "adamax":
		return solver.NewAdaMax(stepSize), nil
	case "adagrad":
		return solver.NewAdaGrad(stepSize), nil
	case "adadelta":
		return solver.NewAdaDelta(), nil
	case "rmsprop":
		return solver.NewRMSProp(stepSize), nil
	case "rprop":
		return solver.NewRProp(), nil
	default:
		return nil, fmt.Errorf("unknown method %q", name)
	}
}
