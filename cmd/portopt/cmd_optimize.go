package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portopt/internal/optimize"
	"portopt/internal/report"
	"portopt/internal/store"
)

var (
	optFlags    problemFlags
	optWorkers  int
	optNoRecord bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [symbols...]",
	Short: "Exhaustively search the discretized weight grid",
	Long: `Optimize evaluates every weight allocation on the grid (weights are
multiples of 1/granularity summing to 1) and reports the allocation
with the best objective score. The search is exhaustive, so the result
is the guaranteed optimum of the grid.

Without symbol arguments every CSV in the data directory is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		u, err := loadUniverse(args)
		if err != nil {
			return err
		}
		p, err := buildProblem(u, &optFlags)
		if err != nil {
			return err
		}

		size, err := p.SpaceSize()
		if err != nil {
			return err
		}
		logger.Debug("search space sized",
			zap.Int("assets", len(p.Symbols)),
			zap.Int("granularity", p.Granularity),
			zap.Int64("candidates", size))

		workers := optWorkers
		if workers <= 0 {
			workers = cfg.Optimizer.Workers
		}
		bf := &optimize.BruteForce{Workers: workers, Logger: logger}
		res, err := bf.Optimize(ctx, p)
		if err != nil {
			return err
		}

		fmt.Print(report.Allocation(p.Symbols, res, string(p.Objective)))
		fmt.Print(performanceLine(p, res.Weights))

		if !optNoRecord {
			if err := recordRun("brute-force", p, res.Weights, res.Score, res.Evaluated, res.Elapsed); err != nil {
				return err
			}
		}
		return nil
	},
}

// recordRun appends a run to the ledger.
func recordRun(method string, p *optimize.Problem, weights []float64, score float64, candidates int64, elapsed time.Duration) error {
	db, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	run := &store.Run{
		Method:      method,
		Objective:   string(p.Objective),
		Granularity: p.Granularity,
		Symbols:     p.Symbols,
		Weights:     weights,
		Score:       score,
		Candidates:  candidates,
		Elapsed:     elapsed,
	}
	if err := db.RecordRun(run); err != nil {
		return err
	}
	fmt.Printf("recorded run %s\n", run.ID)
	return nil
}

func init() {
	optimizeCmd.Flags().IntVarP(&optFlags.granularity, "granularity", "g", 0, "weight buckets per unit (default from config)")
	optimizeCmd.Flags().StringVarP(&optFlags.objective, "objective", "o", "", "max-sharpe, min-variance, max-return or max-utility")
	optimizeCmd.Flags().Float64Var(&optFlags.riskFree, "risk-free", 0, "daily risk-free rate for the Sharpe objective")
	optimizeCmd.Flags().Float64Var(&optFlags.riskAversion, "risk-aversion", 0, "lambda for the utility objective")
	optimizeCmd.Flags().Float64Var(&optFlags.minWeight, "min-weight", 0, "lower bound applied to every asset")
	optimizeCmd.Flags().Float64Var(&optFlags.maxWeight, "max-weight", 0, "upper bound applied to every asset")
	optimizeCmd.Flags().IntVar(&optWorkers, "workers", 0, "enumeration goroutines (default GOMAXPROCS)")
	optimizeCmd.Flags().BoolVar(&optNoRecord, "no-record", false, "skip writing the run to the ledger")
}
