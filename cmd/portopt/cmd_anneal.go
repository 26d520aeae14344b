package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"portopt/internal/optimize"
	"portopt/internal/report"
)

var (
	annealFlags    problemFlags
	annealSteps    int
	annealTemp     float64
	annealCooling  float64
	annealSeed     int64
	annealVerify   bool
	annealNoRecord bool
)

var annealCmd = &cobra.Command{
	Use:   "anneal [symbols...]",
	Short: "Search the weight grid with simulated annealing",
	Long: `Anneal walks the same discretized weight grid as optimize with a
Metropolis random walk under a geometric cooling schedule. It is much
faster on large spaces but carries no optimality guarantee; pass
--verify to also run the exhaustive search and report the gap.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		u, err := loadUniverse(args)
		if err != nil {
			return err
		}
		p, err := buildProblem(u, &annealFlags)
		if err != nil {
			return err
		}

		steps := annealSteps
		if steps <= 0 {
			steps = cfg.Annealing.Steps
		}
		temp := annealTemp
		if temp <= 0 {
			temp = cfg.Annealing.InitialTemp
		}
		cooling := annealCooling
		if cooling <= 0 {
			cooling = cfg.Annealing.Cooling
		}

		an := &optimize.Annealer{
			Steps:       steps,
			InitialTemp: temp,
			Cooling:     cooling,
			Seed:        annealSeed,
			Logger:      logger,
		}
		res, err := an.Optimize(ctx, p)
		if err != nil {
			return err
		}

		fmt.Print(report.Annealed(p.Symbols, res, string(p.Objective)))
		fmt.Print(performanceLine(p, res.Weights))

		if annealVerify {
			bf := &optimize.BruteForce{Workers: cfg.Optimizer.Workers, Logger: logger}
			exact, err := bf.Optimize(ctx, p)
			if err != nil {
				return err
			}
			fmt.Print(report.Comparison(res, exact))
		}

		if !annealNoRecord {
			if err := recordRun("anneal", p, res.Weights, res.Score, res.Evaluated, res.Elapsed); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	annealCmd.Flags().IntVarP(&annealFlags.granularity, "granularity", "g", 0, "weight buckets per unit (default from config)")
	annealCmd.Flags().StringVarP(&annealFlags.objective, "objective", "o", "", "max-sharpe, min-variance, max-return or max-utility")
	annealCmd.Flags().Float64Var(&annealFlags.riskFree, "risk-free", 0, "daily risk-free rate for the Sharpe objective")
	annealCmd.Flags().Float64Var(&annealFlags.riskAversion, "risk-aversion", 0, "lambda for the utility objective")
	annealCmd.Flags().Float64Var(&annealFlags.minWeight, "min-weight", 0, "lower bound applied to every asset")
	annealCmd.Flags().Float64Var(&annealFlags.maxWeight, "max-weight", 0, "upper bound applied to every asset")
	annealCmd.Flags().IntVar(&annealSteps, "steps", 0, "annealing proposals (default from config)")
	annealCmd.Flags().Float64Var(&annealTemp, "temp", 0, "initial temperature (default from config)")
	annealCmd.Flags().Float64Var(&annealCooling, "cooling", 0, "geometric cooling factor (default from config)")
	annealCmd.Flags().Int64Var(&annealSeed, "seed", 0, "RNG seed for reproducible walks (0 = clock)")
	annealCmd.Flags().BoolVar(&annealVerify, "verify", false, "also run the exhaustive search and report the gap")
	annealCmd.Flags().BoolVar(&annealNoRecord, "no-record", false, "skip writing the run to the ledger")
}
