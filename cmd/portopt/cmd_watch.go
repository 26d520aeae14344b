package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portopt/internal/optimize"
	"portopt/internal/report"
)

var watchFlags problemFlags

// watchDebounce coalesces bursts of file events into one re-optimization.
const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [symbols...]",
	Short: "Re-optimize whenever price CSVs change",
	Long: `Watch monitors the data directory and reruns the exhaustive search
every time a price CSV is written, so a refreshed fetch immediately
shows the new optimal allocation. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(cfg.DataDir); err != nil {
			return fmt.Errorf("watch %s: %w", cfg.DataDir, err)
		}
		logger.Info("watching data directory", zap.String("dir", cfg.DataDir))

		// Run once up front so the terminal is not empty until a change.
		if err := watchOptimize(ctx, args); err != nil {
			logger.Warn("initial optimization failed", zap.Error(err))
		}

		return watchLoop(ctx, watcher.Events, watcher.Errors, watchDebounce, func() {
			if err := watchOptimize(ctx, args); err != nil {
				logger.Warn("optimization failed", zap.Error(err))
			}
		})
	},
}

// isPriceEvent reports whether a file event should trigger a re-run.
func isPriceEvent(ev fsnotify.Event) bool {
	if !strings.HasSuffix(ev.Name, ".csv") {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}

// watchLoop drains watcher channels, coalescing bursts of CSV change
// events into single calls to run. It returns when ctx is done or the
// watcher channels close.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, debounce time.Duration, run func()) error {
	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !isPriceEvent(ev) {
				continue
			}
			logger.Debug("price file changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			run()
		}
	}
}

func watchOptimize(ctx context.Context, symbols []string) error {
	u, err := loadUniverse(symbols)
	if err != nil {
		return err
	}
	p, err := buildProblem(u, &watchFlags)
	if err != nil {
		return err
	}
	bf := &optimize.BruteForce{Workers: cfg.Optimizer.Workers, Logger: logger}
	res, err := bf.Optimize(ctx, p)
	if err != nil {
		return err
	}
	fmt.Printf("\n[%s]\n", time.Now().Format("15:04:05"))
	fmt.Print(report.Allocation(p.Symbols, res, string(p.Objective)))
	fmt.Print(performanceLine(p, res.Weights))
	return nil
}

func init() {
	watchCmd.Flags().IntVarP(&watchFlags.granularity, "granularity", "g", 0, "weight buckets per unit (default from config)")
	watchCmd.Flags().StringVarP(&watchFlags.objective, "objective", "o", "", "max-sharpe, min-variance, max-return or max-utility")
	watchCmd.Flags().Float64Var(&watchFlags.riskFree, "risk-free", 0, "daily risk-free rate for the Sharpe objective")
	watchCmd.Flags().Float64Var(&watchFlags.riskAversion, "risk-aversion", 0, "lambda for the utility objective")
}
