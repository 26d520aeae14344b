// portopt is a portfolio analytics CLI: it fetches daily close prices,
// computes log-return statistics, and solves discretized allocation
// problems by exhaustive search, with a simulated-annealing alternative
// and a correlation-distance minimum spanning tree view.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"portopt/internal/config"
)

var (
	// Global flags
	cfgPath string
	verbose bool
	dataDir string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "portopt",
	Short: "portopt - exhaustive-search portfolio optimization",
	Long: `portopt searches discretized portfolio weight allocations exhaustively,
guaranteeing the global optimum of the grid, and contrasts that with a
simulated-annealing walk over the same solution space.

It also builds the correlation-distance minimum spanning tree of a
universe, the classic econophysics view of market structure.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			zcfg.Level = zapLevel(cfg.Logging.Level)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func zapLevel(level string) zap.AtomicLevel {
	switch level {
	case "debug":
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn", "warning":
		return zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "portopt.yaml"
	}
	return filepath.Join(home, ".portopt", "config.yaml")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override the price data directory")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(annealCmd)
	rootCmd.AddCommand(mstCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
