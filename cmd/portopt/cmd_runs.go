package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"portopt/internal/store"
)

var (
	runsLimit     int
	runsPruneDays int
)

// listRuns prints the most recent ledger entries, newest first. It backs
// both the bare runs command and the explicit list subcommand.
func listRuns(limit int) error {
	db, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	fmt.Printf("%-36s %-20s %-11s %-12s %3s %10s\n",
		"ID", "CREATED", "METHOD", "OBJECTIVE", "N", "SCORE")
	for _, r := range runs {
		fmt.Printf("%-36s %-20s %-11s %-12s %3d %10.6f\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Method, r.Objective, len(r.Symbols), r.Score)
	}
	return nil
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the ledger of recorded optimization runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRuns(runsLimit)
	},
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listRuns(runsLimit)
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		run, err := db.GetRun(args[0])
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no run with id %s", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("id:          %s\n", run.ID)
		fmt.Printf("created:     %s\n", run.CreatedAt.Format(time.RFC3339))
		fmt.Printf("method:      %s\n", run.Method)
		fmt.Printf("objective:   %s\n", run.Objective)
		fmt.Printf("granularity: %d\n", run.Granularity)
		fmt.Printf("candidates:  %d\n", run.Candidates)
		fmt.Printf("elapsed:     %s\n", run.Elapsed.Round(time.Millisecond))
		fmt.Printf("score:       %.6f\n", run.Score)
		var parts []string
		for i, s := range run.Symbols {
			parts = append(parts, fmt.Sprintf("%s=%.2f%%", s, run.Weights[i]*100))
		}
		fmt.Printf("weights:     %s\n", strings.Join(parts, " "))
		return nil
	},
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than --older-than days",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		cutoff := time.Now().UTC().AddDate(0, 0, -runsPruneDays)
		n, err := db.PruneRuns(cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d runs older than %s\n", n, cutoff.Format("2006-01-02"))
		return nil
	},
}

func init() {
	runsCmd.PersistentFlags().IntVarP(&runsLimit, "limit", "n", 20, "maximum runs to list")
	runsPruneCmd.Flags().IntVar(&runsPruneDays, "older-than", 30, "age threshold in days")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsPruneCmd)
}
