package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portopt/internal/graph"
	"portopt/internal/report"
	"portopt/internal/stats"
)

var mstAlgo string

var mstCmd = &cobra.Command{
	Use:   "mst [symbols...]",
	Short: "Build the correlation-distance minimum spanning tree",
	Long: `Mst converts the log-return correlation matrix into the distance
metric d = sqrt(2(1-rho)) and prints the minimum spanning tree of the
resulting complete graph. Strongly correlated assets sit close together
in the tree.

Without symbol arguments every CSV in the data directory is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := loadUniverse(args)
		if err != nil {
			return err
		}
		rho, err := stats.Correlation(u.LogReturns())
		if err != nil {
			return err
		}
		g, err := graph.New(u.Symbols, stats.Distance(rho))
		if err != nil {
			return err
		}

		var edges []graph.Edge
		switch mstAlgo {
		case "prim":
			edges = g.PrimMST()
		case "kruskal":
			edges = g.KruskalMST()
		default:
			return fmt.Errorf("unknown algorithm %q (want prim or kruskal)", mstAlgo)
		}
		logger.Debug("built spanning tree",
			zap.Int("vertices", g.Order()),
			zap.Int("edges", len(edges)),
			zap.String("algo", mstAlgo))

		fmt.Print(report.Tree(edges, mstAlgo))
		return nil
	},
}

func init() {
	mstCmd.Flags().StringVar(&mstAlgo, "algo", "kruskal", "spanning tree algorithm: prim or kruskal")
}
