package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"portopt/internal/market"
	"portopt/internal/store"
)

var (
	fetchStart   string
	fetchEnd     string
	fetchDays    int
	fetchRefresh bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [symbols...]",
	Short: "Download daily close prices into the data directory",
	Long: `Fetch downloads daily close prices for the given symbols and writes
one CSV per symbol into the data directory. Prices are cached in the
local database, so repeated fetches over the same range skip the
network unless --refresh is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		start, end, err := fetchRange()
		if err != nil {
			return err
		}

		timeout, err := cfg.MarketTimeout()
		if err != nil {
			return err
		}
		client := market.NewClient(
			market.WithBaseURL(cfg.Market.BaseURL),
			market.WithTimeout(timeout),
			market.WithRetries(cfg.Market.Retries),
			market.WithLogger(logger),
		)

		db, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		for _, arg := range args {
			symbol := strings.ToUpper(arg)
			series, cached, err := fetchSeries(ctx, client, db, symbol, start, end)
			if err != nil {
				return err
			}
			path, err := market.SaveFile(cfg.DataDir, series)
			if err != nil {
				return err
			}
			source := "network"
			if cached {
				source = "cache"
			}
			logger.Info("saved series",
				zap.String("symbol", symbol),
				zap.String("path", path),
				zap.String("source", source),
				zap.Int("points", len(series.Points)))
			fmt.Printf("%-8s %4d points (%s) -> %s\n", symbol, len(series.Points), source, path)
		}
		return nil
	},
}

// cacheSlack is how far the cached edges may fall inside the requested
// window before it counts as a miss. Daily data only exists on trading
// days, so weekends and holiday runs at either edge are expected.
const cacheSlack = 7 * 24 * time.Hour

// cacheCovers reports whether cached points span the requested window.
func cacheCovers(points []market.Point, start, end time.Time) bool {
	if len(points) < 2 {
		return false
	}
	first, last := points[0].Date, points[len(points)-1].Date
	return !first.After(start.Add(cacheSlack)) && !last.Before(end.Add(-cacheSlack))
}

// fetchSeries serves from the price cache when it covers the requested
// window, otherwise hits the network and backfills the cache.
func fetchSeries(ctx context.Context, client *market.Client, db *store.Store, symbol string, start, end time.Time) (*market.Series, bool, error) {
	if !fetchRefresh {
		points, err := db.CachedPrices(symbol, start, end)
		if err != nil {
			return nil, false, err
		}
		if cacheCovers(points, start, end) {
			return &market.Series{Symbol: symbol, Points: points}, true, nil
		}
	}
	series, err := client.Fetch(ctx, symbol, start, end)
	if err != nil {
		return nil, false, err
	}
	if err := db.CachePrices(symbol, series.Points); err != nil {
		return nil, false, err
	}
	return series, false, nil
}

// fetchRange resolves --start/--end/--days into a concrete date window.
func fetchRange() (time.Time, time.Time, error) {
	end := time.Now().UTC()
	if fetchEnd != "" {
		t, err := time.Parse("2006-01-02", fetchEnd)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad --end date %q: %w", fetchEnd, err)
		}
		end = t
	}
	days := fetchDays
	if days <= 0 {
		days = cfg.Market.LookbackDays
	}
	start := end.AddDate(0, 0, -days)
	if fetchStart != "" {
		t, err := time.Parse("2006-01-02", fetchStart)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad --start date %q: %w", fetchStart, err)
		}
		start = t
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s is not before end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return start, end, nil
}

func init() {
	fetchCmd.Flags().StringVar(&fetchStart, "start", "", "first date to fetch (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchEnd, "end", "", "last date to fetch (YYYY-MM-DD, default today)")
	fetchCmd.Flags().IntVar(&fetchDays, "days", 0, "lookback window when --start is unset")
	fetchCmd.Flags().BoolVar(&fetchRefresh, "refresh", false, "bypass the price cache")
}
