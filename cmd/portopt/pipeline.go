package main

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"portopt/internal/market"
	"portopt/internal/optimize"
	"portopt/internal/report"
	"portopt/internal/stats"
)

// loadUniverse reads price CSVs from the data directory, optionally
// filtered to the requested symbols, and aligns them on common dates.
func loadUniverse(symbols []string) (*market.Universe, error) {
	series, err := market.LoadDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if len(symbols) > 0 {
		want := make(map[string]bool, len(symbols))
		for _, s := range symbols {
			want[strings.ToUpper(s)] = true
		}
		var filtered []*market.Series
		for _, s := range series {
			if want[s.Symbol] {
				filtered = append(filtered, s)
				delete(want, s.Symbol)
			}
		}
		if len(want) > 0 {
			missing := make([]string, 0, len(want))
			for s := range want {
				missing = append(missing, s)
			}
			return nil, fmt.Errorf("no price data for %s in %s (run `portopt fetch` first)",
				strings.Join(missing, ", "), cfg.DataDir)
		}
		series = filtered
	}
	return market.NewUniverse(series)
}

// moments computes daily mean returns and their covariance matrix.
func moments(u *market.Universe) ([]float64, *mat.SymDense, error) {
	returns := u.LogReturns()
	sigma, err := stats.Covariance(returns)
	if err != nil {
		return nil, nil, err
	}
	rows, cols := returns.Dims()
	mu := make([]float64, cols)
	for j := 0; j < cols; j++ {
		col := make([]float64, rows)
		mat.Col(col, j, returns)
		mu[j] = stats.Mean(col)
	}
	return mu, sigma, nil
}

// problemFlags are shared by the optimize and anneal commands.
type problemFlags struct {
	granularity  int
	objective    string
	riskFree     float64
	riskAversion float64
	minWeight    float64
	maxWeight    float64
}

// buildProblem assembles the search problem for a universe, applying
// config defaults where flags were left at zero values.
func buildProblem(u *market.Universe, f *problemFlags) (*optimize.Problem, error) {
	mu, sigma, err := moments(u)
	if err != nil {
		return nil, err
	}

	granularity := f.granularity
	if granularity <= 0 {
		granularity = cfg.Optimizer.Granularity
	}
	objective := f.objective
	if objective == "" {
		objective = cfg.Optimizer.Objective
	}
	obj, err := optimize.ParseObjective(objective)
	if err != nil {
		return nil, err
	}
	riskAversion := f.riskAversion
	if riskAversion == 0 {
		riskAversion = cfg.Optimizer.RiskAversion
	}

	p := &optimize.Problem{
		Symbols:      u.Symbols,
		Mu:           mu,
		Sigma:        sigma,
		Granularity:  granularity,
		Objective:    obj,
		RiskFree:     f.riskFree,
		RiskAversion: riskAversion,
	}
	n := len(u.Symbols)
	if f.minWeight > 0 {
		p.MinWeights = fill(n, f.minWeight)
	}
	if f.maxWeight > 0 && f.maxWeight < 1 {
		p.MaxWeights = fill(n, f.maxWeight)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// performanceLine summarizes the chosen weights' annualized moments.
func performanceLine(p *optimize.Problem, weights []float64) string {
	ret := stats.PortfolioReturn(p.Mu, weights)
	vol := math.Sqrt(stats.PortfolioVariance(p.Sigma, weights))
	return report.Performance(ret, vol)
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
