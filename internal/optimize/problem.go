// Package optimize searches a discretized portfolio weight space for the
// allocation maximizing a chosen objective. The exhaustive search evaluates
// every candidate and is guaranteed to return the global optimum of the
// enumerated space; the simulated annealer explores the same space
// stochastically as the classical analogue of annealing-based global search.
package optimize

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"portopt/internal/stats"
)

// Objective selects the scoring function. All objectives are maximized;
// minimization targets are expressed by negating the quantity.
type Objective string

const (
	// MaxSharpe maximizes (mu'w - riskFree) / sqrt(w'Sigma w).
	MaxSharpe Objective = "max-sharpe"
	// MinVariance minimizes w'Sigma w.
	MinVariance Objective = "min-variance"
	// MaxReturn maximizes mu'w, ignoring risk entirely.
	MaxReturn Objective = "max-return"
	// MaxUtility maximizes mu'w - lambda * w'Sigma w.
	MaxUtility Objective = "max-utility"
)

// ParseObjective maps a CLI/config string onto an Objective.
func ParseObjective(s string) (Objective, error) {
	switch Objective(s) {
	case MaxSharpe, MinVariance, MaxReturn, MaxUtility:
		return Objective(s), nil
	}
	return "", fmt.Errorf("unknown objective %q (want max-sharpe, min-variance, max-return or max-utility)", s)
}

// Problem describes one allocation search: the universe statistics, the
// grid granularity, the objective, and optional per-asset weight bounds.
type Problem struct {
	Symbols []string
	// Mu holds expected (mean) returns per asset.
	Mu []float64
	// Sigma is the covariance matrix of returns.
	Sigma *mat.SymDense
	// Granularity is the number of weight buckets G; every candidate
	// weight is a multiple of 1/G and candidate weights sum to 1.
	Granularity int
	Objective   Objective
	// RiskFree applies to MaxSharpe only.
	RiskFree float64
	// RiskAversion is the lambda of MaxUtility; defaults to 1 when zero.
	RiskAversion float64
	// MinWeights/MaxWeights bound each asset's weight. Nil means
	// unbounded (0 and 1 respectively).
	MinWeights []float64
	MaxWeights []float64
}

// Validate checks dimensions and bound feasibility.
func (p *Problem) Validate() error {
	n := len(p.Symbols)
	if n == 0 {
		return fmt.Errorf("problem: no assets")
	}
	if p.Granularity <= 0 {
		return fmt.Errorf("problem: granularity must be positive, got %d", p.Granularity)
	}
	if len(p.Mu) != n {
		return fmt.Errorf("problem: %d assets but %d expected returns", n, len(p.Mu))
	}
	if p.Sigma == nil || p.Sigma.SymmetricDim() != n {
		return fmt.Errorf("problem: covariance matrix does not match %d assets", n)
	}
	if p.MinWeights != nil && len(p.MinWeights) != n {
		return fmt.Errorf("problem: %d assets but %d min weights", n, len(p.MinWeights))
	}
	if p.MaxWeights != nil && len(p.MaxWeights) != n {
		return fmt.Errorf("problem: %d assets but %d max weights", n, len(p.MaxWeights))
	}
	if _, err := ParseObjective(string(p.Objective)); err != nil {
		return err
	}
	if _, _, err := p.bucketBounds(); err != nil {
		return err
	}
	return nil
}

// bucketBounds converts fractional weight bounds into per-asset bucket
// bounds and checks that at least one candidate exists.
func (p *Problem) bucketBounds() (minB, maxB []int, err error) {
	n := len(p.Symbols)
	g := p.Granularity
	minB = make([]int, n)
	maxB = make([]int, n)
	const eps = 1e-9
	for i := 0; i < n; i++ {
		lo, hi := 0.0, 1.0
		if p.MinWeights != nil {
			lo = p.MinWeights[i]
		}
		if p.MaxWeights != nil {
			hi = p.MaxWeights[i]
		}
		if lo < 0 || hi > 1 || lo > hi {
			return nil, nil, fmt.Errorf("problem: bad bounds [%v, %v] for %s", lo, hi, p.Symbols[i])
		}
		minB[i] = int(math.Ceil(lo*float64(g) - eps))
		maxB[i] = int(math.Floor(hi*float64(g) + eps))
	}
	sumMin, sumMax := 0, 0
	for i := 0; i < n; i++ {
		sumMin += minB[i]
		sumMax += maxB[i]
	}
	if sumMin > g {
		return nil, nil, fmt.Errorf("problem: minimum weights alone exceed 100%% at granularity %d", g)
	}
	if sumMax < g {
		return nil, nil, fmt.Errorf("problem: maximum weights cannot reach 100%% at granularity %d", g)
	}
	return minB, maxB, nil
}

// scorer returns the higher-is-better scoring function for the problem.
func (p *Problem) scorer() func(w []float64) float64 {
	switch p.Objective {
	case MinVariance:
		return func(w []float64) float64 {
			return -stats.PortfolioVariance(p.Sigma, w)
		}
	case MaxReturn:
		return func(w []float64) float64 {
			return stats.PortfolioReturn(p.Mu, w)
		}
	case MaxUtility:
		lambda := p.RiskAversion
		if lambda == 0 {
			lambda = 1
		}
		return func(w []float64) float64 {
			return stats.PortfolioReturn(p.Mu, w) - lambda*stats.PortfolioVariance(p.Sigma, w)
		}
	default: // MaxSharpe
		return func(w []float64) float64 {
			return stats.Sharpe(p.Mu, p.Sigma, w, p.RiskFree)
		}
	}
}

// weightsOf converts a bucket vector into fractional weights.
func (p *Problem) weightsOf(buckets []int) []float64 {
	w := make([]float64, len(buckets))
	g := float64(p.Granularity)
	for i, b := range buckets {
		w[i] = float64(b) / g
	}
	return w
}

// SpaceSize counts the feasible candidates without enumerating them, by
// dynamic programming over the bucket bounds.
func (p *Problem) SpaceSize() (int64, error) {
	minB, maxB, err := p.bucketBounds()
	if err != nil {
		return 0, err
	}
	g := p.Granularity
	// counts[r] = number of ways to spend r buckets over assets seen so far.
	counts := make([]int64, g+1)
	counts[0] = 1
	for i := range minB {
		next := make([]int64, g+1)
		for r := 0; r <= g; r++ {
			if counts[r] == 0 {
				continue
			}
			for k := minB[i]; k <= maxB[i] && r+k <= g; k++ {
				next[r+k] += counts[r]
			}
		}
		counts = next
	}
	return counts[g], nil
}
