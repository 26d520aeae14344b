// Package stats computes return statistics for a universe of assets:
// covariance and correlation matrices, the Mantegna distance metric used
// for correlation trees, and portfolio moments (expected return, variance,
// Sharpe ratio) over a weight vector.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TradingDays is the annualization base for daily return series.
const TradingDays = 252

// Mean returns the arithmetic mean of xs.
func Mean(xs []float64) float64 {
	return stat.Mean(xs, nil)
}

// AnnualizeReturn scales a mean daily return to a yearly figure.
func AnnualizeReturn(daily float64) float64 {
	return daily * TradingDays
}

// AnnualizeVolatility scales a daily standard deviation to a yearly figure.
func AnnualizeVolatility(daily float64) float64 {
	return daily * math.Sqrt(TradingDays)
}

// Covariance builds the sample covariance matrix of a column-per-asset
// returns matrix. returns must have at least two rows.
func Covariance(returns mat.Matrix) (*mat.SymDense, error) {
	rows, cols := returns.Dims()
	if rows < 2 {
		return nil, fmt.Errorf("covariance needs at least 2 observations, got %d", rows)
	}
	sigma := mat.NewSymDense(cols, nil)
	stat.CovarianceMatrix(sigma, returns, nil)
	return sigma, nil
}

// Correlation builds the Pearson correlation matrix of a column-per-asset
// returns matrix.
func Correlation(returns mat.Matrix) (*mat.SymDense, error) {
	rows, cols := returns.Dims()
	if rows < 2 {
		return nil, fmt.Errorf("correlation needs at least 2 observations, got %d", rows)
	}
	rho := mat.NewSymDense(cols, nil)
	stat.CorrelationMatrix(rho, returns, nil)
	return rho, nil
}

// Distance converts a correlation matrix into the Mantegna distance metric
// d_ij = sqrt(2 * (1 - rho_ij)). The result is symmetric with a zero
// diagonal; perfectly correlated assets are at distance 0 and perfectly
// anti-correlated assets at distance 2.
func Distance(rho *mat.SymDense) *mat.SymDense {
	n := rho.SymmetricDim()
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := 2 * (1 - rho.At(i, j))
			if v < 0 {
				// Guard against rho marginally above 1 from rounding.
				v = 0
			}
			d.SetSym(i, j, math.Sqrt(v))
		}
	}
	return d
}

// PortfolioReturn computes mu'w.
func PortfolioReturn(mu, w []float64) float64 {
	var r float64
	for i := range w {
		r += mu[i] * w[i]
	}
	return r
}

// PortfolioVariance computes w'Sigma w.
func PortfolioVariance(sigma *mat.SymDense, w []float64) float64 {
	n := sigma.SymmetricDim()
	var v float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v += w[i] * w[j] * sigma.At(i, j)
		}
	}
	return v
}

// Sharpe computes (mu'w - riskFree) / sqrt(w'Sigma w). A zero-variance
// portfolio has an undefined ratio; the variance is floored to keep the
// result finite, matching how degenerate portfolios are scored elsewhere.
func Sharpe(mu []float64, sigma *mat.SymDense, w []float64, riskFree float64) float64 {
	excess := PortfolioReturn(mu, w) - riskFree
	vol := math.Sqrt(math.Max(PortfolioVariance(sigma, w), 1e-10))
	return excess / vol
}
