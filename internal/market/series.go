// Package market loads and aligns daily close-price series, computes log
// returns, and fetches quotes from a remote CSV endpoint.
package market

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Point is a single daily observation.
type Point struct {
	Date  time.Time
	Close float64
}

// Series holds the dated close prices of one symbol, in ascending date order.
type Series struct {
	Symbol string
	Points []Point
}

// Validate checks that the series is usable: at least two points, strictly
// ascending dates, strictly positive prices.
func (s *Series) Validate() error {
	if len(s.Points) < 2 {
		return fmt.Errorf("series %s: need at least 2 points, got %d", s.Symbol, len(s.Points))
	}
	for i, p := range s.Points {
		if p.Close <= 0 {
			return fmt.Errorf("series %s: non-positive close %v on %s", s.Symbol, p.Close, p.Date.Format("2006-01-02"))
		}
		if i > 0 && !s.Points[i-1].Date.Before(p.Date) {
			return fmt.Errorf("series %s: dates not strictly ascending at %s", s.Symbol, p.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Universe is a set of series aligned on their common dates.
type Universe struct {
	Symbols []string
	Dates   []time.Time
	// Prices is row-per-date, column-per-symbol, matching Symbols order.
	Prices *mat.Dense
}

// NewUniverse aligns the given series on the intersection of their dates.
// Series order is preserved in the column order.
func NewUniverse(series []*Series) (*Universe, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("universe: no series given")
	}
	for _, s := range series {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	counts := make(map[time.Time]int)
	for _, s := range series {
		for _, p := range s.Points {
			counts[p.Date.UTC().Truncate(24*time.Hour)]++
		}
	}
	var dates []time.Time
	for d, c := range counts {
		if c == len(series) {
			dates = append(dates, d)
		}
	}
	if len(dates) < 2 {
		return nil, fmt.Errorf("universe: only %d common dates across %d series", len(dates), len(series))
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	prices := mat.NewDense(len(dates), len(series), nil)
	symbols := make([]string, len(series))
	for j, s := range series {
		symbols[j] = s.Symbol
		byDate := make(map[time.Time]float64, len(s.Points))
		for _, p := range s.Points {
			byDate[p.Date.UTC().Truncate(24*time.Hour)] = p.Close
		}
		for i, d := range dates {
			prices.Set(i, j, byDate[d])
		}
	}

	return &Universe{Symbols: symbols, Dates: dates, Prices: prices}, nil
}

// LogReturns computes r_t = ln(p_t / p_{t-1}) per asset. The result has one
// row fewer than the price matrix.
func (u *Universe) LogReturns() *mat.Dense {
	rows, cols := u.Prices.Dims()
	ret := mat.NewDense(rows-1, cols, nil)
	for i := 1; i < rows; i++ {
		for j := 0; j < cols; j++ {
			ret.Set(i-1, j, math.Log(u.Prices.At(i, j)/u.Prices.At(i-1, j)))
		}
	}
	return ret
}
