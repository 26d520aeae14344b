package market

import (
	"math"
	"sort"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func mkSeries(symbol string, closes map[string]float64) *Series {
	s := &Series{Symbol: symbol}
	dates := make([]string, 0, len(closes))
	for d := range closes {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	for _, d := range dates {
		s.Points = append(s.Points, Point{Date: day(d), Close: closes[d]})
	}
	return s
}

func TestSeriesValidate(t *testing.T) {
	tests := []struct {
		name    string
		series  *Series
		wantErr bool
	}{
		{
			name:   "valid",
			series: mkSeries("A", map[string]float64{"2024-01-02": 10, "2024-01-03": 11}),
		},
		{
			name:    "too short",
			series:  &Series{Symbol: "A", Points: []Point{{Date: day("2024-01-02"), Close: 10}}},
			wantErr: true,
		},
		{
			name:    "non-positive close",
			series:  mkSeries("A", map[string]float64{"2024-01-02": 10, "2024-01-03": 0}),
			wantErr: true,
		},
		{
			name: "dates out of order",
			series: &Series{Symbol: "A", Points: []Point{
				{Date: day("2024-01-03"), Close: 10},
				{Date: day("2024-01-02"), Close: 11},
			}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewUniverse_AlignsOnCommonDates(t *testing.T) {
	a := mkSeries("A", map[string]float64{
		"2024-01-02": 10, "2024-01-03": 11, "2024-01-04": 12, "2024-01-05": 13,
	})
	// B is missing Jan 4.
	b := mkSeries("B", map[string]float64{
		"2024-01-02": 20, "2024-01-03": 22, "2024-01-05": 26,
	})

	u, err := NewUniverse([]*Series{a, b})
	if err != nil {
		t.Fatalf("NewUniverse: %v", err)
	}
	if len(u.Dates) != 3 {
		t.Fatalf("got %d common dates, want 3", len(u.Dates))
	}
	rows, cols := u.Prices.Dims()
	if rows != 3 || cols != 2 {
		t.Fatalf("prices dims = %dx%d, want 3x2", rows, cols)
	}
	// Jan 4 must be dropped: row 2 holds Jan 5 closes.
	if got := u.Prices.At(2, 0); got != 13 {
		t.Errorf("A close on last common date = %v, want 13", got)
	}
	if got := u.Prices.At(2, 1); got != 26 {
		t.Errorf("B close on last common date = %v, want 26", got)
	}
}

func TestNewUniverse_Errors(t *testing.T) {
	if _, err := NewUniverse(nil); err == nil {
		t.Error("expected error for empty universe")
	}
	a := mkSeries("A", map[string]float64{"2024-01-02": 10, "2024-01-03": 11})
	b := mkSeries("B", map[string]float64{"2024-02-02": 20, "2024-02-03": 22})
	if _, err := NewUniverse([]*Series{a, b}); err == nil {
		t.Error("expected error for disjoint dates")
	}
}

func TestLogReturns(t *testing.T) {
	a := mkSeries("A", map[string]float64{
		"2024-01-02": 100, "2024-01-03": 110, "2024-01-04": 99,
	})
	u, err := NewUniverse([]*Series{a})
	if err != nil {
		t.Fatalf("NewUniverse: %v", err)
	}
	ret := u.LogReturns()
	rows, cols := ret.Dims()
	if rows != 2 || cols != 1 {
		t.Fatalf("returns dims = %dx%d, want 2x1", rows, cols)
	}
	if got, want := ret.At(0, 0), math.Log(110.0/100.0); math.Abs(got-want) > 1e-12 {
		t.Errorf("r_1 = %v, want %v", got, want)
	}
	if got, want := ret.At(1, 0), math.Log(99.0/110.0); math.Abs(got-want) > 1e-12 {
		t.Errorf("r_2 = %v, want %v", got, want)
	}
}
