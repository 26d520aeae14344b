package market

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadCSV(t *testing.T) {
	in := "date,close\n2024-01-02,100.5\n2024-01-03,101.25\n"
	s, err := ReadCSV("aapl", strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if s.Symbol != "aapl" {
		t.Errorf("symbol = %q", s.Symbol)
	}
	if len(s.Points) != 2 {
		t.Fatalf("got %d points, want 2", len(s.Points))
	}
	if s.Points[0].Close != 100.5 || s.Points[1].Close != 101.25 {
		t.Errorf("closes = %v, %v", s.Points[0].Close, s.Points[1].Close)
	}
}

func TestReadCSV_NoHeader(t *testing.T) {
	in := "2024-01-02,100\n2024-01-03,101\n"
	s, err := ReadCSV("X", strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(s.Points) != 2 {
		t.Errorf("got %d points, want 2", len(s.Points))
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"bad date mid-file", "2024-01-02,100\nnot-a-date,101\n"},
		{"bad close", "2024-01-02,100\n2024-01-03,abc\n"},
		{"missing field", "2024-01-02\n"},
		{"single row", "2024-01-02,100\n"},
		{"zero close", "2024-01-02,100\n2024-01-03,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV("X", strings.NewReader(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	orig := mkSeries("MSFT", map[string]float64{
		"2024-01-02": 370.87, "2024-01-03": 373.26, "2024-01-04": 368.0,
	})
	var buf bytes.Buffer
	if err := WriteCSV(&buf, orig); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	got, err := ReadCSV("MSFT", &buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if diff := cmp.Diff(orig.Points, got.Points); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	for sym, body := range map[string]string{
		"spy": "date,close\n2024-01-02,470\n2024-01-03,472\n",
		"iwm": "date,close\n2024-01-02,198\n2024-01-03,199\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, sym+".csv"), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	series, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("got %d series, want 2", len(series))
	}
	// Sorted by filename: iwm before spy, symbols upper-cased from the stem.
	if series[0].Symbol != "IWM" || series[1].Symbol != "SPY" {
		t.Errorf("symbols = %s, %s", series[0].Symbol, series[1].Symbol)
	}
}

func TestLoadDir_Empty(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Error("expected error for empty dir")
	}
}

func TestSaveFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prices")
	s := mkSeries("NFLX", map[string]float64{"2024-01-02": 480, "2024-01-03": 485})
	path, err := SaveFile(dir, s)
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if filepath.Base(path) != "nflx.csv" {
		t.Errorf("path = %s, want nflx.csv basename", path)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Symbol != "NFLX" || len(got.Points) != 2 {
		t.Errorf("loaded %s with %d points", got.Symbol, len(got.Points))
	}
}
