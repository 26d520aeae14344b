package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// csvDateLayout is the on-disk date format, one row per trading day.
const csvDateLayout = "2006-01-02"

// ReadCSV parses a "date,close" series. A header row is skipped when the
// first field does not parse as a date.
func ReadCSV(symbol string, r io.Reader) (*Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	s := &Series{Symbol: symbol}
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", symbol, err)
		}
		line++
		if len(rec) < 2 {
			return nil, fmt.Errorf("series %s: line %d: expected date,close", symbol, line)
		}
		date, err := time.Parse(csvDateLayout, strings.TrimSpace(rec[0]))
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("series %s: line %d: bad date %q", symbol, line, rec[0])
		}
		close, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("series %s: line %d: bad close %q", symbol, line, rec[1])
		}
		s.Points = append(s.Points, Point{Date: date.UTC(), Close: close})
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile reads one series from a CSV file; the symbol is the file stem.
func LoadFile(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	defer f.Close()
	symbol := strings.ToUpper(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	return ReadCSV(symbol, f)
}

// LoadDir reads every *.csv file in dir, one series per file, sorted by
// symbol so universe column order is stable.
func LoadDir(dir string) ([]*Series, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no price files in %s", dir)
	}
	sort.Strings(matches)
	series := make([]*Series, 0, len(matches))
	for _, m := range matches {
		s, err := LoadFile(m)
		if err != nil {
			return nil, err
		}
		series = append(series, s)
	}
	return series, nil
}

// WriteCSV writes a series as "date,close" with a header row.
func WriteCSV(w io.Writer, s *Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "close"}); err != nil {
		return err
	}
	for _, p := range s.Points {
		rec := []string{p.Date.Format(csvDateLayout), strconv.FormatFloat(p.Close, 'f', -1, 64)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveFile writes the series to dir/<symbol>.csv.
func SaveFile(dir string, s *Series) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("save series: %w", err)
	}
	path := filepath.Join(dir, strings.ToLower(s.Symbol)+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("save series: %w", err)
	}
	defer f.Close()
	if err := WriteCSV(f, s); err != nil {
		return "", fmt.Errorf("save series %s: %w", s.Symbol, err)
	}
	return path, nil
}
