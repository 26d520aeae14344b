// Package store persists optimization runs and cached daily prices in a
// local SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"portopt/internal/market"
)

// Run is one recorded optimization.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Method      string // "brute-force" or "anneal"
	Objective   string
	Granularity int
	Symbols     []string
	Weights     []float64
	Score       float64
	Candidates  int64
	Elapsed     time.Duration
}

// Store wraps the SQLite database holding the run ledger and price cache.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	path   string
	logger *zap.Logger
}

// Open initializes the database at path, creating the schema if needed.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logger.Debug("failed to set busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logger.Debug("failed to set journal_mode=WAL", zap.Error(err))
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("store ready", zap.String("path", path))
	return s, nil
}

// initialize creates the required tables idempotently.
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		method TEXT NOT NULL,
		objective TEXT NOT NULL,
		granularity INTEGER NOT NULL,
		symbols TEXT NOT NULL,
		weights TEXT NOT NULL,
		score REAL NOT NULL,
		candidates INTEGER NOT NULL,
		elapsed_ns INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

	CREATE TABLE IF NOT EXISTS prices (
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		close REAL NOT NULL,
		PRIMARY KEY (symbol, date)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// RecordRun inserts a run, assigning an ID and timestamp when unset.
func (s *Store) RecordRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	symbols, err := json.Marshal(run.Symbols)
	if err != nil {
		return fmt.Errorf("store: marshal symbols: %w", err)
	}
	weights, err := json.Marshal(run.Weights)
	if err != nil {
		return fmt.Errorf("store: marshal weights: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO runs (id, created_at, method, objective, granularity, symbols, weights, score, candidates, elapsed_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.Method, run.Objective, run.Granularity,
		string(symbols), string(weights), run.Score, run.Candidates, run.Elapsed.Nanoseconds())
	if err != nil {
		return fmt.Errorf("store: record run: %w", err)
	}
	s.logger.Debug("recorded run", zap.String("id", run.ID), zap.String("method", run.Method))
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, created_at, method, objective, granularity, symbols, weights, score, candidates, elapsed_ns
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun fetches one run by ID. Returns sql.ErrNoRows when absent.
func (s *Store) GetRun(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, created_at, method, objective, granularity, symbols, weights, score, candidates, elapsed_ns
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var symbols, weights string
	var elapsedNS int64
	err := row.Scan(&r.ID, &r.CreatedAt, &r.Method, &r.Objective, &r.Granularity,
		&symbols, &weights, &r.Score, &r.Candidates, &elapsedNS)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(symbols), &r.Symbols); err != nil {
		return nil, fmt.Errorf("store: unmarshal symbols: %w", err)
	}
	if err := json.Unmarshal([]byte(weights), &r.Weights); err != nil {
		return nil, fmt.Errorf("store: unmarshal weights: %w", err)
	}
	r.Elapsed = time.Duration(elapsedNS)
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

// PruneRuns deletes runs created before cutoff and reports how many.
func (s *Store) PruneRuns(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: prune runs: %w", err)
	}
	return res.RowsAffected()
}

// CachePrices upserts daily closes for a symbol.
func (s *Store) CachePrices(symbol string, points []market.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: cache prices: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO prices (symbol, date, close) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("store: cache prices: %w", err)
	}
	defer stmt.Close()
	for _, p := range points {
		if _, err := stmt.Exec(symbol, p.Date.Format("2006-01-02"), p.Close); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: cache prices for %s: %w", symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: cache prices: %w", err)
	}
	s.logger.Debug("cached prices", zap.String("symbol", symbol), zap.Int("points", len(points)))
	return nil
}

// CachedPrices returns the cached closes for symbol within [start, end],
// ascending by date. An empty slice means a cache miss.
func (s *Store) CachedPrices(symbol string, start, end time.Time) ([]market.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT date, close FROM prices
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("store: cached prices: %w", err)
	}
	defer rows.Close()

	var points []market.Point
	for rows.Next() {
		var date string
		var close float64
		if err := rows.Scan(&date, &close); err != nil {
			return nil, err
		}
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("store: bad cached date %q: %w", date, err)
		}
		points = append(points, market.Point{Date: d.UTC(), Close: close})
	}
	return points, rows.Err()
}
