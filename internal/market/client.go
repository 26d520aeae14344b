package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the Stooq daily-quote CSV endpoint. The response format
// is Date,Open,High,Low,Close,Volume with an ISO date column.
const DefaultBaseURL = "https://stooq.com/q/d/l/"

// Client fetches daily close prices over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the quote endpoint, mainly for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) ClientOption {
	return func(c *Client) { c.retries = n }
}

// WithLogger attaches a logger; the default is a no-op logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient builds a quote client with a 30s timeout and 2 retries.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retries:    2,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads the daily series for symbol between start and end
// (inclusive). Transient failures are retried with linear backoff.
func (c *Client) Fetch(ctx context.Context, symbol string, start, end time.Time) (*Series, error) {
	q := url.Values{}
	q.Set("s", strings.ToLower(symbol))
	q.Set("i", "d")
	q.Set("d1", start.Format("20060102"))
	q.Set("d2", end.Format("20060102"))
	reqURL := c.baseURL + "?" + q.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			c.logger.Warn("retrying quote fetch",
				zap.String("symbol", symbol),
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		s, err := c.fetchOnce(ctx, symbol, reqURL)
		if err == nil {
			c.logger.Debug("fetched series",
				zap.String("symbol", symbol),
				zap.Int("points", len(s.Points)))
			return s, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetch %s: %w", symbol, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, symbol, reqURL string) (*Series, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("quote endpoint returned %s", resp.Status)
	}
	return parseQuoteCSV(strings.ToUpper(symbol), resp.Body)
}

// parseQuoteCSV reads the endpoint's Date,Open,High,Low,Close,Volume rows.
func parseQuoteCSV(symbol string, r io.Reader) (*Series, error) {
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
			return nil, fmt.Errorf("quote response for %s: %w", symbol, err)
		}
		line++
		if len(rec) < 5 {
			return nil, fmt.Errorf("quote response for %s: line %d has %d fields", symbol, line, len(rec))
		}
		date, err := time.Parse(csvDateLayout, rec[0])
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("quote response for %s: line %d: bad date %q", symbol, line, rec[0])
		}
		close, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("quote response for %s: line %d: bad close %q", symbol, line, rec[4])
		}
		s.Points = append(s.Points, Point{Date: date.UTC(), Close: close})
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
