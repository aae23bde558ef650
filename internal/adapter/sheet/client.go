package sheet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/sony/gobreaker"

	"github.com/esferrohman/toll-weather-service/internal/domain"
	"github.com/esferrohman/toll-weather-service/internal/observability"
)

// FetchError is a table-level fetch failure: network, timeout, non-200, or a
// payload that does not parse as CSV. It is fatal to the current request and
// surfaced verbatim; there is no partial-data fallback.
type FetchError struct {
	URL    string
	Status int // 0 when the request never produced a response
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches the published-spreadsheet CSV export. One attempt per
// invocation; a circuit breaker fails fast across invocations once the
// upstream is known-bad, without adding retries.
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a sheet client for the given published CSV URL.
func NewClient(url string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sheet",
		MaxRequests: 3,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: cb,
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch retrieves and decodes the raw sheet rows. All failure modes return a
// *FetchError.
func (c *Client) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	c.metrics.FetchesTotal.Inc()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doFetch(ctx)
	})
	if err != nil {
		c.metrics.FetchErrors.Inc()
		if fe, ok := err.(*FetchError); ok {
			return nil, fe
		}
		// Open breaker or breaker bookkeeping error.
		return nil, &FetchError{URL: c.url, Err: err}
	}

	return result.([]domain.RawRecord), nil
}

func (c *Client) doFetch(ctx context.Context) ([]domain.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{
			URL:    c.url,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status: %s", firstLine(body)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: c.url, Err: fmt.Errorf("read body: %w", err)}
	}

	var records []domain.RawRecord
	if err := csvutil.Unmarshal(data, &records); err != nil {
		return nil, &FetchError{URL: c.url, Err: fmt.Errorf("decode csv: %w", err)}
	}

	c.logger.Debug("sheet fetched", "rows", len(records))
	return records, nil
}

func firstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' || c == '\r' {
			return string(b[:i])
		}
	}
	return string(b)
}
