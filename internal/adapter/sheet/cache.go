package sheet

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/esferrohman/toll-weather-service/internal/domain"
	"github.com/esferrohman/toll-weather-service/internal/observability"
)

// Fetcher is the upstream the cache refreshes from.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.RawRecord, error)
}

// Snapshot is one complete normalized table as of one fetch. It is immutable:
// a refresh builds a new Snapshot off to the side and swaps it in whole, so
// readers never observe a partially-updated table.
type Snapshot struct {
	Table     domain.Table
	FetchedAt time.Time
	Stats     domain.NormalizeStats
}

// SnapshotCache memoizes the fetch+normalize result for the configured TTL
// and supports forced invalidation for the manual refresh path.
//
// The mutex guards only the pointer check and swap; the fetch itself runs
// outside the lock. Concurrent callers hitting an expired entry may therefore
// fetch redundantly — each still observes either the old snapshot or a
// complete new one, which is the invariant that matters here.
type SnapshotCache struct {
	fetcher Fetcher
	ttl     time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	current *Snapshot
}

// NewSnapshotCache creates a cache over the given fetcher. Pass a fake clock
// in tests to control expiry.
func NewSnapshotCache(fetcher Fetcher, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *SnapshotCache {
	return &SnapshotCache{
		fetcher: fetcher,
		ttl:     ttl,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// GetOrFetch returns the cached snapshot when its age is within the TTL,
// otherwise fetches, normalizes, and swaps in a fresh one.
func (c *SnapshotCache) GetOrFetch(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	if c.current != nil && c.clock.Since(c.current.FetchedAt) < c.ttl {
		snap := c.current
		c.mu.Unlock()
		c.metrics.CacheHits.Inc()
		return snap, nil
	}
	c.mu.Unlock()

	c.metrics.CacheMisses.Inc()
	return c.refresh(ctx)
}

// Refresh unconditionally discards the cached snapshot and fetches a new one.
// Backs the user-facing manual refresh.
func (c *SnapshotCache) Refresh(ctx context.Context) (*Snapshot, error) {
	c.Invalidate()
	return c.refresh(ctx)
}

// Invalidate clears the cached entry so the next GetOrFetch refetches.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	c.metrics.CacheInvalidations.Inc()
}

// Latest returns the current snapshot without fetching, or nil when none has
// been loaded yet.
func (c *SnapshotCache) Latest() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// CheckReadiness returns nil once a snapshot has been loaded.
func (c *SnapshotCache) CheckReadiness(_ context.Context) error {
	if c.Latest() == nil {
		return errors.New("no snapshot loaded yet")
	}
	return nil
}

// refresh builds a new snapshot outside the lock and swaps it in as a unit.
// A failed fetch leaves any previous snapshot untouched.
func (c *SnapshotCache) refresh(ctx context.Context) (*Snapshot, error) {
	start := c.clock.Now()

	records, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	table, stats := domain.Normalize(records)
	snap := &Snapshot{
		Table:     table,
		FetchedAt: c.clock.Now(),
		Stats:     stats,
	}

	c.mu.Lock()
	c.current = snap
	c.mu.Unlock()

	c.metrics.FetchDuration.Observe(c.clock.Since(start).Seconds())
	c.metrics.SnapshotRows.Set(float64(stats.Rows))
	c.metrics.LastFetchTime.Set(float64(snap.FetchedAt.Unix()))
	c.metrics.CoercionFailures.WithLabelValues("numeric").Add(float64(stats.NumericFailures))
	c.metrics.CoercionFailures.WithLabelValues("timestamp").Add(float64(stats.TimestampFailures))

	c.logger.Info("snapshot refreshed",
		"rows", stats.Rows,
		"numeric_failures", stats.NumericFailures,
		"timestamp_failures", stats.TimestampFailures,
	)
	return snap, nil
}
