package sheet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esferrohman/toll-weather-service/internal/domain"
	"github.com/esferrohman/toll-weather-service/internal/observability"
)

// stubFetcher counts calls and serves canned rows or an error.
type stubFetcher struct {
	records []domain.RawRecord
	err     error
	calls   int
}

func (f *stubFetcher) Fetch(_ context.Context) ([]domain.RawRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newTestCache(f Fetcher, ttl time.Duration, clock clockwork.Clock) *SnapshotCache {
	return NewSnapshotCache(f, ttl, clock, discardLogger(), observability.NewMetricsForTesting())
}

func TestGetOrFetch_WithinTTLReturnsCachedSnapshot(t *testing.T) {
	fetcher := &stubFetcher{records: []domain.RawRecord{{Location: "Bitung", Rainfall: "1,5"}}}
	clock := clockwork.NewFakeClock()
	cache := newTestCache(fetcher, 10*time.Minute, clock)

	snap1, err := cache.GetOrFetch(context.Background())
	require.NoError(t, err)

	clock.Advance(9 * time.Minute)
	snap2, err := cache.GetOrFetch(context.Background())
	require.NoError(t, err)

	assert.Same(t, snap1, snap2, "second call within TTL must not refetch")
	assert.Equal(t, 1, fetcher.calls)
}

func TestGetOrFetch_ExpiredEntryRefetches(t *testing.T) {
	fetcher := &stubFetcher{records: []domain.RawRecord{{Location: "Bitung"}}}
	clock := clockwork.NewFakeClock()
	cache := newTestCache(fetcher, 10*time.Minute, clock)

	snap1, err := cache.GetOrFetch(context.Background())
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	snap2, err := cache.GetOrFetch(context.Background())
	require.NoError(t, err)

	assert.NotSame(t, snap1, snap2)
	assert.Equal(t, 2, fetcher.calls)
}

func TestGetOrFetch_NormalizesRows(t *testing.T) {
	fetcher := &stubFetcher{records: []domain.RawRecord{
		{Location: "Bitung", UpdatedAt: "26/04/2024 08:00:00", Rainfall: "2,5"},
		{Location: "Bitung", UpdatedAt: "garbage", Temperature: "??"},
	}}
	cache := newTestCache(fetcher, time.Minute, clockwork.NewFakeClock())

	snap, err := cache.GetOrFetch(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Table, 2)
	require.NotNil(t, snap.Table[0].RainfallMM)
	assert.Equal(t, 2.5, *snap.Table[0].RainfallMM)
	assert.Nil(t, snap.Table[1].ObservedAt)
	assert.Equal(t, 1, snap.Stats.NumericFailures)
	assert.Equal(t, 1, snap.Stats.TimestampFailures)
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	fetcher := &stubFetcher{}
	cache := newTestCache(fetcher, time.Hour, clockwork.NewFakeClock())

	_, err := cache.GetOrFetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.calls)

	cache.Invalidate()

	_, err = cache.GetOrFetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls, "invalidate must trigger exactly one new fetch")
}

func TestRefresh_AlwaysFetches(t *testing.T) {
	fetcher := &stubFetcher{}
	cache := newTestCache(fetcher, time.Hour, clockwork.NewFakeClock())

	_, err := cache.GetOrFetch(context.Background())
	require.NoError(t, err)

	_, err = cache.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestGetOrFetch_ErrorKeepsPreviousSnapshot(t *testing.T) {
	fetcher := &stubFetcher{records: []domain.RawRecord{{Location: "Merak"}}}
	clock := clockwork.NewFakeClock()
	cache := newTestCache(fetcher, time.Minute, clock)

	snap, err := cache.GetOrFetch(context.Background())
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	fetcher.err = errors.New("upstream down")

	_, err = cache.GetOrFetch(context.Background())
	require.Error(t, err)
	assert.Same(t, snap, cache.Latest(), "failed refresh must not clobber the last good snapshot")
}

func TestCheckReadiness(t *testing.T) {
	fetcher := &stubFetcher{}
	cache := newTestCache(fetcher, time.Minute, clockwork.NewFakeClock())

	require.Error(t, cache.CheckReadiness(context.Background()))

	_, err := cache.GetOrFetch(context.Background())
	require.NoError(t, err)
	assert.NoError(t, cache.CheckReadiness(context.Background()))
}
