// Package scheduler keeps the sheet snapshot warm by refreshing it on a
// fixed interval, so dashboard reads rarely pay the fetch latency.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/esferrohman/toll-weather-service/internal/adapter/sheet"
)

// Warmer periodically refreshes the snapshot cache in the background.
type Warmer struct {
	scheduler *gocron.Scheduler
	cache     *sheet.SnapshotCache
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// NewWarmer creates a Warmer that refreshes cache every interval. Each
// refresh runs under timeout.
func NewWarmer(cache *sheet.SnapshotCache, interval, timeout time.Duration, logger *slog.Logger) *Warmer {
	return &Warmer{
		scheduler: gocron.NewScheduler(time.UTC),
		cache:     cache,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler. The first run happens after one full interval; callers that
// want an immediate snapshot should refresh the cache themselves first.
func (w *Warmer) Start() error {
	_, err := w.scheduler.Every(w.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()

		// Plain cache read: within the TTL this is a no-op, past it the
		// warmer pays the fetch so a page view does not have to.
		snap, err := w.cache.GetOrFetch(ctx)
		if err != nil {
			// Readers keep the previous snapshot; the next tick retries.
			w.logger.Error("cache warm failed", "error", err)
			return
		}
		w.logger.Info("cache warm tick", "rows", snap.Stats.Rows, "fetched_at", snap.FetchedAt)
	})
	if err != nil {
		return err
	}

	w.scheduler.StartAsync()
	w.logger.Info("cache warmer started", "interval", w.interval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (w *Warmer) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
}
