package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/esferrohman/toll-weather-service/internal/adapter/httpapi"
	"github.com/esferrohman/toll-weather-service/internal/adapter/sheet"
	"github.com/esferrohman/toll-weather-service/internal/config"
	"github.com/esferrohman/toll-weather-service/internal/observability"
	"github.com/esferrohman/toll-weather-service/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	client := sheet.NewClient(cfg.SheetURL, cfg.FetchTimeout, logger, metrics)
	cache := sheet.NewSnapshotCache(client, cfg.CacheTTL, clock, logger, metrics)

	// Background warmer (feature-flagged via WARM_ENABLED). Without it
	// the first request after expiry pays the fetch.
	var warmer *scheduler.Warmer
	if cfg.WarmEnabled {
		warmer = scheduler.NewWarmer(cache, cfg.WarmInterval, cfg.FetchTimeout, logger)
		if err := warmer.Start(); err != nil {
			logger.Error("failed to start cache warmer", "error", err)
			os.Exit(1)
		}
		logger.Info("cache warmer enabled", "interval", cfg.WarmInterval)
	} else {
		logger.Info("cache warmer disabled")
	}

	srv := httpapi.NewServer(cache, clock, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		// Listen returns nil after a graceful Shutdown.
		if err := srv.Listen(cfg.HTTPAddr); err != nil {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if warmer != nil {
		warmer.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
