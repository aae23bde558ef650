package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// SheetURL is the published-spreadsheet CSV export to fetch.
	SheetURL     string
	CacheTTL     time.Duration
	FetchTimeout time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Background cache warmer. Off by default; when enabled it calls the
	// cache on the given interval so page views rarely pay fetch latency.
	WarmEnabled  bool
	WarmInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cacheTTL, err := parseDurationEnv("CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDurationEnv("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	warmInterval, err := parseDurationEnv("WARM_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SheetURL:        os.Getenv("SHEET_URL"),
		CacheTTL:        cacheTTL,
		FetchTimeout:    fetchTimeout,
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		WarmEnabled:     os.Getenv("WARM_ENABLED") == "true",
		WarmInterval:    warmInterval,
	}

	if cfg.SheetURL == "" {
		return nil, errors.New("SHEET_URL is required")
	}
	if u, err := url.Parse(cfg.SheetURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("SHEET_URL is not a valid absolute URL")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}
