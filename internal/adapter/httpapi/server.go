package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/esferrohman/toll-weather-service/internal/adapter/sheet"
)

// Server exposes the dashboard read API plus health, readiness, and metrics
// endpoints.
type Server struct {
	app    *fiber.App
	cache  *sheet.SnapshotCache
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewServer wires the Fiber app and all routes.
func NewServer(cache *sheet.SnapshotCache, clock clockwork.Clock, logger *slog.Logger) *Server {
	s := &Server{
		cache:  cache,
		clock:  clock,
		logger: logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "toll-weather-service",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	s.app.Get("/readyz", s.handleReady)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := s.app.Group("/api/v1")
	v1.Get("/locations", s.handleLocations)
	v1.Get("/observations", s.handleObservations)
	v1.Get("/observations/latest", s.handleLatest)
	v1.Get("/locations/:location/today", s.handleToday)
	v1.Get("/locations/:location/today.csv", s.handleTodayCSV)
	v1.Get("/aggregates/daily-rainfall", s.handleDailyRainfall)
	v1.Get("/aggregates/weekly-average", s.handleWeeklyAverage)
	v1.Post("/refresh", s.handleRefresh)

	return s
}

// Listen starts the server on the given address.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server starting", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// Test dispatches a request against the app without a network listener.
func (s *Server) Test(req *http.Request) (*http.Response, error) {
	return s.app.Test(req)
}

// handleError is the centralized error responder. Table-level fetch failures
// surface as 502 with the fetch error verbatim; everything else maps through
// fiber's status conventions.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *sheet.FetchError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fiber.StatusBadGateway
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

func (s *Server) handleReady(c *fiber.Ctx) error {
	if err := s.cache.CheckReadiness(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not ready",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
