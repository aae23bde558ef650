package httpapi

import (
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/esferrohman/toll-weather-service/internal/adapter/sheet"
	"github.com/esferrohman/toll-weather-service/internal/domain"
)

var validate = validator.New()

// latestEntry is one "current conditions" card: the newest observation for a
// location plus derived presentation fields. A missing or malformed
// coordinate is flagged, never fatal.
type latestEntry struct {
	domain.Observation
	IconURL               string      `json:"icon_url,omitempty"`
	Geo                   *domain.Geo `json:"geo,omitempty"`
	CoordinateUnavailable bool        `json:"coordinate_unavailable,omitempty"`
}

type dailyRainfallEntry struct {
	Location   string   `json:"location"`
	Date       string   `json:"date"`
	RainfallMM *float64 `json:"rainfall_mm"`
}

type weeklyAverageEntry struct {
	Date string `json:"date"`
	domain.DailyMeans
}

// locationParam validates the :location path segment.
type locationParam struct {
	Location string `validate:"required,max=64"`
}

func (s *Server) snapshot(c *fiber.Ctx) (*sheet.Snapshot, error) {
	return s.cache.GetOrFetch(c.UserContext())
}

func (s *Server) handleLocations(c *fiber.Ctx) error {
	snap, err := s.snapshot(c)
	if err != nil {
		return err
	}

	latest := domain.LatestPerLocation(snap.Table)
	locations := make([]string, 0, len(latest))
	for _, obs := range latest {
		locations = append(locations, obs.Location)
	}

	return c.JSON(fiber.Map{"locations": locations})
}

func (s *Server) handleObservations(c *fiber.Ctx) error {
	snap, err := s.snapshot(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"fetched_at":   snap.FetchedAt,
		"observations": snap.Table,
	})
}

func (s *Server) handleLatest(c *fiber.Ctx) error {
	snap, err := s.snapshot(c)
	if err != nil {
		return err
	}

	latest := domain.LatestPerLocation(snap.Table)
	entries := make([]latestEntry, 0, len(latest))
	for _, obs := range latest {
		entry := latestEntry{
			Observation: obs,
			IconURL:     obs.IconURL(),
		}
		if geo, err := domain.ParseCoordinate(obs.Coordinate); err != nil {
			entry.CoordinateUnavailable = true
		} else {
			entry.Geo = &geo
		}
		entries = append(entries, entry)
	}

	return c.JSON(fiber.Map{
		"fetched_at": snap.FetchedAt,
		"latest":     entries,
	})
}

// todayRows resolves the :location parameter and returns that location's
// same-day history: rows sharing the calendar date of its newest observation.
func (s *Server) todayRows(c *fiber.Ctx) (string, domain.Table, error) {
	raw, err := url.PathUnescape(c.Params("location"))
	if err != nil {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "invalid location parameter")
	}

	param := locationParam{Location: raw}
	if err := validate.Struct(param); err != nil {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if !domain.KnownLocation(param.Location) {
		return "", nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown location %q", param.Location))
	}

	snap, err := s.snapshot(c)
	if err != nil {
		return "", nil, err
	}

	var newest *time.Time
	for _, obs := range domain.LatestPerLocation(snap.Table) {
		if obs.Location == param.Location {
			newest = obs.ObservedAt
			break
		}
	}
	if newest == nil {
		// No dated rows for the location; nothing bucketable today.
		return param.Location, nil, nil
	}

	return param.Location, domain.SameDayHistory(snap.Table, param.Location, *newest), nil
}

func (s *Server) handleToday(c *fiber.Ctx) error {
	location, rows, err := s.todayRows(c)
	if err != nil {
		return err
	}

	resp := fiber.Map{
		"location":     location,
		"observations": rows,
		// Fewer than two same-day readings cannot draw a trend chart.
		"insufficient_history": len(rows) < 2,
	}
	if len(rows) > 0 {
		resp["date"] = rows[0].ObservedAt.In(domain.WIB).Format("2006-01-02")
	}
	return c.JSON(resp)
}

func (s *Server) handleTodayCSV(c *fiber.Ctx) error {
	location, rows, err := s.todayRows(c)
	if err != nil {
		return err
	}

	out, err := domain.ExportCSV(rows)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s_cuaca_hari_ini.csv"`, location))
	return c.Send(out)
}

func (s *Server) handleDailyRainfall(c *fiber.Ctx) error {
	snap, err := s.snapshot(c)
	if err != nil {
		return err
	}

	totals := domain.DailyRainfall(snap.Table)
	entries := make([]dailyRainfallEntry, 0, len(totals))
	for bucket, total := range totals {
		entries = append(entries, dailyRainfallEntry{
			Location:   bucket.Location,
			Date:       bucket.Date,
			RainfallMM: total,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Location != entries[j].Location {
			return entries[i].Location < entries[j].Location
		}
		return entries[i].Date < entries[j].Date
	})

	return c.JSON(fiber.Map{"daily_rainfall": entries})
}

func (s *Server) handleWeeklyAverage(c *fiber.Ctx) error {
	snap, err := s.snapshot(c)
	if err != nil {
		return err
	}

	means := domain.WeeklyAverage(snap.Table, s.clock.Now())
	entries := make([]weeklyAverageEntry, 0, len(means))
	for date, m := range means {
		entries = append(entries, weeklyAverageEntry{Date: date, DailyMeans: m})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

	return c.JSON(fiber.Map{"weekly_average": entries})
}

func (s *Server) handleRefresh(c *fiber.Ctx) error {
	snap, err := s.cache.Refresh(c.UserContext())
	if err != nil {
		return err
	}

	s.logger.Info("manual refresh", "rows", snap.Stats.Rows)
	return c.JSON(fiber.Map{
		"fetched_at": snap.FetchedAt,
		"rows":       snap.Stats.Rows,
	})
}
