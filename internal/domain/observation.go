package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WIB is the source timezone (Waktu Indonesia Barat, UTC+7). All calendar-date
// bucketing uses WIB days so that an evening reading does not slide into the
// next UTC day.
var WIB = time.FixedZone("WIB", 7*60*60)

// KnownLocations is the fixed display order of toll-road stations, west-bound
// from Bitung to Merak. Locations outside this set stay in the table but are
// excluded from location-ordered views.
var KnownLocations = []string{
	"Bitung", "Cikupa", "Balaraja Timur", "Balaraja Barat", "Cikande",
	"Ciujung", "Serang Timur", "Serang Barat", "Cilegon Timur", "Cilegon Barat",
	"Merak",
}

// knownLocationRank maps location name to its position in KnownLocations.
var knownLocationRank = func() map[string]int {
	m := make(map[string]int, len(KnownLocations))
	for i, loc := range KnownLocations {
		m[loc] = i
	}
	return m
}()

// KnownLocation reports whether loc belongs to the fixed ordered set.
func KnownLocation(loc string) bool {
	_, ok := knownLocationRank[loc]
	return ok
}

// RawRecord mirrors one row of the sheet export. csvutil matches fields by the
// exact published header names; headers absent from the export leave their
// field empty, which normalization treats as entirely-null.
type RawRecord struct {
	Location    string `csv:"Lokasi"`
	UpdatedAt   string `csv:"Update Terakhir (WIB)"`
	Temperature string `csv:"Temperatur (°C)"`
	Humidity    string `csv:"Kelembapan (%)"`
	WindSpeed   string `csv:"Kecepatan Angin (m/s)"`
	Rainfall    string `csv:"Curah Hujan (mm)"`
	Icon        string `csv:"Ikon"`
	Description string `csv:"Deskripsi Cuaca"`
	Coordinate  string `csv:"Kode Koordinat"`
}

// Observation is one normalized weather reading for one location. Measurement
// fields are nil when the source cell was empty or unparseable.
type Observation struct {
	Location     string     `json:"location"`
	ObservedAt   *time.Time `json:"observed_at"`
	TemperatureC *float64   `json:"temperature_c"`
	HumidityPct  *float64   `json:"humidity_pct"`
	WindSpeedMS  *float64   `json:"wind_speed_ms"`
	RainfallMM   *float64   `json:"rainfall_mm"`
	IconCode     string     `json:"icon_code,omitempty"`
	Description  string     `json:"description,omitempty"`
	Coordinate   string     `json:"coordinate,omitempty"`
}

// Table is a normalized observation table in source row order. A Table is
// treated as immutable once built; a refresh replaces the whole snapshot.
type Table []Observation

// IconURL returns the OpenWeatherMap icon URL for the observation's icon code,
// or "" when the code is absent.
func (o Observation) IconURL() string {
	code := strings.TrimSpace(o.IconCode)
	if code == "" {
		return ""
	}
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s@2x.png", code)
}

// Geo is a WGS-84 latitude/longitude pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ErrCoordinateUnavailable marks a missing or malformed coordinate cell.
// Consumers skip map rendering for the affected location and proceed.
var ErrCoordinateUnavailable = errors.New("coordinate unavailable")

// ParseCoordinate parses a "lat,lon" coordinate cell. All failure modes wrap
// ErrCoordinateUnavailable so callers degrade uniformly.
func ParseCoordinate(s string) (Geo, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Geo{}, fmt.Errorf("%w: empty value", ErrCoordinateUnavailable)
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Geo{}, fmt.Errorf("%w: %q is not lat,lon", ErrCoordinateUnavailable, s)
	}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLon != nil {
		return Geo{}, fmt.Errorf("%w: %q is not numeric", ErrCoordinateUnavailable, s)
	}

	return Geo{Lat: lat, Lon: lon}, nil
}
