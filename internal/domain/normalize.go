package domain

import (
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts accepted for "Update Terakhir (WIB)". The sheet normally
// emits the day-first form; the ISO form shows up when rows are pasted in by
// hand from station logs.
var timestampLayouts = []string{
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
}

// NormalizeStats counts cell-level coercion failures for telemetry. Failures
// never abort a row; they only degrade the affected field to nil.
type NormalizeStats struct {
	Rows              int
	NumericFailures   int
	TimestampFailures int
}

// Normalize converts raw sheet rows into a typed observation table. It is
// total: every input row produces exactly one Observation, in input order,
// and no malformed cell causes an error.
func Normalize(records []RawRecord) (Table, NormalizeStats) {
	table := make(Table, 0, len(records))
	stats := NormalizeStats{Rows: len(records)}

	for _, rec := range records {
		obs := Observation{
			Location:    strings.TrimSpace(rec.Location),
			IconCode:    strings.TrimSpace(rec.Icon),
			Description: strings.TrimSpace(rec.Description),
			Coordinate:  strings.TrimSpace(rec.Coordinate),
		}

		obs.ObservedAt = parseTimestamp(rec.UpdatedAt, &stats)
		obs.TemperatureC = parseDecimal(rec.Temperature, &stats)
		obs.HumidityPct = parseDecimal(rec.Humidity, &stats)
		obs.WindSpeedMS = parseDecimal(rec.WindSpeed, &stats)
		obs.RainfallMM = parseDecimal(rec.Rainfall, &stats)

		table = append(table, obs)
	}

	return table, stats
}

// parseDecimal coerces a locale-formatted numeric cell. The sheet uses a comma
// decimal separator ("12,5"), which is normalized to a dot before parsing.
// Empty means no data, not zero.
func parseDecimal(s string, stats *NormalizeStats) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		stats.NumericFailures++
		return nil
	}
	return &v
}

// parseTimestamp parses an observation time in WIB. Unparseable values yield
// nil; such rows stay in the table but are excluded from date-bucketed
// aggregates.
func parseTimestamp(s string, stats *NormalizeStats) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, WIB); err == nil {
			return &t
		}
	}

	stats.TimestampFailures++
	return nil
}
