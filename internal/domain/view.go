package domain

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jszwec/csvutil"
)

// LatestPerLocation returns the most recent observation for each known
// location, in KnownLocations order. Within a location, nil timestamps sort
// last and ties keep the earlier input row (stable). Locations absent from the
// table are omitted; locations outside the known set are not part of this view
// but remain in the underlying table.
func LatestPerLocation(table Table) []Observation {
	latest := make(map[string]Observation)
	for _, obs := range table {
		cur, seen := latest[obs.Location]
		if !seen || moreRecent(obs, cur) {
			latest[obs.Location] = obs
		}
	}

	result := make([]Observation, 0, len(latest))
	for _, loc := range KnownLocations {
		if obs, ok := latest[loc]; ok {
			result = append(result, obs)
		}
	}
	return result
}

// moreRecent reports whether candidate strictly postdates current. A nil
// timestamp never beats anything, so equal timestamps and nil candidates keep
// the earlier row.
func moreRecent(candidate, current Observation) bool {
	if candidate.ObservedAt == nil {
		return false
	}
	if current.ObservedAt == nil {
		return true
	}
	return candidate.ObservedAt.After(*current.ObservedAt)
}

// SameDayHistory returns the rows for one location on one WIB calendar date,
// ascending by observation time. Rows with a nil timestamp cannot match a date
// and are excluded.
func SameDayHistory(table Table, location string, date time.Time) Table {
	want := dateKey(date)

	var rows Table
	for _, obs := range table {
		if obs.Location != location || obs.ObservedAt == nil {
			continue
		}
		if dateKey(*obs.ObservedAt) == want {
			rows = append(rows, obs)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ObservedAt.Before(*rows[j].ObservedAt)
	})
	return rows
}

// ExportCSV renders a table back into the source schema (same header set) for
// the downloadable same-day export. Measurements are written in normalized
// form: dot decimals, empty cell for nil.
func ExportCSV(table Table) ([]byte, error) {
	records := make([]RawRecord, 0, len(table))
	for _, obs := range table {
		rec := RawRecord{
			Location:    obs.Location,
			Temperature: formatDecimal(obs.TemperatureC),
			Humidity:    formatDecimal(obs.HumidityPct),
			WindSpeed:   formatDecimal(obs.WindSpeedMS),
			Rainfall:    formatDecimal(obs.RainfallMM),
			Icon:        obs.IconCode,
			Description: obs.Description,
			Coordinate:  obs.Coordinate,
		}
		if obs.ObservedAt != nil {
			rec.UpdatedAt = obs.ObservedAt.In(WIB).Format(timestampLayouts[0])
		}
		records = append(records, rec)
	}

	out, err := csvutil.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	return out, nil
}

func formatDecimal(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
