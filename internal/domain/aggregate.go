package domain

import "time"

// dateKey formats a timestamp as a WIB calendar date, the bucket key for all
// daily aggregates.
func dateKey(t time.Time) string {
	return t.In(WIB).Format("2006-01-02")
}

// DailyBucket identifies one location's readings on one WIB calendar date.
type DailyBucket struct {
	Location string `json:"location"`
	Date     string `json:"date"` // "2006-01-02"
}

// DailyRainfall sums rainfall per (location, date) bucket. Rows with a nil
// ObservedAt are excluded. Nil rainfall cells do not contribute to the sum; a
// bucket whose contributing cells are all nil yields nil, distinguishing "no
// data" from an actual dry day.
func DailyRainfall(table Table) map[DailyBucket]*float64 {
	type acc struct {
		sum   float64
		count int
	}
	sums := make(map[DailyBucket]*acc)

	for _, obs := range table {
		if obs.ObservedAt == nil {
			continue
		}
		bucket := DailyBucket{Location: obs.Location, Date: dateKey(*obs.ObservedAt)}
		a, ok := sums[bucket]
		if !ok {
			a = &acc{}
			sums[bucket] = a
		}
		if obs.RainfallMM != nil {
			a.sum += *obs.RainfallMM
			a.count++
		}
	}

	result := make(map[DailyBucket]*float64, len(sums))
	for bucket, a := range sums {
		if a.count == 0 {
			result[bucket] = nil
			continue
		}
		total := a.sum
		result[bucket] = &total
	}
	return result
}

// DailyMeans holds cross-location per-date means. Each measurement is averaged
// independently over its non-nil values; a measurement with no data in the
// bucket stays nil without affecting the others.
type DailyMeans struct {
	RainfallMM   *float64 `json:"rainfall_mm"`
	TemperatureC *float64 `json:"temperature_c"`
	HumidityPct  *float64 `json:"humidity_pct"`
}

// WeeklyAverage buckets the trailing seven days of observations by WIB
// calendar date across all locations and computes per-date measurement means.
// The lower window bound (now - 7 days) is inclusive; rows with a nil
// ObservedAt are excluded. An empty table yields an empty map.
func WeeklyAverage(table Table, now time.Time) map[string]DailyMeans {
	cutoff := now.Add(-7 * 24 * time.Hour)

	type acc struct {
		rainSum, tempSum, humSum       float64
		rainCount, tempCount, humCount int
	}
	days := make(map[string]*acc)

	for _, obs := range table {
		if obs.ObservedAt == nil || obs.ObservedAt.Before(cutoff) {
			continue
		}
		key := dateKey(*obs.ObservedAt)
		a, ok := days[key]
		if !ok {
			a = &acc{}
			days[key] = a
		}
		if obs.RainfallMM != nil {
			a.rainSum += *obs.RainfallMM
			a.rainCount++
		}
		if obs.TemperatureC != nil {
			a.tempSum += *obs.TemperatureC
			a.tempCount++
		}
		if obs.HumidityPct != nil {
			a.humSum += *obs.HumidityPct
			a.humCount++
		}
	}

	result := make(map[string]DailyMeans, len(days))
	for key, a := range days {
		result[key] = DailyMeans{
			RainfallMM:   mean(a.rainSum, a.rainCount),
			TemperatureC: mean(a.tempSum, a.tempCount),
			HumidityPct:  mean(a.humSum, a.humCount),
		}
	}
	return result
}

func mean(sum float64, count int) *float64 {
	if count == 0 {
		return nil
	}
	m := sum / float64(count)
	return &m
}
