package domain

import (
	"testing"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_NumericCoercion(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *float64
		failures int
	}{
		{"comma decimal", "12,5", fptr(12.5), 0},
		{"dot decimal already valid", "12.5", fptr(12.5), 0},
		{"integer", "31", fptr(31), 0},
		{"padded", "  7,0  ", fptr(7), 0},
		{"empty is null not zero", "", nil, 0},
		{"whitespace only", "   ", nil, 0},
		{"garbage", "abc", nil, 1},
		{"double comma", "1,2,3", nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, stats := Normalize([]RawRecord{{Location: "Bitung", Temperature: tt.raw}})

			require.Len(t, table, 1)
			if tt.expected == nil {
				assert.Nil(t, table[0].TemperatureC)
			} else {
				require.NotNil(t, table[0].TemperatureC)
				assert.Equal(t, *tt.expected, *table[0].TemperatureC)
			}
			assert.Equal(t, tt.failures, stats.NumericFailures)
		})
	}
}

func TestNormalize_Timestamp(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *time.Time
		failures int
	}{
		{
			"day-first sheet format",
			"26/04/2024 15:10:00",
			tptr(time.Date(2024, 4, 26, 15, 10, 0, 0, WIB)),
			0,
		},
		{
			"iso fallback",
			"2024-04-26 15:10:00",
			tptr(time.Date(2024, 4, 26, 15, 10, 0, 0, WIB)),
			0,
		},
		{"empty", "", nil, 0},
		{"not a date", "not-a-date", nil, 1},
		{"month out of range", "26/13/2024 15:10:00", nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, stats := Normalize([]RawRecord{{Location: "Merak", UpdatedAt: tt.raw}})

			require.Len(t, table, 1)
			if tt.expected == nil {
				assert.Nil(t, table[0].ObservedAt)
			} else {
				require.NotNil(t, table[0].ObservedAt)
				assert.True(t, tt.expected.Equal(*table[0].ObservedAt))
			}
			assert.Equal(t, tt.failures, stats.TimestampFailures)
		})
	}
}

func TestNormalize_Total(t *testing.T) {
	records := []RawRecord{
		{Location: "Bitung", UpdatedAt: "garbage", Temperature: "??", Rainfall: "1,5"},
		{}, // entirely empty row: absent columns are null, never an error
		{Location: "Cikupa", UpdatedAt: "26/04/2024 08:00:00", Humidity: "80"},
	}

	table, stats := Normalize(records)

	require.Len(t, table, 3, "exactly one output record per input row")
	assert.Equal(t, 3, stats.Rows)

	assert.Equal(t, "Bitung", table[0].Location)
	assert.Nil(t, table[0].ObservedAt)
	assert.Nil(t, table[0].TemperatureC)
	require.NotNil(t, table[0].RainfallMM)
	assert.Equal(t, 1.5, *table[0].RainfallMM)

	assert.Empty(t, table[1].Location)
	assert.Nil(t, table[1].ObservedAt)
	assert.Nil(t, table[1].HumidityPct)

	assert.Equal(t, "Cikupa", table[2].Location)
	require.NotNil(t, table[2].ObservedAt)
	require.NotNil(t, table[2].HumidityPct)
	assert.Equal(t, 80.0, *table[2].HumidityPct)
}

func TestNormalize_PreservesRowOrderAndDuplicates(t *testing.T) {
	records := []RawRecord{
		{Location: "Merak", UpdatedAt: "26/04/2024 08:00:00"},
		{Location: "Merak", UpdatedAt: "26/04/2024 08:00:00"},
		{Location: "Bitung", UpdatedAt: "26/04/2024 07:00:00"},
	}

	table, _ := Normalize(records)

	require.Len(t, table, 3, "normalization does not deduplicate")
	assert.Equal(t, "Merak", table[0].Location)
	assert.Equal(t, "Merak", table[1].Location)
	assert.Equal(t, "Bitung", table[2].Location)
}

// End-to-end check from raw CSV bytes through normalization to the aggregate
// and latest views.
func TestNormalize_FromCSV(t *testing.T) {
	csv := "Lokasi,Update Terakhir (WIB),Temperatur (°C),Kelembapan (%),Kecepatan Angin (m/s),Curah Hujan (mm),Ikon,Deskripsi Cuaca,Kode Koordinat\n" +
		"Bitung,26/04/2024 08:00:00,\"30,5\",80,\"2,1\",\"1,0\",10d,Hujan ringan,\"-6.22,106.53\"\n" +
		"Bitung,26/04/2024 09:00:00,31,78,2,\"0,0\",03d,Berawan,\"-6.22,106.53\"\n" +
		"Bitung,26/04/2024 10:00:00,32,75,\"1,8\",\"2,0\",10d,Hujan ringan,\"-6.22,106.53\"\n"

	var records []RawRecord
	require.NoError(t, csvutil.Unmarshal([]byte(csv), &records))
	require.Len(t, records, 3)

	table, stats := Normalize(records)
	require.Len(t, table, 3)
	assert.Zero(t, stats.NumericFailures)
	assert.Zero(t, stats.TimestampFailures)

	rainfall := DailyRainfall(table)
	total := rainfall[DailyBucket{Location: "Bitung", Date: "2024-04-26"}]
	require.NotNil(t, total)
	assert.Equal(t, 3.0, *total)

	latest := LatestPerLocation(table)
	require.Len(t, latest, 1)
	assert.Equal(t, "Bitung", latest[0].Location)
	require.NotNil(t, latest[0].ObservedAt)
	assert.Equal(t, 10, latest[0].ObservedAt.In(WIB).Hour())
}

// --- shared test helpers ---

func fptr(v float64) *float64 { return &v }

func tptr(t time.Time) *time.Time { return &t }

func obsAt(location string, at time.Time) Observation {
	return Observation{Location: location, ObservedAt: &at}
}
