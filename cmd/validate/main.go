// Command validate lints a published weather sheet before it is pointed at
// the service: it decodes the CSV, runs the same normalization the service
// applies, and reports coercion failures, unknown locations, and coverage
// gaps per corridor location.
//
// Usage:
//
//	go run ./cmd/validate -file data/sheet.csv
//	go run ./cmd/validate -url "https://docs.google.com/.../export?format=csv"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/esferrohman/toll-weather-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "", "path to a sheet CSV export")
	url := flag.String("url", "", "published sheet CSV URL")
	flag.Parse()

	if (*file == "") == (*url == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -file or -url is required")
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*file, *url); code != 0 {
		os.Exit(code)
	}
}

func run(file, url string) int {
	data, err := loadSheet(file, url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load sheet: %v\n", err)
		return 1
	}

	var records []domain.RawRecord
	if err := csvutil.Unmarshal(data, &records); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode CSV: %v\n", err)
		return 1
	}

	table, stats := domain.Normalize(records)

	fmt.Println("=== Weather Sheet Validation ===")
	fmt.Println()

	phases := []*phase{
		validateCoercion(records, table, stats),
		validateLocations(table),
		validateCoverage(table),
		validateCoordinates(table),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d, numeric failures: %d, timestamp failures: %d\n",
		stats.Rows, stats.NumericFailures, stats.TimestampFailures)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadSheet(file, url string) ([]byte, error) {
	if file != "" {
		return os.ReadFile(file)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// ── Phase 1: Coercion ──
// Points at the exact rows whose numeric or timestamp cells failed to parse.
// The service tolerates these (they become nulls) but the sheet owner should
// know about them.

func validateCoercion(records []domain.RawRecord, table domain.Table, stats domain.NormalizeStats) *phase {
	p := &phase{name: "Phase 1: Cell Coercion"}

	for i, obs := range table {
		raw := records[i]
		if raw.UpdatedAt != "" && obs.ObservedAt == nil {
			p.errorf("row %d (%s): unparseable timestamp %q", i+2, raw.Location, raw.UpdatedAt)
		}
		checkCell(p, i, raw.Location, "Temperatur (°C)", raw.Temperature, obs.TemperatureC)
		checkCell(p, i, raw.Location, "Kelembapan (%)", raw.Humidity, obs.HumidityPct)
		checkCell(p, i, raw.Location, "Kecepatan Angin (m/s)", raw.WindSpeed, obs.WindSpeedMS)
		checkCell(p, i, raw.Location, "Curah Hujan (mm)", raw.Rainfall, obs.RainfallMM)
	}

	if len(p.errors) == 0 && (stats.NumericFailures > 0 || stats.TimestampFailures > 0) {
		p.errorf("stats report %d numeric and %d timestamp failures but no row was flagged",
			stats.NumericFailures, stats.TimestampFailures)
	}
	return p
}

func checkCell(p *phase, row int, location, column, raw string, parsed *float64) {
	if raw != "" && parsed == nil {
		p.errorf("row %d (%s): column %q: unparseable value %q", row+2, location, column, raw)
	}
}

// ── Phase 2: Locations ──
// Every row should name a known corridor location; unknown names are kept by
// the service but never shown on the dashboard.

func validateLocations(table domain.Table) *phase {
	p := &phase{name: "Phase 2: Corridor Locations"}

	unknown := map[string]int{}
	for _, obs := range table {
		if !domain.KnownLocation(obs.Location) {
			unknown[obs.Location]++
		}
	}
	for name, n := range unknown {
		p.errorf("unknown location %q (%d rows); dashboard views will hide it", name, n)
	}
	return p
}

// ── Phase 3: Coverage ──
// Each corridor location should have at least one dated observation.

func validateCoverage(table domain.Table) *phase {
	p := &phase{name: "Phase 3: Location Coverage"}

	dated := map[string]int{}
	for _, obs := range table {
		if obs.ObservedAt != nil {
			dated[obs.Location]++
		}
	}
	for _, name := range domain.KnownLocations {
		if dated[name] == 0 {
			p.errorf("location %q has no dated observations", name)
		}
	}
	return p
}

// ── Phase 4: Coordinates ──
// Map pins need a parseable "lat,lon" coordinate on the newest row per
// location.

func validateCoordinates(table domain.Table) *phase {
	p := &phase{name: "Phase 4: Map Coordinates"}

	for _, obs := range domain.LatestPerLocation(table) {
		if _, err := domain.ParseCoordinate(obs.Coordinate); err != nil {
			p.errorf("location %q: coordinate %q: %v", obs.Location, obs.Coordinate, err)
		}
	}
	return p
}
