// Command assess runs rainwater harvesting assessments offline. It reads one
// request (or a JSON array of requests), runs the same assessment path as the
// service and writes the results as JSON. Policy knobs come from the same
// environment variables the service reads.
//
// Usage:
//
//	go run ./cmd/assess -in request.json -out result.json
//	go run ./cmd/assess -sample -out data/sample_requests.json
//	go run ./cmd/assess -in requests.json -lookup -processed-at 2024-04-27T06:00:00Z
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/adapter/climate"
	"github.com/couchcryptid/rainwater-assessment/internal/config"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/couchcryptid/rainwater-assessment/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "-", "request JSON file, or - for stdin")
	out := flag.String("out", "", "output path (default stdout)")
	sample := flag.Bool("sample", false, "write sample requests instead of assessing")
	lookup := flag.Bool("lookup", false, "resolve rainfall for location-only requests via the archive API")
	processedAt := flag.String("processed-at", "", "fixed RFC3339 processing time for reproducible output")
	summary := flag.Bool("summary", false, "print a per-scenario summary to stderr")
	flag.Parse()

	if *sample {
		return writeJSON(*out, sampleRequests())
	}

	if *processedAt != "" {
		ts, err := time.Parse(time.RFC3339, *processedAt)
		if err != nil {
			return fmt.Errorf("parse -processed-at: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(ts.UTC()))
		defer domain.SetClock(nil)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewUnregisteredMetrics()

	var rainfall domain.RainfallSource
	if *lookup {
		rainfall = climate.NewClient(cfg.RainfallAPIURL, cfg.RainfallNormalYears, cfg.RainfallTimeout, metrics, logger)
	}
	assessor := pipeline.NewAssessor(rainfall, cfg.AssessmentOptions(), metrics, logger)

	data, err := readInput(*in)
	if err != nil {
		return err
	}
	reqs, batch, err := decodeRequests(data)
	if err != nil {
		return err
	}

	ctx := context.Background()
	results := make([]domain.AssessmentResult, 0, len(reqs))
	for i, req := range reqs {
		res, err := assessor.Assess(ctx, req, "cli")
		if err != nil {
			return fmt.Errorf("request %d: %w", i, err)
		}
		results = append(results, res)
		if *summary {
			printSummary(os.Stderr, res)
		}
	}

	if batch {
		return writeJSON(*out, results)
	}
	return writeJSON(*out, results[0])
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// decodeRequests accepts a single request object or an array of them and
// reports which shape it saw.
func decodeRequests(data []byte) ([]domain.AssessmentRequest, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, false, errors.New("empty input")
	}
	if trimmed[0] == '[' {
		var reqs []domain.AssessmentRequest
		if err := json.Unmarshal(trimmed, &reqs); err != nil {
			return nil, true, fmt.Errorf("decode requests: %w", err)
		}
		if len(reqs) == 0 {
			return nil, true, errors.New("no requests in input")
		}
		return reqs, true, nil
	}
	var req domain.AssessmentRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, false, fmt.Errorf("decode request: %w", err)
	}
	return []domain.AssessmentRequest{req}, false, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func printSummary(w io.Writer, r domain.AssessmentResult) {
	fmt.Fprintf(w, "\n=== %s (coefficient %.2f, baseline %.0f L/yr) ===\n",
		r.ID, r.Coefficient, r.BaselineAnnualYieldLiters)
	for _, sc := range r.Scenarios {
		marker := " "
		if sc.Scenario == r.Recommended {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-15s tank=%6d L  reliability=%5.1f%%  met=%-5t  net=%9.2f\n",
			marker, sc.Scenario, sc.Tank.CapacityLiters, sc.ReliabilityPct, sc.Tank.TargetMet, sc.NetCost)
	}
	fmt.Fprintf(w, "  yield band p10=%.0f p50=%.0f p90=%.0f L\n", r.Confidence.P10, r.Confidence.P50, r.Confidence.P90)
}

// sampleRequests covers a monsoon climate with inline rainfall, a temperate
// climate and a location-only request that needs -lookup.
func sampleRequests() []domain.AssessmentRequest {
	tiers := []domain.TankCostTier{
		{MaxCapacityLiters: 5000, Price: 500},
		{MaxCapacityLiters: 20000, Price: 1500},
		{MaxCapacityLiters: 50000, Price: 3000},
	}
	costs := domain.CostParameters{
		TankCostTiers:    tiers,
		SubsidyPct:       50,
		SubsidyCap:       1000,
		WaterTariffPerKL: 2,
		CO2FactorKgPerKL: 0.3,
		InstallationCost: 200,
		PerFloorCost:     50,
	}
	return []domain.AssessmentRequest{
		{
			ID:        "sample-monsoon",
			Catchment: domain.CatchmentSpec{AreaSqm: 100, SurfaceMaterial: "concrete", Floors: 2},
			Rainfall:  &domain.RainfallProfile{MonthlyMM: [12]float64{18, 18, 13, 10, 23, 54, 180, 173, 116, 19, 4, 10}},
			Demand:    domain.DemandProfile{DailyLiters: 400},
			Costs:     costs,
		},
		{
			ID:        "sample-temperate",
			Catchment: domain.CatchmentSpec{AreaSqm: 80, SurfaceMaterial: "tile", Floors: 1},
			Rainfall:  &domain.RainfallProfile{MonthlyMM: [12]float64{78, 59, 62, 55, 60, 58, 55, 64, 61, 79, 83, 82}},
			Demand:    domain.DemandProfile{DailyLiters: 120},
			Costs:     costs,
		},
		{
			ID:        "sample-location",
			Catchment: domain.CatchmentSpec{AreaSqm: 150, SurfaceMaterial: "metal"},
			Location:  &domain.Geo{Lat: 12.97, Lon: 77.59},
			Demand:    domain.DemandProfile{DailyLiters: 300},
			Costs:     costs,
		},
	}
}
