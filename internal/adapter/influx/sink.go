// Package influx writes assessment results to InfluxDB v2 as time series so
// sizing outcomes can be charted across a portfolio of buildings.
package influx

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/couchcryptid/rainwater-assessment/internal/config"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
)

// Measurement is the InfluxDB measurement every point is written to.
const Measurement = "rainwater_assessment"

// pointWriter is the subset of api.WriteAPIBlocking used by Sink.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Sink implements pipeline.BatchLoader on top of the blocking write API.
type Sink struct {
	client influxdb2.Client
	writer pointWriter
	logger *slog.Logger
}

// NewSink connects to InfluxDB and verifies the server is healthy.
func NewSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Sink, error) {
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to influxdb: %w", err)
	}
	return &Sink{
		client: client,
		writer: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		logger: logger,
	}, nil
}

// Name identifies the sink in metrics.
func (s *Sink) Name() string { return "influx" }

// LoadBatch writes one point per scenario of every result.
func (s *Sink) LoadBatch(ctx context.Context, msgs []domain.OutputMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	points := make([]*write.Point, 0, len(msgs)*len(domain.Scenarios()))
	for i := range msgs {
		points = append(points, toPoints(msgs[i].Result)...)
	}
	if err := s.writer.WritePoint(ctx, points...); err != nil {
		return fmt.Errorf("write %d points: %w", len(points), err)
	}
	s.logger.Debug("influx points written", "points", len(points), "results", len(msgs))
	return nil
}

// Close releases the client's connections.
func (s *Sink) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

func toPoints(r domain.AssessmentResult) []*write.Point {
	points := make([]*write.Point, 0, len(r.Scenarios))
	for _, sc := range r.Scenarios {
		tags := map[string]string{
			"assessment_id":    r.ID,
			"scenario":         string(sc.Scenario),
			"recommended":      strconv.FormatBool(sc.Scenario == r.Recommended),
			"surface_material": r.SurfaceMaterial,
			"target_met":       strconv.FormatBool(sc.Tank.TargetMet),
		}
		if r.RainfallSource != "" {
			tags["rainfall_source"] = r.RainfallSource
		}

		fields := map[string]any{
			"tank_liters":            sc.Tank.CapacityLiters,
			"reliability_pct":        sc.ReliabilityPct,
			"annual_reliability_pct": sc.AnnualReliabilityPct,
			"annual_yield_liters":    sc.AnnualYieldLiters,
			"water_supplied_liters":  sc.WaterSuppliedLiters,
			"overflow_liters":        sc.TotalOverflowLiters,
			"deficit_liters":         sc.TotalDeficitLiters,
			"net_cost":               sc.NetCost,
			"annual_savings":         sc.AnnualSavings,
			"co2_offset_kg":          sc.CO2OffsetKg,
			"yield_p10_liters":       r.Confidence.P10,
			"yield_p50_liters":       r.Confidence.P50,
			"yield_p90_liters":       r.Confidence.P90,
		}
		if sc.ROIYears != nil {
			fields["roi_years"] = *sc.ROIYears
		}

		points = append(points, write.NewPoint(Measurement, tags, fields, r.ProcessedAt))
	}
	return points
}
