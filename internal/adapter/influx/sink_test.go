package influx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	points []*write.Point
	err    error
}

func (r *recordingWriter) WritePoint(_ context.Context, points ...*write.Point) error {
	if r.err != nil {
		return r.err
	}
	r.points = append(r.points, points...)
	return nil
}

func testSink(w pointWriter) *Sink {
	return &Sink{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func testResult() domain.AssessmentResult {
	roi := 4.5
	return domain.AssessmentResult{
		ID:              "rwa-1",
		SurfaceMaterial: "metal",
		RainfallSource:  "open-meteo",
		Recommended:     domain.ScenarioMaxCapture,
		ProcessedAt:     time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
		Confidence:      domain.ConfidenceBand{P10: 40000, P50: 50000, P90: 60000},
		Scenarios: []domain.ScenarioResult{
			{Scenario: domain.ScenarioCostOptimized, Tank: domain.TankRecommendation{CapacityLiters: 50000}},
			{Scenario: domain.ScenarioMaxCapture, Tank: domain.TankRecommendation{CapacityLiters: 17000, TargetMet: true}, ROIYears: &roi},
		},
	}
}

func tagValue(p *write.Point, key string) string {
	for _, t := range p.TagList() {
		if t.Key == key {
			return t.Value
		}
	}
	return ""
}

func fieldValue(p *write.Point, key string) any {
	for _, f := range p.FieldList() {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

func TestSink_LoadBatch(t *testing.T) {
	w := &recordingWriter{}
	s := testSink(w)

	require.NoError(t, s.LoadBatch(context.Background(), []domain.OutputMessage{{Result: testResult()}}))
	require.Len(t, w.points, 2)

	co, mc := w.points[0], w.points[1]
	assert.Equal(t, Measurement, co.Name())
	assert.Equal(t, "cost_optimized", tagValue(co, "scenario"))
	assert.Equal(t, "false", tagValue(co, "recommended"))
	assert.Equal(t, "false", tagValue(co, "target_met"))
	assert.Nil(t, fieldValue(co, "roi_years"))

	assert.Equal(t, "true", tagValue(mc, "recommended"))
	assert.Equal(t, "metal", tagValue(mc, "surface_material"))
	assert.Equal(t, "open-meteo", tagValue(mc, "rainfall_source"))
	assert.Equal(t, int64(17000), fieldValue(mc, "tank_liters"))
	assert.Equal(t, 4.5, fieldValue(mc, "roi_years"))
	assert.Equal(t, 50000.0, fieldValue(mc, "yield_p50_liters"))
	assert.Equal(t, time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC), mc.Time())
}

func TestSink_LoadBatchEmpty(t *testing.T) {
	w := &recordingWriter{err: errors.New("should not be called")}
	require.NoError(t, testSink(w).LoadBatch(context.Background(), nil))
}

func TestSink_LoadBatchError(t *testing.T) {
	s := testSink(&recordingWriter{err: errors.New("unauthorized")})
	err := s.LoadBatch(context.Background(), []domain.OutputMessage{{Result: testResult()}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write 2 points")
	assert.Contains(t, err.Error(), "unauthorized")
	assert.Equal(t, "influx", s.Name())
	assert.NoError(t, s.Close())
}
