package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() AssessmentRequest {
	return AssessmentRequest{
		Catchment: CatchmentSpec{AreaSqm: 120, SurfaceMaterial: "metal"},
		Rainfall:  &RainfallProfile{MonthlyMM: [12]float64{50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50}},
		Demand:    DemandProfile{DailyLiters: 200},
	}
}

func TestAssessmentRequest_Validate(t *testing.T) {
	require.NoError(t, validRequest().Validate())

	tests := []struct {
		name   string
		mutate func(r *AssessmentRequest)
	}{
		{"zero area", func(r *AssessmentRequest) { r.Catchment.AreaSqm = 0 }},
		{"NaN area", func(r *AssessmentRequest) { r.Catchment.AreaSqm = math.NaN() }},
		{"infinite area", func(r *AssessmentRequest) { r.Catchment.AreaSqm = math.Inf(1) }},
		{"demand overflows a month", func(r *AssessmentRequest) { r.Demand.DailyLiters = math.MaxFloat64 }},
		{"negative floors", func(r *AssessmentRequest) { r.Catchment.Floors = -1 }},
		{"missing rainfall", func(r *AssessmentRequest) { r.Rainfall = nil }},
		{"negative rainfall", func(r *AssessmentRequest) { r.Rainfall.MonthlyMM[2] = -0.5 }},
		{"infinite rainfall", func(r *AssessmentRequest) { r.Rainfall.MonthlyMM[2] = math.Inf(1) }},
		{"zero demand", func(r *AssessmentRequest) { r.Demand.DailyLiters = 0 }},
		{"negative demand", func(r *AssessmentRequest) { r.Demand.DailyLiters = -1 }},
		{"bad latitude", func(r *AssessmentRequest) { r.Location = &Geo{Lat: -91} }},
		{"unknown recommended", func(r *AssessmentRequest) { r.Recommended = "cheapest" }},
		{"subsidy over 100", func(r *AssessmentRequest) { r.Costs.SubsidyPct = 120 }},
		{"negative tariff", func(r *AssessmentRequest) { r.Costs.WaterTariffPerKL = -1 }},
		{"empty tier", func(r *AssessmentRequest) { r.Costs.TankCostTiers = []TankCostTier{{MaxCapacityLiters: 0, Price: 10}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			rainfall := *r.Rainfall
			r.Rainfall = &rainfall
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, IsInvalidInput(err))
		})
	}
}

func TestParseRequest_RecommendedSpelling(t *testing.T) {
	tests := []struct {
		in       string
		expected Scenario
	}{
		{`"max_capture"`, ScenarioMaxCapture},
		{`"Max-Capture"`, ScenarioMaxCapture},
		{`" DRY_SEASON "`, ScenarioDrySeason},
		{`"cost-optimized"`, ScenarioCostOptimized},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			req, err := ParseRequest([]byte(`{"recommended":` + tt.in + `}`))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, req.Recommended)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseRequest([]byte(`{"recommended":"cheapest"}`))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("validate accepts variants", func(t *testing.T) {
		r := validRequest()
		r.Recommended = "Dry-Season"
		assert.NoError(t, r.Validate())
	})
}

func TestAssessmentRequest_NeedsRainfall(t *testing.T) {
	r := validRequest()
	assert.False(t, r.NeedsRainfall())

	r.Rainfall = nil
	assert.False(t, r.NeedsRainfall())

	r.Location = &Geo{Lat: 12.97, Lon: 77.59}
	assert.True(t, r.NeedsRainfall())
}

func TestCatchmentSpec_FloorCount(t *testing.T) {
	assert.Equal(t, 1, CatchmentSpec{}.FloorCount())
	assert.Equal(t, 1, CatchmentSpec{Floors: 1}.FloorCount())
	assert.Equal(t, 3, CatchmentSpec{Floors: 3}.FloorCount())
}

func TestRainfallProfile_Reconcile(t *testing.T) {
	p := RainfallProfile{MonthlyMM: [12]float64{1, 2, 3, 4}, AnnualMM: 1000}
	r := p.Reconcile()
	assert.Equal(t, 10.0, r.AnnualMM)
	assert.Equal(t, 1000.0, p.AnnualMM)
}

func TestCostParameters_TankPrice(t *testing.T) {
	costs := CostParameters{TankCostTiers: []TankCostTier{
		{MaxCapacityLiters: 20000, Price: 1500},
		{MaxCapacityLiters: 5000, Price: 500},
		{MaxCapacityLiters: 10000, Price: 900},
	}}

	tests := []struct {
		capacity int
		expected float64
	}{
		{1000, 500},
		{5000, 500},
		{5001, 900},
		{17000, 1500},
		{40000, 3000}, // pro rata beyond the largest tier
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, costs.TankPrice(tt.capacity), "capacity %d", tt.capacity)
	}

	assert.Equal(t, 0.0, CostParameters{}.TankPrice(5000))
	assert.Equal(t, 20000, costs.TankCostTiers[0].MaxCapacityLiters, "tiers must not be reordered in place")
}

func TestParseScenario(t *testing.T) {
	tests := []struct {
		in       string
		expected Scenario
		wantErr  bool
	}{
		{"cost_optimized", ScenarioCostOptimized, false},
		{"Max-Capture", ScenarioMaxCapture, false},
		{" dry_season ", ScenarioDrySeason, false},
		{"monsoon", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := ParseScenario(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s)
			assert.True(t, s.Valid())
		})
	}
}

func TestSeason(t *testing.T) {
	assert.True(t, DefaultDrySeason.Contains(time.January))
	assert.False(t, DefaultDrySeason.Contains(time.July))
	assert.Equal(t, []int{9, 10, 11, 0, 1, 2}, DefaultDrySeason.Indexes())

	assert.ErrorIs(t, Season{}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Season{time.May, time.May}.Validate(), ErrInvalidInput)
	assert.NoError(t, Season{time.June, time.July}.Validate())
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Jan", MonthLabel(0))
	assert.Equal(t, "Dec", MonthLabel(11))
}
