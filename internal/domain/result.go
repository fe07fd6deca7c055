package domain

import "time"

// CandidatePoint is one evaluated tank size in the optimizer's search.
type CandidatePoint struct {
	CapacityLiters int     `json:"capacity_liters"`
	ReliabilityPct float64 `json:"reliability_pct"`
}

// TankRecommendation is the optimizer's chosen capacity.
type TankRecommendation struct {
	Scenario       Scenario         `json:"scenario"`
	CapacityLiters int              `json:"tank_liters"`
	ReliabilityPct float64          `json:"reliability_pct"`
	TargetMet      bool             `json:"target_met"`
	Degenerate     bool             `json:"degenerate,omitempty"` // zero annual yield
	Curve          []CandidatePoint `json:"curve,omitempty"`
}

// MonthlyBalanceEntry is one month of the tank mass balance.
type MonthlyBalanceEntry struct {
	Month          string  `json:"month"`
	SupplyLiters   float64 `json:"supply_liters"`
	DemandLiters   float64 `json:"demand_liters"`
	LevelLiters    float64 `json:"level_liters"`
	OverflowLiters float64 `json:"overflow_liters"`
	DeficitLiters  float64 `json:"deficit_liters"`
	UtilizationPct float64 `json:"utilization_pct"`
	DemandMet      bool    `json:"demand_met"`
}

// ConfidenceBand is the spread of simulated annual yields.
type ConfidenceBand struct {
	P10       float64  `json:"p10"`
	P50       float64  `json:"p50"`
	P90       float64  `json:"p90"`
	Mean      float64  `json:"mean"`
	StdDev    float64  `json:"std_dev"`
	Trials    int      `json:"trials"`
	Sigma     float64  `json:"sigma"`
	Citations []string `json:"citations"`
}

// ScenarioResult is the full outcome for one sizing policy.
type ScenarioResult struct {
	Scenario             Scenario              `json:"scenario"`
	Tank                 TankRecommendation    `json:"tank"`
	ReliabilityPct       float64               `json:"reliability_pct"`        // reliability the scenario optimised for
	AnnualReliabilityPct float64               `json:"annual_reliability_pct"` // reliability over the 12-month balance
	MonthlyBalance       []MonthlyBalanceEntry `json:"monthly_balance"`
	TotalOverflowLiters  float64               `json:"total_overflow_liters"`
	TotalDeficitLiters   float64               `json:"total_deficit_liters"`
	AnnualYieldLiters    float64               `json:"annual_yield_liters"`
	DrySeasonYieldLiters float64               `json:"dry_season_yield_liters"`
	WetSeasonYieldLiters float64               `json:"wet_season_yield_liters"`
	WaterSuppliedLiters  float64               `json:"water_supplied_liters"`
	GrossCost            float64               `json:"gross_cost"`
	SubsidyAmount        float64               `json:"subsidy_amount"`
	NetCost              float64               `json:"net_cost"`
	AnnualSavings        float64               `json:"annual_savings"`
	ROIYears             *float64              `json:"roi_years"` // nil when the tank never pays back
	CO2OffsetKg          float64               `json:"co2_offset_kg"`
}

// AssessmentResult is the outcome of one assessment request.
type AssessmentResult struct {
	ID                        string           `json:"id"`
	SurfaceMaterial           string           `json:"surface_material"`
	Coefficient               float64          `json:"coefficient"`
	CoefficientKnown          bool             `json:"coefficient_known"`
	CollectionEfficiency      float64          `json:"collection_efficiency"`
	Rainfall                  RainfallProfile  `json:"rainfall"`
	RainfallSource            string           `json:"rainfall_source,omitempty"` // "request" or the lookup provider
	BaselineAnnualYieldLiters float64          `json:"baseline_annual_yield_liters"`
	Scenarios                 []ScenarioResult `json:"scenarios"`
	Recommended               Scenario         `json:"recommended"`
	Confidence                ConfidenceBand   `json:"confidence"`
	ProcessedAt               time.Time        `json:"processed_at"`
}

// Scenario returns the result for s, if present.
func (r AssessmentResult) Scenario(s Scenario) (ScenarioResult, bool) {
	for _, sr := range r.Scenarios {
		if sr.Scenario == s {
			return sr, true
		}
	}
	return ScenarioResult{}, false
}

// RecommendedResult returns the result of the recommended scenario.
func (r AssessmentResult) RecommendedResult() (ScenarioResult, bool) {
	return r.Scenario(r.Recommended)
}
