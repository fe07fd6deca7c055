// Package assessment runs every sizing scenario for a request and assembles
// the assessment result. It is a pure function of its inputs: no I/O, no
// logging and no state shared between calls.
package assessment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/couchcryptid/rainwater-assessment/internal/balance"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/hydrology"
	"github.com/couchcryptid/rainwater-assessment/internal/sizing"
	"github.com/couchcryptid/rainwater-assessment/internal/uncertainty"
	"golang.org/x/sync/errgroup"
)

// RainfallSourceRequest marks rainfall supplied inline with the request.
const RainfallSourceRequest = "request"

// Options holds the policy constants shared by every scenario.
type Options struct {
	CollectionEfficiency float64 // 0 means 1.0
	DrySeason            domain.Season
	Sizing               sizing.Options
	Uncertainty          uncertainty.Options
	Recommended          domain.Scenario // used when the request does not choose
}

// DefaultOptions recommends max_capture with the default search grid and a
// 1,000-trial ensemble.
func DefaultOptions() Options {
	return Options{
		CollectionEfficiency: 1.0,
		DrySeason:            domain.DefaultDrySeason,
		Sizing:               sizing.DefaultOptions(),
		Uncertainty:          uncertainty.DefaultOptions(),
		Recommended:          domain.ScenarioMaxCapture,
	}
}

func (o Options) drySeason() domain.Season {
	if len(o.DrySeason) == 0 {
		return domain.DefaultDrySeason
	}
	return o.DrySeason
}

func (o Options) efficiency() float64 {
	if o.CollectionEfficiency == 0 {
		return 1.0
	}
	return o.CollectionEfficiency
}

// Run assesses a request under every scenario. Validation failures wrap
// domain.ErrInvalidInput; unmet targets and zero yield are reported through
// the recommendation flags, not as errors.
func Run(req domain.AssessmentRequest, opts Options) (domain.AssessmentResult, error) {
	if err := req.Validate(); err != nil {
		return domain.AssessmentResult{}, err
	}
	choice := opts.Recommended
	if req.Recommended != "" {
		choice = req.Recommended
	}
	if choice == "" {
		choice = domain.ScenarioMaxCapture
	}
	recommended, err := domain.ParseScenario(string(choice))
	if err != nil {
		return domain.AssessmentResult{}, fmt.Errorf("recommended scenario: %w", err)
	}

	rainfall := req.Rainfall.Reconcile()
	eff := opts.efficiency()
	dry := opts.drySeason()

	baseline, err := hydrology.Simulate(req.Catchment, rainfall, hydrology.Options{
		CollectionEfficiency: eff,
		DrySeason:            dry,
	})
	if err != nil {
		return domain.AssessmentResult{}, err
	}

	sizingOpts := opts.Sizing
	sizingOpts.DrySeason = dry
	uncOpts := opts.Uncertainty
	uncOpts.CollectionEfficiency = eff

	scenarios := domain.Scenarios()
	results := make([]domain.ScenarioResult, len(scenarios))
	var band domain.ConfidenceBand

	var g errgroup.Group
	for i, sc := range scenarios {
		g.Go(func() error {
			r, err := runScenario(req, rainfall, sc, eff, dry, sizingOpts)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc, err)
			}
			results[i] = r
			return nil
		})
	}
	g.Go(func() error {
		b, err := uncertainty.Estimate(req.Catchment, rainfall, baseline.Coefficient, uncOpts)
		if err != nil {
			return fmt.Errorf("uncertainty: %w", err)
		}
		band = b
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.AssessmentResult{}, err
	}

	id := req.ID
	if id == "" {
		id = requestID(req)
	}

	return domain.AssessmentResult{
		ID:                        id,
		SurfaceMaterial:           req.Catchment.SurfaceMaterial,
		Coefficient:               baseline.Coefficient,
		CoefficientKnown:          baseline.CoefficientKnown,
		CollectionEfficiency:      eff,
		Rainfall:                  rainfall,
		RainfallSource:            RainfallSourceRequest,
		BaselineAnnualYieldLiters: baseline.AnnualLiters,
		Scenarios:                 results,
		Recommended:               recommended,
		Confidence:                band,
	}, nil
}

// runScenario sizes the tank for one policy, replays the 12-month balance at
// that size and prices it.
func runScenario(req domain.AssessmentRequest, rainfall domain.RainfallProfile, sc domain.Scenario, eff float64, dry domain.Season, opts sizing.Options) (domain.ScenarioResult, error) {
	y, err := hydrology.Simulate(req.Catchment, rainfall, hydrology.Options{
		Scenario:             sc,
		CollectionEfficiency: eff,
		DrySeason:            dry,
	})
	if err != nil {
		return domain.ScenarioResult{}, err
	}

	tank, err := sizing.Optimize(y.MonthlyLiters, req.Demand.DailyLiters, sc, opts)
	if err != nil {
		return domain.ScenarioResult{}, err
	}

	// A degenerate tank starts empty, so no month of the replay meets demand.
	fill := opts.InitialFill
	if tank.Degenerate {
		fill = 0
	}
	plan, err := balance.Simulate(balance.Input{
		SupplyLiters:   y.MonthlyLiters,
		CapacityLiters: float64(tank.CapacityLiters),
		DailyDemand:    req.Demand.DailyLiters,
		InitialFill:    fill,
	})
	if err != nil {
		return domain.ScenarioResult{}, err
	}

	econ := computeEconomics(req.Costs, tank.CapacityLiters, req.Catchment.FloorCount(), plan.TotalSupplied)

	return domain.ScenarioResult{
		Scenario:             sc,
		Tank:                 tank,
		ReliabilityPct:       tank.ReliabilityPct,
		AnnualReliabilityPct: annualReliability(tank, plan),
		MonthlyBalance:       plan.Entries,
		TotalOverflowLiters:  plan.TotalOverflow,
		TotalDeficitLiters:   plan.TotalDeficit,
		AnnualYieldLiters:    y.AnnualLiters,
		DrySeasonYieldLiters: y.DrySeasonLiters,
		WetSeasonYieldLiters: y.WetSeasonLiters,
		WaterSuppliedLiters:  plan.TotalSupplied,
		GrossCost:            econ.Gross,
		SubsidyAmount:        econ.Subsidy,
		NetCost:              econ.Net,
		AnnualSavings:        econ.Savings,
		ROIYears:             econ.ROIYears,
		CO2OffsetKg:          econ.CO2OffsetKg,
	}, nil
}

// annualReliability reports the 12-month balance reliability, pinned to 0 for
// a degenerate zero-yield catchment.
func annualReliability(tank domain.TankRecommendation, plan balance.Result) float64 {
	if tank.Degenerate {
		return 0
	}
	return math.Min(100, math.Max(0, plan.ReliabilityPct))
}

// requestID derives a deterministic ID from the request content so replays
// of the same request map to the same result.
func requestID(req domain.AssessmentRequest) string {
	data, err := json.Marshal(req)
	if err != nil {
		return "rwa-unknown"
	}
	sum := sha256.Sum256(data)
	return "rwa-" + hex.EncodeToString(sum[:8])
}
