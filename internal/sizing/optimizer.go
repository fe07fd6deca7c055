// Package sizing searches a fixed grid of tank capacities for the smallest
// tank that satisfies a scenario's sizing policy.
package sizing

import (
	"fmt"
	"math"

	"github.com/couchcryptid/rainwater-assessment/internal/balance"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
)

// Practical tank bounds. Nothing outside this range is ever recommended.
const (
	MinPracticalLiters = 1_000
	MaxPracticalLiters = 100_000
)

// reliabilityEpsilon absorbs float error when comparing met-month fractions
// against a target such as 0.8.
const reliabilityEpsilon = 1e-9

// Grid is the candidate search space in litres.
type Grid struct {
	Min  int
	Max  int
	Step int
}

// Bounds clamp the grid to practical tank sizes.
type Bounds struct {
	Min int
	Max int
}

// Options configures the search. Start from DefaultOptions; a zero
// InitialFill means the tank starts empty.
type Options struct {
	Grid              Grid
	Bounds            Bounds
	ReliabilityTarget float64       // fraction of months, e.g. 0.8
	CaptureFraction   float64       // max_capture: tank must hold this share of annual yield
	InitialFill       float64       // starting level as a fraction of capacity
	DrySeason         domain.Season // window for the dry_season policy
}

// DefaultOptions searches every 1,000 L from 1,000 to 50,000 L.
func DefaultOptions() Options {
	return Options{
		Grid:              Grid{Min: 1_000, Max: 50_000, Step: 1_000},
		Bounds:            Bounds{Min: MinPracticalLiters, Max: MaxPracticalLiters},
		ReliabilityTarget: 0.8,
		CaptureFraction:   0.30,
		InitialFill:       balance.DefaultInitialFill,
		DrySeason:         domain.DefaultDrySeason,
	}
}

// Candidates returns the grid clamped to the bounds, smallest first.
func (o Options) Candidates() ([]int, error) {
	if o.Grid.Step <= 0 {
		return nil, fmt.Errorf("%w: grid step must be positive, got %d", domain.ErrInvalidInput, o.Grid.Step)
	}
	lo := max(o.Grid.Min, o.Bounds.Min)
	hi := min(o.Grid.Max, o.Bounds.Max)
	if lo <= 0 || hi < lo {
		return nil, fmt.Errorf("%w: empty candidate grid [%d, %d]", domain.ErrInvalidInput, lo, hi)
	}
	out := make([]int, 0, (hi-lo)/o.Grid.Step+1)
	for c := lo; c <= hi; c += o.Grid.Step {
		out = append(out, c)
	}
	return out, nil
}

func (o Options) validate() error {
	if math.IsNaN(o.ReliabilityTarget) || o.ReliabilityTarget <= 0 || o.ReliabilityTarget > 1 {
		return fmt.Errorf("%w: reliability target must be within (0, 1], got %g", domain.ErrInvalidInput, o.ReliabilityTarget)
	}
	if math.IsNaN(o.CaptureFraction) || o.CaptureFraction < 0 {
		return fmt.Errorf("%w: capture fraction must be non-negative, got %g", domain.ErrInvalidInput, o.CaptureFraction)
	}
	if math.IsNaN(o.InitialFill) || o.InitialFill < 0 || o.InitialFill > 1 {
		return fmt.Errorf("%w: initial fill must be within [0, 1], got %g", domain.ErrInvalidInput, o.InitialFill)
	}
	return o.drySeason().Validate()
}

func (o Options) drySeason() domain.Season {
	if len(o.DrySeason) == 0 {
		return domain.DefaultDrySeason
	}
	return o.DrySeason
}

// Optimize recommends a capacity for the scenario.
//
//   - cost_optimized: smallest candidate whose 12-month reliability reaches the target.
//   - max_capture: smallest candidate holding CaptureFraction of annual yield.
//   - dry_season: smallest candidate reaching the target over the dry-season window.
//
// When no candidate satisfies the policy the largest candidate is returned
// with TargetMet=false. Zero annual yield returns the smallest candidate with
// Degenerate=true and reliability 0.
func Optimize(yield [domain.MonthsPerYear]float64, dailyDemand float64, scenario domain.Scenario, opts Options) (domain.TankRecommendation, error) {
	if err := (domain.DemandProfile{DailyLiters: dailyDemand}).Validate(); err != nil {
		return domain.TankRecommendation{}, err
	}
	if !scenario.Valid() {
		return domain.TankRecommendation{}, fmt.Errorf("%w: unknown scenario %q", domain.ErrInvalidInput, scenario)
	}
	if err := opts.validate(); err != nil {
		return domain.TankRecommendation{}, err
	}
	candidates, err := opts.Candidates()
	if err != nil {
		return domain.TankRecommendation{}, err
	}

	var annual float64
	for i, v := range yield {
		if math.IsNaN(v) || v < 0 {
			return domain.TankRecommendation{}, fmt.Errorf("%w: yield for %s must be non-negative, got %g",
				domain.ErrInvalidInput, domain.MonthLabel(i), v)
		}
		annual += v
	}

	if annual == 0 {
		return domain.TankRecommendation{
			Scenario:       scenario,
			CapacityLiters: candidates[0],
			ReliabilityPct: 0,
			TargetMet:      false,
			Degenerate:     true,
		}, nil
	}

	curve := make([]domain.CandidatePoint, 0, len(candidates))
	for _, c := range candidates {
		rel, err := Evaluate(yield, dailyDemand, float64(c), scenario, opts)
		if err != nil {
			return domain.TankRecommendation{}, err
		}
		curve = append(curve, domain.CandidatePoint{CapacityLiters: c, ReliabilityPct: rel})
	}

	pick := -1
	switch scenario {
	case domain.ScenarioMaxCapture:
		threshold := opts.CaptureFraction * annual
		for i, p := range curve {
			if float64(p.CapacityLiters) >= threshold {
				pick = i
				break
			}
		}
	default:
		for i, p := range curve {
			if meetsTarget(p.ReliabilityPct, opts.ReliabilityTarget) {
				pick = i
				break
			}
		}
	}

	rec := domain.TankRecommendation{Scenario: scenario, Curve: curve}
	if pick < 0 {
		last := curve[len(curve)-1]
		rec.CapacityLiters = last.CapacityLiters
		rec.ReliabilityPct = last.ReliabilityPct
		return rec, nil
	}
	rec.CapacityLiters = curve[pick].CapacityLiters
	rec.ReliabilityPct = curve[pick].ReliabilityPct
	rec.TargetMet = true
	return rec, nil
}

// Evaluate returns the reliability percentage a scenario's policy assigns to
// one capacity. The dry_season policy scores only the dry-season window.
func Evaluate(yield [domain.MonthsPerYear]float64, dailyDemand, capacity float64, scenario domain.Scenario, opts Options) (float64, error) {
	in := balance.Input{
		SupplyLiters:   yield,
		CapacityLiters: capacity,
		DailyDemand:    dailyDemand,
		InitialFill:    opts.InitialFill,
	}
	var (
		res balance.Result
		err error
	)
	if scenario == domain.ScenarioDrySeason {
		res, err = balance.SimulateSeason(in, opts.drySeason())
	} else {
		res, err = balance.Simulate(in)
	}
	if err != nil {
		return 0, err
	}
	return res.ReliabilityPct, nil
}

func meetsTarget(reliabilityPct, target float64) bool {
	return reliabilityPct/100 >= target-reliabilityEpsilon
}
