// Package balance replays a monthly supply series through a storage tank.
//
// Each month carries the tank level forward:
//
//	available = level + supply
//	used      = min(available, demand)
//	deficit   = max(0, demand - available)
//	remaining = available - used
//	overflow  = max(0, remaining - capacity)
//	level     = min(remaining, capacity)
//
// A month meets demand only when its deficit is exactly zero. The replay is
// deterministic: identical inputs always produce identical entries.
package balance

import (
	"fmt"
	"math"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
)

// DefaultInitialFill is the starting level as a fraction of capacity.
const DefaultInitialFill = 0.5

// Input is the state needed for one replay.
type Input struct {
	SupplyLiters   [domain.MonthsPerYear]float64
	CapacityLiters float64
	DailyDemand    float64
	InitialFill    float64 // fraction of capacity in [0, 1]
}

// Result is the ordered balance plus aggregate totals.
type Result struct {
	Entries        []domain.MonthlyBalanceEntry
	TotalOverflow  float64
	TotalDeficit   float64
	TotalSupplied  float64 // demand actually served from the tank
	MonthsMet      int
	ReliabilityPct float64
}

// Simulate replays January through December.
func Simulate(in Input) (Result, error) {
	months := make([]int, domain.MonthsPerYear)
	for i := range months {
		months[i] = i
	}
	return replay(in, months)
}

// SimulateSeason replays only the months of the season, in season order,
// starting from the input's initial fill.
func SimulateSeason(in Input, season domain.Season) (Result, error) {
	if err := season.Validate(); err != nil {
		return Result{}, err
	}
	return replay(in, season.Indexes())
}

func (in Input) validate() error {
	if math.IsNaN(in.CapacityLiters) || in.CapacityLiters <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %g", domain.ErrInvalidInput, in.CapacityLiters)
	}
	if err := (domain.DemandProfile{DailyLiters: in.DailyDemand}).Validate(); err != nil {
		return err
	}
	if math.IsNaN(in.InitialFill) || in.InitialFill < 0 || in.InitialFill > 1 {
		return fmt.Errorf("%w: initial fill must be within [0, 1], got %g", domain.ErrInvalidInput, in.InitialFill)
	}
	for i, s := range in.SupplyLiters {
		if math.IsNaN(s) || s < 0 {
			return fmt.Errorf("%w: supply for %s must be non-negative, got %g",
				domain.ErrInvalidInput, domain.MonthLabel(i), s)
		}
	}
	return nil
}

func replay(in Input, months []int) (Result, error) {
	if err := in.validate(); err != nil {
		return Result{}, err
	}

	demand := in.DailyDemand * domain.DaysPerMonth
	level := in.InitialFill * in.CapacityLiters
	res := Result{Entries: make([]domain.MonthlyBalanceEntry, 0, len(months))}

	for _, m := range months {
		supply := in.SupplyLiters[m]
		available := level + supply
		used := math.Min(available, demand)
		deficit := math.Max(0, demand-available)
		remaining := available - used

		var overflow float64
		if remaining > in.CapacityLiters {
			overflow = remaining - in.CapacityLiters
			level = in.CapacityLiters
		} else {
			level = remaining
		}

		met := deficit == 0
		if met {
			res.MonthsMet++
		}
		res.TotalOverflow += overflow
		res.TotalDeficit += deficit
		res.TotalSupplied += used

		res.Entries = append(res.Entries, domain.MonthlyBalanceEntry{
			Month:          domain.MonthLabel(m),
			SupplyLiters:   supply,
			DemandLiters:   demand,
			LevelLiters:    level,
			OverflowLiters: overflow,
			DeficitLiters:  deficit,
			UtilizationPct: level / in.CapacityLiters * 100,
			DemandMet:      met,
		})
	}

	res.ReliabilityPct = Reliability(res.MonthsMet, len(months))
	return res, nil
}

// Reliability converts a met-month count to a percentage in [0, 100].
func Reliability(met, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(met) / float64(total) * 100
}
