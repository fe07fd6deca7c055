package domain

import (
	"fmt"
	"math"
	"sort"
)

// TankCostTier prices every tank up to MaxCapacityLiters at Price.
type TankCostTier struct {
	MaxCapacityLiters int     `json:"max_capacity_liters"`
	Price             float64 `json:"price"`
}

// CostParameters are the externally supplied unit costs for one request.
// The core never looks them up itself.
type CostParameters struct {
	TankCostTiers    []TankCostTier `json:"tank_cost_tiers"`
	SubsidyPct       float64        `json:"subsidy_pct"`          // 0–100
	SubsidyCap       float64        `json:"subsidy_cap"`          // 0 means uncapped
	WaterTariffPerKL float64        `json:"water_tariff_per_kl"`  // currency per kilolitre
	CO2FactorKgPerKL float64        `json:"co2_factor_kg_per_kl"` // avoided emissions per kilolitre
	InstallationCost float64        `json:"installation_cost"`    // fixed plumbing and labour
	PerFloorCost     float64        `json:"per_floor_cost"`       // downpipe and pumping per storey
}

// Validate rejects negative amounts, out-of-range percentages and malformed tiers.
func (c CostParameters) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"subsidy_cap", c.SubsidyCap},
		{"water_tariff_per_kl", c.WaterTariffPerKL},
		{"co2_factor_kg_per_kl", c.CO2FactorKgPerKL},
		{"installation_cost", c.InstallationCost},
		{"per_floor_cost", c.PerFloorCost},
	}
	for _, chk := range checks {
		if math.IsNaN(chk.value) || chk.value < 0 {
			return fmt.Errorf("%w: %s must be non-negative, got %g", ErrInvalidInput, chk.name, chk.value)
		}
	}
	if math.IsNaN(c.SubsidyPct) || c.SubsidyPct < 0 || c.SubsidyPct > 100 {
		return fmt.Errorf("%w: subsidy_pct must be within [0, 100], got %g", ErrInvalidInput, c.SubsidyPct)
	}
	for i, t := range c.TankCostTiers {
		if t.MaxCapacityLiters <= 0 {
			return fmt.Errorf("%w: tank_cost_tiers[%d].max_capacity_liters must be positive", ErrInvalidInput, i)
		}
		if math.IsNaN(t.Price) || t.Price < 0 {
			return fmt.Errorf("%w: tank_cost_tiers[%d].price must be non-negative", ErrInvalidInput, i)
		}
	}
	return nil
}

// TankPrice returns the price of a tank of the given capacity: the smallest
// tier large enough to hold it. Tanks larger than every tier are priced
// pro rata at the largest tier's per-litre rate. No tiers means a zero price.
func (c CostParameters) TankPrice(capacityLiters int) float64 {
	if len(c.TankCostTiers) == 0 || capacityLiters <= 0 {
		return 0
	}
	tiers := make([]TankCostTier, len(c.TankCostTiers))
	copy(tiers, c.TankCostTiers)
	sort.Slice(tiers, func(i, j int) bool {
		return tiers[i].MaxCapacityLiters < tiers[j].MaxCapacityLiters
	})

	for _, t := range tiers {
		if capacityLiters <= t.MaxCapacityLiters {
			return t.Price
		}
	}
	largest := tiers[len(tiers)-1]
	return largest.Price / float64(largest.MaxCapacityLiters) * float64(capacityLiters)
}
