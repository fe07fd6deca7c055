package assessment

import "github.com/couchcryptid/rainwater-assessment/internal/domain"

// economics is the cost side of one scenario.
type economics struct {
	Gross       float64
	Subsidy     float64
	Net         float64
	Savings     float64
	ROIYears    *float64
	CO2OffsetKg float64
}

// computeEconomics prices a tank and the water it delivers.
//
//	gross   = tier price + installation + per-floor cost × floors
//	subsidy = min(gross × pct/100, cap)   (cap 0 = uncapped)
//	net     = gross − subsidy
//	savings = supplied kL × tariff         (per year)
//	roi     = net / savings                (nil when savings are zero)
//	co2     = supplied kL × factor
func computeEconomics(p domain.CostParameters, capacityLiters, floors int, suppliedLiters float64) economics {
	gross := p.TankPrice(capacityLiters) + p.InstallationCost + p.PerFloorCost*float64(floors)

	subsidy := gross * p.SubsidyPct / 100
	if p.SubsidyCap > 0 && subsidy > p.SubsidyCap {
		subsidy = p.SubsidyCap
	}
	net := gross - subsidy

	kl := suppliedLiters / 1000
	e := economics{
		Gross:       gross,
		Subsidy:     subsidy,
		Net:         net,
		Savings:     kl * p.WaterTariffPerKL,
		CO2OffsetKg: kl * p.CO2FactorKgPerKL,
	}
	if e.Savings > 0 {
		roi := net / e.Savings
		e.ROIYears = &roi
	}
	return e
}
