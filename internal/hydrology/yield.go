package hydrology

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// Options tunes a yield simulation. The zero value simulates without a
// scenario factor, with full collection efficiency and the default dry season.
type Options struct {
	Scenario             domain.Scenario // empty applies no capture factor
	CollectionEfficiency float64         // 0 means 1.0
	DrySeason            domain.Season   // nil means domain.DefaultDrySeason
}

func (o Options) efficiency() float64 {
	if o.CollectionEfficiency == 0 {
		return 1.0
	}
	return o.CollectionEfficiency
}

func (o Options) drySeason() domain.Season {
	if len(o.DrySeason) == 0 {
		return domain.DefaultDrySeason
	}
	return o.DrySeason
}

// Yield is the monthly collectable volume series for one catchment.
type Yield struct {
	MonthlyLiters        [domain.MonthsPerYear]float64
	AnnualLiters         float64
	DrySeasonLiters      float64
	WetSeasonLiters      float64
	Coefficient          float64
	CoefficientKnown     bool
	CollectionEfficiency float64
	CaptureFactor        float64
}

// Simulate runs the runoff model across all twelve months. When a scenario
// is set, every month is scaled by its capture factor so the annual total
// always equals the sum of the months.
func Simulate(catchment domain.CatchmentSpec, rainfall domain.RainfallProfile, opts Options) (Yield, error) {
	if err := catchment.Validate(); err != nil {
		return Yield{}, err
	}
	if err := rainfall.Validate(); err != nil {
		return Yield{}, err
	}
	eff := opts.efficiency()
	if math.IsNaN(eff) || eff <= 0 || eff > 1 {
		return Yield{}, fmt.Errorf("%w: collection efficiency must be within (0, 1], got %g",
			domain.ErrInvalidInput, eff)
	}
	factor := 1.0
	if opts.Scenario != "" {
		if !opts.Scenario.Valid() {
			return Yield{}, fmt.Errorf("%w: unknown scenario %q", domain.ErrInvalidInput, opts.Scenario)
		}
		factor = opts.Scenario.CaptureFactor()
	}
	dry := opts.drySeason()
	if err := dry.Validate(); err != nil {
		return Yield{}, err
	}

	coef, known := Coefficient(catchment.SurfaceMaterial)
	y := Yield{
		Coefficient:          coef,
		CoefficientKnown:     known,
		CollectionEfficiency: eff,
		CaptureFactor:        factor,
	}

	for i, mm := range rainfall.MonthlyMM {
		v := Runoff(catchment.AreaSqm, mm, coef, eff) * factor
		y.MonthlyLiters[i] = v
		if dry.Contains(time.Month(i + 1)) {
			y.DrySeasonLiters += v
		} else {
			y.WetSeasonLiters += v
		}
	}
	y.AnnualLiters = floats.Sum(y.MonthlyLiters[:])
	if math.IsInf(y.AnnualLiters, 0) {
		return Yield{}, fmt.Errorf("%w: annual yield overflows for area %g m²", domain.ErrInvalidInput, catchment.AreaSqm)
	}

	return y, nil
}
