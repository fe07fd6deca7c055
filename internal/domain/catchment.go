package domain

import (
	"fmt"
	"math"
	"time"
)

// MonthsPerYear is the length of every monthly series in the model.
const MonthsPerYear = 12

// DaysPerMonth is the fixed month length used to expand daily demand.
const DaysPerMonth = 30

// CatchmentSpec describes the roof that collects rain.
type CatchmentSpec struct {
	AreaSqm         float64 `json:"area_sqm"`
	SurfaceMaterial string  `json:"surface_material"`
	Floors          int     `json:"floors,omitempty"` // cost-only: drives downpipe and pumping cost
}

// Validate checks the catchment is usable for a run.
func (c CatchmentSpec) Validate() error {
	if math.IsNaN(c.AreaSqm) || math.IsInf(c.AreaSqm, 0) || c.AreaSqm <= 0 {
		return fmt.Errorf("%w: area_sqm must be a positive number, got %g", ErrInvalidInput, c.AreaSqm)
	}
	if c.Floors < 0 {
		return fmt.Errorf("%w: floors must be at least 1, got %d", ErrInvalidInput, c.Floors)
	}
	return nil
}

// FloorCount returns the floor count with an omitted value treated as a
// single-storey building.
func (c CatchmentSpec) FloorCount() int {
	if c.Floors < 1 {
		return 1
	}
	return c.Floors
}

// RainfallProfile is a 12-month rainfall climatology in millimetres.
type RainfallProfile struct {
	MonthlyMM [MonthsPerYear]float64 `json:"monthly_mm"`
	AnnualMM  float64                `json:"annual_mm"`
}

// Validate rejects negative or non-finite monthly values.
func (r RainfallProfile) Validate() error {
	for i, v := range r.MonthlyMM {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: rainfall for %s must be a non-negative number, got %g",
				ErrInvalidInput, MonthLabel(i), v)
		}
	}
	if r.AnnualMM < 0 {
		return fmt.Errorf("%w: annual_mm must be non-negative, got %g", ErrInvalidInput, r.AnnualMM)
	}
	return nil
}

// Reconcile returns a copy whose AnnualMM equals the sum of the monthly values.
// Upstream sources occasionally report an annual figure from a different
// averaging period; the monthly series is authoritative.
func (r RainfallProfile) Reconcile() RainfallProfile {
	var sum float64
	for _, v := range r.MonthlyMM {
		sum += v
	}
	r.AnnualMM = sum
	return r
}

// DemandProfile is the household water demand.
type DemandProfile struct {
	DailyLiters float64 `json:"daily_liters"`
}

// Validate requires a strictly positive daily demand. A vanishing demand would
// otherwise make every tank look perfectly reliable.
func (d DemandProfile) Validate() error {
	if math.IsNaN(d.DailyLiters) || math.IsInf(d.DailyLiters, 0) || d.DailyLiters <= 0 {
		return fmt.Errorf("%w: daily_liters must be positive, got %g", ErrInvalidInput, d.DailyLiters)
	}
	if math.IsInf(d.MonthlyLiters(), 0) {
		return fmt.Errorf("%w: daily_liters too large: %g", ErrInvalidInput, d.DailyLiters)
	}
	return nil
}

// MonthlyLiters expands the daily figure to a 30-day month.
func (d DemandProfile) MonthlyLiters() float64 {
	return d.DailyLiters * DaysPerMonth
}

// Geo is a WGS-84 coordinate used to look up rainfall normals.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the coordinate is on the globe.
func (g Geo) Validate() error {
	if math.IsNaN(g.Lat) || g.Lat < -90 || g.Lat > 90 {
		return fmt.Errorf("%w: latitude out of range: %g", ErrInvalidInput, g.Lat)
	}
	if math.IsNaN(g.Lon) || g.Lon < -180 || g.Lon > 180 {
		return fmt.Errorf("%w: longitude out of range: %g", ErrInvalidInput, g.Lon)
	}
	return nil
}

// Season is an ordered run of calendar months.
type Season []time.Month

// DefaultDrySeason is October through March.
var DefaultDrySeason = Season{
	time.October, time.November, time.December,
	time.January, time.February, time.March,
}

// Contains reports whether m falls in the season.
func (s Season) Contains(m time.Month) bool {
	for _, sm := range s {
		if sm == m {
			return true
		}
	}
	return false
}

// Indexes returns the zero-based month indexes of the season, in season order.
func (s Season) Indexes() []int {
	idx := make([]int, len(s))
	for i, m := range s {
		idx[i] = int(m) - 1
	}
	return idx
}

// Validate rejects empty seasons, out-of-range months and duplicates.
func (s Season) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: season must contain at least one month", ErrInvalidInput)
	}
	seen := make(map[time.Month]bool, len(s))
	for _, m := range s {
		if m < time.January || m > time.December {
			return fmt.Errorf("%w: invalid month %d in season", ErrInvalidInput, int(m))
		}
		if seen[m] {
			return fmt.Errorf("%w: month %s repeated in season", ErrInvalidInput, m)
		}
		seen[m] = true
	}
	return nil
}

// MonthLabel returns the three-letter label for a zero-based month index.
func MonthLabel(i int) string {
	return time.Month(i + 1).String()[:3]
}
