// Package domain models rooftop rainwater-harvesting assessments.
//
// # Units
//
// Rainfall is in millimetres, areas in square metres and volumes in litres.
// One millimetre of rain falling on one square metre is one litre, so the
// Rational Method volume for a month is simply:
//
//	volume_L = area_m2 × rainfall_mm × runoff_coefficient × collection_efficiency
//
// Monetary amounts are in the platform base currency. Water tariffs and CO2
// factors are quoted per kilolitre (1 kL = 1,000 L).
//
// # Calendar Conventions
//
// Monthly arrays are indexed January = 0 through December = 11. Demand is
// expanded to a fixed 30-day month ([DaysPerMonth]) regardless of calendar
// length; the balance is a planning model, not a daily simulation.
//
// The dry season is a climate-specific policy, expressed as an ordered
// [Season]. The default ([DefaultDrySeason]) is October through March, which
// suits monsoon climates where the wet season runs April–September. Other
// regions override it via configuration.
//
// # Scenarios
//
// Three sizing policies share the same simulation machinery:
//
//	cost_optimized  smallest tank reaching the reliability target (default 80%)
//	max_capture     smallest tank holding ≥30% of annual yield
//	dry_season      smallest tank reaching the target over the dry-season window
//
// Each scenario also applies a capture-efficiency factor to the yield series
// (0.8, 1.0 and 0.9 respectively). The factor is a design policy that models
// how aggressively gutters, filters and overflow routing are specified, not a
// physical loss.
//
// # Outcome Flags
//
// Only malformed input is an error (wrapping [ErrInvalidInput]). An optimizer
// that cannot reach its target within the candidate grid returns its largest
// candidate with TargetMet=false, and a catchment with zero annual yield
// returns the minimum practical capacity with Degenerate=true and reliability
// 0. Callers decide how to surface those flags.
package domain
