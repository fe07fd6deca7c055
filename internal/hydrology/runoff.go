// Package hydrology converts rainfall on a roof into collectable volumes.
package hydrology

import "strings"

// DefaultCoefficient is used for surface materials missing from the table.
// It sits between tile and concrete so an unrecognised roof is neither
// flattered nor penalised.
const DefaultCoefficient = 0.80

// FirstFlushLossFraction is the share of collectable water diverted by a
// first-flush device before it reaches the tank. Zero by default; deployments
// that size a diverter set it through EffectiveEfficiency.
const FirstFlushLossFraction = 0.0

// Collection efficiencies found in the wider platform. They disagree, so
// neither is applied implicitly: the configured efficiency defaults to 1.
const (
	CollectionEfficiencyFiltered = 0.90
	CollectionEfficiencyLegacy   = 0.85
)

// coefficients maps normalised surface tags to runoff coefficients.
var coefficients = map[string]float64{
	"metal":      0.90,
	"galvanized": 0.90,
	"plastic":    0.90,
	"concrete":   0.85,
	"asphalt":    0.85,
	"slate":      0.80,
	"tile":       0.75,
	"clay_tile":  0.75,
	"gravel":     0.70,
	"green_roof": 0.45,
	"thatch":     0.30,
}

// Coefficient returns the runoff coefficient for a surface material tag and
// whether the tag was recognised. Unknown tags fall back to DefaultCoefficient.
func Coefficient(material string) (float64, bool) {
	c, ok := coefficients[normalizeMaterial(material)]
	if !ok {
		return DefaultCoefficient, false
	}
	return c, true
}

// normalizeMaterial lower-cases and snake-cases a tag: "Clay Tile" -> "clay_tile".
func normalizeMaterial(material string) string {
	m := strings.ToLower(strings.TrimSpace(material))
	m = strings.ReplaceAll(m, "-", "_")
	return strings.Join(strings.Fields(m), "_")
}

// Runoff applies the Rational Method: one millimetre over one square metre is
// one litre, scaled by the surface coefficient and the collection efficiency.
// Negative rainfall contributes nothing.
func Runoff(areaSqm, rainfallMM, coefficient, efficiency float64) float64 {
	if rainfallMM <= 0 || areaSqm <= 0 {
		return 0
	}
	return areaSqm * rainfallMM * coefficient * efficiency
}

// EffectiveEfficiency combines a filtration efficiency with a first-flush
// diversion fraction into a single collection efficiency.
func EffectiveEfficiency(filtration, firstFlushLoss float64) float64 {
	return filtration * (1 - firstFlushLoss)
}
