package domain

import (
	"fmt"
	"strings"
)

// Scenario names a storage sizing policy.
type Scenario string

const (
	ScenarioCostOptimized Scenario = "cost_optimized"
	ScenarioMaxCapture    Scenario = "max_capture"
	ScenarioDrySeason     Scenario = "dry_season"
)

// Scenarios returns every scenario in reporting order.
func Scenarios() []Scenario {
	return []Scenario{ScenarioCostOptimized, ScenarioMaxCapture, ScenarioDrySeason}
}

// ParseScenario accepts the canonical names, ignoring case and surrounding
// whitespace. Hyphenated spellings ("cost-optimized") are accepted too.
func ParseScenario(s string) (Scenario, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch Scenario(norm) {
	case ScenarioCostOptimized, ScenarioMaxCapture, ScenarioDrySeason:
		return Scenario(norm), nil
	default:
		return "", fmt.Errorf("%w: unknown scenario %q", ErrInvalidInput, s)
	}
}

// Valid reports whether s is one of the known scenarios.
func (s Scenario) Valid() bool {
	switch s {
	case ScenarioCostOptimized, ScenarioMaxCapture, ScenarioDrySeason:
		return true
	default:
		return false
	}
}

// CaptureFactor is the design capture-efficiency multiplier applied to the
// yield series for the scenario. Unknown scenarios return 1.
func (s Scenario) CaptureFactor() float64 {
	switch s {
	case ScenarioCostOptimized:
		return 0.8
	case ScenarioDrySeason:
		return 0.9
	default:
		return 1.0
	}
}
