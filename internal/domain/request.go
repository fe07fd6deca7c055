package domain

import (
	"encoding/json"
	"fmt"
)

// AssessmentRequest is everything one assessment needs. Rainfall may be
// omitted when Location is set and the host can resolve rainfall normals.
type AssessmentRequest struct {
	ID          string           `json:"id,omitempty"`
	Catchment   CatchmentSpec    `json:"catchment"`
	Rainfall    *RainfallProfile `json:"rainfall,omitempty"`
	Location    *Geo             `json:"location,omitempty"`
	Demand      DemandProfile    `json:"demand"`
	Costs       CostParameters   `json:"costs"`
	Recommended Scenario         `json:"recommended,omitempty"` // overrides the default recommended scenario
}

// UnmarshalJSON accepts the recommended scenario in any spelling
// ParseScenario understands and stores its canonical name.
func (r *AssessmentRequest) UnmarshalJSON(data []byte) error {
	type plain AssessmentRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Recommended != "" {
		sc, err := ParseScenario(string(p.Recommended))
		if err != nil {
			return err
		}
		p.Recommended = sc
	}
	*r = AssessmentRequest(p)
	return nil
}

// ParseRequest decodes a JSON assessment request. Structural problems are
// reported as invalid input; value validation happens in Validate.
func ParseRequest(data []byte) (AssessmentRequest, error) {
	var req AssessmentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return AssessmentRequest{}, fmt.Errorf("%w: parse assessment request: %v", ErrInvalidInput, err)
	}
	return req, nil
}

// Validate checks every input of the request. Rainfall must be present by the
// time an assessment runs.
func (r AssessmentRequest) Validate() error {
	if err := r.Catchment.Validate(); err != nil {
		return err
	}
	if r.Rainfall == nil {
		return fmt.Errorf("%w: rainfall profile is required", ErrInvalidInput)
	}
	if err := r.Rainfall.Validate(); err != nil {
		return err
	}
	if err := r.Demand.Validate(); err != nil {
		return err
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			return err
		}
	}
	if r.Recommended != "" {
		if _, err := ParseScenario(string(r.Recommended)); err != nil {
			return err
		}
	}
	return r.Costs.Validate()
}

// NeedsRainfall reports whether rainfall must be resolved from the location.
func (r AssessmentRequest) NeedsRainfall() bool {
	return r.Rainfall == nil && r.Location != nil
}
