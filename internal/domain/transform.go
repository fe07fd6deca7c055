package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// OutputMessage is a finished assessment ready for the sinks: the serialized
// result for the message bus plus the structured result for metric stores.
type OutputMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
	Result  AssessmentResult
}

// Output header names.
const (
	HeaderRecommendedScenario = "recommended_scenario"
	HeaderProcessedAt         = "processed_at"
	HeaderRainfallSource      = "rainfall_source"
)

// ParseRawMessage decodes a request from the source topic. A request without
// an ID inherits the message key so replies correlate with the producer's key.
func ParseRawMessage(raw RawMessage) (AssessmentRequest, error) {
	req, err := ParseRequest(raw.Value)
	if err != nil {
		return AssessmentRequest{}, err
	}
	if req.ID == "" && len(raw.Key) > 0 {
		req.ID = string(raw.Key)
	}
	return req, nil
}

// StampResult sets ProcessedAt from the package clock, in UTC.
func StampResult(r AssessmentResult) AssessmentResult {
	r.ProcessedAt = clock.Now().UTC()
	return r
}

// NewOutputMessage serializes a stamped result keyed by its ID.
func NewOutputMessage(r AssessmentResult) (OutputMessage, error) {
	value, err := json.Marshal(r)
	if err != nil {
		return OutputMessage{}, fmt.Errorf("serialize assessment %s: %w", r.ID, err)
	}
	headers := map[string]string{
		HeaderRecommendedScenario: string(r.Recommended),
		HeaderProcessedAt:         r.ProcessedAt.Format(time.RFC3339),
	}
	if r.RainfallSource != "" {
		headers[HeaderRainfallSource] = r.RainfallSource
	}
	return OutputMessage{
		Key:     []byte(r.ID),
		Value:   value,
		Headers: headers,
		Result:  r,
	}, nil
}
