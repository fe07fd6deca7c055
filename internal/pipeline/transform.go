package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/assessment"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
)

// Error reasons used as metric labels.
const (
	ReasonInvalidInput        = "invalid_input"
	ReasonRainfallUnavailable = "rainfall_unavailable"
	ReasonInternal            = "internal"
)

// ErrorReason classifies an assessment failure for metrics and logs.
func ErrorReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrRainfallUnavailable):
		return ReasonRainfallUnavailable
	case errors.Is(err, domain.ErrInvalidInput):
		return ReasonInvalidInput
	default:
		return ReasonInternal
	}
}

// Assessor runs assessments for every request surface: it resolves missing
// rainfall, runs the core and stamps the result. It is safe for concurrent use.
type Assessor struct {
	rainfall domain.RainfallSource
	opts     assessment.Options
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewAssessor creates an Assessor. Pass a nil rainfall source to require
// inline rainfall on every request.
func NewAssessor(rainfall domain.RainfallSource, opts assessment.Options, metrics *observability.Metrics, logger *slog.Logger) *Assessor {
	return &Assessor{
		rainfall: rainfall,
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
	}
}

// Assess runs one request. source labels the request surface in metrics
// ("kafka" or "http").
func (a *Assessor) Assess(ctx context.Context, req domain.AssessmentRequest, source string) (domain.AssessmentResult, error) {
	start := time.Now()

	req, rainfallSource, err := domain.ResolveRainfall(ctx, req, a.rainfall, a.logger)
	if err != nil {
		a.metrics.AssessmentErrors.WithLabelValues(ErrorReason(err)).Inc()
		return domain.AssessmentResult{}, err
	}

	result, err := assessment.Run(req, a.opts)
	if err != nil {
		a.metrics.AssessmentErrors.WithLabelValues(ErrorReason(err)).Inc()
		return domain.AssessmentResult{}, err
	}
	if rainfallSource != "" {
		result.RainfallSource = rainfallSource
	}
	result = domain.StampResult(result)

	a.observe(result, source)
	a.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
	return result, nil
}

func (a *Assessor) observe(r domain.AssessmentResult, source string) {
	a.metrics.Assessments.WithLabelValues(source).Inc()

	degenerate := false
	for _, sc := range r.Scenarios {
		if sc.Tank.Degenerate {
			degenerate = true
			continue
		}
		if !sc.Tank.TargetMet {
			a.metrics.OptimizationUnmet.WithLabelValues(string(sc.Scenario)).Inc()
		}
	}
	if degenerate {
		a.metrics.DegenerateYield.Inc()
		a.logger.Warn("catchment has zero annual yield", "assessment_id", r.ID)
	}
	if rec, ok := r.RecommendedResult(); ok {
		a.metrics.RecommendedTank.Observe(float64(rec.Tank.CapacityLiters))
		a.logger.Debug("assessment complete",
			"assessment_id", r.ID,
			"source", source,
			"recommended", r.Recommended,
			"tank_liters", rec.Tank.CapacityLiters,
			"target_met", rec.Tank.TargetMet,
		)
	}
}

// AssessmentTransformer implements Transformer for messages from the source topic.
type AssessmentTransformer struct {
	assessor *Assessor
}

// NewTransformer creates a transformer backed by the given Assessor.
func NewTransformer(assessor *Assessor) *AssessmentTransformer {
	return &AssessmentTransformer{assessor: assessor}
}

func (t *AssessmentTransformer) Transform(ctx context.Context, raw domain.RawMessage) (domain.OutputMessage, error) {
	req, err := domain.ParseRawMessage(raw)
	if err != nil {
		t.assessor.metrics.AssessmentErrors.WithLabelValues(ReasonInvalidInput).Inc()
		return domain.OutputMessage{}, err
	}

	result, err := t.assessor.Assess(ctx, req, "kafka")
	if err != nil {
		return domain.OutputMessage{}, err
	}
	return domain.NewOutputMessage(result)
}
