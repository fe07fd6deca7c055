package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
)

// NamedLoader is a BatchLoader that identifies itself in metrics.
type NamedLoader interface {
	BatchLoader
	Name() string
}

// FanOutLoader writes each batch to a primary sink and any number of
// secondary sinks. Only a primary failure fails the batch, so offsets are
// committed once the result topic has the data; secondary failures are
// logged and counted.
type FanOutLoader struct {
	primary     NamedLoader
	secondaries []NamedLoader
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewFanOutLoader creates a loader writing to primary and then each secondary.
func NewFanOutLoader(primary NamedLoader, metrics *observability.Metrics, logger *slog.Logger, secondaries ...NamedLoader) *FanOutLoader {
	return &FanOutLoader{
		primary:     primary,
		secondaries: secondaries,
		metrics:     metrics,
		logger:      logger,
	}
}

func (f *FanOutLoader) LoadBatch(ctx context.Context, msgs []domain.OutputMessage) error {
	if err := f.primary.LoadBatch(ctx, msgs); err != nil {
		f.metrics.SinkWrites.WithLabelValues(f.primary.Name(), "error").Inc()
		return err
	}
	f.metrics.SinkWrites.WithLabelValues(f.primary.Name(), "success").Inc()

	for _, s := range f.secondaries {
		if err := s.LoadBatch(ctx, msgs); err != nil {
			f.metrics.SinkWrites.WithLabelValues(s.Name(), "error").Inc()
			f.logger.Warn("secondary sink write failed", "sink", s.Name(), "error", err, "batch_size", len(msgs))
			continue
		}
		f.metrics.SinkWrites.WithLabelValues(s.Name(), "success").Inc()
	}
	return nil
}
