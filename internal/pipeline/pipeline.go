package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
)

// BatchExtractor reads up to batchSize assessment requests from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// Transformer assesses one raw request and produces its output message.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawMessage) (domain.OutputMessage, error)
}

// BatchLoader writes finished assessments to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, msgs []domain.OutputMessage) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline runs the extract-assess-load loop. A request that cannot be
// assessed is committed and skipped. A batch whose results fail to load is
// retried until it loads or the context ends, and nothing in it is committed
// before that.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline has delivered a result.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not delivered any assessments yet")
	}
	return nil
}

// Ready reports whether at least one batch has been loaded.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// assessedBatch pairs each produced result with the request it came from, so
// offsets are committed only for delivered results.
type assessedBatch struct {
	results []domain.OutputMessage
	sources []domain.RawMessage
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	extractRetry := newRetry(initialBackoff, maxBackoff)
	for ctx.Err() == nil {
		start := time.Now()

		raws, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("extract batch failed", "error", err)
			if !extractRetry.wait(ctx) {
				break
			}
			continue
		}
		extractRetry.reset()
		if len(raws) == 0 {
			continue
		}
		p.metrics.MessagesConsumed.Add(float64(len(raws)))
		p.metrics.BatchSize.Observe(float64(len(raws)))

		batch, ok := p.assess(ctx, raws)
		if !ok {
			break
		}
		if len(batch.results) == 0 {
			continue
		}
		if !p.deliver(ctx, batch.results) {
			break
		}
		p.commit(ctx, batch.sources)

		p.metrics.MessagesProduced.Add(float64(len(batch.results)))
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}

	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// assess transforms every request in the batch. Failed requests are
// committed immediately; returns false if the context ended mid-batch.
func (p *Pipeline) assess(ctx context.Context, raws []domain.RawMessage) (assessedBatch, bool) {
	batch := assessedBatch{
		results: make([]domain.OutputMessage, 0, len(raws)),
		sources: make([]domain.RawMessage, 0, len(raws)),
	}
	for _, raw := range raws {
		out, err := p.transformer.Transform(ctx, raw)
		if err == nil {
			batch.results = append(batch.results, out)
			batch.sources = append(batch.sources, raw)
			continue
		}
		if ctx.Err() != nil {
			return assessedBatch{}, false
		}
		reason := ErrorReason(err)
		p.metrics.MessagesSkipped.WithLabelValues(reason).Inc()
		p.logger.Warn("assessment failed, skipping message",
			"error", err,
			"reason", reason,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		p.commit(ctx, []domain.RawMessage{raw})
	}
	return batch, true
}

// deliver loads the results, retrying with backoff until the loader accepts
// them. Returns false if the context ended first.
func (p *Pipeline) deliver(ctx context.Context, results []domain.OutputMessage) bool {
	r := newRetry(initialBackoff, maxBackoff)
	for {
		err := p.loader.LoadBatch(ctx, results)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.metrics.LoadRetries.Inc()
		p.logger.Error("load batch failed, retrying",
			"error", err,
			"batch_size", len(results),
			"attempt", r.attempts+1,
			"backoff", r.current,
		)
		if !r.wait(ctx) {
			return false
		}
	}
}

func (p *Pipeline) commit(ctx context.Context, raws []domain.RawMessage) {
	for _, raw := range raws {
		if raw.Commit == nil {
			continue
		}
		if err := raw.Commit(ctx); err != nil {
			p.logger.Warn("commit offset failed", "error", err,
				"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
		}
	}
}

// retry is a doubling backoff capped at a maximum.
type retry struct {
	initial  time.Duration
	max      time.Duration
	current  time.Duration
	attempts int
}

func newRetry(initial, maxDelay time.Duration) *retry {
	return &retry{initial: initial, max: maxDelay, current: initial}
}

// wait sleeps for the current delay and doubles it. Returns false if the
// context ended during the sleep.
func (r *retry) wait(ctx context.Context) bool {
	timer := time.NewTimer(r.current)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	r.attempts++
	r.current = min(r.current*2, r.max)
	return true
}

func (r *retry) reset() {
	r.current = r.initial
	r.attempts = 0
}
