package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/config"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageFetcher is the subset of *kafkago.Reader used by Reader.
type messageFetcher interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Reader consumes assessment requests from the source topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader        messageFetcher
	logger        *slog.Logger
	flushInterval time.Duration
}

// NewReader creates a consumer-group reader for the configured source topic.
// Offsets are committed explicitly per message once its result is loaded.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		GroupID:     cfg.KafkaGroupID,
		Topic:       cfg.KafkaSourceTopic,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return &Reader{reader: r, logger: logger, flushInterval: cfg.BatchFlushInterval}
}

// ExtractBatch blocks for the first message, then keeps collecting until
// batchSize messages arrive or the flush interval elapses. A cancelled
// context with nothing collected returns the context error.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error) {
	if batchSize <= 0 {
		batchSize = 1
	}

	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := make([]domain.RawMessage, 0, batchSize)
	batch = append(batch, r.toRaw(first))

	if len(batch) == batchSize {
		return batch, nil
	}

	flushCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	for len(batch) < batchSize {
		msg, err := r.reader.FetchMessage(flushCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			r.logger.Warn("fetch failed mid-batch, flushing partial batch", "error", err, "collected", len(batch))
			break
		}
		batch = append(batch, r.toRaw(msg))
	}
	return batch, nil
}

// Close closes the underlying consumer.
func (r *Reader) Close() error {
	return r.reader.Close()
}

func (r *Reader) toRaw(msg kafkago.Message) domain.RawMessage {
	raw := mapMessageToRaw(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw
}

// mapMessageToRaw copies a Kafka message into the domain representation.
func mapMessageToRaw(msg kafkago.Message) domain.RawMessage {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawMessage{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
