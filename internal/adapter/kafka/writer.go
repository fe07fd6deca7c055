package kafka

import (
	"context"
	"log/slog"
	"sort"

	"github.com/couchcryptid/rainwater-assessment/internal/config"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces assessment results to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Name identifies the sink in metrics.
func (w *Writer) Name() string { return "kafka" }

// LoadBatch publishes every result in a single WriteMessages call. Results are
// keyed by assessment ID so replays of one request land on one partition.
func (w *Writer) LoadBatch(ctx context.Context, msgs []domain.OutputMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]kafkago.Message, len(msgs))
	for i := range msgs {
		out[i] = toKafkaMessage(msgs[i])
	}
	return w.writer.WriteMessages(ctx, out...)
}

// Close flushes pending writes and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// toKafkaMessage converts an output message, emitting headers in a stable
// order.
func toKafkaMessage(m domain.OutputMessage) kafkago.Message {
	keys := make([]string, 0, len(m.Headers))
	for k := range m.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(m.Headers[k])})
	}
	return kafkago.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: headers,
	}
}
