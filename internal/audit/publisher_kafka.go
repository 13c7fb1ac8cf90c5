package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaStream publishes audit records to a Kafka topic for offline
// consumers. Produces are asynchronous and best-effort: a broker outage
// must not slow down or fail the decision path.
type KafkaStream struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaStream connects a producer to the given brokers.
func NewKafkaStream(brokers []string, topic string, logger *slog.Logger) (*KafkaStream, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaStream{client: client, topic: topic, logger: logger}, nil
}

func (s *KafkaStream) PublishDecision(ctx context.Context, rec DecisionRecord) {
	s.publish(ctx, "decision", rec.ApplicantHash, rec)
}

func (s *KafkaStream) PublishParameterChange(ctx context.Context, rec ParameterChange) {
	s.publish(ctx, "parameter_change", rec.ParamKey, rec)
}

func (s *KafkaStream) publish(ctx context.Context, kind, key string, payload any) {
	value, err := json.Marshal(payload)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "audit stream marshal failed", "kind", kind, "error", err)
		}
		return
	}

	record := &kgo.Record{
		Key:     []byte(key),
		Value:   value,
		Headers: []kgo.RecordHeader{{Key: "kind", Value: []byte(kind)}},
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "audit stream publish failed", "kind", kind, "error", err)
		}
	})
}

// Close flushes pending produces and releases the client.
func (s *KafkaStream) Close() {
	s.client.Close()
}
