package monitor

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"lendgate/internal/monitor/metrics"
)

// decisionEvent is the slice of the audit stream payload the monitor
// reads. Unknown fields are ignored.
type decisionEvent struct {
	Score    int    `json:"score"`
	Decision string `json:"decision"`
}

// Consumer tails the audit decision stream and feeds scores into the
// drift monitor.
type Consumer struct {
	client  *kgo.Client
	monitor *Monitor
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewConsumer joins the given consumer group on the audit topic.
func NewConsumer(brokers []string, topic, group string, m *Monitor, logger *slog.Logger, mx *metrics.Metrics) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{client: client, monitor: m, logger: logger, metrics: mx}, nil
}

// Run polls until the context is cancelled. Poll errors are logged and
// retried; the monitor is an observer and must not crash the process.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()
	for {
		fetches := c.client.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.WarnContext(ctx, "audit stream fetch error",
				slog.String("topic", topic),
				slog.Int("partition", int(partition)),
				slog.Any("error", err))
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			c.consume(ctx, rec)
		})
	}
}

func (c *Consumer) consume(ctx context.Context, rec *kgo.Record) {
	if kindOf(rec) != "decision" {
		return
	}
	var ev decisionEvent
	if err := json.Unmarshal(rec.Value, &ev); err != nil {
		if c.metrics != nil {
			c.metrics.DecodeFailures.Inc()
		}
		c.logger.WarnContext(ctx, "audit stream decode failed", slog.Any("error", err))
		return
	}
	if c.metrics != nil {
		c.metrics.RecordsConsumed.Inc()
	}
	c.monitor.Observe(ctx, ev.Score)
}

func kindOf(rec *kgo.Record) string {
	for _, h := range rec.Headers {
		if h.Key == "kind" {
			return string(h.Value)
		}
	}
	return ""
}
