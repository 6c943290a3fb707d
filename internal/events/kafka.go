package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	writeTimeout = 10 * time.Second
	batchTimeout = 50 * time.Millisecond
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages to one topic. The writer runs
// in async mode: Publish only enqueues, and delivery failures are logged by
// the writer's completion hook.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &KafkaPublisher{topic: topic, logger: logger}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		Async:        true,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		Completion:   p.delivered,
	}
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msg, err := encode(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d event(s) to %s: %w", len(msgs), p.topic, err)
	}
	return nil
}

// delivered is the async writer's completion hook.
func (p *KafkaPublisher) delivered(msgs []kafka.Message, err error) {
	if err != nil {
		p.logger.Error("failed to deliver lifecycle events",
			zap.String("topic", p.topic),
			zap.Int("count", len(msgs)),
			zap.Error(err),
		)
		return
	}
	for _, m := range msgs {
		p.logger.Debug("event published",
			zap.String("type", eventType(m)),
			zap.String("aggregate_id", string(m.Key)),
		)
	}
}

func (p *KafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}

func encode(e Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event %s: %w", e.Type, err)
	}
	return kafka.Message{
		Key:   []byte(e.AggregateID),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}, nil
}
