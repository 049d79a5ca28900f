// Package kafka forwards audit events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	audit "tokenscope/pkg/platform/audit"
)

// Producer is the subset of internal/platform/kafka.Producer the sink needs.
type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Sink publishes each event as JSON keyed by its subject, so every event for
// one token lands on the same partition in order.
type Sink struct {
	producer Producer
	topic    string
}

func NewSink(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

func (s *Sink) Send(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.producer.Publish(ctx, s.topic, []byte(event.Subject), value)
}
