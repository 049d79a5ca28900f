package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	audit "tokenscope/pkg/platform/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic      string
	key, value []byte
}

type fakeProducer struct {
	msgs []published
	err  error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key, value []byte) error {
	p.msgs = append(p.msgs, published{topic, key, value})
	return p.err
}

func TestSink_PublishesJSONKeyedBySubject(t *testing.T) {
	producer := &fakeProducer{}
	sink := NewSink(producer, "tokenscope.audit")

	event := audit.Event{
		Category:  audit.CategorySecurity,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Action:    string(audit.EventTokenDeleted),
		Subject:   "6a1c1d38-0000-4000-8000-000000000001",
		ActorID:   "admin-token",
	}
	require.NoError(t, sink.Send(context.Background(), event))

	require.Len(t, producer.msgs, 1)
	msg := producer.msgs[0]
	assert.Equal(t, "tokenscope.audit", msg.topic)
	assert.Equal(t, event.Subject, string(msg.key))

	var decoded audit.Event
	require.NoError(t, json.Unmarshal(msg.value, &decoded))
	assert.Equal(t, event, decoded)
}

func TestSink_PropagatesProducerError(t *testing.T) {
	sink := NewSink(&fakeProducer{err: errors.New("no brokers")}, "t")
	err := sink.Send(context.Background(), audit.Event{Subject: "s"})
	assert.EqualError(t, err, "no brokers")
}
