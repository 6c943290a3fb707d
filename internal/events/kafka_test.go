package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "store-lifecycle-events", logger: zap.NewNop()}

	e1 := New(OrderCreated, "order-1", "user-1", "Pending", map[string]int{"units": 2})
	e2 := New(OrderStatusChanged, "order-1", "user-1", "Canceled", nil)
	require.NoError(t, p.Publish(context.Background(), e1, e2))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "order-1", string(w.msgs[0].Key))
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, string(OrderCreated), string(w.msgs[0].Headers[0].Value))

	var decoded struct {
		ID      string         `json:"id"`
		Type    string         `json:"type"`
		Status  string         `json:"status"`
		Payload map[string]int `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, e1.ID, decoded.ID)
	assert.Equal(t, "order.created", decoded.Type)
	assert.Equal(t, "Pending", decoded.Status)
	assert.Equal(t, 2, decoded.Payload["units"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteFailure(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}, topic: "t", logger: zap.NewNop()}
	err := p.Publish(context.Background(), New(ReturnRequested, "r-1", "u-1", "Pending", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestKafkaPublisher_NothingToPublish(t *testing.T) {
	w := &fakeWriter{err: errors.New("should not be called")}
	p := &KafkaPublisher{writer: w, topic: "t", logger: zap.NewNop()}
	assert.NoError(t, p.Publish(context.Background()))
}

func TestNewKafkaPublisher_WritesAsync(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	p := NewKafkaPublisher([]string{"localhost:9092"}, "store-lifecycle-events", zap.New(observed))
	defer p.Close()

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.True(t, w.Async)
	assert.Equal(t, writeTimeout, w.WriteTimeout)
	require.NotNil(t, w.Completion)

	msg, err := encode(New(OrderCreated, "order-1", "user-1", "Pending", nil))
	require.NoError(t, err)

	w.Completion([]kafka.Message{msg}, nil)
	w.Completion([]kafka.Message{msg, msg}, errors.New("leader not available"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "event published", entries[0].Message)
	assert.Equal(t, "order.created", entries[0].ContextMap()["type"])
	assert.Equal(t, "order-1", entries[0].ContextMap()["aggregate_id"])
	assert.Equal(t, "failed to deliver lifecycle events", entries[1].Message)
	assert.Equal(t, int64(2), entries[1].ContextMap()["count"])
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), New(OrderCreated, "o", "u", "", nil)))
	assert.NoError(t, p.Close())
}
