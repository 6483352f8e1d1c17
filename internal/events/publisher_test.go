package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   int
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed++
	return nil
}

func TestKafkaPublisherWritesEnvelope(t *testing.T) {
	orders, batches := &recordingWriter{}, &recordingWriter{}
	pub := NewKafkaPublisher(orders, batches)

	require.NoError(t, pub.PublishOrder(context.Background(), constants.EventOrderCreated, "GV1", map[string]interface{}{"total": "800.00"}))
	require.NoError(t, pub.PublishBatch(context.Background(), constants.EventBatchFilled, 9, map[string]interface{}{"status": "payment_collection"}))

	require.Len(t, orders.messages, 1)
	assert.Equal(t, "GV1", string(orders.messages[0].Key))
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(orders.messages[0].Value, &env))
	assert.Equal(t, constants.EventOrderCreated, env["type"])
	assert.Equal(t, "800.00", env["data"].(map[string]interface{})["total"])

	require.Len(t, batches.messages, 1)
	assert.Equal(t, "batch-9", string(batches.messages[0].Key))
	assert.Equal(t, constants.EventBatchFilled, string(batches.messages[0].Headers[0].Value))

	require.NoError(t, pub.Close())
	require.NoError(t, pub.Close())
	assert.Equal(t, 1, orders.closed)
}

func TestKafkaPublisherReturnsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	pub := NewKafkaPublisher(&recordingWriter{err: boom}, &recordingWriter{})
	assert.ErrorIs(t, pub.PublishOrder(context.Background(), constants.EventOrderCreated, "GV1", nil), boom)
}

func TestNewPublisherDisabled(t *testing.T) {
	pub := NewPublisher(&config.KafkaConfig{Enabled: false})
	assert.False(t, pub.Enabled())
	assert.NoError(t, pub.PublishOrder(context.Background(), "x", "y", nil))
}
