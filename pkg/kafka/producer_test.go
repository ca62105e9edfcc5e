package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	writer := &fakeWriter{}
	p := newProducer(writer, "fern.autolink", ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {}))

	err := p.Publish(context.Background(), "p1", "provider.created", map[string]string{"name": "Acme"})
	require.NoError(t, err)

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "fern.autolink", msg.Topic)
	assert.Equal(t, []byte("p1"), msg.Key)
	assert.Equal(t, []kafka.Header{
		{Key: "event_type", Value: []byte("provider.created")},
		{Key: "schema_version", Value: []byte(SchemaVersion)},
	}, msg.Headers)

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "Acme", body["name"])

	require.NoError(t, p.Close())
	assert.True(t, writer.closed)
}

func TestProducer_PublishErrors(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	t.Run("writer failure", func(t *testing.T) {
		p := newProducer(&fakeWriter{err: errors.New("broker down")}, "t", logger)
		assert.EqualError(t, p.Publish(context.Background(), "k", "e", struct{}{}), "broker down")
	})

	t.Run("unencodable event", func(t *testing.T) {
		writer := &fakeWriter{}
		p := newProducer(writer, "t", logger)
		assert.Error(t, p.Publish(context.Background(), "k", "e", make(chan int)))
		assert.Empty(t, writer.messages)
	})
}
