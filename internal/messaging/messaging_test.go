package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	return msg, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func TestHeaderCarrier(t *testing.T) {
	msg := &kafka.Message{}
	c := headerCarrier{msg: msg}

	c.Set("traceparent", "a")
	c.Set("baggage", "b")
	c.Set("Traceparent", "c")

	assert.Equal(t, "c", c.Get("traceparent"))
	assert.Equal(t, "c", c.Get("TRACEPARENT"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, c.Keys())
	assert.Len(t, msg.Headers, 2)
}

func TestProducer_PublishPropagatesTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, parent := tp.Tracer("test").Start(context.Background(), "checkout")
	defer parent.End()

	w := &fakeWriter{}
	p := newProducer(w, "order.placed", discardLogger)

	require.NoError(t, p.Publish(ctx, "order-1", map[string]string{"order_id": "order-1"}))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order-1", string(w.msgs[0].Key))
	assert.JSONEq(t, `{"order_id":"order-1"}`, string(w.msgs[0].Value))

	var seen oteltrace.SpanContext
	r := &fakeReader{msgs: w.msgs}
	consumer := &Consumer{reader: r, topic: "order.placed", groupID: "g", logger: discardLogger}
	err := consumer.Consume(context.Background(), func(ctx context.Context, _ []byte) error {
		seen = oteltrace.SpanContextFromContext(ctx)
		return nil
	})
	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, parent.SpanContext().TraceID(), seen.TraceID())
}

func TestProducer_BreakerOpensAfterFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("connection refused")}
	p := newProducer(w, "order.placed", discardLogger, WithBreakerTimeout(time.Minute))

	for i := range 5 {
		err := p.Publish(context.Background(), fmt.Sprint(i), "x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBrokerUnavailable)
	}

	err := p.Publish(context.Background(), "6", "x")
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
}

func TestConsumer_DiscardedMessagesAreCommitted(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte("bad")},
		{Offset: 2, Value: []byte("good")},
	}}
	c := &Consumer{reader: r, topic: "t", groupID: "g", logger: discardLogger}

	var handled []string
	err := c.Consume(context.Background(), func(_ context.Context, payload []byte) error {
		if string(payload) == "bad" {
			return fmt.Errorf("decode: %w", ErrDiscard)
		}
		handled = append(handled, string(payload))
		return nil
	})

	require.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"good"}, handled)
	assert.Equal(t, []int64{1, 2}, r.committed)
}

func TestConsumer_StopsWithoutCommitOnFailure(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Offset: 7}}}
	c := &Consumer{reader: r, topic: "t", groupID: "g", logger: discardLogger}
	boom := errors.New("email service down")

	err := c.Consume(context.Background(), func(context.Context, []byte) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, r.committed)
}
