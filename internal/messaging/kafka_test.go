//go:build integration

package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/testutil"
)

func TestKafkaRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	brokers, cleanup := testutil.SetupKafka(ctx, t)
	defer cleanup()

	producer := NewProducer(brokers, "order.placed", discardLogger, WithBreakerTimeout(time.Second))
	defer func() { _ = producer.Close() }()

	require.Eventually(t, func() bool {
		return producer.Publish(ctx, "order-1", map[string]string{"order_id": "order-1"}) == nil
	}, 30*time.Second, time.Second)

	consumer := NewConsumer(brokers, "order.placed", "test-group", discardLogger, WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	consumeCtx, stop := context.WithTimeout(ctx, 30*time.Second)
	defer stop()

	var got []byte
	err := consumer.Consume(consumeCtx, func(_ context.Context, payload []byte) error {
		got = payload
		stop()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.JSONEq(t, `{"order_id":"order-1"}`, string(got))
}
