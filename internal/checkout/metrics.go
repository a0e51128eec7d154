package checkout

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/storefront/internal/pricing"
)

const (
	outcomeCompleted       = "completed"
	outcomeEmpty           = "empty_cart"
	outcomeProductNotFound = "product_not_found"
	outcomeFailed          = "failed"
)

type metrics struct {
	attempts metric.Int64Counter
	totals   metric.Float64Histogram
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter("storefront/checkout")

	attempts, err := meter.Int64Counter("storefront.checkout.attempts",
		metric.WithDescription("Checkout commits by outcome"),
	)
	if err != nil {
		return nil, err
	}

	totals, err := meter.Float64Histogram("storefront.order.total",
		metric.WithDescription("Total value of placed orders"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{attempts: attempts, totals: totals}, nil
}

func (m *metrics) recordOutcome(ctx context.Context, outcome string) {
	m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *metrics) recordTotal(ctx context.Context, total decimal.Decimal) {
	m.totals.Record(ctx, total.InexactFloat64())
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return outcomeEmpty
	case errors.Is(err, pricing.ErrProductNotFound):
		return outcomeProductNotFound
	default:
		return outcomeFailed
	}
}
