package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
)

func newHandler(url string) *OrderPlacedHandler {
	return NewOrderPlacedHandler(url, &http.Client{Timeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func placedEvent() []byte {
	event := domain.OrderPlacedEvent{
		OrderID:  "order-1",
		UserID:   "user-1",
		Username: "ada",
		Email:    "ada@example.com",
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: "Blue Widget", Quantity: 2, UnitPrice: decimal.RequireFromString("25.00")},
		},
		Total:     decimal.RequireFromString("50.00"),
		Timestamp: time.Now(),
	}
	data, _ := json.Marshal(event)
	return data
}

func TestHandle_SendsConfirmation(t *testing.T) {
	var got email
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newHandler(srv.URL+"/").Handle(context.Background(), placedEvent())
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", got.To)
	assert.Equal(t, "Order Confirmation: order-1", got.Subject)
	assert.Contains(t, got.Body, "2 x Blue Widget @ 25.00 = 50.00")
	assert.Contains(t, got.Body, "Total: 50.00")
}

func TestHandle_EmailServiceFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newHandler(srv.URL).Handle(context.Background(), placedEvent())
	require.Error(t, err)
	assert.NotErrorIs(t, err, messaging.ErrDiscard)
}

func TestHandle_MalformedEventsAreDiscarded(t *testing.T) {
	h := newHandler("http://unused.invalid")

	for _, payload := range []string{`not json`, `{"order_id":""}`, `{"order_id":"o","email":""}`} {
		err := h.Handle(context.Background(), []byte(payload))
		assert.ErrorIs(t, err, messaging.ErrDiscard, payload)
	}
}
