// Package notify sends order confirmation emails for placed orders.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
)

type OrderPlacedHandler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewOrderPlacedHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *OrderPlacedHandler {
	return &OrderPlacedHandler{
		emailServiceURL: strings.TrimRight(emailServiceURL, "/"),
		httpClient:      client,
		logger:          logger,
	}
}

type email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Handle consumes one order placed event. Malformed events are discarded;
// delivery failures are returned so the message is retried.
func (h *OrderPlacedHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w: %w", messaging.ErrDiscard, err)
	}
	if event.OrderID == "" || event.Email == "" {
		return fmt.Errorf("order placed event missing order id or email: %w", messaging.ErrDiscard)
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "user_id", event.UserID)

	if err := h.sendEmail(ctx, confirmationEmail(event)); err != nil {
		h.logger.Error("failed to send confirmation email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("confirmation email sent", "order_id", event.OrderID)
	return nil
}

func confirmationEmail(event domain.OrderPlacedEvent) email {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order %s.\n\n", event.Username, event.OrderID)
	for _, item := range event.Items {
		fmt.Fprintf(&b, "  %d x %s @ %s = %s\n",
			item.Quantity, item.ProductName, item.UnitPrice.StringFixed(2), item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", event.Total.StringFixed(2))

	return email{
		To:      event.Email,
		Subject: "Order Confirmation: " + event.OrderID,
		Body:    b.String(),
	}
}

func (h *OrderPlacedHandler) sendEmail(ctx context.Context, msg email) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
