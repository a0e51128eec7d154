package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/pricing"
)

var ErrEmptyCart = errors.New("cart is empty")

var tracer = otel.Tracer("storefront/checkout")

type Carts interface {
	Get(ctx context.Context, sessionID string) (domain.Cart, error)
	Clear(ctx context.Context, sessionID string) (domain.Cart, error)
	Restore(ctx context.Context, sessionID string, c domain.Cart) error
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order, finalize func(context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Customer is the authenticated user placing the order.
type Customer struct {
	UserID   string
	Username string
	Email    string
}

type Preview struct {
	Status Status            `json:"status"`
	Lines  []domain.CartLine `json:"lines"`
	Total  string            `json:"total"`
}

type Confirmation struct {
	OrderID   string            `json:"order_id"`
	Status    Status            `json:"status"`
	Lines     []domain.CartLine `json:"lines"`
	Total     string            `json:"total"`
	CreatedAt time.Time         `json:"created_at"`
}

type Service struct {
	carts     Carts
	products  pricing.Lookup
	orders    OrderStore
	publisher Publisher
	group     singleflight.Group
	metrics   *metrics
	logger    *slog.Logger
}

// NewService wires the checkout. publisher may be nil, in which case no
// order events are emitted.
func NewService(carts Carts, products pricing.Lookup, orders OrderStore, publisher Publisher, logger *slog.Logger) (*Service, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	return &Service{
		carts:     carts,
		products:  products,
		orders:    orders,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}, nil
}

// Preview prices the session's cart without changing anything.
func (s *Service) Preview(ctx context.Context, sessionID string) (*Preview, error) {
	ctx, span := tracer.Start(ctx, "checkout.preview")
	defer span.End()

	a := newAttempt()
	quote, err := s.price(ctx, a, sessionID)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	if err := a.advance(StatusConfirming); err != nil {
		return nil, err
	}

	return &Preview{Status: a.status, Lines: quote.Lines, Total: quote.Total.StringFixed(2)}, nil
}

// commitTimeout bounds a shared commit, which no longer follows the
// lifetime of the request that started it.
const commitTimeout = 15 * time.Second

// Commit turns the session's cart into an order. The order, its items and
// the cart clear succeed or fail together. Concurrent commits for the same
// session share a single attempt; each caller stops waiting when its own
// context ends, while the attempt runs to completion.
func (s *Service) Commit(ctx context.Context, customer Customer, sessionID string) (*Confirmation, error) {
	leader := false
	ch := s.group.DoChan(sessionID, func() (any, error) {
		leader = true
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
		defer cancel()
		return s.commit(workCtx, customer, sessionID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared && !leader {
			s.logger.Info("joined in-flight checkout", "user_id", customer.UserID)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Confirmation), nil
	}
}

func (s *Service) commit(ctx context.Context, customer Customer, sessionID string) (*Confirmation, error) {
	ctx, span := tracer.Start(ctx, "checkout.commit", trace.WithAttributes(attribute.String("user.id", customer.UserID)))
	defer span.End()

	a := newAttempt()
	quote, err := s.price(ctx, a, sessionID)
	if err != nil {
		s.metrics.recordOutcome(ctx, outcomeFor(err))
		recordSpanError(span, err)
		return nil, err
	}
	snapshot := cartOf(quote)

	if err := a.advance(StatusCommitting); err != nil {
		return nil, err
	}

	order := newOrder(customer.UserID, quote)
	cleared := false
	err = s.orders.Create(ctx, order, func(ctx context.Context) error {
		if _, err := s.carts.Clear(ctx, sessionID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		cleared = true
		return nil
	})
	if err != nil {
		_ = a.advance(StatusFailed)
		if cleared {
			s.restore(ctx, sessionID, snapshot)
		}
		s.metrics.recordOutcome(ctx, outcomeFailed)
		recordSpanError(span, err)
		s.logger.Error("checkout failed", "error", err, "user_id", customer.UserID)
		return nil, fmt.Errorf("place order: %w", err)
	}
	if err := a.advance(StatusCompleted); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	s.metrics.recordOutcome(ctx, outcomeCompleted)
	s.metrics.recordTotal(ctx, order.Total)
	s.logger.Info("order placed", "order_id", order.ID, "user_id", customer.UserID,
		"items", len(order.Items), "total", order.Total.StringFixed(2))

	s.publish(ctx, customer, order)

	return &Confirmation{
		OrderID:   order.ID,
		Status:    a.status,
		Lines:     quote.Lines,
		Total:     order.Total.StringFixed(2),
		CreatedAt: order.CreatedAt,
	}, nil
}

// price reads one snapshot of the cart and prices it.
func (s *Service) price(ctx context.Context, a *attempt, sessionID string) (*domain.Quote, error) {
	snapshot, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if snapshot.IsEmpty() {
		return nil, ErrEmptyCart
	}

	quote, err := pricing.Price(ctx, snapshot, s.products)
	if err != nil {
		return nil, err
	}
	if err := a.advance(StatusPriced); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *Service) restore(ctx context.Context, sessionID string, snapshot domain.Cart) {
	// The request context may already be cancelled; the restore must still run.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.carts.Restore(ctx, sessionID, snapshot); err != nil {
		s.logger.Error("failed to restore cart after checkout failure", "error", err, "items", snapshot.Len())
		return
	}
	s.logger.Warn("cart restored after checkout failure", "items", snapshot.Len())
}

func (s *Service) publish(ctx context.Context, customer Customer, order *domain.Order) {
	if s.publisher == nil {
		return
	}

	event := domain.OrderPlacedEvent{
		OrderID:   order.ID,
		UserID:    customer.UserID,
		Username:  customer.Username,
		Email:     customer.Email,
		Items:     order.Items,
		Total:     order.Total,
		Timestamp: order.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, order.ID, event); err != nil {
		s.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
	}
}

// newOrder freezes each line's current price into an order item.
func newOrder(userID string, quote *domain.Quote) *domain.Order {
	items := make([]domain.OrderItem, 0, len(quote.Lines))
	for _, l := range quote.Lines {
		items = append(items, domain.OrderItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.Product.Price,
		})
	}
	return &domain.Order{UserID: userID, Total: quote.Total, Items: items}
}

func cartOf(quote *domain.Quote) domain.Cart {
	entries := make([]domain.CartEntry, 0, len(quote.Lines))
	for _, l := range quote.Lines {
		entries = append(entries, domain.CartEntry{ProductID: l.Product.ID, Quantity: l.Quantity})
	}
	return domain.CartFrom(entries...)
}

func recordSpanError(span trace.Span, err error) {
	if errors.Is(err, ErrEmptyCart) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
