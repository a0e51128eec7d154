package cart

import (
	"context"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Store interface {
	Load(ctx context.Context, sessionID string) (domain.Cart, error)
	Save(ctx context.Context, sessionID string, c domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// Service applies cart operations to the cart stored for a session. Each
// call loads the cart, applies one pure mutation and saves the result, so
// concurrent requests within a session are last-write-wins.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) Get(ctx context.Context, sessionID string) (domain.Cart, error) {
	return s.store.Load(ctx, sessionID)
}

// Add puts one more unit of productID in the cart. The product is not
// checked against the catalog; dangling ids surface when the cart is priced.
func (s *Service) Add(ctx context.Context, sessionID string, productID int64) (domain.Cart, error) {
	return s.update(ctx, sessionID, func(c domain.Cart) domain.Cart { return c.Add(productID) })
}

func (s *Service) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (domain.Cart, error) {
	return s.update(ctx, sessionID, func(c domain.Cart) domain.Cart { return c.SetQuantity(productID, quantity) })
}

func (s *Service) Remove(ctx context.Context, sessionID string, productID int64) (domain.Cart, error) {
	return s.update(ctx, sessionID, func(c domain.Cart) domain.Cart { return c.Remove(productID) })
}

func (s *Service) Clear(ctx context.Context, sessionID string) (domain.Cart, error) {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return domain.Cart{}, err
	}
	return domain.NewCart(), nil
}

// Restore writes c back as the session's cart.
func (s *Service) Restore(ctx context.Context, sessionID string, c domain.Cart) error {
	return s.store.Save(ctx, sessionID, c)
}

func (s *Service) update(ctx context.Context, sessionID string, mutate func(domain.Cart) domain.Cart) (domain.Cart, error) {
	current, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return domain.Cart{}, err
	}

	next := mutate(current)
	if err := s.store.Save(ctx, sessionID, next); err != nil {
		return domain.Cart{}, err
	}

	s.logger.Debug("cart updated", "items", next.Len())
	return next, nil
}
