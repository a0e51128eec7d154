package orders

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpx"
	"github.com/joao-fontenele/storefront/internal/session"
)

type Reader interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	GetForUser(ctx context.Context, userID, orderID string) (*domain.Order, error)
}

type Handler struct {
	repo   Reader
	logger *slog.Logger
}

func NewHandler(repo Reader, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// HandleList returns the caller's orders, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())

	orders, err := h.repo.ListByUser(r.Context(), s.UserID)
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to list orders", err)
		return
	}

	h.logger.Info("orders listed", "count", len(orders), "user_id", s.UserID)
	httpx.WriteJSON(w, h.logger, http.StatusOK, orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())
	id := chi.URLParam(r, "orderID")

	order, err := h.repo.GetForUser(r.Context(), s.UserID, id)
	if errors.Is(err, ErrOrderNotFound) {
		httpx.WriteError(w, h.logger, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to get order", err)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, order)
}
