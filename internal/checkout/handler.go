package checkout

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/httpx"
	"github.com/joao-fontenele/storefront/internal/pricing"
	"github.com/joao-fontenele/storefront/internal/session"
)

const emptyCartNotice = "Your cart is empty!"

type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())

	preview, err := h.svc.Preview(r.Context(), s.ID)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, preview)
}

func (h *Handler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())

	conf, err := h.svc.Commit(r.Context(), Customer{UserID: s.UserID, Username: s.Username, Email: s.Email}, s.ID)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, conf)
}

// writeCheckoutError sends an empty cart back to the cart page with a notice.
func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		httpx.Redirect(w, h.logger, "/cart", map[string]string{"notice": emptyCartNotice})
	case errors.Is(err, pricing.ErrProductNotFound):
		httpx.WriteError(w, h.logger, http.StatusNotFound, err.Error())
	default:
		httpx.WriteInternal(w, r, h.logger, "checkout failed", err)
	}
}
