package cart

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpx"
	"github.com/joao-fontenele/storefront/internal/pricing"
	"github.com/joao-fontenele/storefront/internal/session"
)

type Handler struct {
	svc      *Service
	products pricing.Lookup
	logger   *slog.Logger
}

func NewHandler(svc *Service, products pricing.Lookup, logger *slog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		products: products,
		logger:   logger,
	}
}

type cartResponse struct {
	Items []domain.CartEntry `json:"items"`
	Count int                `json:"count"`
}

type pricedCartResponse struct {
	Lines []domain.CartLine `json:"lines"`
	Total string            `json:"total"`
}

func toResponse(c domain.Cart) cartResponse {
	return cartResponse{Items: c.Entries(), Count: c.Len()}
}

// HandleView prices the whole cart; a product that no longer exists fails
// the request with 404 and leaves the cart as it is.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())

	c, err := h.svc.Get(r.Context(), s.ID)
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to load cart", err)
		return
	}

	quote, err := pricing.Price(r.Context(), c, h.products)
	if errors.Is(err, pricing.ErrProductNotFound) {
		httpx.WriteError(w, h.logger, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to price cart", err)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, pricedCartResponse{Lines: quote.Lines, Total: quote.Total.StringFixed(2)})
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	s, _ := session.FromContext(r.Context())

	c, err := h.svc.Add(r.Context(), s.ID, productID)
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to add to cart", err)
		return
	}

	h.logger.Info("added to cart", "product_id", productID, "quantity", c.Quantity(productID))
	httpx.WriteJSON(w, h.logger, http.StatusOK, toResponse(c))
}

// HandleUpdate sets a quantity. Unparseable quantities count as one; zero or
// less removes the product.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	s, _ := session.FromContext(r.Context())

	quantity := ParseQuantity(rawQuantity(r))

	c, err := h.svc.SetQuantity(r.Context(), s.ID, productID, quantity)
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to update cart", err)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, toResponse(c))
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.productID(w, r)
	if !ok {
		return
	}
	s, _ := session.FromContext(r.Context())

	c, err := h.svc.Remove(r.Context(), s.ID, productID)
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to remove from cart", err)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, toResponse(c))
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	s, _ := session.FromContext(r.Context())

	c, err := h.svc.Clear(r.Context(), s.ID)
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to clear cart", err)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, toResponse(c))
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}

// rawQuantity extracts the quantity field from a form or JSON body. A JSON
// number and a JSON string are both accepted; anything else yields "".
func rawQuantity(r *http.Request) string {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data" {
		return r.PostFormValue("quantity")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil || len(body) == 0 {
		return ""
	}

	var req struct {
		Quantity json.RawMessage `json:"quantity"`
	}
	if err := json.Unmarshal(body, &req); err != nil || len(req.Quantity) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(req.Quantity, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(req.Quantity))
}
