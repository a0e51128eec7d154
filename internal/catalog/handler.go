package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpx"
)

type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	listing, err := h.svc.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to list products", err)
		return
	}

	h.logger.Info("products listed", "count", len(listing.Products), "search_active", listing.SearchActive)
	httpx.WriteJSON(w, h.logger, http.StatusOK, listing)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, ErrProductNotFound) {
		httpx.WriteError(w, h.logger, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to get product", err)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, p)
}

type createProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "name is required")
		return
	}

	p := &domain.Product{Name: strings.TrimSpace(req.Name), Description: req.Description, Price: req.Price}
	err := h.svc.Create(r.Context(), p)
	if errors.Is(err, ErrInvalidPrice) {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to create product", err)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, p)
}

type updatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

func (h *Handler) HandleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req updatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.svc.UpdatePrice(r.Context(), id, req.Price)
	switch {
	case errors.Is(err, ErrInvalidPrice):
		httpx.WriteError(w, h.logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrProductNotFound):
		httpx.WriteError(w, h.logger, http.StatusNotFound, "product not found")
	case err != nil:
		httpx.WriteInternal(w, r, h.logger, "failed to update price", err)
	default:
		httpx.WriteJSON(w, h.logger, http.StatusOK, p)
	}
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}
