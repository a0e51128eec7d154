package account

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpx"
	"github.com/joao-fontenele/storefront/internal/session"
)

// CartDiscarder drops the cart tied to a session when the session ends.
type CartDiscarder interface {
	Clear(ctx context.Context, sessionID string) (domain.Cart, error)
}

type Handler struct {
	svc      *Service
	sessions *session.Manager
	cookies  session.Cookies
	carts    CartDiscarder
	logger   *slog.Logger
}

func NewHandler(svc *Service, sessions *session.Manager, cookies session.Cookies, carts CartDiscarder, logger *slog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		sessions: sessions,
		cookies:  cookies,
		carts:    carts,
		logger:   logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		httpx.Redirect(w, h.logger, "/products", map[string]string{"notice": "You are already logged in."})
		return
	}

	var reg Registration
	if isForm(r) {
		reg = Registration{
			Username:  r.PostFormValue("username"),
			Email:     r.PostFormValue("email"),
			Password1: r.PostFormValue("password1"),
			Password2: r.PostFormValue("password2"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.svc.Register(r.Context(), reg)
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpx.WriteJSON(w, h.logger, http.StatusBadRequest, verr)
		return
	}
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to register user", err)
		return
	}

	if !h.startSession(w, r, *user) {
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusCreated, user)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isForm(r) {
		req = loginRequest{Username: r.PostFormValue("username"), Password: r.PostFormValue("password")}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		httpx.WriteError(w, h.logger, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to authenticate", err)
		return
	}

	if prev, ok := session.FromContext(r.Context()); ok {
		h.endSession(r, prev)
	}
	if !h.startSession(w, r, *user) {
		return
	}
	h.logger.Info("user logged in", "user_id", user.ID)
	httpx.WriteJSON(w, h.logger, http.StatusOK, user)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if s, ok := session.FromContext(r.Context()); ok {
		h.endSession(r, s)
		h.logger.Info("user logged out", "user_id", s.UserID)
	}
	h.cookies.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user domain.User) bool {
	s, err := h.sessions.Create(r.Context(), user)
	if err != nil {
		httpx.WriteInternal(w, r, h.logger, "failed to create session", err)
		return false
	}
	h.cookies.Set(w, s, h.sessions.TTL())
	return true
}

// endSession discards the session and its cart. Failures are logged only;
// both keys expire on their own.
func (h *Handler) endSession(r *http.Request, s *session.Session) {
	if _, err := h.carts.Clear(r.Context(), s.ID); err != nil {
		h.logger.Warn("failed to discard cart", "error", err)
	}
	if err := h.sessions.Destroy(r.Context(), s.ID); err != nil {
		h.logger.Warn("failed to destroy session", "error", err)
	}
}

func isForm(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}
