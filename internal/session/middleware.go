package session

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/joao-fontenele/storefront/internal/httpx"
)

type Cookies struct {
	Name   string
	Secure bool
}

func (c Cookies) Set(w http.ResponseWriter, s *Session, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Load attaches the caller's session to the request context when the cookie
// names a live session. Unknown or expired ids are ignored.
func Load(m *Manager, cookies Cookies, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookies.Name)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			s, err := m.Lookup(r.Context(), cookie.Value)
			switch {
			case errors.Is(err, ErrNoSession):
				next.ServeHTTP(w, r)
				return
			case err != nil:
				httpx.WriteInternal(w, r, logger, "failed to load session", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RequireAuth rejects requests without a session.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				httpx.WriteError(w, logger, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
