// Package storefront assembles the HTTP API of the store.
package storefront

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront/internal/account"
	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/httpx"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/session"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

type Handlers struct {
	Catalog  *catalog.Handler
	Cart     *cart.Handler
	Checkout *checkout.Handler
	Orders   *orders.Handler
	Account  *account.Handler
}

type Options struct {
	Sessions       *session.Manager
	Cookies        session.Cookies
	AdminToken     string
	RequestTimeout time.Duration
	Metrics        http.Handler
	Logger         *slog.Logger
}

func NewRouter(h Handlers, opts Options) http.Handler {
	logger := opts.Logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}
	r.Use(telemetry.RouteAttribute)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(session.Load(opts.Sessions, opts.Cookies, logger))

		r.Get("/products", h.Catalog.HandleList)
		r.Get("/products/{productID}", h.Catalog.HandleGet)

		r.Post("/register", h.Account.HandleRegister)
		r.Post("/login", h.Account.HandleLogin)
		r.Post("/logout", h.Account.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(session.RequireAuth(logger))

			r.Get("/cart", h.Cart.HandleView)
			r.Delete("/cart", h.Cart.HandleClear)
			r.Post("/cart/items/{productID}", h.Cart.HandleAdd)
			r.Put("/cart/items/{productID}", h.Cart.HandleUpdate)
			r.Delete("/cart/items/{productID}", h.Cart.HandleRemove)

			r.Get("/checkout", h.Checkout.HandlePreview)
			r.Post("/checkout", h.Checkout.HandleCommit)

			r.Get("/orders", h.Orders.HandleList)
			r.Get("/orders/{orderID}", h.Orders.HandleGet)
		})
	})

	if opts.AdminToken != "" {
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdminToken(opts.AdminToken, logger))
			r.Post("/products", h.Catalog.HandleCreate)
			r.Patch("/products/{productID}/price", h.Catalog.HandleUpdatePrice)
		})
	}

	return r
}

// Instrument wraps the router with OpenTelemetry server spans. Spans start
// out named by method only; telemetry.RouteAttribute renames them to the
// matched route pattern.
func Instrument(h http.Handler, opts ...otelhttp.Option) http.Handler {
	opts = append([]otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if r.Pattern != "" {
				return r.Pattern
			}
			return r.Method
		}),
	}, opts...)
	return otelhttp.NewHandler(h, "storefront", opts...)
}

func requireAdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Admin-Token")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				httpx.WriteError(w, logger, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
