package stats_api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ms-ticket-stats/internal/auth"
	"ms-ticket-stats/internal/logger"
)

// RouterConfig collects what NewRouter needs to assemble the HTTP surface.
type RouterConfig struct {
	Handler        *Handler
	Logger         *logger.Logger
	AllowedOrigins []string
	// Verifier is optional; nil leaves the stats endpoints unauthenticated.
	Verifier       auth.Verifier
	RequestTimeout time.Duration
}

// NewRouter builds the chi router: shared middleware, CORS for the
// dashboard, the public health check and the stats routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cfg.Logger.Middleware)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "apikey", "x-client-info"},
		MaxAge:         300,
	}))

	r.Get("/healthz", cfg.Handler.Health)

	r.Group(func(r chi.Router) {
		if cfg.Verifier != nil {
			r.Use(auth.Middleware(cfg.Verifier, cfg.Logger))
			cfg.Logger.Info("AUTH", "Bearer token middleware applied to stats routes")
		}
		cfg.Handler.RegisterRoutes(r)
		cfg.Logger.Info("ROUTER", "Stats routes registered under /functions/v1")
	})

	return r
}
