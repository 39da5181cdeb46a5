// Package router assembles the HTTP surface: the public chat endpoint,
// health and metrics, and the operational admin routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/homequest-ai/lead-assistant/internal/http/handlers"
	httpmiddleware "github.com/homequest-ai/lead-assistant/internal/http/middleware"
	"github.com/homequest-ai/lead-assistant/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	ChatHandler    *handlers.ChatHandler
	AdminHandler   *handlers.AdminHandler
	MetricsHandler http.Handler

	// CORS allowlist for the embedded chat widget.
	CORSAllowedOrigins []string
	// Per-IP rate limit on the public chat endpoint. Zero disables it.
	ChatRateLimit float64
	ChatRateBurst int
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ChatRateLimit > 0 {
		r.With(httpmiddleware.RateLimit(cfg.ChatRateLimit, cfg.ChatRateBurst)).
			Post("/chat", cfg.ChatHandler.HandleChat)
	} else {
		r.Post("/chat", cfg.ChatHandler.HandleChat)
	}

	if cfg.AdminHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Get("/crm/ping", cfg.AdminHandler.PingCRM)
			admin.Get("/retrieval", cfg.AdminHandler.RetrievalStatus)
			admin.Post("/retrieval/reset", cfg.AdminHandler.ResetRetrieval)
			admin.Get("/sessions/{sessionID}/leads", cfg.AdminHandler.ListSessionLeads)
		})
	}

	return r
}
