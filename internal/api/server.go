// Package api implements the HTTP layer behind the lead capture widget.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nyashahama/lead-capture-backend/internal/httpx"
	"github.com/nyashahama/lead-capture-backend/internal/intake"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// AllowedOrigins is passed to the CORS middleware. Empty means "*".
	AllowedOrigins []string

	// SubmitRatePerMinute and SubmitBurst bound submit calls per client IP.
	SubmitRatePerMinute int
	SubmitBurst         int

	// SessionRatePerMinute and SessionBurst bound session opens per client IP.
	SessionRatePerMinute int
	SessionBurst         int
}

// LeadStats is the read side of the store the API needs directly. Writes go
// through the intake controllers. *store.Store satisfies it.
type LeadStats interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// Server holds all shared dependencies.
type Server struct {
	// registry owns one submission controller per open form.
	registry *intake.Registry

	leads LeadStats

	// Submits and session opens draw from separate per-IP buckets.
	submitLimiter  *ipLimiter
	sessionLimiter *ipLimiter

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.Server.
func NewServer(registry *intake.Registry, leads LeadStats, cfg Config, logger *slog.Logger) http.Handler {
	if cfg.SubmitRatePerMinute <= 0 {
		cfg.SubmitRatePerMinute = 10
	}
	if cfg.SubmitBurst <= 0 {
		cfg.SubmitBurst = 3
	}
	if cfg.SessionRatePerMinute <= 0 {
		cfg.SessionRatePerMinute = 20
	}
	if cfg.SessionBurst <= 0 {
		cfg.SessionBurst = 5
	}
	s := &Server{
		registry:       registry,
		leads:          leads,
		submitLimiter:  newIPLimiter(cfg.SubmitRatePerMinute, cfg.SubmitBurst),
		sessionLimiter: newIPLimiter(cfg.SessionRatePerMinute, cfg.SessionBurst),
		cfg:            cfg,
		logger:         logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpx.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Anon-Token", "X-Request-ID"},
		MaxAge:         86400,
	}))
	r.Use(middleware.Timeout(30 * time.Second))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", s.handleReady)

	// ── API ───────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {
		r.Get("/industries", s.handleIndustries)
		r.Get("/stats", s.handleStats)

		// Form sessions: creation is anonymous, so it is rate limited per IP.
		r.With(s.rateLimitSession).Post("/session", s.handleCreateSession)

		// Session-scoped routes require the X-Anon-Token issued at creation.
		r.Route("/session/{sessionID}", func(r chi.Router) {
			r.Use(s.requireAnonToken)
			r.Get("/", s.handleGetSession)
			r.Put("/fields", s.handleUpdateFields)
			r.With(s.rateLimitSubmit).Post("/submit", s.handleSubmit)
			r.Post("/reset", s.handleResetSession)
		})
	})

	return r
}
