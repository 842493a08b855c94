package confirm

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nyashahama/lead-capture-backend/internal/httpx"
)

// HandlerConfig configures the HTTP surface of the function.
type HandlerConfig struct {
	// Token, when non-empty, must be sent as "Authorization: Bearer <token>".
	Token          string
	AllowedOrigins []string
}

type handler struct {
	svc    *Service
	cfg    HandlerConfig
	logger *slog.Logger
}

// NewHandler returns the router of the notification function.
func NewHandler(svc *Service, cfg HandlerConfig, logger *slog.Logger) http.Handler {
	h := &handler{svc: svc, cfg: cfg, logger: logger}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpx.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.With(h.requireToken).Post("/notify", h.handleNotify)

	return r
}

// ─── POST /notify ─────────────────────────────────────────────────────────────

type successResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func (h *handler) handleNotify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.Send(r.Context(), req)
	if err != nil {
		var se *StatusError
		if !errors.As(err, &se) {
			se = &StatusError{Status: http.StatusInternalServerError, Message: "internal server error", Err: err}
		}
		h.logger.Warn("notify request failed",
			"status", se.Status,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		respondErr(w, se.Status, se.Message)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, successResponse{Success: true, MessageID: res.MessageID})
}

// requireToken rejects requests without the configured bearer token. With no
// token configured every request passes.
func (h *handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(h.cfg.Token)) != 1 {
			respondErr(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ─── RESPONSE HELPERS ─────────────────────────────────────────────────────────

func respondErr(w http.ResponseWriter, status int, message string) {
	httpx.WriteJSON(w, status, errorResponse{Error: message, Status: status})
}
