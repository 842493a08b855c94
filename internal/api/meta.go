package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/nyashahama/lead-capture-backend/internal/lead"
)

// ─── GET /readyz ──────────────────────────────────────────────────────────────

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.leads.Ping(r.Context()); err != nil {
		s.logger.Warn("readiness check failed", "error", err, logField(r))
		respondErr(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ─── GET /api/industries ──────────────────────────────────────────────────────

func (s *Server) handleIndustries(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, lead.Industries())
}

// ─── GET /api/stats ───────────────────────────────────────────────────────────

type statsResponse struct {
	TotalLeads   int64 `json:"total_leads"`
	OpenSessions int   `json:"open_sessions"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	n, err := s.leads.Count(r.Context())
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("count leads: %w", err))
		return
	}
	respond(w, http.StatusOK, statsResponse{
		TotalLeads:   n,
		OpenSessions: s.registry.Len(),
	})
}

// logField returns a slog.Attr using the request ID for correlation.
func logField(r *http.Request) slog.Attr {
	return slog.String("request_id", middleware.GetReqID(r.Context()))
}
