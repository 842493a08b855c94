package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/nyashahama/lead-capture-backend/internal/intake"
	"github.com/nyashahama/lead-capture-backend/internal/lead"
)

// ─── POST /api/session ────────────────────────────────────────────────────────

type createSessionResponse struct {
	SessionID string      `json:"session_id"`
	AnonToken string      `json:"anon_token"`
	View      intake.View `json:"view"`
}

// handleCreateSession opens a form instance for a new visitor. Called once
// when the widget first loads.
//
// The anon_token is returned to the browser and stored in sessionStorage.
// It is sent as X-Anon-Token on all subsequent session-scoped requests.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	src := lead.Source{
		Referrer:    strings.TrimSpace(r.Referer()),
		UserAgent:   strings.TrimSpace(r.UserAgent()),
		UTMSource:   strings.TrimSpace(q.Get("utm_source")),
		UTMMedium:   strings.TrimSpace(q.Get("utm_medium")),
		UTMCampaign: strings.TrimSpace(q.Get("utm_campaign")),
		// Never store the raw IP.
		IPHash: hashIP(realIP(r)),
	}

	id, token, ctrl, err := s.registry.Open(src)
	if errors.Is(err, intake.ErrTooManySessions) {
		s.logger.Warn("form session refused, registry full", "open_sessions", s.registry.Len(), logField(r))
		w.Header().Set("Retry-After", "60")
		respondErr(w, http.StatusServiceUnavailable, "too many open sessions, please try again shortly")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("open session: %w", err))
		return
	}

	s.logger.Debug("form session opened", "session_id", id, logField(r))

	respond(w, http.StatusCreated, createSessionResponse{
		SessionID: id.String(),
		AnonToken: token,
		View:      ctrl.View(),
	})
}

// ─── GET /api/session/:sessionID ──────────────────────────────────────────────

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, controllerFrom(r.Context()).View())
}

// ─── PUT /api/session/:sessionID/fields ───────────────────────────────────────

// handleUpdateFields stores the form input. Input is ignored while a submit
// cycle is in flight.
func (s *Server) handleUpdateFields(w http.ResponseWriter, r *http.Request) {
	var f lead.Fields
	if !decode(w, r, &f) {
		return
	}

	ctrl := controllerFrom(r.Context())
	if !ctrl.SetFields(f) {
		respond(w, http.StatusConflict, ctrl.View())
		return
	}
	respond(w, http.StatusOK, ctrl.View())
}

// ─── POST /api/session/:sessionID/submit ──────────────────────────────────────

type submitResponse struct {
	Accepted bool               `json:"accepted"`
	Outcome  intake.OutcomeKind `json:"outcome,omitempty"`
	View     intake.View        `json:"view"`
}

// handleSubmit runs one submit cycle. The body is optional: when present it
// replaces the stored fields, otherwise the fields from the last PUT are
// submitted.
//
// A client that disconnects mid-cycle does not abort it; the lead may already
// be written and the result is visible on the next GET.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var f lead.Fields
	if !decodeOptional(w, r, &f) {
		return
	}

	ctrl := controllerFrom(r.Context())
	res := ctrl.Submit(context.WithoutCancel(r.Context()), f)

	// A submit made while a cycle is in flight is a no-op, not an error:
	// accepted is false and the view shows the running cycle.
	respond(w, http.StatusOK, submitResponse{
		Accepted: res.Accepted,
		Outcome:  res.Outcome,
		View:     ctrl.View(),
	})
}

// ─── POST /api/session/:sessionID/reset ───────────────────────────────────────

// handleResetSession clears the session log and the "just submitted" flag,
// returning the form to its empty state.
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerFrom(r.Context())
	if !ctrl.ResetSession() {
		respond(w, http.StatusConflict, ctrl.View())
		return
	}

	s.logger.Info("form session reset", "session_id", sessionIDFrom(r.Context()), logField(r))
	respond(w, http.StatusOK, ctrl.View())
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

// hashIP returns the hex-encoded SHA-256 of the IP string.
func hashIP(ip string) string {
	if ip == "" {
		return ""
	}
	h := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(h[:])
}

// realIP returns the client IP. middleware.RealIP has already replaced
// RemoteAddr with X-Real-IP / X-Forwarded-For when a proxy set them.
func realIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
