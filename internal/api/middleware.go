package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nyashahama/lead-capture-backend/internal/httpx"
	"github.com/nyashahama/lead-capture-backend/internal/intake"
)

// ─── CONTEXT KEYS ─────────────────────────────────────────────────────────────

type contextKey string

const (
	ctxKeySessionID  contextKey = "session_id"
	ctxKeyController contextKey = "controller"
)

// ─── ANON TOKEN AUTH ──────────────────────────────────────────────────────────

// requireAnonToken is chi middleware that validates the X-Anon-Token header
// against the form session named in the URL.
//
// The token is stored browser-side in sessionStorage and sent on every
// session-scoped request. On success the session's controller is stored in
// the request context for downstream handlers.
func (s *Server) requireAnonToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-Anon-Token"))
		if token == "" {
			respondErr(w, http.StatusUnauthorized, "missing X-Anon-Token header")
			return
		}

		sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
		if err != nil {
			respondErr(w, http.StatusBadRequest, "invalid session_id")
			return
		}

		ctrl, err := s.registry.Lookup(sessionID, token)
		switch {
		case errors.Is(err, intake.ErrSessionNotFound):
			respondErr(w, http.StatusNotFound, "session not found or expired")
			return
		case errors.Is(err, intake.ErrTokenMismatch):
			respondErr(w, http.StatusForbidden, "token does not match session")
			return
		case err != nil:
			s.respondInternalErr(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeySessionID, sessionID)
		ctx = context.WithValue(ctx, ctxKeyController, ctrl)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// controllerFrom returns the controller stored by requireAnonToken.
func controllerFrom(ctx context.Context) *intake.Controller {
	ctrl, _ := ctx.Value(ctxKeyController).(*intake.Controller)
	return ctrl
}

func sessionIDFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxKeySessionID).(uuid.UUID)
	return id
}

// ─── RATE LIMIT ───────────────────────────────────────────────────────────────

// rateLimitSubmit answers 429 when the client IP has exhausted its submit
// budget.
func (s *Server) rateLimitSubmit(next http.Handler) http.Handler {
	return rateLimit(s.submitLimiter, "too many submissions, please wait a moment", next)
}

// rateLimitSession answers 429 when the client IP opens form sessions faster
// than the widget ever would.
func (s *Server) rateLimitSession(next http.Handler) http.Handler {
	return rateLimit(s.sessionLimiter, "too many sessions opened, please wait a moment", next)
}

func rateLimit(l *ipLimiter, message string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(realIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondErr(w, http.StatusTooManyRequests, message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ─── RESPONSE HELPERS ─────────────────────────────────────────────────────────

// respond writes a JSON body with the given status code.
func respond(w http.ResponseWriter, status int, body any) {
	httpx.WriteJSON(w, status, body)
}

// respondErr writes a standard JSON error envelope.
func respondErr(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}

// respondInternalErr logs an unexpected error and returns a 500 to the client
// without leaking internal details.
func (s *Server) respondInternalErr(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal error",
		"error", err,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
	)
	respondErr(w, http.StatusInternalServerError, "internal server error")
}

// ─── REQUEST PARSING HELPERS ─────────────────────────────────────────────────

// decode JSON-decodes r.Body into dst. Returns false and writes 400 if the
// body is missing, malformed, or too large. Callers should return immediately
// on false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeBody(w, r, dst, false)
}

// decodeOptional is decode for routes where an empty body is allowed; dst is
// left untouched in that case.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeBody(w, r, dst, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		respondErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
