package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/lead-capture-backend/internal/db"
	"github.com/nyashahama/lead-capture-backend/internal/lead"
)

// ─── ERRORS ──────────────────────────────────────────────────────────────────

// ErrNotFound is returned by FindByEmail when no lead has the given email.
var ErrNotFound = errors.New("store: lead not found")

// ErrEmailTaken is returned by Insert when the unique constraint on
// leads.email rejects the write. This is the authoritative duplicate signal;
// callers must treat it as "already registered", not as a failure.
var ErrEmailTaken = errors.New("store: email already registered")

// uniqueViolation is the SQLSTATE Postgres uses for unique constraint
// violations. uniqueViolationToken is the stable message prefix for drivers
// or proxies that lose the code.
const (
	uniqueViolation      = pq.ErrorCode("23505")
	uniqueViolationToken = "duplicate key value violates unique constraint"
)

// ─── METHODS ─────────────────────────────────────────────────────────────────

// FindByEmail returns the lead with the given email, or ErrNotFound.
func (s *Store) FindByEmail(ctx context.Context, email string) (lead.Lead, error) {
	row, err := s.q.GetLeadByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return lead.Lead{}, ErrNotFound
	}
	if err != nil {
		return lead.Lead{}, fmt.Errorf("store: find lead by email: %w", err)
	}
	return toLead(row), nil
}

// Insert writes a new lead. A unique violation on email is returned as
// ErrEmailTaken; every other failure is wrapped.
func (s *Store) Insert(ctx context.Context, nl lead.NewLead) (lead.Lead, error) {
	source, err := encodeSource(nl.Source)
	if err != nil {
		return lead.Lead{}, fmt.Errorf("store: encode source: %w", err)
	}

	row, err := s.q.CreateLead(ctx, db.CreateLeadParams{
		Name:     nl.Fields.Name,
		Email:    nl.Fields.Email,
		Industry: nl.Fields.Industry,
		Source:   source,
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return lead.Lead{}, ErrEmailTaken
		}
		return lead.Lead{}, fmt.Errorf("store: insert lead: %w", err)
	}
	return toLead(row), nil
}

// Count returns the total number of persisted leads.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.q.CountLeads(ctx)
	if err != nil {
		return 0, fmt.Errorf("store: count leads: %w", err)
	}
	return n, nil
}

// IsUniqueViolation reports whether err signals a unique constraint
// violation, either through the Postgres error code or the message token.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), uniqueViolationToken)
}

// ─── MAPPING ─────────────────────────────────────────────────────────────────

func encodeSource(src lead.Source) (pqtype.NullRawMessage, error) {
	if src.IsZero() {
		return pqtype.NullRawMessage{}, nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}

func toLead(row db.Lead) lead.Lead {
	l := lead.Lead{
		ID:          row.ID,
		Name:        row.Name,
		Email:       row.Email,
		Industry:    lead.Industry(row.Industry),
		SubmittedAt: row.SubmittedAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.Source.Valid {
		// Attribution is best-effort; a malformed blob leaves Source empty.
		_ = json.Unmarshal(row.Source.RawMessage, &l.Source)
	}
	return l
}
