// Package store is the persistence collaborator for the intake core. It wraps
// db.Querier and translates driver-level failures into the sentinel errors the
// core routes on.
//
// Dependency rule: store imports db and lead only. It never imports intake,
// api, notify, or confirm.
package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nyashahama/lead-capture-backend/internal/db"
)

// Store holds a *sql.DB for health checks and a db.Querier for executing
// queries. The lead operations live in leads.go.
type Store struct {
	// pool is the raw connection pool. May be nil in unit tests.
	pool *sql.DB

	q db.Querier
}

// New creates a Store from a live connection pool. The pool must already be
// open and verified (e.g. via db.PingContext) before calling New.
func New(pool *sql.DB, q db.Querier) *Store {
	return &Store{pool: pool, q: q}
}

// Ping verifies the database is reachable. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("store: no connection pool")
	}
	return s.pool.PingContext(ctx)
}
