package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/nyashahama/lead-capture-backend/internal/lead"
	"github.com/nyashahama/lead-capture-backend/internal/notify"
	"github.com/nyashahama/lead-capture-backend/internal/store"
)

// Repository is the persistence collaborator. *store.Store satisfies it.
type Repository interface {
	// FindByEmail returns store.ErrNotFound when no lead has the email.
	FindByEmail(ctx context.Context, email string) (lead.Lead, error)

	// Insert returns store.ErrEmailTaken when the unique constraint rejects
	// the write.
	Insert(ctx context.Context, nl lead.NewLead) (lead.Lead, error)
}

// ─── DUPLICATE CHECKER ────────────────────────────────────────────────────────

// DuplicateChecker is the advisory pre-flight lookup. It is allowed to be
// wrong: the unique constraint behind Writer is the authority.
type DuplicateChecker struct {
	repo Repository
}

func NewDuplicateChecker(repo Repository) *DuplicateChecker {
	return &DuplicateChecker{repo: repo}
}

// Check reports whether a lead with email already exists. A failed query
// reports false together with the error so the caller can log it and carry
// on to the insert.
func (c *DuplicateChecker) Check(ctx context.Context, email string) (bool, error) {
	_, err := c.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("intake: duplicate check: %w", err)
	}
}

// ─── PERSISTENCE WRITER ───────────────────────────────────────────────────────

// Writer performs the single insert of a cycle.
type Writer struct {
	repo Repository
}

func NewWriter(repo Repository) *Writer {
	return &Writer{repo: repo}
}

// Write inserts nl. It returns ErrDuplicate for a unique-constraint rejection
// and *PersistenceError for everything else.
func (w *Writer) Write(ctx context.Context, nl lead.NewLead) (lead.Lead, error) {
	created, err := w.repo.Insert(ctx, nl)
	if errors.Is(err, store.ErrEmailTaken) {
		return lead.Lead{}, ErrDuplicate
	}
	if err != nil {
		return lead.Lead{}, &PersistenceError{Err: err}
	}
	return created, nil
}

// ─── NOTIFIER BOUNDARY ────────────────────────────────────────────────────────

// notifyOnce calls n exactly once. A panic inside the notifier is converted
// into a NotificationError like any other failure.
func notifyOnce(ctx context.Context, n notify.Notifier, f lead.Fields) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &NotificationError{Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	if err := n.Notify(ctx, f); err != nil {
		return &NotificationError{Err: err}
	}
	return nil
}
