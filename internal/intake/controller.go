package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nyashahama/lead-capture-backend/internal/lead"
	"github.com/nyashahama/lead-capture-backend/internal/notify"
)

// ControllerConfig carries the per-form values that are not collaborators.
type ControllerConfig struct {
	// ID identifies the form instance in logs.
	ID uuid.UUID

	// Source is attached to every lead written by this form instance.
	Source lead.Source

	// Now is the clock used for session entries when the store does not
	// return a submission time. Defaults to time.Now.
	Now func() time.Time
}

// Controller runs the submit cycle for one form instance.
//
// Only one cycle may be in flight at a time. The guard is the state variable
// itself: Submit moves idle/terminal → validating under the lock before any
// collaborator is called, and every exit path (including a recovered panic)
// moves it to a terminal state.
type Controller struct {
	checker  *DuplicateChecker
	writer   *Writer
	notifier notify.Notifier
	sessions *SessionLog
	cfg      ControllerConfig
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	fields      lead.Fields
	fieldErrors []lead.FieldError
	message     *Message
	outcome     OutcomeKind
}

// NewController wires a controller. sessions is shared state owned by the
// caller; the controller only appends to it and marks it submitted.
func NewController(
	repo Repository,
	notifier notify.Notifier,
	sessions *SessionLog,
	cfg ControllerConfig,
	logger *slog.Logger,
) *Controller {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Controller{
		checker:  NewDuplicateChecker(repo),
		writer:   NewWriter(repo),
		notifier: notifier,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger.With("session_id", cfg.ID),
		state:    StateIdle,
	}
}

// ─── PRESENTATION BOUNDARY ────────────────────────────────────────────────────

// View is a consistent snapshot of everything the form renders.
type View struct {
	State        State             `json:"state"`
	Busy         bool              `json:"busy"`
	Fields       lead.Fields       `json:"fields"`
	FieldErrors  []lead.FieldError `json:"field_errors,omitempty"`
	Message      *Message          `json:"message,omitempty"`
	Outcome      OutcomeKind       `json:"outcome,omitempty"`
	Submitted    bool              `json:"submitted"`
	SessionCount int               `json:"session_count"`
	Entries      []Entry           `json:"entries"`
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a cycle is in flight.
func (c *Controller) Busy() bool {
	return c.State().Busy()
}

// SetFields records user input. It is ignored while a cycle is in flight and
// reports whether the fields were taken.
func (c *Controller) SetFields(f lead.Fields) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Busy() {
		return false
	}
	c.fields = f
	return true
}

// ResetSession clears the session log and the "just submitted" flag. It is
// refused while a cycle is in flight and reports whether the reset happened.
func (c *Controller) ResetSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Busy() {
		return false
	}
	c.sessions.Reset()
	return true
}

func (c *Controller) View() View {
	c.mu.Lock()
	v := View{
		State:       c.state,
		Busy:        c.state.Busy(),
		Fields:      c.fields,
		FieldErrors: append([]lead.FieldError(nil), c.fieldErrors...),
		Message:     c.message,
		Outcome:     c.outcome,
	}
	c.mu.Unlock()

	v.Submitted = c.sessions.Submitted()
	v.Entries = c.sessions.Entries()
	v.SessionCount = len(v.Entries)
	return v
}

// ─── SUBMIT CYCLE ─────────────────────────────────────────────────────────────

// Submit runs one cycle for f. When f is the zero value the fields last set
// through SetFields are submitted. A call made while another cycle is in
// flight returns Result{Accepted: false} and changes nothing.
//
// Submit never returns an error: every failure ends in a user-facing
// outcome. Callers that run it from a request handler should pass a context
// that is not cancelled when the client disconnects; an in-flight cycle is
// never aborted.
func (c *Controller) Submit(ctx context.Context, f lead.Fields) (res Result) {
	attempt, ok := c.begin(f)
	if !ok {
		c.logger.Debug("intake: submit ignored, cycle in flight")
		return Result{Accepted: false}
	}

	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("intake: submit cycle panicked", "panic", p)
			res = c.finish(StateFailed, OutcomeUnexpected, attempt, nil, nil)
		}
	}()

	return c.run(ctx, attempt)
}

// begin is the atomic check-and-set of the re-entrancy guard.
func (c *Controller) begin(f lead.Fields) (lead.Fields, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Busy() {
		return lead.Fields{}, false
	}
	if !f.IsZero() {
		c.fields = f
	}
	c.state = StateValidating
	c.fieldErrors = nil
	c.message = nil
	c.outcome = OutcomeNone
	return c.fields, true
}

func (c *Controller) run(ctx context.Context, attempt lead.Fields) Result {
	// ── 1. Validate ───────────────────────────────────────────────────────────
	if errs := lead.Validate(attempt); len(errs) > 0 {
		c.logger.Debug("intake: validation failed", "errors", len(errs))
		return c.finish(StateRejectedInvalid, OutcomeInvalid, attempt, errs, nil)
	}
	normalized := attempt.Normalize()

	// ── 2. Advisory duplicate check ───────────────────────────────────────────
	c.transition(StateCheckingDuplicate)
	exists, err := c.checker.Check(ctx, normalized.Email)
	if err != nil {
		// Advisory only: the insert's unique constraint still guards us.
		c.logger.Warn("intake: duplicate check failed, continuing to insert", "error", err)
	}
	if exists {
		c.sessions.MarkSubmitted()
		return c.finish(StateDuplicateFound, OutcomeDuplicate, lead.Fields{}, nil, nil)
	}

	// ── 3. Authoritative insert ───────────────────────────────────────────────
	c.transition(StateInserting)
	created, err := c.writer.Write(ctx, lead.NewLead{Fields: normalized, Source: c.cfg.Source})
	if errors.Is(err, ErrDuplicate) {
		c.logger.Info("intake: insert rejected by unique constraint")
		c.sessions.MarkSubmitted()
		return c.finish(StateInsertRejectedDuplicate, OutcomeDuplicate, lead.Fields{}, nil, nil)
	}
	if err != nil {
		c.logger.Error("intake: insert failed", "error", err)
		return c.finish(StateInsertFailed, OutcomeInsertFailed, attempt, nil, nil)
	}

	// ── 4. Notify ─────────────────────────────────────────────────────────────
	c.transition(StateNotifying)
	kind := OutcomeSuccess
	if err := notifyOnce(ctx, c.notifier, normalized); err != nil {
		c.logger.Warn("intake: confirmation notification failed", "lead_id", created.ID, "error", err)
		c.transition(StateNotifiedFailed)
		kind = OutcomePartialSuccess
	} else {
		c.transition(StateNotifiedOK)
	}

	// ── 5. Session state ──────────────────────────────────────────────────────
	submittedAt := created.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = c.cfg.Now()
	}
	c.sessions.Append(Entry{
		Name:        created.Name,
		Email:       created.Email,
		SubmittedAt: submittedAt,
	})

	c.logger.Info("intake: lead captured", "lead_id", created.ID, "outcome", kind)
	return c.finish(StateComplete, kind, lead.Fields{}, nil, &created)
}

func (c *Controller) transition(to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()
	c.logger.Debug("intake: transition", "from", from, "to", to)
}

// finish moves the controller to a terminal state, which also releases the
// re-entrancy guard. fields is what the form shows afterwards: the attempt
// when it is retained, the zero value when it is cleared.
func (c *Controller) finish(
	to State,
	kind OutcomeKind,
	fields lead.Fields,
	errs []lead.FieldError,
	created *lead.Lead,
) Result {
	if !to.Terminal() {
		panic(fmt.Sprintf("intake: finish with non-terminal state %q", to))
	}

	msg, _ := MessageFor(kind)

	c.mu.Lock()
	c.state = to
	c.fields = fields
	c.fieldErrors = errs
	c.message = &msg
	c.outcome = kind
	c.mu.Unlock()

	c.logger.Debug("intake: cycle finished", "state", to, "outcome", kind)

	return Result{
		Accepted:    true,
		Outcome:     kind,
		State:       to,
		Message:     &msg,
		FieldErrors: errs,
		Lead:        created,
	}
}
