package intake_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/lead-capture-backend/internal/intake"
	"github.com/nyashahama/lead-capture-backend/internal/lead"
	"github.com/nyashahama/lead-capture-backend/internal/store"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

// callLog records the order of collaborator calls across stubs.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// stubRepo is an in-memory Repository that enforces the unique email
// constraint like the real table does.
type stubRepo struct {
	log *callLog

	mu          sync.Mutex
	leads       map[string]lead.Lead
	findErr     error
	insertErr   error
	insertPanic bool

	// insertStarted, when non-nil, receives once per Insert before it blocks
	// on release.
	insertStarted chan struct{}
	release       chan struct{}
}

func newStubRepo(log *callLog) *stubRepo {
	return &stubRepo{log: log, leads: make(map[string]lead.Lead)}
}

func (r *stubRepo) FindByEmail(_ context.Context, email string) (lead.Lead, error) {
	r.log.add("find")
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return lead.Lead{}, r.findErr
	}
	l, ok := r.leads[email]
	if !ok {
		return lead.Lead{}, store.ErrNotFound
	}
	return l, nil
}

func (r *stubRepo) Insert(_ context.Context, nl lead.NewLead) (lead.Lead, error) {
	r.log.add("insert")
	if r.insertStarted != nil {
		r.insertStarted <- struct{}{}
		<-r.release
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertPanic {
		panic("driver exploded")
	}
	if r.insertErr != nil {
		return lead.Lead{}, r.insertErr
	}
	if _, ok := r.leads[nl.Fields.Email]; ok {
		return lead.Lead{}, store.ErrEmailTaken
	}
	l := lead.Lead{
		ID:          uuid.New(),
		Name:        nl.Fields.Name,
		Email:       nl.Fields.Email,
		Industry:    lead.Industry(nl.Fields.Industry),
		Source:      nl.Source,
		SubmittedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
	r.leads[nl.Fields.Email] = l
	return l, nil
}

func (r *stubRepo) inserts() int {
	n := 0
	for _, c := range r.log.list() {
		if c == "insert" {
			n++
		}
	}
	return n
}

type stubNotifier struct {
	log   *callLog
	err   error
	panic bool

	mu    sync.Mutex
	calls []lead.Fields
}

func (n *stubNotifier) Notify(_ context.Context, f lead.Fields) error {
	n.log.add("notify")
	n.mu.Lock()
	n.calls = append(n.calls, f)
	n.mu.Unlock()
	if n.panic {
		panic("malformed collaborator response")
	}
	return n.err
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	calls    *callLog
	repo     *stubRepo
	notifier *stubNotifier
	sessions *intake.SessionLog
	ctrl     *intake.Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	calls := &callLog{}
	repo := newStubRepo(calls)
	notifier := &stubNotifier{log: calls}
	sessions := intake.NewSessionLog()
	ctrl := intake.NewController(repo, notifier, sessions, intake.ControllerConfig{
		ID:     uuid.New(),
		Source: lead.Source{UTMSource: "test"},
	}, discardLogger())
	return &fixture{calls: calls, repo: repo, notifier: notifier, sessions: sessions, ctrl: ctrl}
}

var alice = lead.Fields{Name: "Alice", Email: "alice@example.com", Industry: "technology"}

// ─── SCENARIOS ────────────────────────────────────────────────────────────────

func TestSubmit_ScenarioA_FullSuccess(t *testing.T) {
	f := newFixture(t)

	res := f.ctrl.Submit(context.Background(), alice)

	require.True(t, res.Accepted)
	assert.Equal(t, intake.OutcomeSuccess, res.Outcome)
	assert.Equal(t, intake.StateComplete, res.State)
	require.NotNil(t, res.Message)
	assert.Equal(t, intake.CategorySuccess, res.Message.Category)
	require.NotNil(t, res.Lead)
	assert.Equal(t, "test", res.Lead.Source.UTMSource)

	assert.Equal(t, []string{"find", "insert", "notify"}, f.calls.list())

	entries := f.sessions.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "alice@example.com", entries[0].Email)
	assert.Equal(t, "Alice", entries[0].Name)
	assert.True(t, f.sessions.Submitted())

	v := f.ctrl.View()
	assert.Equal(t, intake.StateComplete, v.State)
	assert.False(t, v.Busy)
	assert.Equal(t, lead.Fields{}, v.Fields)
	assert.Equal(t, 1, v.SessionCount)
}

func TestSubmit_ScenarioB_SecondSubmitIsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.Equal(t, intake.OutcomeSuccess, f.ctrl.Submit(ctx, alice).Outcome)
	res := f.ctrl.Submit(ctx, alice)

	assert.Equal(t, intake.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, intake.StateDuplicateFound, res.State)
	assert.Equal(t, intake.CategoryInfo, res.Message.Category)
	assert.Equal(t, "This email is already registered. We'll be in touch soon!", res.Message.Text)

	assert.Equal(t, 1, f.sessions.Count())
	assert.Equal(t, 1, f.repo.inserts())
	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, lead.Fields{}, f.ctrl.View().Fields)
}

func TestSubmit_ScenarioC_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	bad := lead.Fields{Name: "", Email: "bad", Industry: ""}

	res := f.ctrl.Submit(context.Background(), bad)

	assert.Equal(t, intake.OutcomeInvalid, res.Outcome)
	assert.Equal(t, intake.StateRejectedInvalid, res.State)
	assert.Len(t, res.FieldErrors, 3)
	assert.Empty(t, f.calls.list(), "no collaborator may be called")

	v := f.ctrl.View()
	assert.Equal(t, bad, v.Fields, "fields are retained")
	assert.Len(t, v.FieldErrors, 3)
	assert.False(t, v.Submitted)
	assert.Equal(t, 0, v.SessionCount)
}

func TestSubmit_ScenarioD_InsertFailureThenRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.insertErr = errors.New("connection reset by peer")

	res := f.ctrl.Submit(ctx, alice)

	assert.Equal(t, intake.OutcomeInsertFailed, res.Outcome)
	assert.Equal(t, intake.StateInsertFailed, res.State)
	assert.Equal(t, intake.CategoryError, res.Message.Category)
	assert.False(t, f.ctrl.Busy(), "guard is cleared")
	assert.Equal(t, alice, f.ctrl.View().Fields, "fields are retained")
	assert.Equal(t, 0, f.sessions.Count())
	assert.False(t, f.sessions.Submitted())
	assert.Equal(t, 0, f.notifier.count())

	f.repo.mu.Lock()
	f.repo.insertErr = nil
	f.repo.mu.Unlock()

	// Resubmitting the retained fields starts from scratch.
	res = f.ctrl.Submit(ctx, lead.Fields{})
	assert.Equal(t, intake.OutcomeSuccess, res.Outcome)
	assert.Equal(t, 2, f.repo.inserts())
	assert.Equal(t, []string{"find", "insert", "find", "insert", "notify"}, f.calls.list())
	assert.Equal(t, 1, f.sessions.Count())
}

// ─── DUPLICATE LAYERS ─────────────────────────────────────────────────────────

func TestSubmit_ConstraintRejectionIsAlreadyRegistered(t *testing.T) {
	f := newFixture(t)
	f.repo.insertErr = store.ErrEmailTaken

	res := f.ctrl.Submit(context.Background(), alice)

	assert.Equal(t, intake.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, intake.StateInsertRejectedDuplicate, res.State)
	assert.Equal(t, intake.CategoryInfo, res.Message.Category)
	assert.Equal(t, 0, f.sessions.Count())
	assert.True(t, f.sessions.Submitted())
	assert.Equal(t, 0, f.notifier.count())
	assert.Equal(t, lead.Fields{}, f.ctrl.View().Fields)
}

func TestSubmit_AdvisoryCheckFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.repo.findErr = errors.New("select timed out")

	res := f.ctrl.Submit(context.Background(), alice)

	assert.Equal(t, intake.OutcomeSuccess, res.Outcome)
	assert.Equal(t, []string{"find", "insert", "notify"}, f.calls.list())
}

func TestSubmit_AdvisoryCheckFailureStillCaughtByConstraint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.Equal(t, intake.OutcomeSuccess, f.ctrl.Submit(ctx, alice).Outcome)

	f.repo.mu.Lock()
	f.repo.findErr = errors.New("select timed out")
	f.repo.mu.Unlock()

	res := f.ctrl.Submit(ctx, alice)
	assert.Equal(t, intake.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, intake.StateInsertRejectedDuplicate, res.State)
	assert.Equal(t, 1, f.sessions.Count())
}

func TestSubmit_EmailIsNormalizedBeforeChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.Equal(t, intake.OutcomeSuccess, f.ctrl.Submit(ctx, alice).Outcome)

	res := f.ctrl.Submit(ctx, lead.Fields{Name: "Alice", Email: "  ALICE@example.com ", Industry: "technology"})
	assert.Equal(t, intake.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, 1, f.sessions.Count())
}

// ─── NOTIFICATION FAILURES ────────────────────────────────────────────────────

func TestSubmit_NotifyFailureIsPartialSuccess(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("resend: 503")

	res := f.ctrl.Submit(context.Background(), alice)

	assert.Equal(t, intake.OutcomePartialSuccess, res.Outcome)
	assert.Equal(t, intake.StateComplete, res.State)
	assert.Equal(t, intake.CategorySuccessPartial, res.Message.Category)
	assert.True(t, res.Outcome.Succeeded())
	assert.Equal(t, 1, f.sessions.Count())
	assert.Equal(t, lead.Fields{}, f.ctrl.View().Fields)
	assert.Equal(t, 1, f.notifier.count(), "no retry")
}

func TestSubmit_NotifyPanicIsPartialSuccess(t *testing.T) {
	f := newFixture(t)
	f.notifier.panic = true

	res := f.ctrl.Submit(context.Background(), alice)

	assert.Equal(t, intake.OutcomePartialSuccess, res.Outcome)
	assert.Equal(t, 1, f.sessions.Count())
	assert.False(t, f.ctrl.Busy())
}

// ─── UNEXPECTED FAILURES ──────────────────────────────────────────────────────

func TestSubmit_PanicClearsGuardAndRetainsFields(t *testing.T) {
	f := newFixture(t)
	f.repo.insertPanic = true

	res := f.ctrl.Submit(context.Background(), alice)

	assert.True(t, res.Accepted)
	assert.Equal(t, intake.OutcomeUnexpected, res.Outcome)
	assert.Equal(t, intake.StateFailed, res.State)
	assert.Equal(t, intake.CategoryError, res.Message.Category)
	assert.False(t, f.ctrl.Busy())
	assert.Equal(t, alice, f.ctrl.View().Fields)
	assert.Equal(t, 0, f.sessions.Count())
	assert.False(t, f.sessions.Submitted())
	assert.Equal(t, 0, f.notifier.count())

	f.repo.mu.Lock()
	f.repo.insertPanic = false
	f.repo.mu.Unlock()
	assert.Equal(t, intake.OutcomeSuccess, f.ctrl.Submit(context.Background(), lead.Fields{}).Outcome)
}

// ─── RE-ENTRANCY ─────────────────────────────────────────────────────────────

func TestSubmit_ReentrantCallIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.repo.insertStarted = make(chan struct{}, 1)
	f.repo.release = make(chan struct{})

	done := make(chan intake.Result, 1)
	go func() { done <- f.ctrl.Submit(context.Background(), alice) }()

	<-f.repo.insertStarted
	assert.Equal(t, intake.StateInserting, f.ctrl.State())
	assert.True(t, f.ctrl.Busy())

	second := f.ctrl.Submit(context.Background(), alice)
	assert.False(t, second.Accepted)
	assert.Equal(t, intake.OutcomeNone, second.Outcome)
	assert.False(t, f.ctrl.SetFields(lead.Fields{Name: "Bob"}), "input is ignored while busy")

	close(f.repo.release)
	first := <-done

	assert.True(t, first.Accepted)
	assert.Equal(t, intake.OutcomeSuccess, first.Outcome)
	assert.Equal(t, 1, f.repo.inserts())
	assert.Equal(t, 1, f.sessions.Count())
}

func TestResetSession_RefusedWhileBusy(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, intake.OutcomeSuccess, f.ctrl.Submit(context.Background(), alice).Outcome)

	f.repo.insertStarted = make(chan struct{}, 1)
	f.repo.release = make(chan struct{})

	done := make(chan intake.Result, 1)
	go func() { done <- f.ctrl.Submit(context.Background(), lead.Fields{Name: "Bob", Email: "bob@example.com", Industry: "retail"}) }()

	<-f.repo.insertStarted
	assert.False(t, f.ctrl.ResetSession())
	assert.Equal(t, 1, f.sessions.Count(), "log untouched while busy")

	close(f.repo.release)
	require.Equal(t, intake.OutcomeSuccess, (<-done).Outcome)
	assert.Equal(t, 2, f.sessions.Count())

	assert.True(t, f.ctrl.ResetSession())
	assert.Equal(t, 0, f.sessions.Count())
	assert.False(t, f.sessions.Submitted())
}

func TestSubmit_ConcurrentBurstWritesOnce(t *testing.T) {
	f := newFixture(t)
	f.repo.insertStarted = make(chan struct{}, 1)
	f.repo.release = make(chan struct{})

	done := make(chan intake.Result, 1)
	go func() { done <- f.ctrl.Submit(context.Background(), alice) }()
	<-f.repo.insertStarted

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.ctrl.Submit(context.Background(), alice).Accepted {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(f.repo.release)
	<-done

	assert.Equal(t, 0, accepted)
	assert.Equal(t, 1, f.repo.inserts())
}

// ─── INPUT & SESSION ─────────────────────────────────────────────────────────

func TestSubmit_ZeroFieldsUsesSetFields(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.ctrl.SetFields(alice))

	res := f.ctrl.Submit(context.Background(), lead.Fields{})
	assert.Equal(t, intake.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "alice@example.com", f.sessions.Entries()[0].Email)
}

func TestSubmit_ResetSessionThenSameEmailStaysAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.Equal(t, intake.OutcomeSuccess, f.ctrl.Submit(ctx, alice).Outcome)

	f.sessions.Reset()
	assert.False(t, f.sessions.Submitted())

	res := f.ctrl.Submit(ctx, alice)
	assert.Equal(t, intake.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, 0, f.sessions.Count())
	assert.True(t, f.sessions.Submitted())
}

func TestSubmit_NewCycleClearsPreviousErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ctrl.Submit(ctx, lead.Fields{Name: "Alice"})
	require.NotEmpty(t, f.ctrl.View().FieldErrors)

	f.ctrl.Submit(ctx, alice)
	v := f.ctrl.View()
	assert.Empty(t, v.FieldErrors)
	assert.Equal(t, intake.OutcomeSuccess, v.Outcome)
}

func TestMessageFor_EveryOutcomeHasText(t *testing.T) {
	for _, k := range []intake.OutcomeKind{
		intake.OutcomeInvalid,
		intake.OutcomeDuplicate,
		intake.OutcomeInsertFailed,
		intake.OutcomeSuccess,
		intake.OutcomePartialSuccess,
		intake.OutcomeUnexpected,
	} {
		m, ok := intake.MessageFor(k)
		assert.True(t, ok, k)
		assert.NotEmpty(t, m.Text, k)
	}
	_, ok := intake.MessageFor(intake.OutcomeNone)
	assert.False(t, ok)
}

func TestState_TerminalAndBusy(t *testing.T) {
	assert.False(t, intake.StateIdle.Busy())
	assert.False(t, intake.StateIdle.Terminal())
	for _, s := range []intake.State{
		intake.StateValidating, intake.StateCheckingDuplicate, intake.StateInserting,
		intake.StateNotifying, intake.StateNotifiedOK, intake.StateNotifiedFailed,
	} {
		assert.True(t, s.Busy(), s)
	}
	for _, s := range []intake.State{
		intake.StateRejectedInvalid, intake.StateDuplicateFound, intake.StateInsertRejectedDuplicate,
		intake.StateInsertFailed, intake.StateComplete, intake.StateFailed,
	} {
		assert.True(t, s.Terminal(), s)
		assert.False(t, s.Busy(), s)
	}
}
