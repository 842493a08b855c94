package intake

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nyashahama/lead-capture-backend/internal/lead"
	"github.com/nyashahama/lead-capture-backend/internal/notify"
)

var (
	// ErrSessionNotFound is returned by Lookup for unknown or evicted sessions.
	ErrSessionNotFound = errors.New("intake: session not found")

	// ErrTokenMismatch is returned by Lookup when the anon token does not
	// belong to the session.
	ErrTokenMismatch = errors.New("intake: token does not match session")

	// ErrTooManySessions is returned by Open when the registry is full.
	ErrTooManySessions = errors.New("intake: too many open sessions")
)

// DefaultMaxSessions is used when RegistryConfig.MaxSessions is not set.
const DefaultMaxSessions = 10_000

// RegistryConfig bounds the registry.
type RegistryConfig struct {
	// MaxSessions is the number of form instances held at once. Open fails
	// with ErrTooManySessions beyond it until the sweeper evicts idle ones.
	MaxSessions int
}

type registryEntry struct {
	ctrl     *Controller
	token    string
	lastSeen time.Time
}

// Registry holds one Controller per open form instance. Each instance owns
// its own SessionLog, so counters never leak between browsers.
type Registry struct {
	repo     Repository
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
	max      int

	mu       sync.Mutex
	sessions map[uuid.UUID]*registryEntry
}

func NewRegistry(repo Repository, notifier notify.Notifier, cfg RegistryConfig, logger *slog.Logger) *Registry {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	return &Registry{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		max:      cfg.MaxSessions,
		sessions: make(map[uuid.UUID]*registryEntry),
	}
}

// Open creates a form instance and returns its id and anon token. The token
// must accompany every later Lookup. It returns ErrTooManySessions when the
// registry already holds MaxSessions instances.
func (r *Registry) Open(src lead.Source) (uuid.UUID, string, *Controller, error) {
	if r.Len() >= r.max {
		return uuid.Nil, "", nil, ErrTooManySessions
	}

	// 32 bytes → 64 hex chars.
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return uuid.Nil, "", nil, fmt.Errorf("intake: generate anon token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	id := uuid.New()
	ctrl := NewController(r.repo, r.notifier, NewSessionLog(), ControllerConfig{
		ID:     id,
		Source: src,
		Now:    r.now,
	}, r.logger)

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-checked under the lock: concurrent opens may have filled it.
	if len(r.sessions) >= r.max {
		return uuid.Nil, "", nil, ErrTooManySessions
	}
	r.sessions[id] = &registryEntry{ctrl: ctrl, token: token, lastSeen: r.now()}

	return id, token, ctrl, nil
}

// Lookup returns the controller for id after checking token, and refreshes
// the session's idle timer.
func (r *Registry) Lookup(id uuid.UUID, token string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if subtle.ConstantTimeCompare([]byte(e.token), []byte(token)) != 1 {
		return nil, ErrTokenMismatch
	}
	e.lastSeen = r.now()
	return e.ctrl, nil
}

// EvictIdle drops sessions not seen since cutoff. Sessions with a cycle in
// flight are kept regardless. It returns the number evicted.
func (r *Registry) EvictIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.sessions {
		if e.lastSeen.After(cutoff) || e.ctrl.Busy() {
			continue
		}
		delete(r.sessions, id)
		n++
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
