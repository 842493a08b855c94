package intake

import (
	"sync"
	"time"
)

// Entry is one lead submitted during the current session.
type Entry struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SessionLog is the session-scoped state read by the presentation layer: the
// "just submitted" flag that switches the form to the thank-you view, and the
// running list of leads submitted in this session.
//
// The controller mutates it only on terminal branches. Readers take a
// snapshot after each cycle.
type SessionLog struct {
	mu        sync.RWMutex
	submitted bool
	entries   []Entry
}

func NewSessionLog() *SessionLog {
	return &SessionLog{}
}

// Append records a confirmed new lead and marks the session as submitted.
func (l *SessionLog) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	l.submitted = true
}

// MarkSubmitted flips the thank-you flag without adding an entry. Used for
// the already-registered path.
func (l *SessionLog) MarkSubmitted() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submitted = true
}

// Reset clears the log and the submitted flag.
func (l *SessionLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	l.submitted = false
}

// Entries returns a copy of the log in append order.
func (l *SessionLog) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *SessionLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *SessionLog) Submitted() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.submitted
}
