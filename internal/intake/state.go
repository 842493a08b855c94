// Package intake is the submission workflow behind the lead form: validation,
// the advisory duplicate check, the authoritative insert, the confirmation
// notification, and the per-form state machine that ties them together.
package intake

// State is a node of the submission state machine. One Controller moves
// through these states once per submit cycle.
type State string

const (
	StateIdle                    State = "idle"
	StateValidating              State = "validating"
	StateRejectedInvalid         State = "rejected-invalid"
	StateCheckingDuplicate       State = "checking-duplicate"
	StateDuplicateFound          State = "duplicate-found"
	StateInserting               State = "inserting"
	StateInsertRejectedDuplicate State = "insert-rejected-duplicate"
	StateInsertFailed            State = "insert-failed"
	StateNotifying               State = "notifying"
	StateNotifiedOK              State = "notified-ok"
	StateNotifiedFailed          State = "notified-failed"
	StateComplete                State = "complete"

	// StateFailed ends a cycle that panicked before reaching another
	// terminal state.
	StateFailed State = "failed"
)

// Terminal reports whether the cycle has ended in s.
func (s State) Terminal() bool {
	switch s {
	case StateRejectedInvalid,
		StateDuplicateFound,
		StateInsertRejectedDuplicate,
		StateInsertFailed,
		StateComplete,
		StateFailed:
		return true
	}
	return false
}

// Busy reports whether a cycle is in flight. While busy, new submits are
// ignored.
func (s State) Busy() bool {
	return s != StateIdle && !s.Terminal()
}
