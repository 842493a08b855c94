package intake

import (
	"errors"
	"fmt"
)

// ErrDuplicate is returned by Writer when the persistence layer rejected the
// write because the email is already registered.
var ErrDuplicate = errors.New("intake: email already registered")

// PersistenceError wraps any non-duplicate insert failure. The user may
// resubmit.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("intake: persist lead: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NotificationError wraps a failed or panicking notifier call. It only ever
// downgrades a success to a partial success.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("intake: notify: %v", e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
