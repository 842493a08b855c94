// Package notify is the client side of the confirmation-email function. The
// intake core calls Notify exactly once per successful write and only cares
// whether it worked.
package notify

import (
	"context"
	"fmt"

	"github.com/nyashahama/lead-capture-backend/internal/lead"
)

// Notifier is the interface the submission controller uses. Tests inject a
// stub that records calls without hitting the network.
type Notifier interface {
	// Notify asks the notification function to send the confirmation email
	// for f. A non-nil error means the email may not arrive; the lead is
	// already persisted by the time this is called. Implementations must not
	// retry.
	Notify(ctx context.Context, f lead.Fields) error
}

// Error is returned for every failed notification: transport errors, non-2xx
// responses, error envelopes, and malformed bodies alike. Status is zero when
// no HTTP response was received.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("notify: status %d: %s", e.Status, e.Message)
	}
	return "notify: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
