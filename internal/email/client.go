// Package email delivers the confirmation email. Two transports are
// available: the Resend HTTP API and plain SMTP.
package email

import (
	"context"
	"errors"
)

// ErrMissingCredential is returned by a transport that was built without the
// credential it needs. It is reported as a configuration problem rather than
// a delivery failure.
var ErrMissingCredential = errors.New("email: transport credential is not configured")

// ConfirmationParams is one fully rendered confirmation email.
type ConfirmationParams struct {
	To      string // recipient address
	ToName  string // display name; may be empty
	Subject string
	HTML    string
	Text    string // plain-text alternative; may be empty
}

// Sender is what the notification function uses to send email. Tests inject
// a stub that records calls without hitting the network.
type Sender interface {
	// SendConfirmation delivers p and returns the transport's message id.
	SendConfirmation(ctx context.Context, p ConfirmationParams) (string, error)
}

func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	return name + " <" + addr + ">"
}
