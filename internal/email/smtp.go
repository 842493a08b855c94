package email

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// smtpSender is the Sender backed by an SMTP relay.
type smtpSender struct {
	dialer   *gomail.Dialer
	host     string
	fromAddr string
	fromName string
}

// NewSMTPSender returns a Sender that delivers email through host:port.
// An empty host makes every send fail with ErrMissingCredential.
func NewSMTPSender(host string, port int, user, password, fromAddr, fromName string) Sender {
	return &smtpSender{
		dialer:   gomail.NewDialer(host, port, user, password),
		host:     host,
		fromAddr: fromAddr,
		fromName: fromName,
	}
}

func (s *smtpSender) SendConfirmation(ctx context.Context, p ConfirmationParams) (string, error) {
	if s.host == "" {
		return "", ErrMissingCredential
	}

	m, id := s.buildMessage(p)

	// gomail has no context support; abandon the wait when ctx ends. The
	// dial itself finishes in the background.
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("email: smtp send: %w", err)
		}
		return id, nil
	case <-ctx.Done():
		return "", fmt.Errorf("email: smtp send: %w", ctx.Err())
	}
}

// buildMessage returns the message and the Message-ID it carries.
func (s *smtpSender) buildMessage(p ConfirmationParams) (*gomail.Message, string) {
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.host)

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromAddr, s.fromName)
	if p.ToName != "" {
		m.SetAddressHeader("To", p.To, p.ToName)
	} else {
		m.SetHeader("To", p.To)
	}
	m.SetHeader("Subject", p.Subject)
	m.SetHeader("Message-ID", id)
	if p.Text != "" {
		m.SetBody("text/plain", p.Text)
		m.AddAlternative("text/html", p.HTML)
	} else {
		m.SetBody("text/html", p.HTML)
	}
	return m, id
}
