// Package confirm is the notification function: it turns a freshly captured
// lead into a confirmation email, optionally with an AI-written intro, and
// reports the transport's message id back to the caller.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nyashahama/lead-capture-backend/internal/ai"
	"github.com/nyashahama/lead-capture-backend/internal/email"
	"github.com/nyashahama/lead-capture-backend/internal/lead"
)

// Request is the body of POST /notify.
type Request struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Industry string `json:"industry"`
}

// Result describes a delivered confirmation.
type Result struct {
	MessageID    string
	Personalized bool
}

// StatusError carries the HTTP status the handler should answer with.
type StatusError struct {
	Status  int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("confirm: %d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("confirm: %d %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// ServiceConfig holds the non-collaborator settings of a Service.
type ServiceConfig struct {
	ProductName        string
	PersonalizeTimeout time.Duration
}

// Service sends confirmation emails.
type Service struct {
	sender       email.Sender
	personalizer ai.Personalizer // nil disables personalization
	cfg          ServiceConfig
	logger       *slog.Logger
}

func NewService(sender email.Sender, personalizer ai.Personalizer, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.PersonalizeTimeout <= 0 {
		cfg.PersonalizeTimeout = 4 * time.Second
	}
	return &Service{
		sender:       sender,
		personalizer: personalizer,
		cfg:          cfg,
		logger:       logger,
	}
}

// Send validates req, writes the intro, renders the email, and hands it to
// the transport. Every error is a *StatusError.
func (s *Service) Send(ctx context.Context, req Request) (Result, error) {
	f := lead.Fields{Name: req.Name, Email: req.Email, Industry: req.Industry}
	if errs := lead.Validate(f); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Message
		}
		return Result{}, &StatusError{Status: http.StatusBadRequest, Message: strings.Join(msgs, "; ")}
	}
	f = f.Normalize()

	intro, personalized := s.intro(ctx, f)

	msg, err := render(emailData{
		Name:        f.Name,
		FirstName:   lead.FirstName(f.Name),
		Industry:    lead.Industry(f.Industry).Label(),
		Intro:       intro,
		ProductName: s.cfg.ProductName,
	})
	if err != nil {
		return Result{}, &StatusError{Status: http.StatusInternalServerError, Message: "render email", Err: err}
	}

	id, err := s.sender.SendConfirmation(ctx, email.ConfirmationParams{
		To:      f.Email,
		ToName:  f.Name,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if errors.Is(err, email.ErrMissingCredential) {
		s.logger.Error("confirm: email transport is not configured")
		return Result{}, &StatusError{Status: http.StatusInternalServerError, Message: "email transport is not configured", Err: err}
	}
	if err != nil {
		s.logger.Error("confirm: send failed", "error", err, "industry", f.Industry)
		return Result{}, &StatusError{Status: http.StatusBadGateway, Message: "email delivery failed", Err: err}
	}

	s.logger.Info("confirm: email sent", "message_id", id, "personalized", personalized)
	return Result{MessageID: id, Personalized: personalized}, nil
}

// intro returns the AI-written paragraph, or the static industry intro when
// personalization is disabled, slow, or failing.
func (s *Service) intro(ctx context.Context, f lead.Fields) (string, bool) {
	industry := lead.Industry(f.Industry)
	if s.personalizer == nil {
		return staticIntro(industry), false
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.PersonalizeTimeout)
	defer cancel()

	text, err := s.personalizer.Personalize(pctx, ai.Prospect{Name: f.Name, Industry: industry})
	if err != nil {
		s.logger.Warn("confirm: personalization failed, using static intro", "error", err)
		return staticIntro(industry), false
	}
	return text, true
}
