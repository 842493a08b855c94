package intake

import "github.com/nyashahama/lead-capture-backend/internal/lead"

// OutcomeKind classifies how a cycle ended.
type OutcomeKind string

const (
	OutcomeNone           OutcomeKind = ""
	OutcomeInvalid        OutcomeKind = "invalid"
	OutcomeDuplicate      OutcomeKind = "duplicate"
	OutcomeInsertFailed   OutcomeKind = "insert-failed"
	OutcomeSuccess        OutcomeKind = "success"
	OutcomePartialSuccess OutcomeKind = "partial-success"
	OutcomeUnexpected     OutcomeKind = "unexpected"
)

// Category tells the UI how to render a message.
type Category string

const (
	CategoryFieldErrors    Category = "field-errors"
	CategoryInfo           Category = "info"
	CategoryError          Category = "error"
	CategorySuccess        Category = "success"
	CategorySuccessPartial Category = "success-partial"
)

// Message is the user-visible banner for an outcome.
type Message struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
}

var outcomeMessages = map[OutcomeKind]Message{
	OutcomeInvalid:        {CategoryFieldErrors, "Please fix the highlighted fields."},
	OutcomeDuplicate:      {CategoryInfo, "This email is already registered. We'll be in touch soon!"},
	OutcomeInsertFailed:   {CategoryError, "We couldn't save your details. Please try again."},
	OutcomeSuccess:        {CategorySuccess, "Thanks for signing up! Check your inbox for a confirmation email."},
	OutcomePartialSuccess: {CategorySuccessPartial, "Thanks for signing up! Your details were saved, but the confirmation email may not arrive."},
	OutcomeUnexpected:     {CategoryError, "Something went wrong. Please try again."},
}

// MessageFor returns the banner for k. OutcomeNone has no banner.
func MessageFor(k OutcomeKind) (Message, bool) {
	m, ok := outcomeMessages[k]
	return m, ok
}

// Succeeded reports whether the lead was persisted by this cycle.
func (k OutcomeKind) Succeeded() bool {
	return k == OutcomeSuccess || k == OutcomePartialSuccess
}

// Result is what Submit returns. Accepted is false when the re-entrancy
// guard turned the call into a no-op; every other field is then zero.
type Result struct {
	Accepted    bool              `json:"accepted"`
	Outcome     OutcomeKind       `json:"outcome,omitempty"`
	State       State             `json:"state,omitempty"`
	Message     *Message          `json:"message,omitempty"`
	FieldErrors []lead.FieldError `json:"field_errors,omitempty"`
	Lead        *lead.Lead        `json:"lead,omitempty"`
}
