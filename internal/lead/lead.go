// Package lead holds the domain types shared by the intake core, the store,
// and the notification function. It has no dependencies on other internal
// packages.
package lead

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ─── INDUSTRY ────────────────────────────────────────────────────────────────

// Industry is one of the fixed values offered by the form's select box.
type Industry string

const (
	IndustryTechnology    Industry = "technology"
	IndustryHealthcare    Industry = "healthcare"
	IndustryFinance       Industry = "finance"
	IndustryEducation     Industry = "education"
	IndustryRetail        Industry = "retail"
	IndustryManufacturing Industry = "manufacturing"
	IndustryOther         Industry = "other"
)

// IndustryOption is a select-box entry.
type IndustryOption struct {
	Value Industry `json:"value"`
	Label string   `json:"label"`
}

var industryOptions = []IndustryOption{
	{IndustryTechnology, "Technology"},
	{IndustryHealthcare, "Healthcare"},
	{IndustryFinance, "Finance"},
	{IndustryEducation, "Education"},
	{IndustryRetail, "Retail"},
	{IndustryManufacturing, "Manufacturing"},
	{IndustryOther, "Other"},
}

// Industries returns the fixed industry list in display order.
func Industries() []IndustryOption {
	out := make([]IndustryOption, len(industryOptions))
	copy(out, industryOptions)
	return out
}

// Valid reports whether i is one of the fixed values.
func (i Industry) Valid() bool {
	for _, o := range industryOptions {
		if o.Value == i {
			return true
		}
	}
	return false
}

// Label returns the display label, or the raw value for unknown industries.
func (i Industry) Label() string {
	for _, o := range industryOptions {
		if o.Value == i {
			return o.Label
		}
	}
	return string(i)
}

// ─── FORM FIELDS ─────────────────────────────────────────────────────────────

// Fields are the three values a visitor types into the form.
type Fields struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Industry string `json:"industry"`
}

// Normalize trims surrounding whitespace and lowercases the email so the
// advisory check and the unique constraint see the same value.
func (f Fields) Normalize() Fields {
	return Fields{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.ToLower(strings.TrimSpace(f.Email)),
		Industry: strings.TrimSpace(f.Industry),
	}
}

// IsZero reports whether every field is empty.
func (f Fields) IsZero() bool {
	return f == Fields{}
}

// FirstName returns the first word of a full name, used to greet the lead.
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ─── PERSISTED ENTITY ────────────────────────────────────────────────────────

// Source is the attribution captured when a form session is opened. Every
// field is optional.
type Source struct {
	Referrer    string `json:"referrer,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	IPHash      string `json:"ip_hash,omitempty"`
}

// IsZero reports whether no attribution was captured.
func (s Source) IsZero() bool {
	return s == Source{}
}

// Lead is one persisted submission. Email is unique across all leads; the
// database enforces it.
type Lead struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Industry    Industry  `json:"industry"`
	Source      Source    `json:"source"`
	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewLead is the input to an insert.
type NewLead struct {
	Fields Fields
	Source Source
}
