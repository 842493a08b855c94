// Package ai generates the personalized intro paragraph of the confirmation
// email. Providers are interchangeable behind Personalizer; the notification
// function falls back to a static template when none is configured or all
// of them fail.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nyashahama/lead-capture-backend/internal/lead"
)

// ErrEmptyResponse is returned when a provider answered but produced no
// usable text.
var ErrEmptyResponse = errors.New("ai: empty response")

// Prospect is what a provider is told about the person who signed up.
type Prospect struct {
	Name     string
	Industry lead.Industry
}

// Personalizer writes a short intro paragraph for one prospect.
//
// Implementations must be safe to call concurrently. A non-nil error means no
// paragraph was produced; callers use the static intro instead.
type Personalizer interface {
	Personalize(ctx context.Context, p Prospect) (string, error)
}

// ─── PROMPT ───────────────────────────────────────────────────────────────────

const systemPrompt = `You write the opening paragraph of a welcome email for a B2B product waitlist.
You will receive the first name of the person who signed up and the industry they work in.

Write 2-3 warm, specific sentences that:
- greet the person by name,
- mention one concrete way teams in their industry tend to benefit from early access,
- avoid promises about pricing, dates, or features.

Respond with the paragraph only: plain text, no greeting line, no sign-off, no markdown, no quotes.`

// maxIntroLen caps what a provider may put into the email body.
const maxIntroLen = 800

func buildPrompt(p Prospect) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "name: %s\n", lead.FirstName(p.Name))
	fmt.Fprintf(&sb, "industry: %s\n", p.Industry.Label())
	return sb.String()
}

// cleanIntro strips wrapping the model sometimes adds despite the prompt and
// enforces maxIntroLen.
func cleanIntro(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	s = strings.TrimSpace(s)

	if s == "" {
		return "", ErrEmptyResponse
	}
	if r := []rune(s); len(r) > maxIntroLen {
		s = strings.TrimSpace(string(r[:maxIntroLen]))
	}
	return s, nil
}
