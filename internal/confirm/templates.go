package confirm

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/nyashahama/lead-capture-backend/internal/lead"
)

// ─── STATIC INTROS ────────────────────────────────────────────────────────────

var industryIntros = map[lead.Industry]string{
	lead.IndustryTechnology:    "Engineering and product teams use early access to shape the roadmap before it hardens. We'll share previews as soon as they are ready.",
	lead.IndustryHealthcare:    "Healthcare teams tell us that time saved on routine work goes straight back to patients. We'll show you where that time comes from.",
	lead.IndustryFinance:       "Finance teams care about accuracy first and speed second. Early access lets you check both against your own numbers.",
	lead.IndustryEducation:     "Educators juggle more tools than anyone. We'll keep what we send you short and practical.",
	lead.IndustryRetail:        "Retail moves fast, especially around peak seasons. Early access gives you time to try things before the rush.",
	lead.IndustryManufacturing: "Manufacturing teams run on reliable processes. We'll show you how we fit into yours without disrupting the line.",
}

const genericIntro = "We're glad you're here. We'll be in touch with early access details soon."

func staticIntro(i lead.Industry) string {
	if s, ok := industryIntros[i]; ok {
		return s
	}
	return genericIntro
}

// ─── EMAIL BODY ───────────────────────────────────────────────────────────────

type emailData struct {
	Name        string
	FirstName   string
	Industry    string
	Intro       string
	ProductName string
}

type renderedEmail struct {
	Subject string
	HTML    string
	Text    string
}

var confirmationHTML = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">You're on the list</h2>
  <p>Hi {{.FirstName}},</p>
  <p>{{.Intro}}</p>
  <p>Thanks for joining {{.ProductName}}. You signed up as part of the
  <strong>{{.Industry}}</strong> group, so the updates you get will be relevant to your work.</p>
  <p style="color: #6b7280; font-size: 14px;">
    If you didn't sign up, you can ignore this email. Nothing else will be sent.
  </p>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;">
  <p style="color: #9ca3af; font-size: 12px;">
    {{.ProductName}} · You are receiving this because you signed up on our website
  </p>
</body>
</html>`))

func render(d emailData) (renderedEmail, error) {
	if d.ProductName == "" {
		d.ProductName = "our early access program"
	}
	if d.FirstName == "" {
		d.FirstName = "there"
	}

	var html bytes.Buffer
	if err := confirmationHTML.Execute(&html, d); err != nil {
		return renderedEmail{}, fmt.Errorf("execute template: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n", d.FirstName)
	fmt.Fprintf(&text, "%s\n\n", d.Intro)
	fmt.Fprintf(&text, "Thanks for joining %s. You signed up as part of the %s group.\n", d.ProductName, d.Industry)

	return renderedEmail{
		Subject: fmt.Sprintf("Thanks for signing up, %s!", d.FirstName),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
