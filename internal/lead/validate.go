package lead

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldError is a single inline error shown next to a form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks the required fields and returns the violations in field
// order (name, email, industry). An empty result means the form may be
// submitted. Validate does no I/O.
func Validate(f Fields) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(f.Name) == "" {
		errs = append(errs, FieldError{"name", "Name is required"})
	}

	email := strings.TrimSpace(f.Email)
	if email == "" {
		errs = append(errs, FieldError{"email", "Email is required"})
	} else if !emailPattern.MatchString(email) {
		errs = append(errs, FieldError{"email", "Please enter a valid email address"})
	}

	industry := strings.TrimSpace(f.Industry)
	if industry == "" {
		errs = append(errs, FieldError{"industry", "Please select an industry"})
	} else if !Industry(industry).Valid() {
		errs = append(errs, FieldError{"industry", "Please select a valid industry"})
	}

	return errs
}
