package email_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/lead-capture-backend/internal/email"
)

var params = email.ConfirmationParams{
	To:      "alice@example.com",
	ToName:  "Alice",
	Subject: "Welcome aboard",
	HTML:    "<p>hi</p>",
	Text:    "hi",
}

func TestResend_SendConfirmation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme <hello@acme.test>", body["from"])
		assert.Equal(t, []any{"alice@example.com"}, body["to"])
		assert.Equal(t, "Welcome aboard", body["subject"])
		assert.Equal(t, "<p>hi</p>", body["html"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`)) //nolint:errcheck
	}))
	defer ts.Close()

	s := email.NewResendClientWithBaseURL("re_test", "hello@acme.test", "Acme", ts.URL)
	id, err := s.SendConfirmation(context.Background(), params)

	require.NoError(t, err)
	assert.Equal(t, "49a3999c-0ce1-4ea6-ab68-afcd6dc2e794", id)
}

func TestResend_MissingKey(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	s := email.NewResendClientWithBaseURL("", "hello@acme.test", "Acme", ts.URL)
	_, err := s.SendConfirmation(context.Background(), params)

	assert.ErrorIs(t, err, email.ErrMissingCredential)
	assert.False(t, called)
}

func TestResend_Errors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"nested error", http.StatusOK, `{"error":{"name":"validation_error","message":"bad from"}}`, "Resend error validation_error: bad from"},
		{"flat error", http.StatusUnprocessableEntity, `{"name":"validation_error","message":"invalid to","statusCode":422}`, "status 422"},
		{"non-2xx no body", http.StatusBadGateway, `{}`, "unexpected status 502"},
		{"malformed", http.StatusOK, `<html>`, "unmarshal response"},
		{"missing id", http.StatusOK, `{}`, "no id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body)) //nolint:errcheck
			}))
			defer ts.Close()

			s := email.NewResendClientWithBaseURL("re_test", "hello@acme.test", "Acme", ts.URL)
			_, err := s.SendConfirmation(context.Background(), params)

			require.Error(t, err)
			assert.NotErrorIs(t, err, email.ErrMissingCredential)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
