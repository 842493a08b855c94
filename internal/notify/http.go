package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nyashahama/lead-capture-backend/internal/lead"
)

// httpNotifier invokes the notification function over HTTP.
type httpNotifier struct {
	url        string
	token      string
	httpClient *http.Client
}

// NewHTTPNotifier returns a Notifier that POSTs to the notification function
// at url. token, when non-empty, is sent as a bearer credential.
func NewHTTPNotifier(url, token string, timeout time.Duration) Notifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpNotifier{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ─── WIRE SHAPES ──────────────────────────────────────────────────────────────

type notifyRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Industry string `json:"industry"`
}

type notifyResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Error     string `json:"error"`
	Status    int    `json:"status"`
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

// Notify sends one request and interprets the response. There is no retry.
func (n *httpNotifier) Notify(ctx context.Context, f lead.Fields) error {
	body, err := json.Marshal(notifyRequest{
		Name:     f.Name,
		Email:    f.Email,
		Industry: f.Industry,
	})
	if err != nil {
		return &Error{Message: "marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return &Error{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return &Error{Message: "http request", Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: "read response", Err: err}
	}

	var parsed notifyResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return &Error{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("malformed response: %.200s", string(respBytes)),
			Err:     err,
		}
	}

	if parsed.Error != "" {
		status := parsed.Status
		if status == 0 {
			status = resp.StatusCode
		}
		return &Error{Status: status, Message: parsed.Error}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: fmt.Sprintf("unexpected status: %.200s", string(respBytes))}
	}

	if !parsed.Success {
		return &Error{Status: resp.StatusCode, Message: "function reported no success"}
	}

	return nil
}
