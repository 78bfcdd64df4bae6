// Package email delivers transactional mail through the Resend API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

const defaultBaseURL = "https://api.resend.com"

var errNotConfigured = errors.New("email: RESEND_API_KEY is not set")

type Config struct {
	APIKey  string
	BaseURL string
	From    string
	Timeout time.Duration
}

// Notifier implements ports.Notifier. A 4xx answer is a rejection by the
// provider and wraps domain.ErrNotificationRejected.
type Notifier struct {
	apiKey     string
	baseURL    string
	from       string
	httpClient *http.Client
}

func NewNotifier(cfg Config) *Notifier {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		from:       cfg.From,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send delivers msg and returns the provider message id.
func (n *Notifier) Send(ctx context.Context, msg domain.Email) (string, error) {
	if n.apiKey == "" {
		return "", errNotConfigured
	}
	if msg.To == "" {
		return "", fmt.Errorf("%w: empty recipient", domain.ErrNotificationRejected)
	}

	payload, err := json.Marshal(sendRequest{
		From:    n.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("email: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		var out struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("email: decode response: %w", err)
		}
		return out.ID, nil
	}

	var apiErr struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&apiErr)
	detail := apiErr.Message
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %d %s", domain.ErrNotificationRejected, resp.StatusCode, detail)
	}
	return "", fmt.Errorf("email: provider returned %d: %s", resp.StatusCode, detail)
}
