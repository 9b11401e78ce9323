// Package notify delivers transactional email through the mail provider's
// HTTP API. Delivery is best effort from the caller's point of view; the
// orchestrator logs and swallows send failures.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-claims/core"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxResponseBodyBytes  = 1 << 20 // 1 MiB
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	BaseURL        string
	APIKey         string
	FromAddress    string
	HTTPClient     HTTPDoer
	RequestTimeout time.Duration
}

type Client struct {
	baseURL        string
	apiKey         string
	fromAddress    string
	httpClient     HTTPDoer
	requestTimeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("notify: base url is required")
	}
	fromAddress := strings.TrimSpace(cfg.FromAddress)
	if fromAddress == "" {
		return nil, fmt.Errorf("notify: from address is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &Client{
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		fromAddress:    fromAddress,
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
	}, nil
}

type messagePayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (c *Client) Send(ctx context.Context, msg core.Notification) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("notify: http client is not configured")
	}
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return fmt.Errorf("notify: recipient is required")
	}
	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		return fmt.Errorf("notify: subject is required")
	}
	if strings.TrimSpace(msg.HTML) == "" && strings.TrimSpace(msg.Text) == "" {
		return fmt.Errorf("notify: message body is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	encoded, err := json.Marshal(messagePayload{
		From:    c.fromAddress,
		To:      to,
		Subject: subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("notify: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send message: %w", err)
	}
	defer res.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(res.Body, maxResponseBodyBytes+1))
	if readErr != nil {
		return fmt.Errorf("notify: read response: %w", readErr)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		var parsed errorResponse
		_ = json.Unmarshal(raw, &parsed)
		message := strings.TrimSpace(parsed.Message)
		if message == "" {
			message = fmt.Sprintf("message endpoint returned status %d", res.StatusCode)
		}
		return fmt.Errorf("notify: %s (status %d)", message, res.StatusCode)
	}
	return nil
}

var _ core.Notifier = (*Client)(nil)
