// Package identity implements the external identity provider contract over
// its REST management API. The client carries no domain logic: it translates
// account provisioning calls into HTTP requests and maps conflict responses
// onto the sentinel the orchestrator compensates against.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
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
	HTTPClient     HTTPDoer
	RequestTimeout time.Duration
}

// Client talks to the identity service management API. It is safe for
// concurrent use.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     HTTPDoer
	requestTimeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("identity: base url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("identity: invalid base url: %w", err)
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
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
	}, nil
}

type accountPayload struct {
	Email         string `json:"email,omitempty"`
	Password      string `json:"password,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Disabled      bool   `json:"disabled"`
}

type accountResponse struct {
	ID string `json:"id"`
}

type claimPayload struct {
	Role string `json:"role"`
}

type verificationLinkPayload struct {
	Email string `json:"email"`
}

type verificationLinkResponse struct {
	Link string `json:"link"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) CreateAccount(ctx context.Context, in core.IdentityCreateInput) (string, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return "", fmt.Errorf("identity: email is required")
	}
	payload := accountPayload{
		Email:         email,
		Password:      in.Password,
		DisplayName:   strings.TrimSpace(in.DisplayName),
		EmailVerified: in.EmailVerified,
		Disabled:      in.Disabled,
	}
	var out accountResponse
	if err := c.do(ctx, http.MethodPost, "/v1/accounts", payload, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", fmt.Errorf("identity: create response missing account id")
	}
	return out.ID, nil
}

func (c *Client) UpdateAccount(ctx context.Context, externalID string, in core.IdentityUpdateInput) error {
	path, err := accountPath(externalID, "")
	if err != nil {
		return err
	}
	payload := map[string]any{}
	if in.Email != nil {
		payload["email"] = strings.TrimSpace(*in.Email)
	}
	if in.DisplayName != nil {
		payload["display_name"] = strings.TrimSpace(*in.DisplayName)
	}
	if len(payload) == 0 {
		return nil
	}
	return c.do(ctx, http.MethodPatch, path, payload, nil)
}

func (c *Client) SetRoleClaim(ctx context.Context, externalID string, role core.AccountRole) error {
	path, err := accountPath(externalID, "claims")
	if err != nil {
		return err
	}
	if err := role.Validate(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, path, claimPayload{Role: string(role)}, nil)
}

func (c *Client) GenerateEmailVerificationLink(ctx context.Context, email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "", fmt.Errorf("identity: email is required")
	}
	var out verificationLinkResponse
	if err := c.do(ctx, http.MethodPost, "/v1/verification-links", verificationLinkPayload{Email: trimmed}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Link) == "" {
		return "", fmt.Errorf("identity: verification response missing link")
	}
	return out.Link, nil
}

func (c *Client) DisableAccount(ctx context.Context, externalID string) error {
	path, err := accountPath(externalID, "")
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, path, map[string]any{"disabled": true}, nil)
}

func (c *Client) DeleteAccount(ctx context.Context, externalID string) error {
	path, err := accountPath(externalID, "")
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method string, path string, payload any, out any) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("identity: http client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("identity: encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(requestCtx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(res.Body, maxResponseBodyBytes+1))
	if readErr != nil {
		return fmt.Errorf("identity: read response: %w", readErr)
	}
	if int64(len(raw)) > maxResponseBodyBytes {
		return fmt.Errorf("identity: response exceeds %d bytes", maxResponseBodyBytes)
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return c.statusError(method, path, res.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("identity: decode response: %w", err)
	}
	return nil
}

func (c *Client) statusError(method string, path string, status int, raw []byte) error {
	var parsed errorResponse
	_ = json.Unmarshal(raw, &parsed)
	message := strings.TrimSpace(parsed.Message)
	if message == "" {
		message = fmt.Sprintf("%s %s returned status %d", method, path, status)
	}
	if status == http.StatusConflict {
		return fmt.Errorf("identity: %s: %w", message, core.ErrExternalAccountExists)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("identity: %s: %w", message, core.ErrExternalAccountNotFound)
	}
	return fmt.Errorf("identity: %s (status %d)", message, status)
}

func accountPath(externalID string, suffix string) (string, error) {
	trimmed := strings.TrimSpace(externalID)
	if trimmed == "" {
		return "", fmt.Errorf("identity: external id is required")
	}
	path := "/v1/accounts/" + url.PathEscape(trimmed)
	if suffix != "" {
		path += "/" + suffix
	}
	return path, nil
}

var _ core.IdentityProvider = (*Client)(nil)
