package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-claims/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *map[string]any, func()) {
	t.Helper()
	captured := &map[string]any{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		*captured = body
		handler(w, r)
	}))
	client, err := NewClient(Config{
		BaseURL:     server.URL,
		APIKey:      "mail-key",
		FromAddress: "no-reply@claims.example",
	})
	if err != nil {
		server.Close()
		t.Fatalf("new client: %v", err)
	}
	return client, captured, server.Close
}

func TestSendPostsMessageWithFromAddress(t *testing.T) {
	client, captured, cleanup := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	defer cleanup()

	err := client.Send(context.Background(), core.Notification{
		To:      "ops@acme.example",
		Subject: "Welcome to your claims account",
		HTML:    "<p>hello</p>",
		Text:    "hello",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	body := *captured
	if body["from"] != "no-reply@claims.example" {
		t.Fatalf("unexpected from %v", body["from"])
	}
	if body["to"] != "ops@acme.example" || body["subject"] != "Welcome to your claims account" {
		t.Fatalf("unexpected payload %+v", body)
	}
}

func TestSendSurfacesProviderErrors(t *testing.T) {
	client, _, cleanup := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	})
	defer cleanup()

	err := client.Send(context.Background(), core.Notification{
		To:      "ops@acme.example",
		Subject: "Welcome",
		Text:    "hello",
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got != "notify: rate limited (status 429)" {
		t.Fatalf("unexpected error text %q", got)
	}
}

func TestSendValidatesMessage(t *testing.T) {
	client, _, cleanup := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	defer cleanup()

	cases := []struct {
		name string
		msg  core.Notification
	}{
		{"missing recipient", core.Notification{Subject: "s", Text: "b"}},
		{"missing subject", core.Notification{To: "a@b.example", Text: "b"}},
		{"missing body", core.Notification{To: "a@b.example", Subject: "s"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := client.Send(context.Background(), tc.msg); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestNewClientRequiresConfig(t *testing.T) {
	if _, err := NewClient(Config{FromAddress: "no-reply@claims.example"}); err == nil {
		t.Fatal("expected an error for a missing base url")
	}
	if _, err := NewClient(Config{BaseURL: "https://mail.example"}); err == nil {
		t.Fatal("expected an error for a missing from address")
	}
}
