package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient("test-token", "12345", WithBaseURL(baseURL))
	if err != nil {
		t.Fatalf("NewClient() unexpected error: %v", err)
	}
	return client
}

// TestSendMessage_Success tests successful message sending
func TestSendMessage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("Path = %s, want /bottest-token/sendMessage", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
		}

		var got OutgoingMessage
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request body: %v", err)
			return
		}
		want := OutgoingMessage{ChatID: "12345", Text: "<b>disk</b> full", ParseMode: "HTML"}
		if got != want {
			t.Errorf("payload = %+v, want %+v", got, want)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true,"result":{"message_id":123,"chat":{"id":12345}}}`) // nolint:errcheck
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	if err := client.SendMessage(context.Background(), "<b>disk</b> full"); err != nil {
		t.Errorf("SendMessage() unexpected error: %v", err)
	}
}

// TestSendMessage_RawPayload checks the exact JSON keys on the wire
func TestSendMessage_RawPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decoding request body: %v", err)
			return
		}
		if len(raw) != 3 {
			t.Errorf("payload has %d keys, want 3: %v", len(raw), raw)
		}
		for _, key := range []string{"chat_id", "text", "parse_mode"} {
			if _, ok := raw[key]; !ok {
				t.Errorf("payload missing %q", key)
			}
		}
		if _, isString := raw["chat_id"].(string); !isString {
			t.Errorf("chat_id should be sent as a string, got %T", raw["chat_id"])
		}
		io.WriteString(w, `{"ok":true}`) // nolint:errcheck
	}))
	defer server.Close()

	if err := newTestClient(t, server.URL).SendMessage(context.Background(), "hi"); err != nil {
		t.Errorf("SendMessage() unexpected error: %v", err)
	}
}

func TestSendMessage_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   Kind
		wantStatus int
		wantText   string
	}{
		{
			name:     "api error with description",
			status:   http.StatusOK,
			body:     `{"ok":false,"description":"chat not found"}`,
			wantKind: KindAPI,
			wantText: "chat not found",
		},
		{
			name:     "api error without description",
			status:   http.StatusOK,
			body:     `{"ok":false}`,
			wantKind: KindAPI,
			wantText: fallbackDescription,
		},
		{
			name:     "ok field absent",
			status:   http.StatusOK,
			body:     `{"result":true}`,
			wantKind: KindAPI,
			wantText: fallbackDescription,
		},
		{
			name:     "non-json body",
			status:   http.StatusOK,
			body:     `<html>bad gateway</html>`,
			wantKind: KindResponseParse,
			wantText: "parsing response",
		},
		{
			name:       "http 500",
			status:     http.StatusInternalServerError,
			body:       "Internal Server Error",
			wantKind:   KindNetwork,
			wantStatus: http.StatusInternalServerError,
			wantText:   "status 500",
		},
		{
			name:       "http 400 keeps api body",
			status:     http.StatusBadRequest,
			body:       `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`,
			wantKind:   KindNetwork,
			wantStatus: http.StatusBadRequest,
			wantText:   "chat not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body) // nolint:errcheck
			}))
			defer server.Close()

			err := newTestClient(t, server.URL).SendMessage(context.Background(), "Test message")
			if err == nil {
				t.Fatal("SendMessage() expected error, got nil")
			}

			var te *Error
			if !errors.As(err, &te) {
				t.Fatalf("SendMessage() error = %T, want *Error", err)
			}
			if te.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", te.Kind, tt.wantKind)
			}
			if te.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", te.StatusCode, tt.wantStatus)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("SendMessage() error = %v, want error containing %q", err, tt.wantText)
			}
		})
	}
}

// TestSendMessage_ConnectionRefused tests transport failures
func TestSendMessage_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := newTestClient(t, url).SendMessage(context.Background(), "Test message")
	if KindOf(err) != KindNetwork {
		t.Fatalf("SendMessage() error = %v, want network error", err)
	}
	if strings.Contains(err.Error(), "test-token") {
		t.Errorf("error leaks bot token: %v", err)
	}
}

// TestSendMessage_EmptyText tests that blank text never hits the network
func TestSendMessage_EmptyText(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	for _, text := range []string{"", "   ", "\n\t"} {
		if err := client.SendMessage(context.Background(), text); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("SendMessage(%q) error = %v, want ErrEmptyMessage", text, err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("server received %d requests, want 0", n)
	}
}

// TestSendMessage_Independent sends twice against a stable backend
func TestSendMessage_Independent(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.WriteString(w, `{"ok":false,"description":"chat not found"}`) // nolint:errcheck
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	first := client.SendMessage(context.Background(), "same")
	second := client.SendMessage(context.Background(), "same")

	if first == nil || second == nil {
		t.Fatalf("expected two failures, got %v and %v", first, second)
	}
	if first.Error() != second.Error() {
		t.Errorf("outcomes differ: %q vs %q", first, second)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("server received %d requests, want exactly 2 (no retries)", n)
	}
}

// TestSendMessage_Timeout tests that a slow server yields a network error
func TestSendMessage_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		io.WriteString(w, `{"ok":true}`) // nolint:errcheck
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient("test-token", "12345",
		WithBaseURL(server.URL),
		WithTimeout(50*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}

	err = client.SendMessage(context.Background(), "Test message")

	var te *Error
	if !errors.As(err, &te) || te.Kind != KindNetwork {
		t.Fatalf("SendMessage() error = %v, want network error", err)
	}
	if te.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for a timeout", te.StatusCode)
	}
	if strings.Contains(err.Error(), "test-token") {
		t.Errorf("error leaks bot token: %v", err)
	}
	if !strings.Contains(err.Error(), "<redacted>") {
		t.Errorf("error = %v, want redacted URL", err)
	}
}

// TestSendMessage_LongErrorBody tests that error bodies are capped on a rune boundary
func TestSendMessage_LongErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "x"+strings.Repeat("ж", maxErrorBody)) // nolint:errcheck
	}))
	defer server.Close()

	err := newTestClient(t, server.URL).SendMessage(context.Background(), "Test message")

	var te *Error
	if !errors.As(err, &te) {
		t.Fatalf("SendMessage() error = %v, want *Error", err)
	}
	if len(te.Description) > maxErrorBody {
		t.Errorf("Description length = %d, want <= %d", len(te.Description), maxErrorBody)
	}
	if !utf8.ValidString(te.Description) {
		t.Error("Description is not valid UTF-8")
	}
}
