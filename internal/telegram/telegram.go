package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pfrederiksen/emu-alert/internal/logger"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	DefaultTimeout = 10 * time.Second

	// ParseModeHTML is the only parse mode emu-alert sends.
	ParseModeHTML = "HTML"

	// maxErrorBody caps how much of a non-2xx body ends up in an error.
	maxErrorBody = 1 << 10
)

// OutgoingMessage is the JSON body of a sendMessage request.
type OutgoingMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// APIResult is the part of the Bot API response envelope emu-alert reads.
type APIResult struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Client represents a Telegram Bot API client
type Client struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different Bot API server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTimeout sets the HTTP client timeout. The installed client is copied
// first, so a client passed to WithHTTPClient is never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, opts ...Option) (*Client, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}

	c := &Client{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) sendMessageURL() string {
	return fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
}

// redactedURL is sendMessageURL safe for logs.
func (c *Client) redactedURL() string {
	return fmt.Sprintf("%s/bot<redacted>/sendMessage", c.baseURL)
}

// NewMessage builds the payload SendMessage posts for text.
func (c *Client) NewMessage(text string) OutgoingMessage {
	return OutgoingMessage{
		ChatID:    c.chatID,
		Text:      text,
		ParseMode: ParseModeHTML,
	}
}

// SendMessage posts text to the configured chat exactly once. Failures after
// the request was attempted are returned as *Error.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	if n := VisibleLength(text); n > MaxMessageLength {
		logger.Warn("Message exceeds Telegram length limit", logger.Fields{
			"length": n,
			"limit":  MaxMessageLength,
		})
	}

	jsonData, err := json.Marshal(c.NewMessage(text))
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sendMessageURL(), bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("Sending message", logger.Fields{
		"url":     c.redactedURL(),
		"chat_id": c.chatID,
		"bytes":   len(jsonData),
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: stripToken(err, c.botToken)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: fmt.Errorf("reading response: %w", err)}
	}

	logger.Debug("Received response", logger.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := truncate(strings.TrimSpace(string(body)), maxErrorBody)
		return &Error{
			Kind:        KindNetwork,
			StatusCode:  resp.StatusCode,
			Description: detail,
			Err:         fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var result APIResult
	if err := json.Unmarshal(body, &result); err != nil {
		return &Error{Kind: KindResponseParse, Err: err}
	}

	if !result.OK {
		desc := result.Description
		if desc == "" {
			desc = fallbackDescription
		}
		return &Error{Kind: KindAPI, Description: desc}
	}

	return nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// stripToken removes the bot token from transport errors, which embed the URL.
func stripToken(err error, token string) error {
	msg := err.Error()
	if !strings.Contains(msg, token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, token, "<redacted>"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
