package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pfrederiksen/emu-alert/internal/telegram"
)

// DryRunNotifier prints what would be sent without actually posting
type DryRunNotifier struct {
	out    io.Writer
	chatID string
}

// NewDryRunNotifier creates a new dry-run notifier. chatID may be empty.
func NewDryRunNotifier(out io.Writer, chatID string) *DryRunNotifier {
	return &DryRunNotifier{out: out, chatID: chatID}
}

// Notify prints the sendMessage payload and a plain-text preview
func (n *DryRunNotifier) Notify(_ context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return telegram.ErrEmptyMessage
	}

	msg := telegram.OutgoingMessage{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: telegram.ParseModeHTML,
	}
	payload, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	preview, err := telegram.PlainText(text)
	if err != nil {
		return err
	}
	length := telegram.VisibleLength(text)

	fmt.Fprintln(n.out, "DRY RUN MODE - Would send:")
	fmt.Fprintln(n.out, string(payload))
	fmt.Fprintln(n.out, "--- Preview ---")
	fmt.Fprintln(n.out, preview)
	fmt.Fprintf(n.out, "\n(Length: %d/%d characters)\n", length, telegram.MaxMessageLength)
	if length > telegram.MaxMessageLength {
		fmt.Fprintln(n.out, "Warning: message is longer than Telegram allows and will be rejected")
	}
	return nil
}
