package notifier

import (
	"context"

	"github.com/pfrederiksen/emu-alert/internal/telegram"
)

// Notifier defines the interface for delivering one alert
type Notifier interface {
	// Notify delivers text once, without retries
	Notify(ctx context.Context, text string) error
}

// TelegramNotifier sends alerts to a single Telegram chat
type TelegramNotifier struct {
	client *telegram.Client
}

// NewTelegramNotifier wraps an initialized Telegram client
func NewTelegramNotifier(client *telegram.Client) *TelegramNotifier {
	return &TelegramNotifier{client: client}
}

// Notify posts text to the configured chat
func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	return n.client.SendMessage(ctx, text)
}
