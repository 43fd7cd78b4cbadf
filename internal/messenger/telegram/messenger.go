package telegram

import (
	"context"
	"fmt"

	"github.com/gosuda/taskline/internal/messenger"
)

// API abstracts the subset of the Telegram Bot API used by Messenger.
// *BotClient satisfies it; tests inject fakes to avoid real HTTP calls.
type API interface {
	SendMessage(ctx context.Context, chatID, text string) (messageID string, err error)
}

// Messenger implements messenger.Messenger for Telegram.
type Messenger struct {
	api API
}

var _ messenger.Messenger = (*Messenger)(nil)

// NewMessenger creates a Telegram messenger with the given API client.
func NewMessenger(api API) *Messenger {
	return &Messenger{api: api}
}

// SendNotification sends a direct message to a Telegram user. Telegram
// addresses DMs by chat ID directly, so no channel lookup is needed.
func (m *Messenger) SendNotification(ctx context.Context, userExternalID, text string) error {
	if _, err := m.api.SendMessage(ctx, userExternalID, text); err != nil {
		return fmt.Errorf("telegram.Messenger.SendNotification: %w", err)
	}

	return nil
}

// Platform returns the messenger platform identifier.
func (m *Messenger) Platform() string {
	return "telegram"
}
