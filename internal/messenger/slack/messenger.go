package slack

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/taskline/internal/messenger"
)

// API abstracts the subset of the Slack client used by Messenger.
// *slacklib.Client satisfies it; tests inject fakes to avoid real HTTP calls.
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// Messenger implements messenger.Messenger for Slack.
type Messenger struct {
	api API
}

var _ messenger.Messenger = (*Messenger)(nil)

// NewMessenger creates a Slack messenger with the given API client.
func NewMessenger(api API) *Messenger {
	return &Messenger{api: api}
}

// SendNotification sends a direct message to a Slack user. Posting to a
// user ID opens (or reuses) the DM conversation with the bot.
func (m *Messenger) SendNotification(ctx context.Context, userExternalID, text string) error {
	_, _, err := m.api.PostMessageContext(ctx, userExternalID, slacklib.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack.Messenger.SendNotification: %w", err)
	}

	return nil
}

// Platform returns the messenger platform identifier.
func (m *Messenger) Platform() string {
	return "slack"
}
