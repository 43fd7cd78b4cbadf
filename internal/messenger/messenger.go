// Package messenger abstracts communication with chat platforms.
// Implementations handle platform-specific API calls; the interface is
// platform-agnostic so the notifier and the bot do not care which
// platform a user linked.
package messenger

import "context"

// Messenger delivers messages to users on one chat platform.
type Messenger interface {
	// SendNotification sends a direct message to a user by their
	// external platform ID (e.g. Telegram chat ID, Slack user ID).
	SendNotification(ctx context.Context, userExternalID, text string) error

	// Platform returns the platform identifier (e.g. "telegram", "slack").
	Platform() string
}
