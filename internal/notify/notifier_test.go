package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/taskline/internal/domain"
	"github.com/gosuda/taskline/internal/messenger"
	"github.com/gosuda/taskline/internal/notify"
)

// --- mocks ---

type mockMessenger struct {
	platform      string
	notifications []sentNotification
	notifyErr     error
}

type sentNotification struct {
	externalID string
	text       string
}

func (m *mockMessenger) SendNotification(_ context.Context, externalID, text string) error {
	if m.notifyErr != nil {
		return m.notifyErr
	}
	m.notifications = append(m.notifications, sentNotification{externalID: externalID, text: text})
	return nil
}

func (m *mockMessenger) Platform() string { return m.platform }

type mockLinkResolver struct {
	links []*domain.MessengerLink
	err   error
}

func (r *mockLinkResolver) ListMessengerLinks(context.Context, uuid.UUID) ([]*domain.MessengerLink, error) {
	return r.links, r.err
}

type recordingMetrics struct {
	sent    int
	skipped int
	failed  int
}

func (m *recordingMetrics) RecordNotificationSent(string)   { m.sent++ }
func (m *recordingMetrics) RecordNotificationSkipped()      { m.skipped++ }
func (m *recordingMetrics) RecordNotificationFailed(string) { m.failed++ }

// --- tests ---

func TestNotifier_Notify_DeliversViaLink(t *testing.T) {
	t.Parallel()

	tg := &mockMessenger{platform: "telegram"}
	registry := notify.NewRegistry()
	registry.Register(tg)

	links := &mockLinkResolver{links: []*domain.MessengerLink{
		{UserID: uuid.New(), Platform: "telegram", ExternalID: "123456"},
	}}

	metrics := &recordingMetrics{}
	n := notify.New(registry, links, notify.WithMetrics(metrics))

	n.Notify(context.Background(), uuid.New(), "task updated")

	require.Len(t, tg.notifications, 1)
	assert.Equal(t, "123456", tg.notifications[0].externalID)
	assert.Equal(t, "task updated", tg.notifications[0].text)
	assert.Equal(t, 1, metrics.sent)
}

func TestNotifier_Notify_SkipsUnlinkedUser(t *testing.T) {
	t.Parallel()

	registry := notify.NewRegistry()
	registry.Register(&mockMessenger{platform: "telegram"})

	metrics := &recordingMetrics{}
	n := notify.New(registry, &mockLinkResolver{}, notify.WithMetrics(metrics))

	// Must not panic, error, or deliver anything.
	n.Notify(context.Background(), uuid.New(), "task updated")

	assert.Equal(t, 1, metrics.skipped)
	assert.Equal(t, 0, metrics.sent)
}

func TestNotifier_Notify_AbsorbsDeliveryFailure(t *testing.T) {
	t.Parallel()

	tg := &mockMessenger{platform: "telegram", notifyErr: errors.New("blocked by user")}
	registry := notify.NewRegistry()
	registry.Register(tg)

	links := &mockLinkResolver{links: []*domain.MessengerLink{
		{Platform: "telegram", ExternalID: "123456"},
	}}

	metrics := &recordingMetrics{}
	n := notify.New(registry, links, notify.WithMetrics(metrics))

	// Delivery fails but Notify has no error to return: the mutation that
	// triggered it already committed.
	n.Notify(context.Background(), uuid.New(), "task updated")

	assert.Equal(t, 1, metrics.failed)
	assert.Equal(t, 0, metrics.sent)
}

func TestNotifier_Notify_FallsBackToNextLink(t *testing.T) {
	t.Parallel()

	tg := &mockMessenger{platform: "telegram", notifyErr: errors.New("blocked by user")}
	sl := &mockMessenger{platform: "slack"}
	registry := notify.NewRegistry()
	registry.Register(tg)
	registry.Register(sl)

	links := &mockLinkResolver{links: []*domain.MessengerLink{
		{Platform: "telegram", ExternalID: "123456"},
		{Platform: "slack", ExternalID: "U024BE7LH"},
	}}

	metrics := &recordingMetrics{}
	n := notify.New(registry, links, notify.WithMetrics(metrics))

	n.Notify(context.Background(), uuid.New(), "task updated")

	require.Len(t, sl.notifications, 1)
	assert.Equal(t, "U024BE7LH", sl.notifications[0].externalID)
	assert.Equal(t, 1, metrics.failed)
	assert.Equal(t, 1, metrics.sent)
}

func TestNotifier_Notify_UnregisteredPlatform(t *testing.T) {
	t.Parallel()

	links := &mockLinkResolver{links: []*domain.MessengerLink{
		{Platform: "discord", ExternalID: "999"},
	}}

	n := notify.New(notify.NewRegistry(), links)

	// No registered messenger for the platform: absorbed silently.
	n.Notify(context.Background(), uuid.New(), "task updated")
}

func TestNotifier_Notify_ResolverFailure(t *testing.T) {
	t.Parallel()

	links := &mockLinkResolver{err: errors.New("connection refused")}
	metrics := &recordingMetrics{}
	n := notify.New(notify.NewRegistry(), links, notify.WithMetrics(metrics))

	n.Notify(context.Background(), uuid.New(), "task updated")

	assert.Equal(t, 1, metrics.failed)
}

var _ messenger.Messenger = (*mockMessenger)(nil)
