// Package notify dispatches best-effort chat notifications. Delivery is
// a side effect of an already-committed mutation: failures are logged and
// absorbed, never retried, and never surfaced to the caller.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskline/internal/domain"
	"github.com/gosuda/taskline/internal/messenger"
)

const defaultSendTimeout = 5 * time.Second

// Dispatcher is the notification boundary the services depend on.
// Implementations must absorb every delivery failure.
type Dispatcher interface {
	Notify(ctx context.Context, userID uuid.UUID, message string)
}

// MessengerRegistry maps platform names to Messenger implementations.
type MessengerRegistry interface {
	Get(platform string) (messenger.Messenger, bool)
}

// LinkResolver finds messenger links for a user.
type LinkResolver interface {
	ListMessengerLinks(ctx context.Context, userID uuid.UUID) ([]*domain.MessengerLink, error)
}

// Metrics records notification outcomes.
type Metrics interface {
	RecordNotificationSent(platform string)
	RecordNotificationSkipped()
	RecordNotificationFailed(platform string)
}

// Notifier resolves a user's messenger links and delivers through the
// first platform that succeeds. Users without links are skipped silently.
type Notifier struct {
	messengers  MessengerRegistry
	links       LinkResolver
	metrics     Metrics
	sendTimeout time.Duration
}

var _ Dispatcher = (*Notifier)(nil)

// Option configures optional Notifier parameters.
type Option func(*Notifier)

// WithSendTimeout bounds each delivery attempt so a slow chat platform
// cannot stall the caller.
func WithSendTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		n.sendTimeout = d
	}
}

// WithMetrics records notification outcomes on the given collector.
func WithMetrics(m Metrics) Option {
	return func(n *Notifier) {
		n.metrics = m
	}
}

// New creates a Notifier with the given messenger registry and link resolver.
func New(messengers MessengerRegistry, links LinkResolver, opts ...Option) *Notifier {
	n := &Notifier{
		messengers:  messengers,
		links:       links,
		metrics:     noopMetrics{},
		sendTimeout: defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify sends a message to the user via their first working messenger
// link. The mutation that triggered the notification has already been
// persisted, so nothing here may fail the request: errors are logged and
// dropped.
func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, message string) {
	links, err := n.links.ListMessengerLinks(ctx, userID)
	if err != nil {
		n.metrics.RecordNotificationFailed("")
		log.Warn().Err(err).Stringer("user_id", userID).Msg("notify: resolving messenger links failed")
		return
	}

	if len(links) == 0 {
		n.metrics.RecordNotificationSkipped()
		log.Debug().Stringer("user_id", userID).Msg("notify: user has no messenger links, skipping")
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.sendTimeout)
	defer cancel()

	for _, link := range links {
		m, ok := n.messengers.Get(link.Platform)
		if !ok {
			log.Warn().Str("platform", link.Platform).Msg("notify: platform not registered")
			continue
		}

		if err := m.SendNotification(sendCtx, link.ExternalID, message); err != nil {
			n.metrics.RecordNotificationFailed(link.Platform)
			log.Warn().Err(err).
				Stringer("user_id", userID).
				Str("platform", link.Platform).
				Msg("notify: delivery failed")
			continue
		}

		n.metrics.RecordNotificationSent(link.Platform)
		return
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordNotificationSent(string)   {}
func (noopMetrics) RecordNotificationSkipped()      {}
func (noopMetrics) RecordNotificationFailed(string) {}
