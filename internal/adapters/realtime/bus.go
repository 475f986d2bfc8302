package realtime

// Package realtime bridges backend change notifications over NATS into
// engine metadata refreshes. Delivery is best-effort: a lost connection
// drops events and consumers converge via explicit refresh.

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/larderhq/larder-go/internal/ports"
)

// Bus implements ports.MetadataBus over NATS subjects
// <prefix>.profile.<userID> and <prefix>.household.<householdID>.members.
type Bus struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewBus creates a Bus over an established NATS connection.
func NewBus(conn *nats.Conn, prefix string, logger *slog.Logger) *Bus {
	if prefix == "" {
		prefix = "larder"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		conn:   conn,
		prefix: prefix,
		logger: logger.With("component", "realtime_bus"),
	}
}

// SubscribeProfile invokes fn whenever the given user's profile changes.
func (b *Bus) SubscribeProfile(userID string, fn func()) (func(), error) {
	return b.subscribe(fmt.Sprintf("%s.profile.%s", b.prefix, userID), fn)
}

// SubscribeHousehold invokes fn whenever the given household's membership or
// record changes.
func (b *Bus) SubscribeHousehold(householdID string, fn func()) (func(), error) {
	return b.subscribe(fmt.Sprintf("%s.household.%s.members", b.prefix, householdID), fn)
}

func (b *Bus) subscribe(subject string, fn func()) (func(), error) {
	sub, err := b.conn.Subscribe(subject, func(*nats.Msg) { fn() })
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	b.logger.Debug("subscribed", "subject", subject)

	return func() {
		if unsubErr := sub.Unsubscribe(); unsubErr != nil {
			b.logger.Debug("unsubscribe failed", "subject", subject, "error", unsubErr)
		}
	}, nil
}

var _ ports.MetadataBus = (*Bus)(nil)
