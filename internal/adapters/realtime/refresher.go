package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/larderhq/larder-go/internal/ports"
	"github.com/larderhq/larder-go/internal/service"
)

const refreshTimeout = 10 * time.Second

// Engine is the slice of the session engine the refresher needs.
type Engine interface {
	Snapshot() service.Snapshot
	Watch() (<-chan struct{}, func())
	RefreshMetadata(ctx context.Context)
}

// Refresher keeps metadata-change subscriptions aligned with the engine's
// current subject and household, and converts incoming change events into
// RefreshMetadata calls. Subscriptions follow the snapshot: a session change
// re-subscribes for the new subject, sign-out drops all subscriptions.
type Refresher struct {
	bus    ports.MetadataBus
	engine Engine
	logger *slog.Logger

	subject      string
	householdID  string
	unsubProfile func()
	unsubHouse   func()
}

// NewRefresher constructs a Refresher.
func NewRefresher(bus ports.MetadataBus, engine Engine, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		bus:    bus,
		engine: engine,
		logger: logger.With("component", "realtime_refresher"),
	}
}

// Run watches the engine until ctx is cancelled, resyncing subscriptions on
// every snapshot change. It blocks and always returns nil after cleanup.
func (r *Refresher) Run(ctx context.Context) error {
	ch, unsub := r.engine.Watch()
	defer unsub()

	r.resync()
	defer r.dropSubscriptions()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			r.resync()
		}
	}
}

// resync aligns subscriptions with the current snapshot. Subscription
// failures are logged and dropped; the engine still converges via explicit
// refresh calls.
func (r *Refresher) resync() {
	snap := r.engine.Snapshot()

	subject := ""
	if snap.Session != nil {
		subject = snap.Session.UserID
	}
	householdID := ""
	if snap.Household != nil {
		householdID = snap.Household.ID
	}

	if subject != r.subject {
		if r.unsubProfile != nil {
			r.unsubProfile()
			r.unsubProfile = nil
		}
		r.subject = subject
		if subject != "" {
			unsub, err := r.bus.SubscribeProfile(subject, r.refresh)
			if err != nil {
				r.logger.Warn("profile subscription failed", "subject", subject, "error", err)
			} else {
				r.unsubProfile = unsub
			}
		}
	}

	if householdID != r.householdID {
		if r.unsubHouse != nil {
			r.unsubHouse()
			r.unsubHouse = nil
		}
		r.householdID = householdID
		if householdID != "" {
			unsub, err := r.bus.SubscribeHousehold(householdID, r.refresh)
			if err != nil {
				r.logger.Warn("household subscription failed", "household", householdID, "error", err)
			} else {
				r.unsubHouse = unsub
			}
		}
	}
}

func (r *Refresher) dropSubscriptions() {
	if r.unsubProfile != nil {
		r.unsubProfile()
		r.unsubProfile = nil
	}
	if r.unsubHouse != nil {
		r.unsubHouse()
		r.unsubHouse = nil
	}
	r.subject = ""
	r.householdID = ""
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	r.engine.RefreshMetadata(ctx)
}
