package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	domainauth "github.com/larderhq/larder-go/internal/domain/auth"
	"github.com/larderhq/larder-go/internal/domain/model"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/observability/metrics"
	"github.com/larderhq/larder-go/internal/ports"
)

const defaultHydrationTimeout = 10 * time.Second

// ErrProviderRequired indicates the engine cannot be constructed without an identity provider.
var ErrProviderRequired = errors.New("identity provider is required")

// ErrStoresRequired indicates the engine cannot be constructed without both metadata stores.
var ErrStoresRequired = errors.New("profile and household stores are required")

// Snapshot is the merged, externally visible session state. Loading is true
// from engine construction until the first hydration attempt settles; once
// false it only returns true inside SignOut. Profile and Household always
// derive from the current session's subject id.
type Snapshot struct {
	Session   *domainauth.Session
	Profile   *model.Profile
	Household *model.Household
	Loading   bool
}

// SignedIn reports whether the snapshot carries an authenticated session.
func (s Snapshot) SignedIn() bool { return s.Session != nil }

// SessionEngineOptions groups dependencies for SessionEngine.
type SessionEngineOptions struct {
	Provider   ports.IdentityProvider
	Profiles   ports.ProfileStore
	Households ports.HouseholdStore

	// HydrationTimeout bounds each hydration's store lookups. Defaults to 10s.
	HydrationTimeout time.Duration
	Metrics          metrics.Sink
	Logger           *slog.Logger
}

// SessionEngine owns the authenticated-session lifecycle: it listens to
// identity-provider session events, hydrates the dependent profile and
// household records, and publishes one consistent snapshot to watchers.
//
// Events are applied in arrival order under a single mutex. Each non-nil
// session spawns an asynchronous hydration tagged with the subject id it was
// issued for; at publish time the result is discarded if the current session's
// subject no longer matches, so a stale hydration can never overwrite a newer
// one. Superseded hydrations are not cancelled, only discarded.
type SessionEngine struct {
	provider   ports.IdentityProvider
	profiles   ports.ProfileStore
	households ports.HouseholdStore

	hydrationTimeout time.Duration
	metrics          metrics.Sink
	logger           *slog.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu          sync.Mutex
	snap        Snapshot
	watchers    map[chan struct{}]struct{}
	unsubscribe func()
	sawEvent    bool
	started     bool
	closed      bool
}

// NewSessionEngine constructs a SessionEngine. The engine starts with
// Loading=true; call Start to perform the initial session read and begin
// receiving provider events.
func NewSessionEngine(opts SessionEngineOptions) (*SessionEngine, error) {
	if opts.Provider == nil {
		return nil, ErrProviderRequired
	}
	if opts.Profiles == nil || opts.Households == nil {
		return nil, ErrStoresRequired
	}

	timeout := opts.HydrationTimeout
	if timeout <= 0 {
		timeout = defaultHydrationTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionEngine{
		provider:         opts.Provider,
		profiles:         opts.Profiles,
		households:       opts.Households,
		hydrationTimeout: timeout,
		metrics:          opts.Metrics,
		logger:           logger.With("component", "session_engine"),
		snap:             Snapshot{Loading: true},
		watchers:         make(map[chan struct{}]struct{}),
	}, nil
}

// Start subscribes to the provider's session-change stream, then performs the
// initial current-session read and forwards it as the first event. Subscribing
// first means an event emitted during the read is never lost; should one
// arrive, it wins and the read result is dropped as stale. A failed initial
// read is logged and treated as signed out so the loading barrier always
// settles.
func (e *SessionEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started || e.closed {
		e.mu.Unlock()
		return errors.New("session engine already started")
	}
	e.started = true
	e.baseCtx, e.baseCancel = context.WithCancel(context.Background())
	e.mu.Unlock()

	unsubscribe := e.provider.OnSessionChange(func(next *domainauth.Session) {
		e.apply(next, "")
	})

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		unsubscribe()
		return nil
	}
	e.unsubscribe = unsubscribe
	e.mu.Unlock()

	sess, err := e.provider.CurrentSession(ctx)
	if err != nil && !apperrors.IsNotFound(err) {
		e.logger.Warn("initial session read failed", "error", err)
		sess = nil
	}
	e.apply(sess, metrics.EventInitial)
	return nil
}

// Close unsubscribes from the provider, cancels in-flight hydrations, and
// closes all watcher channels. The engine cannot be restarted.
func (e *SessionEngine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	unsubscribe := e.unsubscribe
	e.unsubscribe = nil
	cancel := e.baseCancel
	for ch := range e.watchers {
		drainAndClose(ch)
		delete(e.watchers, ch)
	}
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
}

// Snapshot returns the current snapshot. The returned value is a copy;
// pointer fields are shared and must be treated as immutable.
func (e *SessionEngine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// Watch registers a watcher that receives a coalesced ping whenever a new
// snapshot is published. The returned func unsubscribes and closes the
// channel. Watchers read the snapshot via Snapshot after each ping.
func (e *SessionEngine) Watch() (<-chan struct{}, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch := make(chan struct{}, 1)
	if e.closed {
		close(ch)
		return ch, func() {}
	}
	e.watchers[ch] = struct{}{}

	unsub := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.watchers[ch]; !ok {
			return
		}
		delete(e.watchers, ch)
		drainAndClose(ch)
	}
	return ch, unsub
}

// SignIn delegates to the identity provider. It does not mutate the snapshot;
// the resulting session-change event drives hydration. Errors are typed
// (unauthenticated, rate_limited, unavailable) with display-ready messages.
func (e *SessionEngine) SignIn(ctx context.Context, email, password string) error {
	return e.provider.SignIn(ctx, email, password)
}

// SignUp delegates to the identity provider with profile metadata. The
// backend creates the Profile record asynchronously, so hydration tolerates
// a missing profile for a short window after sign-up.
func (e *SessionEngine) SignUp(ctx context.Context, in ports.SignUpInput) error {
	return e.provider.SignUp(ctx, in)
}

// SignOut re-arms the loading barrier, requests provider sign-out, and relies
// on the resulting nil-session event to clear the snapshot. If the provider
// call fails the barrier is restored and the error returned, so the engine
// never hangs in a loading state.
func (e *SessionEngine) SignOut(ctx context.Context) error {
	e.mu.Lock()
	if e.closed || e.snap.Session == nil {
		e.mu.Unlock()
		return nil
	}
	prevLoading := e.snap.Loading
	e.snap.Loading = true
	e.publishLocked()
	e.mu.Unlock()

	if err := e.provider.SignOut(ctx); err != nil {
		e.mu.Lock()
		if !e.closed {
			e.snap.Loading = prevLoading
			e.publishLocked()
		}
		e.mu.Unlock()
		return err
	}
	return nil
}

// RefreshMetadata re-runs hydration for the current session's subject without
// changing the loading barrier, and blocks until the refresh settles. It is a
// no-op when signed out. Lookup errors are swallowed per the usual hydration
// policy; callers observe the result through the snapshot.
func (e *SessionEngine) RefreshMetadata(ctx context.Context) {
	e.mu.Lock()
	if e.closed || e.snap.Session == nil {
		e.mu.Unlock()
		return
	}
	subject := e.snap.Session.UserID
	e.mu.Unlock()

	e.hydrate(ctx, subject, false)
}

// apply processes one session-change event. Events run sequentially in
// arrival order; the snapshot mutation is synchronous and the metadata
// hydration, if any, is spawned asynchronously tagged with the subject id.
func (e *SessionEngine) apply(sess *domainauth.Session, kind string) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}

	// The initial read yields to any provider event applied before it landed.
	if kind == metrics.EventInitial && e.sawEvent {
		e.mu.Unlock()
		e.logger.Debug("initial session read superseded by a provider event")
		return
	}
	if kind != metrics.EventInitial {
		e.sawEvent = true
	}

	if kind == "" {
		kind = classifyEvent(e.snap.Session, sess)
	}
	metrics.EmitSessionEvent(e.metrics, kind)

	if sess == nil {
		e.snap = Snapshot{Loading: false}
		e.publishLocked()
		e.mu.Unlock()
		e.logger.Debug("session cleared", "event", kind)
		return
	}

	subjectChanged := e.snap.Session == nil || e.snap.Session.UserID != sess.UserID
	e.snap.Session = sess
	if subjectChanged {
		e.snap.Profile = nil
		e.snap.Household = nil
	}
	e.publishLocked()
	subject := sess.UserID
	base := e.baseCtx
	e.mu.Unlock()

	e.logger.Debug("session event", "event", kind, "subject", subject)
	go e.hydrate(base, subject, true)
}

// hydrate fans out the profile and household lookups for subject, waits for
// both to settle, and publishes the merged result unless the engine has moved
// on to a different subject. clearBarrier controls whether a successful
// publish drops the loading barrier; metadata refreshes leave it untouched.
func (e *SessionEngine) hydrate(parent context.Context, subject string, clearBarrier bool) {
	if parent == nil {
		parent = context.Background()
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, e.hydrationTimeout)
	defer cancel()

	var profile *model.Profile
	var household *model.Household

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		profile = e.fetchProfile(gctx, subject)
		return nil
	})
	g.Go(func() error {
		household = e.fetchHousehold(gctx, subject)
		return nil
	})
	_ = g.Wait()

	outcome := metrics.OutcomeReady
	if !e.publishHydrated(subject, profile, household, clearBarrier) {
		outcome = metrics.OutcomeDiscarded
	}
	metrics.EmitHydration(e.metrics, outcome, time.Since(start))
}

// fetchProfile looks up the subject's profile, swallowing errors per the
// hydration policy: not-found is a defined absent result and any other
// failure is logged and treated as no data.
func (e *SessionEngine) fetchProfile(ctx context.Context, subject string) *model.Profile {
	profile, err := e.profiles.Get(ctx, subject)
	if err != nil {
		if apperrors.IsNotFound(err) {
			e.logger.Debug("no profile yet for subject", "subject", subject)
			return nil
		}
		e.logger.Warn("profile lookup failed", "subject", subject, "error", err)
		metrics.EmitLookupFailure(e.metrics, metrics.StoreProfile)
		return nil
	}
	return profile
}

// fetchHousehold resolves the subject's household via the membership record,
// with the same error policy as fetchProfile.
func (e *SessionEngine) fetchHousehold(ctx context.Context, subject string) *model.Household {
	membership, err := e.households.GetMembership(ctx, subject)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		e.logger.Warn("household lookup failed", "subject", subject, "error", err)
		metrics.EmitLookupFailure(e.metrics, metrics.StoreHousehold)
		return nil
	}
	if membership == nil {
		return nil
	}
	return membership.Household
}

// publishHydrated installs a settled hydration result, unless the engine has
// closed or the current session's subject no longer matches the tag the
// hydration was issued for. Stale results are discarded silently; that is the
// expected outcome under rapid session churn, not an error.
func (e *SessionEngine) publishHydrated(subject string, profile *model.Profile, household *model.Household, clearBarrier bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}
	if e.snap.Session == nil || e.snap.Session.UserID != subject {
		e.logger.Debug("discarding stale hydration result", "subject", subject)
		return false
	}

	e.snap.Profile = profile
	e.snap.Household = household
	if clearBarrier {
		e.snap.Loading = false
	}
	e.publishLocked()
	return true
}

// publishLocked pings all watchers. Callers must hold e.mu. Sends are
// non-blocking; a watcher that has not drained its previous ping coalesces.
func (e *SessionEngine) publishLocked() {
	for ch := range e.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// classifyEvent labels a session transition for metrics.
func classifyEvent(prev, next *domainauth.Session) string {
	switch {
	case next == nil:
		return metrics.EventSignedOut
	case prev == nil || prev.UserID != next.UserID:
		return metrics.EventSignedIn
	default:
		return metrics.EventRefreshed
	}
}

// drainAndClose removes any buffered ping before closing the channel so
// receivers observe a closed channel immediately.
func drainAndClose(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}
