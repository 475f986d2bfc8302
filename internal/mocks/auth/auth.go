package auth

// Package auth contains simple hand-written test doubles for the identity
// ports. These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	domainauth "github.com/larderhq/larder-go/internal/domain/auth"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*FakeIdentityProvider)(nil)
	_ ports.SessionCache     = (*MemorySessionCache)(nil)
)

// FakeIdentityProvider simulates an IdP for tests. Behavior is overridable
// per method via function fields; Emit pushes session-change events to
// subscribers the way a real provider would.
type FakeIdentityProvider struct {
	CurrentSessionFunc func(ctx context.Context) (*domainauth.Session, error)
	SignInFunc         func(ctx context.Context, email, password string) error
	SignUpFunc         func(ctx context.Context, in ports.SignUpInput) error
	SignOutFunc        func(ctx context.Context) error

	mu      sync.Mutex
	subs    map[int]func(*domainauth.Session)
	nextSub int

	// Call counters for assertions.
	SignInCalls  int
	SignOutCalls int
}

// NewFakeIdentityProvider creates an empty fake provider. With no function
// fields set, CurrentSession reports signed out and the actions succeed.
func NewFakeIdentityProvider() *FakeIdentityProvider {
	return &FakeIdentityProvider{subs: make(map[int]func(*domainauth.Session))}
}

func (f *FakeIdentityProvider) CurrentSession(ctx context.Context) (*domainauth.Session, error) {
	if f.CurrentSessionFunc != nil {
		return f.CurrentSessionFunc(ctx)
	}
	return nil, nil
}

func (f *FakeIdentityProvider) OnSessionChange(fn func(*domainauth.Session)) func() {
	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *FakeIdentityProvider) SignIn(ctx context.Context, email, password string) error {
	f.mu.Lock()
	f.SignInCalls++
	f.mu.Unlock()
	if f.SignInFunc != nil {
		return f.SignInFunc(ctx, email, password)
	}
	return nil
}

func (f *FakeIdentityProvider) SignUp(ctx context.Context, in ports.SignUpInput) error {
	if f.SignUpFunc != nil {
		return f.SignUpFunc(ctx, in)
	}
	return nil
}

func (f *FakeIdentityProvider) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.SignOutCalls++
	f.mu.Unlock()
	if f.SignOutFunc != nil {
		return f.SignOutFunc(ctx)
	}
	return nil
}

// Emit delivers a session-change event to all subscribers synchronously, in
// registration order is not guaranteed.
func (f *FakeIdentityProvider) Emit(sess *domainauth.Session) {
	f.mu.Lock()
	fns := make([]func(*domainauth.Session), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}

// SubscriberCount reports how many session-change subscriptions are active.
func (f *FakeIdentityProvider) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// MemorySessionCache is an in-memory ports.SessionCache for tests.
type MemorySessionCache struct {
	mu   sync.Mutex
	sess *domainauth.Session

	SaveErr  error
	LoadErr  error
	ClearErr error
}

func (m *MemorySessionCache) Save(_ context.Context, sess domainauth.Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = &sess
	return nil
}

func (m *MemorySessionCache) Load(_ context.Context) (domainauth.Session, error) {
	if m.LoadErr != nil {
		return domainauth.Session{}, m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return domainauth.Session{}, apperrors.NotFound("no cached session")
	}
	return *m.sess, nil
}

func (m *MemorySessionCache) Clear(_ context.Context) error {
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}

// Cached returns the stored session, or nil when the slot is empty.
func (m *MemorySessionCache) Cached() *domainauth.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil
	}
	out := *m.sess
	return &out
}
