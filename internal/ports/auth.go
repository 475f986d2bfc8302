package ports

// Package ports defines interfaces (hexagonal ports) for session and metadata
// behavior. Implementations live in internal/adapters and internal/data;
// orchestration in internal/service.

import (
	"context"

	domainauth "github.com/larderhq/larder-go/internal/domain/auth"
)

// SignUpInput carries inputs for account creation. DisplayName is passed to
// the provider as profile metadata; the backend creates the Profile record
// asynchronously.
type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
}

// IdentityProvider bridges an external IdP into the engine's lifecycle.
//
// CurrentSession performs the one-shot read used at cold start (persisted
// session restore). OnSessionChange registers a callback invoked with every
// subsequent session-change event, a nil session meaning signed out; events
// are delivered sequentially in arrival order. The returned func unsubscribes.
type IdentityProvider interface {
	CurrentSession(ctx context.Context) (*domainauth.Session, error)
	OnSessionChange(fn func(*domainauth.Session)) (unsubscribe func())

	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, in SignUpInput) error
	SignOut(ctx context.Context) error
}

// SessionCache persists the most recent session across process restarts.
// Load returns a typed not-found error when no session is cached.
type SessionCache interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Load(ctx context.Context) (domainauth.Session, error)
	Clear(ctx context.Context) error
}
