package staticauth

// Package staticauth provides a config-driven IdentityProvider for local
// development. It keeps accounts and the current session in memory and needs
// no backing identity service.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/larderhq/larder-go/internal/domain/auth"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/ports"
)

// Config controls the static auth provider behavior.
type Config struct {
	UserID          string
	Email           string
	Password        string
	DisplayName     string
	SessionDuration time.Duration // default 8h when zero
}

type account struct {
	userID      string
	password    string
	displayName string
}

// Provider implements ports.IdentityProvider for local development. It is
// seeded with one account from Config; SignUp registers additional accounts.
// Session-change callbacks run synchronously on the calling goroutine, one
// event at a time.
type Provider struct {
	sessionDuration time.Duration

	mu       sync.Mutex
	accounts map[string]account
	current  *domainauth.Session
	subs     map[int]func(*domainauth.Session)
	nextSub  int
}

// NewProvider constructs a static auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("static auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("static auth: Email is required")
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	return &Provider{
		sessionDuration: dur,
		accounts: map[string]account{
			normalizeEmail(cfg.Email): {
				userID:      cfg.UserID,
				password:    cfg.Password,
				displayName: cfg.DisplayName,
			},
		},
		subs: make(map[int]func(*domainauth.Session)),
	}, nil
}

// CurrentSession returns the in-memory session, or nil when signed out.
func (p *Provider) CurrentSession(_ context.Context) (*domainauth.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.Expired(time.Now()) {
		return nil, nil
	}
	sess := *p.current
	return &sess, nil
}

// OnSessionChange registers fn for session-change events. The returned func
// unsubscribes; it is safe to call more than once.
func (p *Provider) OnSessionChange(fn func(*domainauth.Session)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// SignIn validates credentials against the registered accounts and, on
// success, installs a fresh session and emits it to subscribers.
func (p *Provider) SignIn(_ context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return apperrors.Validation("Email and password are required.")
	}

	p.mu.Lock()
	acct, ok := p.accounts[email]
	if !ok || acct.password != password {
		p.mu.Unlock()
		return apperrors.Unauthenticated("Invalid email or password.")
	}
	sess := p.newSessionLocked(acct.userID, email)
	p.current = &sess
	p.mu.Unlock()

	p.emit(&sess)
	return nil
}

// SignUp registers a new account and signs it in. The display name is held
// only as provider metadata; profile creation belongs to the backend.
func (p *Provider) SignUp(_ context.Context, in ports.SignUpInput) error {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return apperrors.Validation("Email and password are required.")
	}

	p.mu.Lock()
	if _, exists := p.accounts[email]; exists {
		p.mu.Unlock()
		return apperrors.Conflict("An account with this email already exists.")
	}
	acct := account{
		userID:      uuid.NewString(),
		password:    in.Password,
		displayName: strings.TrimSpace(in.DisplayName),
	}
	p.accounts[email] = acct
	sess := p.newSessionLocked(acct.userID, email)
	p.current = &sess
	p.mu.Unlock()

	p.emit(&sess)
	return nil
}

// SignOut clears the session and emits a nil-session event.
func (p *Provider) SignOut(_ context.Context) error {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	p.emit(nil)
	return nil
}

func (p *Provider) newSessionLocked(userID, email string) domainauth.Session {
	now := time.Now()
	return domainauth.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Email:        email,
		AccessToken:  randomToken(32),
		RefreshToken: randomToken(32),
		IssuedAt:     now,
		ExpiresAt:    now.Add(p.sessionDuration),
	}
}

func (p *Provider) emit(sess *domainauth.Session) {
	p.mu.Lock()
	fns := make([]func(*domainauth.Session), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(sess)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failure leaves token generation with nothing better to
		// fall back on; a UUID still gives a unique opaque value.
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

var _ ports.IdentityProvider = (*Provider)(nil)
