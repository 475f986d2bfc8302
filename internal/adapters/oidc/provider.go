package oidc

// Package oidc implements the IdentityProvider port against a real OIDC
// issuer using the resource-owner password grant. It owns the token refresh
// loop and the persisted-session restore through the session cache.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	jmespath "github.com/jmespath-community/go-jmespath"
	"golang.org/x/oauth2"

	domainauth "github.com/larderhq/larder-go/internal/domain/auth"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/ports"
)

const (
	defaultRefreshSkew    = time.Minute
	defaultSubjectPath    = "sub"
	defaultEmailPath      = "email"
	defaultRequestTimeout = 30 * time.Second
)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	Scope        string
	DiscoveryURL string
	// SignUpURL is the issuer's registration endpoint. Empty disables SignUp.
	SignUpURL string

	// SubjectClaimPath and EmailClaimPath are JMESPath expressions applied to
	// token claims. Defaults are the standard "sub" and "email" claims.
	SubjectClaimPath string
	EmailClaimPath   string

	// RefreshSkew is how long before expiry the refresh loop renews tokens.
	RefreshSkew time.Duration

	// Sessions is the optional persisted-session slot; when set, sign-ins are
	// cached and CurrentSession restores across restarts.
	Sessions ports.SessionCache

	HTTPClient *http.Client // Optional, defaults to a 30s-timeout client
	Logger     *slog.Logger
}

// Provider implements ports.IdentityProvider using OIDC/OAuth2. Session
// events are emitted to subscribers one at a time from a single goroutine's
// perspective: sign-in, sign-up, and sign-out emit synchronously and the
// refresh loop serializes through the provider mutex.
type Provider struct {
	config      *oauth2.Config
	signUpURL   string
	subjectPath string
	emailPath   string
	refreshSkew time.Duration
	sessions    ports.SessionCache
	httpClient  *http.Client
	logger      *slog.Logger

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier

	mu           sync.Mutex
	current      *domainauth.Session
	refreshTimer *time.Timer
	subs         map[int]func(*domainauth.Session)
	nextSub      int
	closed       bool
}

// NewProvider creates a new OIDC provider. It performs one discovery fetch
// against the configured issuer.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Provider{
		signUpURL:   cfg.SignUpURL,
		subjectPath: firstNonEmpty(cfg.SubjectClaimPath, defaultSubjectPath),
		emailPath:   firstNonEmpty(cfg.EmailClaimPath, defaultEmailPath),
		refreshSkew: cfg.RefreshSkew,
		sessions:    cfg.Sessions,
		httpClient:  httpClient,
		logger:      logger.With("component", "oidc_provider"),
		subs:        make(map[int]func(*domainauth.Session)),
	}
	if p.refreshSkew <= 0 {
		p.refreshSkew = defaultRefreshSkew
	}

	// Initialize go-oidc provider and verifier (single discovery fetch)
	octx := gooidc.ClientContext(ctx, httpClient)
	issuer := strings.TrimSuffix(cfg.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(octx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: cfg.ClientID})

	p.config = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       strings.Fields(cfg.Scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

// CurrentSession returns the in-memory session, falling back to the
// persisted-session cache for cold-start restore. A restored session
// re-arms the refresh loop.
func (p *Provider) CurrentSession(ctx context.Context) (*domainauth.Session, error) {
	p.mu.Lock()
	if p.current != nil && !p.current.Expired(time.Now()) {
		sess := *p.current
		p.mu.Unlock()
		return &sess, nil
	}
	p.mu.Unlock()

	if p.sessions == nil {
		return nil, nil
	}

	sess, err := p.sessions.Load(ctx)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cached session: %w", err)
	}
	if sess.Expired(time.Now()) {
		return nil, nil
	}

	p.mu.Lock()
	p.current = &sess
	p.scheduleRefreshLocked(sess)
	p.mu.Unlock()

	out := sess
	return &out, nil
}

// OnSessionChange registers fn for session-change events. The returned func
// unsubscribes.
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

// SignIn exchanges credentials through the password grant, installs the
// resulting session, and emits it to subscribers.
func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return apperrors.Validation("Email and password are required.")
	}

	octx := gooidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.PasswordCredentialsToken(octx, email, password)
	if err != nil {
		return mapTokenError(err)
	}

	sess, err := p.sessionFromToken(ctx, token)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Sign-in succeeded but the identity could not be read.")
	}

	p.installSession(ctx, sess)
	return nil
}

// SignUp registers the account at the issuer's sign-up endpoint, then signs
// in with the new credentials. The backend creates the Profile record
// asynchronously; hydration tolerates its absence for a short window.
func (p *Provider) SignUp(ctx context.Context, in ports.SignUpInput) error {
	if p.signUpURL == "" {
		return apperrors.Unavailable("Sign-up is not configured for this deployment.")
	}
	if in.Email == "" || in.Password == "" {
		return apperrors.Validation("Email and password are required.")
	}

	body, err := json.Marshal(map[string]string{
		"email":        in.Email,
		"password":     in.Password,
		"display_name": strings.TrimSpace(in.DisplayName),
	})
	if err != nil {
		return fmt.Errorf("marshal sign-up request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.signUpURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sign-up request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "The identity service could not be reached.")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fallthrough to sign-in below
	case resp.StatusCode == http.StatusConflict:
		return apperrors.Conflict("An account with this email already exists.")
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.RateLimited("Too many attempts. Please try again in a moment.")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return apperrors.Validation("The identity service rejected the sign-up request.")
	default:
		return apperrors.Unavailablef("The identity service returned status %d.", resp.StatusCode)
	}

	return p.SignIn(ctx, in.Email, in.Password)
}

// SignOut stops the refresh loop, clears the persisted session, and emits a
// nil-session event.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.stopRefreshLocked()
	p.current = nil
	p.mu.Unlock()

	if p.sessions != nil {
		if err := p.sessions.Clear(ctx); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "Signed out locally, but the cached session could not be cleared.")
		}
	}

	p.emit(nil)
	return nil
}

// Close stops the refresh loop. The provider emits no further events.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.stopRefreshLocked()
	p.subs = make(map[int]func(*domainauth.Session))
}

// installSession makes sess current, persists it, arms the refresh loop, and
// emits the session-change event.
func (p *Provider) installSession(ctx context.Context, sess domainauth.Session) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.current = &sess
	p.scheduleRefreshLocked(sess)
	p.mu.Unlock()

	if p.sessions != nil {
		if err := p.sessions.Save(ctx, sess); err != nil {
			p.logger.Warn("persist session failed", "error", err)
		}
	}

	out := sess
	p.emit(&out)
}

// scheduleRefreshLocked arms a timer to renew tokens shortly before expiry.
// Callers must hold p.mu.
func (p *Provider) scheduleRefreshLocked(sess domainauth.Session) {
	p.stopRefreshLocked()
	if sess.RefreshToken == "" || sess.ExpiresAt.IsZero() {
		return
	}

	wait := time.Until(sess.ExpiresAt) - p.refreshSkew
	if wait < 0 {
		wait = 0
	}
	refreshToken := sess.RefreshToken
	p.refreshTimer = time.AfterFunc(wait, func() {
		p.refresh(refreshToken)
	})
}

func (p *Provider) stopRefreshLocked() {
	if p.refreshTimer != nil {
		p.refreshTimer.Stop()
		p.refreshTimer = nil
	}
}

// refresh renews the token pair. A renewed session keeps the same subject and
// flows through the normal event path, re-hydrating idempotently. A failed
// renewal signs the provider out: the credentials are no longer usable.
func (p *Provider) refresh(refreshToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRequestTimeout)
	defer cancel()

	octx := gooidc.ClientContext(ctx, p.httpClient)
	src := p.config.TokenSource(octx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		p.logger.Warn("token refresh failed, signing out", "error", err)
		if signOutErr := p.SignOut(ctx); signOutErr != nil {
			p.logger.Warn("sign-out after failed refresh", "error", signOutErr)
		}
		return
	}

	sess, err := p.sessionFromToken(ctx, token)
	if err != nil {
		p.logger.Warn("renewed token could not be mapped to a session", "error", err)
		return
	}
	p.installSession(ctx, sess)
}

// sessionFromToken maps a token response into a Session. Claims come from the
// verified ID token when present, otherwise from the UserInfo endpoint.
func (p *Provider) sessionFromToken(ctx context.Context, token *oauth2.Token) (domainauth.Session, error) {
	claims, err := p.tokenClaims(ctx, token)
	if err != nil {
		return domainauth.Session{}, err
	}

	subject, err := searchStringClaim(p.subjectPath, claims)
	if err != nil || subject == "" {
		return domainauth.Session{}, fmt.Errorf("extract subject claim %q: %w", p.subjectPath, err)
	}
	email, err := searchStringClaim(p.emailPath, claims)
	if err != nil {
		p.logger.Debug("email claim missing", "path", p.emailPath, "error", err)
	}

	expiresAt := time.Now().Add(time.Hour)
	if !token.Expiry.IsZero() {
		expiresAt = token.Expiry
	}

	return domainauth.Session{
		ID:           uuid.NewString(),
		UserID:       subject,
		Email:        email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IssuedAt:     time.Now(),
		ExpiresAt:    expiresAt,
	}, nil
}

// tokenClaims returns the raw claim document for a token response.
func (p *Provider) tokenClaims(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	octx := gooidc.ClientContext(ctx, p.httpClient)

	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		idTok, err := p.verifier.Verify(octx, raw)
		if err != nil {
			return nil, fmt.Errorf("verify id_token: %w", err)
		}
		var claims map[string]any
		if claimsErr := idTok.Claims(&claims); claimsErr != nil {
			return nil, fmt.Errorf("parse id_token claims: %w", claimsErr)
		}
		return claims, nil
	}

	ui, err := p.oidcProvider.UserInfo(octx, oauth2.StaticTokenSource(token))
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	var claims map[string]any
	if claimsErr := ui.Claims(&claims); claimsErr != nil {
		return nil, fmt.Errorf("decode user info: %w", claimsErr)
	}
	return claims, nil
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

// searchStringClaim evaluates a JMESPath expression against claims and
// coerces the result to a string.
func searchStringClaim(path string, claims map[string]any) (string, error) {
	result, err := jmespath.Search(path, claims)
	if err != nil {
		return "", fmt.Errorf("jmespath %q: %w", path, err)
	}
	switch v := result.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// mapTokenError maps oauth2 token endpoint failures onto the identity error
// taxonomy with display-ready messages.
func mapTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		switch retrieveErr.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.Wrap(err, apperrors.ErrCodeUnauthenticated, "Invalid email or password.")
		case http.StatusTooManyRequests:
			return apperrors.Wrap(err, apperrors.ErrCodeRateLimited, "Too many attempts. Please try again in a moment.")
		default:
			return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "The identity service returned an unexpected error.")
		}
	}
	return apperrors.Wrap(err, apperrors.ErrCodeUnavailable, "The identity service could not be reached.")
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

var _ ports.IdentityProvider = (*Provider)(nil)
