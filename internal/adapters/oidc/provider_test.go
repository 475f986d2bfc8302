package oidc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/larderhq/larder-go/internal/domain/auth"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	mocksauth "github.com/larderhq/larder-go/internal/mocks/auth"
	"github.com/larderhq/larder-go/internal/ports"
)

// fakeIssuer is a minimal OIDC issuer: discovery, password-grant token
// endpoint, userinfo, and a sign-up endpoint.
type fakeIssuer struct {
	srv *httptest.Server

	mu          sync.Mutex
	tokenStatus int // non-zero forces the token endpoint to fail with this status
	signUps     []map[string]string
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	f := &fakeIssuer{}
	mux := http.NewServeMux()

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 f.srv.URL,
			"authorization_endpoint": f.srv.URL + "/auth",
			"token_endpoint":         f.srv.URL + "/token",
			"userinfo_endpoint":      f.srv.URL + "/userinfo",
			"jwks_uri":               f.srv.URL + "/keys",
		})
	})

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status := f.tokenStatus
		f.mu.Unlock()
		if status != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at-1",
			"refresh_token": "rt-1",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	})

	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sub":   "u1",
			"email": "ada@example.com",
		})
	})

	mux.HandleFunc("/signup", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		_ = json.Unmarshal(body, &payload)
		f.mu.Lock()
		f.signUps = append(f.signUps, payload)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIssuer) setTokenStatus(status int) {
	f.mu.Lock()
	f.tokenStatus = status
	f.mu.Unlock()
}

func newTestProvider(t *testing.T, issuer *fakeIssuer, cache ports.SessionCache) *Provider {
	t.Helper()
	p, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     "larder",
		ClientSecret: "secret",
		Scope:        "openid profile email",
		DiscoveryURL: issuer.srv.URL,
		SignUpURL:    issuer.srv.URL + "/signup",
		Sessions:     cache,
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestSignInEmitsAndPersistsSession(t *testing.T) {
	issuer := newFakeIssuer(t)
	cache := &mocksauth.MemorySessionCache{}
	p := newTestProvider(t, issuer, cache)

	var events []*domainauth.Session
	unsub := p.OnSessionChange(func(s *domainauth.Session) { events = append(events, s) })
	defer unsub()

	require.NoError(t, p.SignIn(context.Background(), "ada@example.com", "hunter2"))

	require.Len(t, events, 1)
	require.NotNil(t, events[0])
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, "ada@example.com", events[0].Email)
	assert.Equal(t, "at-1", events[0].AccessToken)
	assert.Equal(t, "rt-1", events[0].RefreshToken)
	assert.True(t, events[0].ExpiresAt.After(time.Now()))

	cached := cache.Cached()
	require.NotNil(t, cached, "sign-in persists the session")
	assert.Equal(t, "u1", cached.UserID)

	sess, err := p.CurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.UserID)
}

func TestSignInMapsIdentityErrors(t *testing.T) {
	issuer := newFakeIssuer(t)
	p := newTestProvider(t, issuer, nil)

	issuer.setTokenStatus(http.StatusUnauthorized)
	err := p.SignIn(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))

	issuer.setTokenStatus(http.StatusTooManyRequests)
	err = p.SignIn(context.Background(), "ada@example.com", "hunter2")
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimited(err))

	issuer.setTokenStatus(http.StatusBadGateway)
	err = p.SignIn(context.Background(), "ada@example.com", "hunter2")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))

	err = p.SignIn(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSignUpRegistersThenSignsIn(t *testing.T) {
	issuer := newFakeIssuer(t)
	p := newTestProvider(t, issuer, nil)

	var events []*domainauth.Session
	unsub := p.OnSessionChange(func(s *domainauth.Session) { events = append(events, s) })
	defer unsub()

	err := p.SignUp(context.Background(), ports.SignUpInput{
		Email:       "ada@example.com",
		Password:    "hunter2",
		DisplayName: " Ada ",
	})
	require.NoError(t, err)

	issuer.mu.Lock()
	require.Len(t, issuer.signUps, 1)
	assert.Equal(t, "ada@example.com", issuer.signUps[0]["email"])
	assert.Equal(t, "Ada", issuer.signUps[0]["display_name"], "display name is trimmed")
	issuer.mu.Unlock()

	require.Len(t, events, 1, "sign-up flows into a sign-in event")
	require.NotNil(t, events[0])
	assert.Equal(t, "u1", events[0].UserID)
}

func TestSignOutClearsCacheAndEmitsNil(t *testing.T) {
	issuer := newFakeIssuer(t)
	cache := &mocksauth.MemorySessionCache{}
	p := newTestProvider(t, issuer, cache)
	require.NoError(t, p.SignIn(context.Background(), "ada@example.com", "hunter2"))

	var events []*domainauth.Session
	unsub := p.OnSessionChange(func(s *domainauth.Session) { events = append(events, s) })
	defer unsub()

	require.NoError(t, p.SignOut(context.Background()))

	require.Len(t, events, 1)
	assert.Nil(t, events[0])
	assert.Nil(t, cache.Cached())

	sess, err := p.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestCurrentSessionRestoresFromCache(t *testing.T) {
	issuer := newFakeIssuer(t)
	cache := &mocksauth.MemorySessionCache{}
	now := time.Now()
	require.NoError(t, cache.Save(context.Background(), domainauth.Session{
		ID:           "s1",
		UserID:       "u1",
		Email:        "ada@example.com",
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		IssuedAt:     now,
		ExpiresAt:    now.Add(time.Hour),
	}))

	p := newTestProvider(t, issuer, cache)

	sess, err := p.CurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess, "cold start restores the persisted session")
	assert.Equal(t, "u1", sess.UserID)
}

func TestCurrentSessionIgnoresExpiredCache(t *testing.T) {
	issuer := newFakeIssuer(t)
	cache := &mocksauth.MemorySessionCache{}
	now := time.Now()
	require.NoError(t, cache.Save(context.Background(), domainauth.Session{
		ID:        "s1",
		UserID:    "u1",
		IssuedAt:  now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(time.Millisecond),
	}))
	time.Sleep(5 * time.Millisecond)

	p := newTestProvider(t, issuer, cache)

	sess, err := p.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSearchStringClaim(t *testing.T) {
	claims := map[string]any{
		"sub":   "u1",
		"email": "ada@example.com",
		"user":  map[string]any{"id": "nested-1"},
	}

	got, err := searchStringClaim("sub", claims)
	require.NoError(t, err)
	assert.Equal(t, "u1", got)

	got, err = searchStringClaim("user.id", claims)
	require.NoError(t, err)
	assert.Equal(t, "nested-1", got)

	got, err = searchStringClaim("missing", claims)
	require.NoError(t, err)
	assert.Empty(t, got)
}
