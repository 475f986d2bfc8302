package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/larderhq/larder-go/internal/domain/auth"
	"github.com/larderhq/larder-go/internal/domain/model"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/mocks"
	mocksauth "github.com/larderhq/larder-go/internal/mocks/auth"
	"github.com/larderhq/larder-go/internal/ports"
	"github.com/larderhq/larder-go/internal/service"
)

// apiFixture wires a real session engine and router against mock stores and a
// fake identity provider, served over httptest.
type apiFixture struct {
	t *testing.T

	provider   *mocksauth.FakeIdentityProvider
	profiles   *mocks.MockProfileStore
	households *mocks.MockHouseholdStore
	shopping   *mocks.MockShoppingStore
	engine     *service.SessionEngine
	server     *httptest.Server
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &apiFixture{
		t:          t,
		provider:   mocksauth.NewFakeIdentityProvider(),
		profiles:   mocks.NewMockProfileStore(ctrl),
		households: mocks.NewMockHouseholdStore(ctrl),
		shopping:   mocks.NewMockShoppingStore(ctrl),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine, err := service.NewSessionEngine(service.SessionEngineOptions{
		Provider:   f.provider,
		Profiles:   f.profiles,
		Households: f.households,
		Logger:     logger,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Start(context.Background()))
	t.Cleanup(engine.Close)
	f.engine = engine

	router := NewRouter(RouterServices{
		Engine:        engine,
		Profiles:      service.NewProfileService(service.ProfileServiceOptions{Store: f.profiles, Engine: engine}),
		Shopping:      service.NewShoppingService(service.ShoppingServiceOptions{Store: f.shopping, Engine: engine}),
		SettleTimeout: 2 * time.Second,
		Logger:        logger,
	})
	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)
	return f
}

func testSession(userID string) *domainauth.Session {
	return &domainauth.Session{
		ID:          "sess-" + userID,
		UserID:      userID,
		Email:       userID + "@example.com",
		AccessToken: "token-" + userID,
		IssuedAt:    time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func testProfile(userID, name string) *model.Profile {
	return &model.Profile{
		UserID:      userID,
		DisplayName: &name,
		Role:        model.RoleMember,
		Tier:        model.TierFree,
	}
}

func testMembership(userID, householdID string) *model.Membership {
	return &model.Membership{
		HouseholdID: householdID,
		UserID:      userID,
		Role:        model.RoleMember,
		Household:   &model.Household{ID: householdID, Name: "Home"},
	}
}

// signIn emits a session event with hydration expectations and waits for the
// snapshot to settle. Nil profile or membership hydrate as typed not-found.
func (f *apiFixture) signIn(sess *domainauth.Session, profile *model.Profile, membership *model.Membership) {
	f.t.Helper()

	f.profiles.EXPECT().Get(gomock.Any(), sess.UserID).DoAndReturn(
		func(context.Context, string) (*model.Profile, error) {
			if profile == nil {
				return nil, apperrors.NotFound("profile not found")
			}
			return profile, nil
		}).AnyTimes()
	f.households.EXPECT().GetMembership(gomock.Any(), sess.UserID).DoAndReturn(
		func(context.Context, string) (*model.Membership, error) {
			if membership == nil {
				return nil, apperrors.NotFound("no household membership")
			}
			return membership, nil
		}).AnyTimes()

	f.provider.Emit(sess)
	require.Eventually(f.t, func() bool {
		snap := f.engine.Snapshot()
		if !snap.SignedIn() || snap.Loading {
			return false
		}
		if profile != nil && snap.Profile == nil {
			return false
		}
		if membership != nil && snap.Household == nil {
			return false
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
}

func (f *apiFixture) do(method, path string, body any) *http.Response {
	f.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(f.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func TestRouterHealthz(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouterUnknownRouteReturns404(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetContextSignedOut(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(http.MethodGet, "/api/context", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ctx contextResponse
	decodeBody(t, resp, &ctx)
	assert.False(t, ctx.Loading)
	assert.False(t, ctx.SignedIn)
	assert.Nil(t, ctx.Session)
	assert.Nil(t, ctx.Profile)
	assert.Nil(t, ctx.Household)
}

func TestGetContextSignedIn(t *testing.T) {
	f := newAPIFixture(t)
	f.signIn(testSession("u1"), testProfile("u1", "Alice"), testMembership("u1", "h1"))

	resp := f.do(http.MethodGet, "/api/context", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ctx contextResponse
	decodeBody(t, resp, &ctx)
	assert.True(t, ctx.SignedIn)
	require.NotNil(t, ctx.Session)
	assert.Equal(t, "u1", ctx.Session.UserID)
	assert.Equal(t, "u1@example.com", ctx.Session.Email)
	require.NotNil(t, ctx.Profile)
	assert.Equal(t, "Alice", ctx.Profile.Name())
	require.NotNil(t, ctx.Household)
	assert.Equal(t, "h1", ctx.Household.ID)
}

func TestContextResponseNeverExposesTokens(t *testing.T) {
	f := newAPIFixture(t)
	f.signIn(testSession("u1"), testProfile("u1", "Alice"), nil)

	resp := f.do(http.MethodGet, "/api/context", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "token-u1")
	assert.NotContains(t, string(raw), "access_token")
}

func TestSignInReturnsSettledContext(t *testing.T) {
	f := newAPIFixture(t)

	sess := testSession("u1")
	f.profiles.EXPECT().Get(gomock.Any(), "u1").
		Return(testProfile("u1", "Alice"), nil).AnyTimes()
	f.households.EXPECT().GetMembership(gomock.Any(), "u1").
		Return(testMembership("u1", "h1"), nil).AnyTimes()
	f.provider.SignInFunc = func(context.Context, string, string) error {
		f.provider.Emit(sess)
		return nil
	}

	resp := f.do(http.MethodPost, "/api/auth/signin",
		map[string]string{"email": "u1@example.com", "password": "hunter2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ctx contextResponse
	decodeBody(t, resp, &ctx)
	assert.True(t, ctx.SignedIn)
	assert.False(t, ctx.Loading)
	require.NotNil(t, ctx.Session)
	assert.Equal(t, "u1", ctx.Session.UserID)
}

func TestSignInRequiresCredentials(t *testing.T) {
	f := newAPIFixture(t)

	for name, body := range map[string]map[string]string{
		"missing email":    {"password": "hunter2"},
		"missing password": {"email": "u1@example.com"},
		"blank email":      {"email": "   ", "password": "hunter2"},
	} {
		t.Run(name, func(t *testing.T) {
			resp := f.do(http.MethodPost, "/api/auth/signin", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	assert.Zero(t, f.provider.SignInCalls)
}

func TestSignInRejectedCredentials(t *testing.T) {
	f := newAPIFixture(t)
	f.provider.SignInFunc = func(context.Context, string, string) error {
		return apperrors.Unauthenticated("Incorrect email or password.")
	}

	resp := f.do(http.MethodPost, "/api/auth/signin",
		map[string]string{"email": "u1@example.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "unauthenticated", body["error"])
	assert.Equal(t, "Incorrect email or password.", body["message"])
}

func TestSignInRateLimited(t *testing.T) {
	f := newAPIFixture(t)
	f.provider.SignInFunc = func(context.Context, string, string) error {
		return apperrors.RateLimited("Too many attempts. Try again shortly.")
	}

	resp := f.do(http.MethodPost, "/api/auth/signin",
		map[string]string{"email": "u1@example.com", "password": "hunter2"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestSignUpReturnsCreated(t *testing.T) {
	f := newAPIFixture(t)

	sess := testSession("u9")
	f.profiles.EXPECT().Get(gomock.Any(), "u9").
		Return(nil, apperrors.NotFound("profile not found")).AnyTimes()
	f.households.EXPECT().GetMembership(gomock.Any(), "u9").
		Return(nil, apperrors.NotFound("no household membership")).AnyTimes()
	f.provider.SignUpFunc = func(_ context.Context, _ ports.SignUpInput) error {
		f.provider.Emit(sess)
		return nil
	}

	resp := f.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "u9@example.com", "password": "hunter2", "display_name": "Newbie",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ctx contextResponse
	decodeBody(t, resp, &ctx)
	assert.True(t, ctx.SignedIn)
	// Profile records are created asynchronously by the backend; right after
	// sign-up the context carries the session but no profile yet.
	assert.Nil(t, ctx.Profile)
}

func TestSignOutClearsContext(t *testing.T) {
	f := newAPIFixture(t)
	f.signIn(testSession("u1"), testProfile("u1", "Alice"), testMembership("u1", "h1"))
	f.provider.SignOutFunc = func(context.Context) error {
		f.provider.Emit(nil)
		return nil
	}

	resp := f.do(http.MethodPost, "/api/auth/signout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ctx contextResponse
	decodeBody(t, resp, &ctx)
	assert.False(t, ctx.SignedIn)
	assert.False(t, ctx.Loading)
	assert.Nil(t, ctx.Profile)
	assert.Nil(t, ctx.Household)
	assert.Equal(t, 1, f.provider.SignOutCalls)
}

func TestSignOutProviderFailure(t *testing.T) {
	f := newAPIFixture(t)
	f.signIn(testSession("u1"), testProfile("u1", "Alice"), nil)
	f.provider.SignOutFunc = func(context.Context) error {
		return apperrors.Unavailable("identity provider unreachable")
	}

	resp := f.do(http.MethodPost, "/api/auth/signout", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	// The session survives a failed sign-out.
	snap := f.engine.Snapshot()
	assert.True(t, snap.SignedIn())
	assert.False(t, snap.Loading)
}

func TestRefreshReturnsUpdatedMetadata(t *testing.T) {
	f := newAPIFixture(t)

	sess := testSession("u1")
	current := testProfile("u1", "Alice")
	f.profiles.EXPECT().Get(gomock.Any(), "u1").DoAndReturn(
		func(context.Context, string) (*model.Profile, error) { return current, nil }).AnyTimes()
	f.households.EXPECT().GetMembership(gomock.Any(), "u1").
		Return(nil, apperrors.NotFound("no household membership")).AnyTimes()
	f.provider.Emit(sess)
	require.Eventually(t, func() bool {
		return f.engine.Snapshot().Profile != nil
	}, 2*time.Second, 5*time.Millisecond)

	current = testProfile("u1", "Alice Cooper")
	resp := f.do(http.MethodPost, "/api/auth/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ctx contextResponse
	decodeBody(t, resp, &ctx)
	require.NotNil(t, ctx.Profile)
	assert.Equal(t, "Alice Cooper", ctx.Profile.Name())
}

func TestMetricsMountedWhenConfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := newAPIFixture(t)

	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("# metrics"))
	})
	router := NewRouter(RouterServices{
		Engine:   f.engine,
		Profiles: service.NewProfileService(service.ProfileServiceOptions{Store: f.profiles, Engine: f.engine}),
		Shopping: service.NewShoppingService(service.ShoppingServiceOptions{Store: f.shopping, Engine: f.engine}),
		Metrics:  metricsHandler,
		Logger:   logger,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	resp, err := server.Client().Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "# metrics"))
}
