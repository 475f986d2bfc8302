package staticauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/larderhq/larder-go/internal/domain/auth"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/ports"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(Config{
		UserID:      "u1",
		Email:       "ada@example.com",
		Password:    "hunter2",
		DisplayName: "Ada",
	})
	require.NoError(t, err)
	return p
}

func TestNewProviderRequiresIdentity(t *testing.T) {
	_, err := NewProvider(Config{Email: "x@example.com"})
	require.Error(t, err)

	_, err = NewProvider(Config{UserID: "u1"})
	require.Error(t, err)
}

func TestSignInEmitsSession(t *testing.T) {
	p := newTestProvider(t)

	var events []*domainauth.Session
	unsub := p.OnSessionChange(func(s *domainauth.Session) {
		events = append(events, s)
	})
	defer unsub()

	require.NoError(t, p.SignIn(context.Background(), "Ada@Example.com", "hunter2"))

	require.Len(t, events, 1)
	require.NotNil(t, events[0])
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, "ada@example.com", events[0].Email)
	assert.NotEmpty(t, events[0].AccessToken)
	assert.True(t, events[0].ExpiresAt.After(time.Now()))

	sess, err := p.CurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.UserID)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	p := newTestProvider(t)

	err := p.SignIn(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))

	err = p.SignIn(context.Background(), "nobody@example.com", "hunter2")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))

	err = p.SignIn(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSignUpRegistersAndSignsIn(t *testing.T) {
	p := newTestProvider(t)

	err := p.SignUp(context.Background(), ports.SignUpInput{
		Email:       "grace@example.com",
		Password:    "s3cret",
		DisplayName: "Grace",
	})
	require.NoError(t, err)

	sess, err := p.CurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "grace@example.com", sess.Email)
	assert.NotEqual(t, "u1", sess.UserID)

	// The new account is usable for a regular sign-in afterwards.
	require.NoError(t, p.SignOut(context.Background()))
	require.NoError(t, p.SignIn(context.Background(), "grace@example.com", "s3cret"))
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	p := newTestProvider(t)

	err := p.SignUp(context.Background(), ports.SignUpInput{
		Email:    "ada@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestSignOutEmitsNilSession(t *testing.T) {
	p := newTestProvider(t)
	require.NoError(t, p.SignIn(context.Background(), "ada@example.com", "hunter2"))

	var events []*domainauth.Session
	unsub := p.OnSessionChange(func(s *domainauth.Session) {
		events = append(events, s)
	})
	defer unsub()

	require.NoError(t, p.SignOut(context.Background()))
	require.Len(t, events, 1)
	assert.Nil(t, events[0])

	sess, err := p.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	p := newTestProvider(t)

	count := 0
	unsub := p.OnSessionChange(func(*domainauth.Session) { count++ })
	require.NoError(t, p.SignIn(context.Background(), "ada@example.com", "hunter2"))
	assert.Equal(t, 1, count)

	unsub()
	require.NoError(t, p.SignOut(context.Background()))
	assert.Equal(t, 1, count)
}
