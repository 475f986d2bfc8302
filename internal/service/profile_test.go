package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/larderhq/larder-go/internal/domain/auth"
	"github.com/larderhq/larder-go/internal/domain/model"
	apperrors "github.com/larderhq/larder-go/internal/errors"
)

// fakeContext is a static ContextSource for service tests.
type fakeContext struct {
	mu       sync.Mutex
	snap     Snapshot
	refreshs int
}

func signedInContext(userID, householdID string) *fakeContext {
	snap := Snapshot{Session: &domainauth.Session{ID: "s-" + userID, UserID: userID}}
	if householdID != "" {
		snap.Household = &model.Household{ID: householdID, Name: "Kitchen"}
	}
	return &fakeContext{snap: snap}
}

func (f *fakeContext) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeContext) RefreshMetadata(context.Context) {
	f.mu.Lock()
	f.refreshs++
	f.mu.Unlock()
}

func (f *fakeContext) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshs
}

func TestProfileServiceCurrent(t *testing.T) {
	store := newStubProfiles()
	store.set("u1", "Ada")
	svc := NewProfileService(ProfileServiceOptions{Store: store, Engine: signedInContext("u1", "")})

	profile, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.UserID)
}

func TestProfileServiceCurrentUnauthenticated(t *testing.T) {
	svc := NewProfileService(ProfileServiceOptions{Store: newStubProfiles(), Engine: &fakeContext{}})

	_, err := svc.Current(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthenticated(err))
}

func TestProfileServiceUpdateRefreshesEngine(t *testing.T) {
	store := newStubProfiles()
	store.set("u1", "Ada")
	engine := signedInContext("u1", "")
	svc := NewProfileService(ProfileServiceOptions{Store: store, Engine: engine})

	name := "Ada L."
	_, err := svc.Update(context.Background(), model.ProfileUpdate{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, 1, engine.refreshCount(), "update should refresh the session snapshot")
}

func TestProfileServiceUpdateValidation(t *testing.T) {
	store := newStubProfiles()
	store.set("u1", "Ada")
	engine := signedInContext("u1", "")
	svc := NewProfileService(ProfileServiceOptions{Store: store, Engine: engine})
	ctx := context.Background()

	tests := []struct {
		name   string
		update model.ProfileUpdate
	}{
		{
			name:   "no fields",
			update: model.ProfileUpdate{},
		},
		{
			name: "display name too long",
			update: model.ProfileUpdate{
				DisplayName: ptr(strings.Repeat("x", 81)),
			},
		},
		{
			name: "relative avatar url",
			update: model.ProfileUpdate{
				AvatarURL: ptr("/avatars/me.png"),
			},
		},
		{
			name: "avatar url with bogus tld",
			update: model.ProfileUpdate{
				AvatarURL: ptr("https://cdn.example.notarealtldzz/me.png"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, tt.update)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err), "expected validation error, got %v", err)
		})
	}
	assert.Equal(t, 0, engine.refreshCount(), "rejected updates must not refresh")
}

func TestValidateAvatarHost(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "public domain", url: "https://cdn.example.com/a.png"},
		{name: "localhost allowed", url: "http://localhost:3000/a.png"},
		{name: "ip allowed", url: "http://127.0.0.1/a.png"},
		{name: "no host", url: "not-a-url", wantErr: true},
		{name: "unknown suffix", url: "https://host.invalidtldzz/a.png", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAvatarHost(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func ptr[T any](v T) *T { return &v }
