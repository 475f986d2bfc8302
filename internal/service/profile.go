package service

import (
	"context"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/larderhq/larder-go/internal/domain/model"
	apperrors "github.com/larderhq/larder-go/internal/errors"
	"github.com/larderhq/larder-go/internal/ports"
)

// ContextSource exposes the authenticated household context a service call
// runs under. The session engine satisfies it.
type ContextSource interface {
	Snapshot() Snapshot
	RefreshMetadata(ctx context.Context)
}

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Store  ports.ProfileStore
	Engine ContextSource
}

// ProfileService reads and updates the current subject's profile, keeping the
// session engine's snapshot in step with writes.
type ProfileService struct {
	store  ports.ProfileStore
	engine ContextSource
}

// NewProfileService constructs a new ProfileService.
func NewProfileService(opts ProfileServiceOptions) *ProfileService {
	return &ProfileService{store: opts.Store, engine: opts.Engine}
}

// Current returns the profile of the signed-in subject.
func (s *ProfileService) Current(ctx context.Context) (*model.Profile, error) {
	userID, err := s.subject()
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, userID)
}

// Update validates and persists profile changes for the signed-in subject,
// then refreshes the engine so watchers observe the new metadata.
func (s *ProfileService) Update(ctx context.Context, update model.ProfileUpdate) (*model.Profile, error) {
	userID, err := s.subject()
	if err != nil {
		return nil, err
	}
	if validateErr := update.Validate(); validateErr != nil {
		return nil, apperrors.Validation(validateErr.Error())
	}
	if update.AvatarURL != nil {
		if avatarErr := validateAvatarHost(*update.AvatarURL); avatarErr != nil {
			return nil, avatarErr
		}
	}

	profile, err := s.store.Update(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	if s.engine != nil {
		s.engine.RefreshMetadata(ctx)
	}
	return profile, nil
}

func (s *ProfileService) subject() (string, error) {
	if s.engine == nil {
		return "", apperrors.Unauthenticated("No active session.")
	}
	snap := s.engine.Snapshot()
	if snap.Session == nil {
		return "", apperrors.Unauthenticated("No active session.")
	}
	return snap.Session.UserID, nil
}

// validateAvatarHost rejects avatar URLs whose host is not a real public
// domain. Loopback names are allowed for local development.
func validateAvatarHost(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return apperrors.ValidationField("avatar_url", "avatar URL must be an absolute http(s) URL")
	}
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || net.ParseIP(host) != nil {
		return nil
	}
	if _, icann := publicsuffix.PublicSuffix(host); !icann {
		return apperrors.ValidationField("avatar_url", "avatar URL host is not a registrable domain")
	}
	return nil
}
