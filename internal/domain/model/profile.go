// Package model defines the core data types shared across the larder services.
package model

import (
	"errors"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxDisplayNameLen = 80
)

// Role represents a user's role within their household.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether the role is supported.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a role string and reports whether it is supported.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if role.Valid() {
		return role, true
	}
	return "", false
}

// Tier represents a user's subscription tier.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// Valid reports whether the tier is supported.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro:
		return true
	default:
		return false
	}
}

// ParseTier normalizes a tier string and reports whether it is supported.
func ParseTier(value string) (Tier, bool) {
	tier := Tier(strings.ToLower(strings.TrimSpace(value)))
	if tier.Valid() {
		return tier, true
	}
	return "", false
}

// Profile is the application-level user record keyed by the session subject id.
// The backend creates it as a side effect of account creation, so it may not
// exist yet for a short window after sign-up; readers treat that as a defined
// not-found result rather than an error.
type Profile struct {
	UserID      string    `json:"user_id"              db:"user_id"`
	DisplayName *string   `json:"display_name"         db:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	Role        Role      `json:"role"                 db:"role"`
	Tier        Tier      `json:"tier"                 db:"tier"`
	CreatedAt   time.Time `json:"created_at"           db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"           db:"updated_at"`
}

// Name returns the display name, or the empty string when unset.
func (p *Profile) Name() string {
	if p == nil || p.DisplayName == nil {
		return ""
	}
	return *p.DisplayName
}

// IsPro reports whether the profile is on the pro tier.
func (p *Profile) IsPro() bool { return p != nil && p.Tier == TierPro }

// ProfileUpdate represents the writable subset of a Profile. Only display
// name and avatar are caller-mutable; role, tier, and timestamps belong to
// the backend.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// HasUpdates reports whether any field is set.
func (u *ProfileUpdate) HasUpdates() bool {
	return u.DisplayName != nil || u.AvatarURL != nil
}

// Validate validates a ProfileUpdate, ensuring at least one field is set and
// values are sane. Avatar host ownership checks live in the profile service.
func (u *ProfileUpdate) Validate() error {
	if !u.HasUpdates() {
		return errors.New("at least one field must be updated")
	}
	if u.DisplayName != nil {
		name := strings.TrimSpace(*u.DisplayName)
		if name == "" {
			return errors.New("display_name cannot be empty")
		}
		if utf8.RuneCountInString(name) > maxDisplayNameLen {
			return errors.New("display_name cannot exceed 80 characters")
		}
		*u.DisplayName = name
	}
	if u.AvatarURL != nil {
		raw := strings.TrimSpace(*u.AvatarURL)
		if raw == "" {
			return errors.New("avatar_url cannot be empty")
		}
		parsed, err := url.Parse(raw)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return errors.New("avatar_url must be an absolute http(s) URL")
		}
		*u.AvatarURL = raw
	}
	return nil
}
