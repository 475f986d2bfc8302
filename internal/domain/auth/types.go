package auth

// Package auth contains domain-level types for identity and sessions.
// It is pure and free of provider/adapter concerns.

import "time"

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID      string // stable subject identifier (sub claim)
	Email       string
	DisplayName string
	ExpiresAt   time.Time // absolute expiry from IdP token
}

// Session is the credential bundle proving an authenticated identity.
// It is issued and renewed by the identity provider; the engine treats it
// as immutable input and never mutates it. ID is an opaque session
// identifier, distinct from the subject the session is for.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the session's credentials have passed their expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TTL returns the remaining lifetime of the session at now, or zero if expired.
func (s Session) TTL(now time.Time) time.Duration {
	if s.Expired(now) {
		return 0
	}
	return s.ExpiresAt.Sub(now)
}
