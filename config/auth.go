package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the identity provider mode for the agent.
type AuthMode string

const (
	// AuthModeOAuth uses a real OIDC issuer with the resource-owner password grant.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeStatic uses a config-driven in-memory provider (for development only).
	AuthModeStatic AuthMode = "static"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "static":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, static)", v)
	}
}

// OAuthConfig contains OIDC issuer configuration for the password-grant provider.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"larder"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"larder"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	// SignUpURL is the issuer's registration endpoint; sign-up POSTs
	// {email, password, display_name} there and the backend creates the
	// Profile record as a side effect.
	SignUpURL string `env:"SIGNUP_URL"`

	// SubjectClaimPath and EmailClaimPath are JMESPath expressions applied to
	// the token claims to extract the subject id and email. The defaults fit
	// standard OIDC claims; deployments with nonstandard shapes override them.
	SubjectClaimPath string `env:"SUBJECT_CLAIM_PATH" envDefault:"sub"`
	EmailClaimPath   string `env:"EMAIL_CLAIM_PATH"   envDefault:"email"`

	// RefreshSkew is how long before token expiry the refresh loop renews the
	// session.
	RefreshSkew time.Duration `env:"REFRESH_SKEW" envDefault:"1m"`
}

// StaticAuthConfig controls the static/dev identity provider.
// Used when AUTH_MODE=static for development and testing.
type StaticAuthConfig struct {
	UserID          string        `env:"USER_ID"          envDefault:"dev-user"`
	Email           string        `env:"EMAIL"            envDefault:"dev@example.com"`
	Password        string        `env:"PASSWORD"         envDefault:"dev-password"`
	DisplayName     string        `env:"DISPLAY_NAME"     envDefault:"Dev User"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"8h"`
}

// AuthConfig groups all identity-provider configuration.
type AuthConfig struct {
	// Mode determines which identity provider adapter to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// Static configuration (used when Mode=static).
	Static StaticAuthConfig `envPrefix:"STATIC_AUTH_"`
}
