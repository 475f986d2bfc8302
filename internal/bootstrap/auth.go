package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/larderhq/larder-go/config"
	"github.com/larderhq/larder-go/internal/adapters/oidc"
	redisadapter "github.com/larderhq/larder-go/internal/adapters/redis"
	"github.com/larderhq/larder-go/internal/adapters/staticauth"
	"github.com/larderhq/larder-go/internal/ports"
)

// ProviderConfig contains configuration for the identity provider.
type ProviderConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	SessionKey  string
	Logger      *slog.Logger
}

// BuildProvider creates the identity provider for the configured auth mode.
// The returned close func releases provider resources (refresh timers); it is
// safe to call exactly once during shutdown.
//
//nolint:ireturn // the provider port is the whole point of this constructor.
func BuildProvider(ctx context.Context, cfg ProviderConfig) (ports.IdentityProvider, func(), error) {
	switch cfg.Auth.Mode {
	case config.AuthModeStatic:
		return buildStaticProvider(cfg)
	case config.AuthModeOAuth:
		return buildOAuthProvider(ctx, cfg)
	default:
		return nil, nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}

func buildStaticProvider(cfg ProviderConfig) (ports.IdentityProvider, func(), error) {
	prov, err := staticauth.NewProvider(staticauth.Config{
		UserID:          cfg.Auth.Static.UserID,
		Email:           cfg.Auth.Static.Email,
		Password:        cfg.Auth.Static.Password,
		DisplayName:     cfg.Auth.Static.DisplayName,
		SessionDuration: cfg.Auth.Static.SessionDuration,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build static auth provider: %w", err)
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("static auth mode enabled; do not use in production",
			"email", cfg.Auth.Static.Email)
	}
	return prov, func() {}, nil
}

func buildOAuthProvider(ctx context.Context, cfg ProviderConfig) (ports.IdentityProvider, func(), error) {
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" {
		return nil, nil, fmt.Errorf("oauth mode requires OAUTH_DISCOVERY_URL")
	}

	// Persisted-session slot; without Redis the provider runs memory-only and
	// sessions do not survive restarts.
	var sessions ports.SessionCache
	if cfg.RedisClient != nil {
		if cfg.SessionKey != "" {
			sessions = redisadapter.NewSessionCacheWithKey(cfg.RedisClient, cfg.SessionKey)
		} else {
			sessions = redisadapter.NewSessionCache(cfg.RedisClient)
		}
	} else if cfg.Logger != nil {
		cfg.Logger.Warn("redis not configured; sessions will not survive restarts")
	}

	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:         oauth.ClientID,
		ClientSecret:     oauth.ClientSecret,
		Scope:            oauth.Scope,
		DiscoveryURL:     oauth.DiscoveryURL,
		SignUpURL:        oauth.SignUpURL,
		SubjectClaimPath: oauth.SubjectClaimPath,
		EmailClaimPath:   oauth.EmailClaimPath,
		RefreshSkew:      oauth.RefreshSkew,
		Sessions:         sessions,
		Logger:           cfg.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build oidc provider: %w", err)
	}
	return prov, prov.Close, nil
}
