package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAuthModeUnmarshalText(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    AuthMode
		expectError bool
	}{
		{name: "oauth", input: "oauth", expected: AuthModeOAuth},
		{name: "static", input: "static", expected: AuthModeStatic},
		{name: "uppercase normalized", input: "OAuth", expected: AuthModeOAuth},
		{name: "unknown mode", input: "mock", expectError: true},
		{name: "empty", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mode AuthMode
			err := mode.UnmarshalText([]byte(tt.input))
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for input %q, got mode %q", tt.input, mode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mode != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, mode)
			}
		})
	}
}

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Auth.Mode != AuthModeOAuth {
		t.Errorf("expected default auth mode oauth, got %q", cfg.Auth.Mode)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("expected default HTTP addr :8080, got %q", cfg.HTTP.Addr)
	}
	if cfg.Postgres.Host != "localhost" || cfg.Postgres.Port != 5432 {
		t.Errorf("unexpected default postgres host/port: %s:%d", cfg.Postgres.Host, cfg.Postgres.Port)
	}
	if cfg.Redis.SessionKey != "larder:session" {
		t.Errorf("expected default session key larder:session, got %q", cfg.Redis.SessionKey)
	}
	if cfg.Engine.HydrationTimeout != 10*time.Second {
		t.Errorf("expected default hydration timeout 10s, got %v", cfg.Engine.HydrationTimeout)
	}
	if cfg.Realtime.Enabled() {
		t.Error("expected realtime disabled by default")
	}
	if cfg.Realtime.SubjectPrefix != "larder" {
		t.Errorf("expected default subject prefix larder, got %q", cfg.Realtime.SubjectPrefix)
	}
	if !cfg.Observability.Metrics.Enabled {
		t.Error("expected metrics enabled by default")
	}
	if cfg.Observability.Metrics.Path != "/metrics" {
		t.Errorf("expected default metrics path /metrics, got %q", cfg.Observability.Metrics.Path)
	}
}

func TestAppConfigFromEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "static")
	t.Setenv("STATIC_AUTH_EMAIL", "ada@example.com")
	t.Setenv("STATIC_AUTH_SESSION_DURATION", "2h")
	t.Setenv("OAUTH_SUBJECT_CLAIM_PATH", "user.id")
	t.Setenv("ENGINE_HYDRATION_TIMEOUT", "3s")
	t.Setenv("NATS_URL", " nats://localhost:4222 ")
	t.Setenv("NATS_SUBJECT_PREFIX", "pantry.")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Auth.Mode != AuthModeStatic {
		t.Errorf("expected auth mode static, got %q", cfg.Auth.Mode)
	}
	if cfg.Auth.Static.Email != "ada@example.com" {
		t.Errorf("expected static email ada@example.com, got %q", cfg.Auth.Static.Email)
	}
	if cfg.Auth.Static.SessionDuration != 2*time.Hour {
		t.Errorf("expected static session duration 2h, got %v", cfg.Auth.Static.SessionDuration)
	}
	if cfg.Auth.OAuth.SubjectClaimPath != "user.id" {
		t.Errorf("expected subject claim path user.id, got %q", cfg.Auth.OAuth.SubjectClaimPath)
	}
	if cfg.Engine.HydrationTimeout != 3*time.Second {
		t.Errorf("expected hydration timeout 3s, got %v", cfg.Engine.HydrationTimeout)
	}
	if !cfg.Realtime.Enabled() {
		t.Error("expected realtime enabled")
	}
	if cfg.Realtime.URL != "nats://localhost:4222" {
		t.Errorf("expected trimmed NATS URL, got %q", cfg.Realtime.URL)
	}
	if cfg.Realtime.SubjectPrefix != "pantry" {
		t.Errorf("expected trimmed subject prefix pantry, got %q", cfg.Realtime.SubjectPrefix)
	}
}

func TestSanitizeGuardrails(t *testing.T) {
	cfg := AppConfig{
		HTTP:   HTTPConfig{CompressionLevel: 42},
		Engine: EngineConfig{HydrationTimeout: -1},
		Observability: ObservabilityConfig{
			Metrics: ObservabilityMetricsConfig{Enabled: true, Path: "metrics"},
		},
	}
	cfg.Sanitize()

	if cfg.HTTP.CompressionLevel != 9 {
		t.Errorf("expected compression level clamped to 9, got %d", cfg.HTTP.CompressionLevel)
	}
	if cfg.Engine.HydrationTimeout != 10*time.Second {
		t.Errorf("expected hydration timeout restored to 10s, got %v", cfg.Engine.HydrationTimeout)
	}
	if cfg.Observability.Metrics.Path != "/metrics" {
		t.Errorf("expected metrics path prefixed with slash, got %q", cfg.Observability.Metrics.Path)
	}
	if cfg.Realtime.SubjectPrefix != "larder" {
		t.Errorf("expected subject prefix defaulted to larder, got %q", cfg.Realtime.SubjectPrefix)
	}
}

func TestDetectDevMode(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if !cfg.IsDev {
		t.Error("expected IsDev true when APP_ENV=development")
	}
}
