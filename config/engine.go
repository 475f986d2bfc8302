package config

import "time"

// EngineConfig contains session engine configuration.
type EngineConfig struct {
	// HydrationTimeout bounds the profile and household lookups of a single
	// hydration. A hydration that hits the deadline publishes with the
	// affected fields nil instead of hanging.
	HydrationTimeout time.Duration `env:"ENGINE_HYDRATION_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to engine configuration values.
func (e *EngineConfig) Sanitize() {
	if e.HydrationTimeout <= 0 {
		e.HydrationTimeout = 10 * time.Second
	}
}
