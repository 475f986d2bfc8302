package config

import "strings"

// RealtimeConfig contains NATS configuration for metadata invalidation.
// Realtime is optional: with no URL configured the agent runs without it and
// consumers converge via explicit refresh.
type RealtimeConfig struct {
	// URL is the NATS server URL (e.g. "nats://localhost:4222"). Empty
	// disables realtime invalidation.
	URL string `env:"NATS_URL" envDefault:""`

	// SubjectPrefix is the prefix for change-event subjects. The backend
	// publishes to <prefix>.profile.<userID> and
	// <prefix>.household.<householdID>.members.
	SubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"larder"`
}

// Enabled reports whether realtime invalidation is configured.
func (r *RealtimeConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

// Sanitize applies guardrails to realtime configuration values.
func (r *RealtimeConfig) Sanitize() {
	r.URL = strings.TrimSpace(r.URL)
	r.SubjectPrefix = strings.Trim(strings.TrimSpace(r.SubjectPrefix), ".")
	if r.SubjectPrefix == "" {
		r.SubjectPrefix = "larder"
	}
}
