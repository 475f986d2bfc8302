package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Session event kinds for metric tagging.
const (
	EventInitial   = "initial"
	EventSignedIn  = "signed_in"
	EventSignedOut = "signed_out"
	EventRefreshed = "refreshed"
)

// Hydration outcomes for metric tagging.
const (
	OutcomeReady     = "ready"
	OutcomeDiscarded = "discarded"
)

// Lookup store labels.
const (
	StoreProfile   = "profile"
	StoreHousehold = "household"
)

// Sink records session engine activity. Implementations must be safe for
// concurrent use.
type Sink interface {
	SessionEvent(kind string)
	Hydration(outcome string, duration time.Duration)
	LookupFailure(store string)
}

// EmitSessionEvent records a session-change event when a sink is configured.
func EmitSessionEvent(sink Sink, kind string) {
	if sink == nil {
		return
	}
	sink.SessionEvent(kind)
}

// EmitHydration records a settled hydration when a sink is configured.
func EmitHydration(sink Sink, outcome string, duration time.Duration) {
	if sink == nil {
		return
	}
	sink.Hydration(outcome, duration)
}

// EmitLookupFailure records a swallowed store lookup error when a sink is configured.
func EmitLookupFailure(sink Sink, store string) {
	if sink == nil {
		return
	}
	sink.LookupFailure(store)
}

// Collector implements Sink backed by Prometheus.
type Collector struct {
	sessionEvents    *prometheus.CounterVec
	hydrations       *prometheus.CounterVec
	hydrationSeconds prometheus.Histogram
	lookupFailures   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "larder_session_events_total",
			Help: "Session-change events processed by the engine, by kind.",
		}, []string{"kind"}),
		hydrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "larder_hydrations_total",
			Help: "Settled hydrations, by outcome (ready or discarded as stale).",
		}, []string{"outcome"}),
		hydrationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "larder_hydration_duration_seconds",
			Help:    "Wall time from hydration start to settle.",
			Buckets: prometheus.DefBuckets,
		}),
		lookupFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "larder_hydration_lookup_failures_total",
			Help: "Store lookup errors swallowed during hydration, by store.",
		}, []string{"store"}),
	}

	reg.MustRegister(
		c.sessionEvents,
		c.hydrations,
		c.hydrationSeconds,
		c.lookupFailures,
	)

	return c
}

// SessionEvent records a processed session-change event.
func (c *Collector) SessionEvent(kind string) {
	c.sessionEvents.WithLabelValues(kind).Inc()
}

// Hydration records a settled hydration and its duration.
func (c *Collector) Hydration(outcome string, duration time.Duration) {
	c.hydrations.WithLabelValues(outcome).Inc()
	c.hydrationSeconds.Observe(duration.Seconds())
}

// LookupFailure records a swallowed store lookup error.
func (c *Collector) LookupFailure(store string) {
	c.lookupFailures.WithLabelValues(store).Inc()
}

var _ Sink = (*Collector)(nil)
