package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	registry := prometheus.NewRegistry()
	c := NewCollector(registry)

	c.SessionEvent(EventSignedIn)
	c.SessionEvent(EventSignedIn)
	c.SessionEvent(EventSignedOut)
	c.Hydration(OutcomeReady, 25*time.Millisecond)
	c.Hydration(OutcomeDiscarded, 5*time.Millisecond)
	c.LookupFailure(StoreProfile)

	assert.InDelta(t, 2, testutil.ToFloat64(c.sessionEvents.WithLabelValues(EventSignedIn)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.sessionEvents.WithLabelValues(EventSignedOut)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.hydrations.WithLabelValues(OutcomeReady)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.hydrations.WithLabelValues(OutcomeDiscarded)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(c.lookupFailures.WithLabelValues(StoreProfile)), 0.001)
}

func TestEmitHelpersTolerateNilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitSessionEvent(nil, EventSignedIn)
		EmitHydration(nil, OutcomeReady, time.Second)
		EmitLookupFailure(nil, StoreHousehold)
	})
}
