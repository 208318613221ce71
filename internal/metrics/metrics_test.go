package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SagaOutcomes.WithLabelValues(OutcomeCreated).Inc()
	m.OrphanBookings.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SagaOutcomes.WithLabelValues(OutcomeCreated)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OrphanBookings))

	assert.Panics(t, func() { New(reg) })
}
