package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveTick("sepolia", OutcomeScanned, time.Now())
	m.ObserveTick("sepolia", OutcomeScanned, time.Now())
	m.ObserveTick("sepolia", OutcomeEmpty, time.Now())
	m.EventsAdmitted.WithLabelValues("sepolia", "TokenDeployed").Inc()
	m.LastScannedBlock.WithLabelValues("sepolia").Set(501)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.TicksTotal.WithLabelValues("sepolia", OutcomeScanned)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TicksTotal.WithLabelValues("sepolia", OutcomeEmpty)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsAdmitted.WithLabelValues("sepolia", "TokenDeployed")))
	assert.Equal(t, float64(501), testutil.ToFloat64(m.LastScannedBlock.WithLabelValues("sepolia")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TickDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}
