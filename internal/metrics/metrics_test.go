package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRPC("SearchDoctors", "OK", 3*time.Millisecond)
	m.ObserveRPC("SearchDoctors", "OK", time.Millisecond)
	m.ObserveRPC("GetDoctor", "NotFound", time.Millisecond)
	m.SetSessions(4)
	m.AppointmentBooked()
	m.ObserveBridge("forwarded")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rpcTotal.WithLabelValues("SearchDoctors", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcTotal.WithLabelValues("GetDoctor", "NotFound")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.sessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.booked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bridgeTotal.WithLabelValues("forwarded")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.rpcLatency.WithLabelValues("SearchDoctors").(prometheus.Histogram)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRPC("x", "OK", time.Second)
		m.SetSessions(1)
		m.AppointmentBooked()
		m.ObserveBridge("rejected")
	})
}
