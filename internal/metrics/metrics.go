package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes counters for the booking service. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	rpcTotal       *prometheus.CounterVec
	rpcLatency     *prometheus.HistogramVec
	sessionsActive prometheus.Gauge
	booked         prometheus.Counter
	bridgeTotal    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "doctorbooking",
			Name:      "rpc_total",
			Help:      "Total gRPC calls by method and status code",
		}, []string{"method", "code"}),
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "doctorbooking",
			Name:      "rpc_duration_seconds",
			Help:      "Latency of unary gRPC calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "doctorbooking",
			Name:      "sessions_active",
			Help:      "Sessions currently holding a store",
		}),
		booked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "doctorbooking",
			Name:      "appointments_booked_total",
			Help:      "Appointments created through the booking flow or a raw add",
		}),
		bridgeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "doctorbooking",
			Subsystem: "grpcweb",
			Name:      "requests_total",
			Help:      "gRPC-Web bridge requests by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.rpcTotal, m.rpcLatency, m.sessionsActive, m.booked, m.bridgeTotal)
	return m
}

func (m *Metrics) ObserveRPC(method, code string, took time.Duration) {
	if m == nil {
		return
	}
	m.rpcTotal.WithLabelValues(method, code).Inc()
	m.rpcLatency.WithLabelValues(method).Observe(took.Seconds())
}

func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}

func (m *Metrics) AppointmentBooked() {
	if m == nil {
		return
	}
	m.booked.Inc()
}

func (m *Metrics) ObserveBridge(outcome string) {
	if m == nil {
		return
	}
	m.bridgeTotal.WithLabelValues(outcome).Inc()
}
