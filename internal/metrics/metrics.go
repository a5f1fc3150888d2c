package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the gatekeeper
type Metrics struct {
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	Outcomes         *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all collectors registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		ProviderRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jazzhands_provider_requests_total",
				Help: "Total number of identity provider API requests",
			},
			[]string{"operation", "status"},
		),
		ProviderLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jazzhands_provider_latency_seconds",
				Help:    "Identity provider API latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"operation"},
		),
		Outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jazzhands_membership_outcomes_total",
				Help: "Total number of membership workflow outcomes",
			},
			[]string{"outcome"},
		),
	}
}

// NewRegistry creates a new Prometheus registry with metrics
func NewRegistry() (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	return reg, m
}

// HandlerFor returns an HTTP handler for a specific registry
func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// RecordProviderRequest counts one provider call. A status of 0 means the request never got a response.
func (m *Metrics) RecordProviderRequest(operation string, status int, took time.Duration) {
	if m == nil {
		return
	}

	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}

	m.ProviderRequests.WithLabelValues(operation, label).Inc()
	m.ProviderLatency.WithLabelValues(operation).Observe(took.Seconds())
}

func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(outcome).Inc()
}
