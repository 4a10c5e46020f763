package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes Prometheus counters and histograms for a running
// kconfig-server process, grounded on pkg/telemetry.Metrics's
// per-namespace CounterVec/HistogramVec construction, trimmed to what a
// request/response server actually produces.
type Metrics struct {
	enabled bool

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	symbolsChanged  prometheus.Histogram
	activeSessions  prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a Metrics collector. When enabled is false every
// observation is a no-op, letting callers skip a --metrics-listen flag
// without conditioning every call site.
func NewMetrics(enabled bool, namespace string) *Metrics {
	if !enabled {
		return &Metrics{}
	}
	registry := prometheus.NewRegistry()
	m := &Metrics{
		enabled:  true,
		registry: registry,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of protocol requests handled",
			},
			[]string{"outcome"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of request handling in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		symbolsChanged: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "response_symbols_changed",
				Help:      "Number of symbols reported changed per response",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
			},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Number of currently connected sessions",
			},
		),
	}
	registry.MustRegister(m.requests, m.requestDuration, m.symbolsChanged, m.activeSessions)
	return m
}

// ObserveRequest records one handled request's outcome and duration.
func (m *Metrics) ObserveRequest(outcome string, seconds float64, symbolsChanged int) {
	if !m.enabled {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.requestDuration.WithLabelValues(outcome).Observe(seconds)
	m.symbolsChanged.Observe(float64(symbolsChanged))
}

// SessionOpened and SessionClosed track the active-sessions gauge.
func (m *Metrics) SessionOpened() {
	if m.enabled {
		m.activeSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m.enabled {
		m.activeSessions.Dec()
	}
}

// Handler returns the Prometheus scrape endpoint handler, or nil when
// metrics are disabled.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
