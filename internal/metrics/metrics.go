// Package metrics holds the Prometheus collectors of the competition
// service. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spottheball"

type Metrics struct {
	registry         *prometheus.Registry
	ticketsAssigned  prometheus.Counter
	entriesSubmitted prometheus.Counter
	winnerComputed   prometheus.Counter
	operationErrors  *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticketsAssigned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_assigned_total",
			Help:      "Tickets moved from AVAILABLE to ASSIGNED.",
		}),
		entriesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_submitted_total",
			Help:      "Tickets moved from ASSIGNED to USED.",
		}),
		winnerComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "winner_computations_total",
			Help:      "Winner rankings computed from persisted state.",
		}),
		operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed competition operations by error code.",
		}, []string{"operation", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.ticketsAssigned,
		m.entriesSubmitted,
		m.winnerComputed,
		m.operationErrors,
		m.requestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) TicketsAssigned(n int) {
	if m == nil {
		return
	}
	m.ticketsAssigned.Add(float64(n))
}

func (m *Metrics) EntriesSubmitted(n int) {
	if m == nil {
		return
	}
	m.entriesSubmitted.Add(float64(n))
}

func (m *Metrics) WinnerComputed() {
	if m == nil {
		return
	}
	m.winnerComputed.Inc()
}

func (m *Metrics) OperationFailed(operation, code string) {
	if m == nil {
		return
	}
	m.operationErrors.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
