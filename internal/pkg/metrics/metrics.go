// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "collegeerp"

// Metrics groups the service collectors around one registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	guardDecisions *prometheus.CounterVec
	roleLookups    *prometheus.CounterVec
	wsConnections  *prometheus.GaugeVec
	changeEvents   *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, including the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard verdicts by view and decision.",
		}, []string{"view", "decision"}),
		roleLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_lookups_total",
			Help:      "Profile role lookups by source (cache, database) and result.",
		}, []string{"source", "result"}),
		wsConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Open websocket connections by stream.",
		}, []string{"stream"}),
		changeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_events_total",
			Help:      "Published change events by table, type and outcome.",
		}, []string{"table", "type", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.guardDecisions,
		m.roleLookups,
		m.wsConnections,
		m.changeEvents,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) GuardDecision(view, decision string) {
	m.guardDecisions.WithLabelValues(view, decision).Inc()
}

func (m *Metrics) RoleLookup(source, result string) {
	m.roleLookups.WithLabelValues(source, result).Inc()
}

func (m *Metrics) WebsocketOpened(stream string) {
	m.wsConnections.WithLabelValues(stream).Inc()
}

func (m *Metrics) WebsocketClosed(stream string) {
	m.wsConnections.WithLabelValues(stream).Dec()
}

func (m *Metrics) ChangeEvent(table, changeType, outcome string) {
	m.changeEvents.WithLabelValues(table, changeType, outcome).Inc()
}
