package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every Prometheus collector the node exposes on /metrics.
// Counters are keyed the way the domain thinks about outcomes (dispatch
// succeeded/retried/abandoned, orchestrator poll succeeded/failed) rather
// than by generic HTTP status alone.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	OutboxDispatchedTotal *prometheus.CounterVec
	OutboxQueueDepth      prometheus.Gauge

	OrchestratorPollsTotal    *prometheus.CounterVec
	ProcessesCompletedTotal   prometheus.Counter
	ProcessesAbandonedTotal   prometheus.Counter
}

// NewMetrics registers every collector against the default Prometheus
// registry and returns a handle to them.
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mpc_http_requests_total",
				Help: "Total number of HTTP requests handled by the node.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mpc_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		OutboxDispatchedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mpc_outbox_dispatched_total",
				Help: "Total number of outbox items dispatched, by outcome.",
			},
			[]string{"outcome"}, // succeeded | retried | abandoned
		),
		OutboxQueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "mpc_outbox_queue_depth",
				Help: "Number of ready outbox items picked up at the last poll (at most one batch).",
			},
		),
		OrchestratorPollsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mpc_orchestrator_polls_total",
				Help: "Total number of orchestrator reconciliation attempts, by outcome.",
			},
			[]string{"outcome"}, // succeeded | failed
		),
		ProcessesCompletedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mpc_processes_completed_total",
				Help: "Total number of addition processes that reached Completed.",
			},
		),
		ProcessesAbandonedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "mpc_processes_abandoned_total",
				Help: "Total number of addition processes abandoned by the orchestrator after exceeding the failure ceiling.",
			},
		),
	}
}
