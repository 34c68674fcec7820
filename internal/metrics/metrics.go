// Package metrics exports Prometheus counters for the ride-sharing core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rideshare"

// Metrics groups every collector the services report to
type Metrics struct {
	registry *prometheus.Registry

	// Vote engine
	VotesTotal     *prometheus.CounterVec // by resulting status
	VoteRejections *prometheus.CounterVec // by error kind
	Withdrawals    prometheus.Counter
	Completions    prometheus.Counter

	// Request lifecycle
	RequestsCreated   prometheus.Counter
	RequestsCancelled prometheus.Counter

	// Sweeper
	SweepTransitions *prometheus.CounterVec // by target status
	SweepErrors      prometheus.Counter
	SweepDuration    prometheus.Histogram

	// Storage gateway
	StorageRetries prometheus.Counter
	StorageUp      prometheus.Gauge
}

// New creates the collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		VotesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Votes applied, by resulting status",
		}, []string{"status"}),
		VoteRejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_rejections_total",
			Help:      "Votes refused, by error kind",
		}, []string{"kind"}),
		Withdrawals: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_withdrawals_total",
			Help:      "Votes withdrawn",
		}),
		Completions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_completions_total",
			Help:      "Requests completed by reaching capacity",
		}),
		RequestsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_created_total",
			Help:      "Ride requests created",
		}),
		RequestsCancelled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_cancelled_total",
			Help:      "Ride requests cancelled by their owner",
		}),
		SweepTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_transitions_total",
			Help:      "Requests moved by the expiry sweep, by target status",
		}, []string{"status"}),
		SweepErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_errors_total",
			Help:      "Sweep passes that failed",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a sweep",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		StorageRetries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_retries_total",
			Help:      "Storage operations retried after a transient failure",
		}),
		StorageUp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "storage_up",
			Help:      "1 when the last health check succeeded",
		}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
