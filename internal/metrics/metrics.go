// Package metrics exposes Prometheus instrumentation for the wall service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "releasewall"

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// Curation
	Mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Admin mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Dataset
	Regenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regenerations_total",
			Help:      "Snapshot regenerations by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	RegenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "regeneration_duration_seconds",
			Help:      "Duration of snapshot regenerations",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	SnapshotMovies = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_movies",
			Help:      "Movies in the last regenerated snapshot by state",
		},
		[]string{"state"},
	)

	// Scheduler
	TaskRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_runs_total",
			Help:      "Scheduled task runs by task, trigger and outcome",
		},
		[]string{"task", "trigger", "outcome"},
	)

	// WebSocket
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients",
		},
	)

	// Playlist
	PlaylistRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playlist_requests_total",
			Help:      "Playlist creation requests by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_transitions_total",
			Help:      "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailure  = "failure"
)

// RecordHTTPRequest observes one handled request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// RecordMutation counts one admin mutation.
func RecordMutation(operation string, success bool) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeRejected
	}
	Mutations.WithLabelValues(operation, outcome).Inc()
}

// RecordTaskRun counts one finished task run.
func RecordTaskRun(task, trigger string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	TaskRuns.WithLabelValues(task, trigger, outcome).Inc()
}

// RecordRegeneration records a regeneration attempt.
func RecordRegeneration(trigger string, err error, d time.Duration, count, hidden, featured int) {
	if err != nil {
		Regenerations.WithLabelValues(trigger, OutcomeFailure).Inc()
		return
	}
	Regenerations.WithLabelValues(trigger, OutcomeSuccess).Inc()
	RegenerationDuration.Observe(d.Seconds())
	SnapshotMovies.WithLabelValues("published").Set(float64(count))
	SnapshotMovies.WithLabelValues("hidden").Set(float64(hidden))
	SnapshotMovies.WithLabelValues("featured").Set(float64(featured))
}
