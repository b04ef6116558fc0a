package telemetry

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the lifecycle controller.
// All record methods are safe on a nil receiver and on a disabled collector,
// so callers never need to guard.
type Metrics struct {
	config MetricsConfig

	// Control plane call metrics
	remoteCalls    *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
	remoteErrors   *prometheus.CounterVec

	// Reconciliation metrics
	reconcileOps *prometheus.CounterVec

	// Lifecycle metrics
	transitions     *prometheus.CounterVec
	networksManaged *prometheus.GaugeVec
	pollAttempts    *prometheus.CounterVec

	// Error metrics
	errorsByKind *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		remoteCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Total number of control plane calls",
			},
			[]string{"operation"},
		),
		remoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_call_duration_seconds",
				Help:      "Duration of control plane calls in seconds",
				Buckets:   buckets,
			},
			[]string{"operation"},
		),
		remoteErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_errors_total",
				Help:      "Total number of control plane errors by status code",
			},
			[]string{"operation", "status"},
		),

		reconcileOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_ops_total",
				Help:      "Total number of agent association operations by outcome",
			},
			[]string{"operation", "outcome"},
		),

		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lifecycle_transitions_total",
				Help:      "Total number of lifecycle phase transitions",
			},
			[]string{"phase"},
		),
		networksManaged: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "networks_managed",
				Help:      "Current number of managed networks by phase",
			},
			[]string{"phase"},
		),
		pollAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_attempts_total",
				Help:      "Total number of completion poll attempts",
			},
			[]string{"result"},
		),

		errorsByKind: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_kind_total",
				Help:      "Total number of lifecycle errors by kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(
		m.remoteCalls,
		m.remoteDuration,
		m.remoteErrors,
		m.reconcileOps,
		m.transitions,
		m.networksManaged,
		m.pollAttempts,
		m.errorsByKind,
	)

	return m, nil
}

// RecordRemoteCall records one control plane call with its duration.
func (m *Metrics) RecordRemoteCall(operation string, duration time.Duration) {
	if m == nil || m.remoteCalls == nil {
		return
	}
	m.remoteCalls.WithLabelValues(operation).Inc()
	m.remoteDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRemoteError records a failed control plane call. A status code of
// zero is recorded as "none".
func (m *Metrics) RecordRemoteError(operation string, statusCode int) {
	if m == nil || m.remoteErrors == nil {
		return
	}
	status := "none"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	m.remoteErrors.WithLabelValues(operation, status).Inc()
}

// RecordReconcileOp records one association operation and its outcome
// (applied, ignored, failed).
func (m *Metrics) RecordReconcileOp(operation, outcome string) {
	if m == nil || m.reconcileOps == nil {
		return
	}
	m.reconcileOps.WithLabelValues(operation, outcome).Inc()
}

// RecordTransition records entry into a lifecycle phase.
func (m *Metrics) RecordTransition(phase string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(phase).Inc()
}

// SetNetworksManaged sets the current count of networks in a phase.
func (m *Metrics) SetNetworksManaged(phase string, count float64) {
	if m == nil || m.networksManaged == nil {
		return
	}
	m.networksManaged.WithLabelValues(phase).Set(count)
}

// RecordPollAttempt records one completion poll and whether it observed a
// built resource.
func (m *Metrics) RecordPollAttempt(built bool) {
	if m == nil || m.pollAttempts == nil {
		return
	}
	result := "pending"
	if built {
		result = "built"
	}
	m.pollAttempts.WithLabelValues(result).Inc()
}

// RecordError records a lifecycle error by kind.
func (m *Metrics) RecordError(kind string) {
	if m == nil || m.errorsByKind == nil {
		return
	}
	m.errorsByKind.WithLabelValues(kind).Inc()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if m == nil || !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
