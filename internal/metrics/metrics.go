// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "asdmgr"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// Lifecycle Metrics
	LifecyclePhase = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lifecycle_phase",
			Help:      "Current lifecycle phase (1 for the active phase)",
		},
		[]string{"phase"},
	)

	ASDRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "asd_running",
			Help:      "Whether a launched asd process is still running",
		},
	)

	Launches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "launches_total",
			Help:      "Total number of asd launch attempts",
		},
		[]string{"result"},
	)

	ConfigRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_renders_total",
			Help:      "Total number of config template renders",
		},
		[]string{"mode", "result"},
	)

	// Heartbeat Metrics
	HeartbeatTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heartbeat_ticks_total",
			Help:      "Total number of heartbeat evaluations",
		},
		[]string{"result"},
	)

	FailureBudgetRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failure_budget_remaining",
			Help:      "Consecutive probe failures still tolerated",
		},
	)

	HealthReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "health_reports_total",
			Help:      "Total number of health reports sent to the registry",
		},
		[]string{"healthy", "result"},
	)

	// Probe Metrics
	ProbeRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_runs_total",
			Help:      "Total number of probe invocations",
		},
		[]string{"probe", "result"},
	)

	ProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Probe latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"probe"},
	)

	// Extension Metrics
	ExtensionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extension_operations_total",
			Help:      "Total number of extension register/unregister operations",
		},
		[]string{"operation", "result"},
	)

	// Circuit Breaker Metrics
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
			Help:      "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_active_requests",
			Help:      "Current number of active API requests",
		},
	)
)

// Lifecycle phase label values, mirrored from the supervisor.
var phases = []string{"idle", "starting", "waiting_ready", "healthy", "degraded", "stopped"}

// SetPhase marks phase as the only active lifecycle phase.
func SetPhase(phase string) {
	for _, p := range phases {
		v := 0.0
		if p == phase {
			v = 1
		}
		LifecyclePhase.WithLabelValues(p).Set(v)
	}
}

// SetRunning records whether asd is running.
func SetRunning(running bool) {
	ASDRunning.Set(boolFloat(running))
}

func RecordLaunch(err error) {
	Launches.WithLabelValues(result(err)).Inc()
}

func RecordRender(mode string, err error) {
	if mode == "" {
		mode = "none"
	}
	ConfigRenders.WithLabelValues(mode, result(err)).Inc()
}

// RecordHeartbeat counts one heartbeat evaluation and publishes the budget
// left after it.
func RecordHeartbeat(healthy bool, budget int) {
	r := ResultSuccess
	if !healthy {
		r = ResultFailure
	}
	HeartbeatTicks.WithLabelValues(r).Inc()
	FailureBudgetRemaining.Set(float64(budget))
}

func RecordHealthReport(healthy bool, err error) {
	HealthReports.WithLabelValues(strconv.FormatBool(healthy), result(err)).Inc()
}

// RecordProbe records a probe outcome. ok is the probe verdict, not whether
// the command could be spawned.
func RecordProbe(probe string, ok bool, duration time.Duration) {
	r := ResultSuccess
	if !ok {
		r = ResultFailure
	}
	ProbeRuns.WithLabelValues(probe, r).Inc()
	ProbeDuration.WithLabelValues(probe).Observe(duration.Seconds())
}

func RecordExtension(operation string, err error) {
	ExtensionOperations.WithLabelValues(operation, result(err)).Inc()
}

// RecordBreakerTransition updates the breaker gauge and transition counter.
// state is 0 closed, 1 half-open, 2 open.
func RecordBreakerTransition(name, from, to string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
