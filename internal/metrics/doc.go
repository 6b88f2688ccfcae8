// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

/*
Package metrics exposes Prometheus collectors for the sidecar.

All collectors are registered on the default registry through promauto and
served by the /metrics route.

# Available Metrics

Lifecycle:
  - asdmgr_lifecycle_phase: 1 for the current phase, 0 otherwise (gauge)
    Labels: phase
  - asdmgr_asd_running: 1 while a launched asd has not exited (gauge)
  - asdmgr_launches_total: launch attempts (counter)
    Labels: result
  - asdmgr_config_renders_total: config renders (counter)
    Labels: mode, result

Heartbeat:
  - asdmgr_heartbeat_ticks_total: heartbeat evaluations (counter)
    Labels: result
  - asdmgr_failure_budget_remaining: current failure budget (gauge)
  - asdmgr_health_reports_total: reports sent to the registry (counter)
    Labels: healthy, result

Probes:
  - asdmgr_probe_runs_total: probe invocations (counter)
    Labels: probe, result
  - asdmgr_probe_duration_seconds: probe latency (histogram)
    Labels: probe

Extensions:
  - asdmgr_extension_operations_total (counter)
    Labels: operation, result

Circuit breaker:
  - asdmgr_circuit_breaker_state: 0 closed, 1 half-open, 2 open (gauge)
    Labels: name
  - asdmgr_circuit_breaker_transitions_total (counter)
    Labels: name, from, to

HTTP:
  - asdmgr_api_requests_total (counter)
    Labels: method, endpoint, status_code
  - asdmgr_api_request_duration_seconds (histogram)
    Labels: method, endpoint
  - asdmgr_api_active_requests (gauge)
*/
package metrics
