// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

/*
Package health publishes the instance's liveness to the cluster coordination
layer.

A Reporter exposes the lease duration the supervisor derives its heartbeat
interval from, and SetHealth which writes the current verdict.

Implementations:
  - EtcdReporter keeps a service record and a health key under one etcd
    lease. Every SetHealth renews the lease, so a sidecar that stops
    reporting disappears from the registry when the TTL runs out.
  - BreakerReporter wraps another Reporter with a circuit breaker so an
    unreachable registry fails fast instead of stalling every heartbeat.
  - NopReporter accepts every report. Used when no registry is configured.

Key layout:

	/<prefix>/<service_type>/<service_idx>         service record
	/<prefix>/<service_type>/<service_idx>/health  {"healthy":..,"version":..,"updated_at":..}
*/
package health
