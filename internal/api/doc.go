// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

/*
Package api serves the sidecar command API on chi.

# Routes

	POST /v1.0/start                  202 launched, 200 already running, 503 failure
	POST /v1.0/component_start        alias of start
	GET  /v1.0/start-status           {"status":0|1|2,"status_msg":"..."}
	GET  /v1.0/stop                   200
	GET  /v1.0/component_stop         alias of stop
	POST /v1.0/register-extension     {"udf_file":"..."}: 200, 400, 503
	POST /v1.0/unregister-extension   {"udf_file":"..."}: always 200
	GET  /v1.0/state                  supervisor snapshot
	GET  /healthz                     sidecar liveness
	GET  /metrics                     Prometheus

The command routes are a fixed table registered once by NewRouter. Each
entry is a method expression on Handler, so a missing handler is a compile
error rather than a runtime lookup failure.

start-status codes: 2 when the asd process is not alive, 1 when it is alive
and answers info queries, 0 when it is alive but not yet queryable.

# Middleware

RequestID and AccessLog wrap every route, followed by chi RealIP and
Recoverer. Command routes add Prometheus metrics and an httprate limit.
*/
package api
