// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

/*
Package middleware provides the HTTP middleware of the command API.

All middleware use the chi signature func(http.Handler) http.Handler.

  - RequestID: honours or generates X-Request-ID and stores it, with a fresh
    correlation id and a request-scoped logger, in the request context
  - AccessLog: one zerolog line per request
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    with the chi route pattern so path parameters do not explode cardinality

Order matters: RequestID must run before AccessLog, and PrometheusMetrics
must run inside the chi router so the route pattern is known.

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
