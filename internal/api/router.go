// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/asdmgr/internal/middleware"
)

// APIPrefix is the version the original manager announced.
const APIPrefix = "/v1.0"

// route binds a method and pattern to a Handler method.
type route struct {
	method  string
	pattern string
	handle  func(*Handler, http.ResponseWriter, *http.Request)
}

// commandRoutes is the command table, relative to APIPrefix.
var commandRoutes = [...]route{
	{http.MethodPost, "/start", (*Handler).Start},
	{http.MethodPost, "/component_start", (*Handler).Start},
	{http.MethodGet, "/start-status", (*Handler).StartStatus},
	{http.MethodGet, "/stop", (*Handler).Stop},
	{http.MethodGet, "/component_stop", (*Handler).Stop},
	{http.MethodPost, "/register-extension", (*Handler).RegisterExtension},
	{http.MethodPost, "/unregister-extension", (*Handler).UnregisterExtension},
	{http.MethodGet, "/state", (*Handler).State},
}

// RouterConfig tunes the command route rate limit.
type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultRouterConfig allows 60 commands per minute per client IP.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		RateLimitRequests: 60,
		RateLimitWindow:   time.Minute,
	}
}

// NewRouter builds the HTTP handler for h.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(rateLimit(cfg))
		r.Use(middleware.PrometheusMetrics)

		for _, rt := range commandRoutes {
			handle := rt.handle
			r.MethodFunc(rt.method, rt.pattern, func(w http.ResponseWriter, req *http.Request) {
				handle(h, w, req)
			})
		}
	})

	return r
}

func rateLimit(cfg RouterConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled || cfg.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}

	return httprate.Limit(
		cfg.RateLimitRequests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusTooManyRequests, ErrorResponse{
				StatusMsg: "rate limit exceeded",
				Code:      CodeRateLimited,
			})
		}),
	)
}
