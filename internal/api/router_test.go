// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/asdmgr/internal/middleware"
)

func TestRouter_MethodNotAllowed(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1.0/start"},
		{http.MethodPost, "/v1.0/stop"},
		{http.MethodPost, "/v1.0/start-status"},
		{http.MethodGet, "/v1.0/register-extension"},
	}
	for _, tt := range tests {
		rec := a.do(tt.method, tt.path, "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s = %d, want 405", tt.method, tt.path, rec.Code)
		}
	}
	if a.lifecycle.starts != 0 || a.lifecycle.stops != 0 {
		t.Error("rejected methods must not reach the lifecycle")
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	a := newTestAPI(t)
	if rec := a.do(http.MethodGet, "/v1.0/restart", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("X-Request-ID should be set")
	}
}

func TestRouter_Metrics(t *testing.T) {
	a := newTestAPI(t)
	a.do(http.MethodGet, "/v1.0/stop", "")

	rec := a.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "asdmgr_api_requests_total") {
		t.Error("metrics output should include API request counters")
	}
}

func TestRouter_RateLimit(t *testing.T) {
	a := newTestAPI(t)
	h, err := NewHandler(a.lifecycle, a.prober, a.extensions)
	if err != nil {
		t.Fatal(err)
	}
	a.router = NewRouter(h, RouterConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	for i := 0; i < 2; i++ {
		if rec := a.do(http.MethodGet, "/v1.0/stop", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := a.do(http.MethodGet, "/v1.0/stop", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	var resp ErrorResponse
	decodeResponse(t, rec, &resp)
	if resp.Code != CodeRateLimited {
		t.Errorf("code = %q", resp.Code)
	}

	// liveness is outside the limited group
	if rec := a.do(http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", rec.Code)
	}
}

func TestCommandRoutes_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for _, rt := range commandRoutes {
		key := rt.method + " " + rt.pattern
		if seen[key] {
			t.Errorf("duplicate route %s", key)
		}
		seen[key] = true
		if rt.handle == nil {
			t.Errorf("route %s has no handler", key)
		}
	}
}
