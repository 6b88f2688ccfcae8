// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/asdmgr/internal/supervisor"
)

type fakeLifecycle struct {
	mu       sync.Mutex
	outcome  supervisor.StartOutcome
	err      error
	state    supervisor.State
	starts   int
	stops    int
	startCtx context.Context
}

func (f *fakeLifecycle) Start(ctx context.Context) (supervisor.StartOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.startCtx = ctx
	return f.outcome, f.err
}

func (f *fakeLifecycle) Stop(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeLifecycle) Snapshot() supervisor.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

type fakeProber struct {
	alive         bool
	queryable     bool
	invalidations int
}

func (f *fakeProber) IsProcessAlive(context.Context) bool { return f.alive }
func (f *fakeProber) IsQueryable(context.Context) bool    { return f.queryable }
func (f *fakeProber) Invalidate()                         { f.invalidations++ }

type fakeExtensions struct {
	mu           sync.Mutex
	registerErr  error
	registered   []string
	unregistered []string
}

func (f *fakeExtensions) Register(_ context.Context, file string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, file)
	return f.registerErr
}

func (f *fakeExtensions) Unregister(_ context.Context, file string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregistered = append(f.unregistered, file)
}

type testAPI struct {
	lifecycle  *fakeLifecycle
	prober     *fakeProber
	extensions *fakeExtensions
	router     http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	a := &testAPI{
		lifecycle:  &fakeLifecycle{outcome: supervisor.StartLaunched},
		prober:     &fakeProber{},
		extensions: &fakeExtensions{},
	}
	h, err := NewHandler(a.lifecycle, a.prober, a.extensions)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	a.router = NewRouter(h, RouterConfig{RateLimitDisabled: true})
	return a
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}
