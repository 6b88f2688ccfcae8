// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package supervisor

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/asdmgr/internal/events"
	"github.com/tomtom215/asdmgr/internal/probe"
	"github.com/tomtom215/asdmgr/internal/render"
)

// fakeProbe answers from scripted sequences, then from the default values.
type fakeProbe struct {
	mu sync.Mutex

	alive       bool
	aliveSeq    []bool
	aliveCalls  int
	queryable   bool
	querySeq    []bool
	queryCalls  int
	launch      probe.Result
	launchCalls int
	configFiles []string
	// launchGate, when set, holds Launch until it is closed.
	launchGate chan struct{}
}

func (f *fakeProbe) IsProcessAlive(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aliveCalls++
	if len(f.aliveSeq) > 0 {
		v := f.aliveSeq[0]
		f.aliveSeq = f.aliveSeq[1:]
		return v
	}
	return f.alive
}

func (f *fakeProbe) IsQueryable(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if len(f.querySeq) > 0 {
		v := f.querySeq[0]
		f.querySeq = f.querySeq[1:]
		return v
	}
	return f.queryable
}

func (f *fakeProbe) Launch(_ context.Context, configFile string) probe.Result {
	f.mu.Lock()
	f.launchCalls++
	f.configFiles = append(f.configFiles, configFile)
	gate := f.launchGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.launch
}

func (f *fakeProbe) set(fn func(f *fakeProbe)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeProbe) counts() (alive, query, launches int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aliveCalls, f.queryCalls, f.launchCalls
}

// recordingReporter keeps every verdict.
type recordingReporter struct {
	mu      sync.Mutex
	lease   time.Duration
	reports []bool
}

func (r *recordingReporter) LeaseDuration() time.Duration {
	if r.lease == 0 {
		return 120 * time.Second
	}
	return r.lease
}

func (r *recordingReporter) SetHealth(_ context.Context, healthy bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, healthy)
	return nil
}

func (r *recordingReporter) all() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.reports...)
}

func (r *recordingReporter) last() (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reports) == 0 {
		return false, false
	}
	return r.reports[len(r.reports)-1], true
}

// hangingReporter blocks every report until its context is done, like an
// etcd client with no reachable endpoint.
type hangingReporter struct {
	mu       sync.Mutex
	attempts int
}

func (r *hangingReporter) LeaseDuration() time.Duration { return 120 * time.Second }

func (r *hangingReporter) SetHealth(ctx context.Context, _ bool) error {
	r.mu.Lock()
	r.attempts++
	r.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (r *hangingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

type fakeRenderer struct {
	mu       sync.Mutex
	err      error
	requests []render.Request
}

func (f *fakeRenderer) Render(req render.Request) (*render.Rendered, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &render.Rendered{Path: req.OutputPath, Mode: req.Mode}, nil
}

func (f *fakeRenderer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Type
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev.Type)
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Type(nil), p.events...)
}

// fastSleep replaces real waits so ticks run back to back.
func fastSleep(ctx context.Context, _ time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Millisecond):
		return nil
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newServingTree returns a running tree that is stopped on cleanup.
func newServingTree(t *testing.T) *SupervisorTree {
	t.Helper()
	tree, err := NewSupervisorTree(discardLogger(), TreeConfig{
		FailureBackoff:  10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)
	t.Cleanup(func() {
		cancel()
		<-errCh
	})
	return tree
}

type harness struct {
	sup       *Supervisor
	probe     *fakeProbe
	reporter  *recordingReporter
	renderer  *fakeRenderer
	publisher *recordingPublisher
}

func newHarness(t *testing.T, cfg Config, p *fakeProbe) *harness {
	t.Helper()
	h := &harness{
		probe:     p,
		reporter:  &recordingReporter{},
		renderer:  &fakeRenderer{},
		publisher: &recordingPublisher{},
	}
	sup, err := New(cfg, p, h.renderer, h.reporter, h.publisher, newServingTree(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	sup.sleep = fastSleep
	h.sup = sup
	return h
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ReadyPollInterval = time.Millisecond
	return cfg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (h *harness) waitPhase(t *testing.T, phase Phase) {
	t.Helper()
	waitFor(t, "phase "+string(phase), func() bool { return h.sup.Snapshot().Phase == phase })
}
