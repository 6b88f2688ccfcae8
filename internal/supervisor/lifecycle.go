// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/asdmgr/internal/events"
	"github.com/tomtom215/asdmgr/internal/health"
	"github.com/tomtom215/asdmgr/internal/logging"
	"github.com/tomtom215/asdmgr/internal/metrics"
	"github.com/tomtom215/asdmgr/internal/probe"
	"github.com/tomtom215/asdmgr/internal/render"
)

// Errors for Supervisor construction
var (
	ErrNilProbe    = errors.New("probe cannot be nil")
	ErrNilReporter = errors.New("health reporter cannot be nil")
	ErrNilTaskHost = errors.New("task host cannot be nil")
)

// Prober observes and launches asd.
type Prober interface {
	IsProcessAlive(ctx context.Context) bool
	IsQueryable(ctx context.Context) bool
	Launch(ctx context.Context, configFile string) probe.Result
}

// Renderer materializes the asd config file.
type Renderer interface {
	Render(req render.Request) (*render.Rendered, error)
}

// TaskHost runs heartbeat tasks. *SupervisorTree satisfies it.
type TaskHost interface {
	AddControlService(svc suture.Service) suture.ServiceToken
	RemoveControlService(token suture.ServiceToken) error
}

// Config holds the lifecycle parameters.
type Config struct {
	// Render describes the config to materialize before launch. A Mode of
	// render.ModeNone launches asd with its packaged config.
	Render render.Request

	// ReadyPollInterval is the delay between readiness checks.
	ReadyPollInterval time.Duration
	// ReadyMaxAttempts bounds the readiness wait. 0 waits indefinitely.
	ReadyMaxAttempts int

	// FailureBudget is the number of consecutive failed ticks tolerated.
	FailureBudget int
	// TickDivisor divides the reporter lease into the tick interval.
	TickDivisor int

	// StopCancelsHeartbeat makes Stop end the in-flight heartbeat task.
	StopCancelsHeartbeat bool

	// ReportTimeout bounds the final unhealthy report.
	ReportTimeout time.Duration

	// Service and Index identify the instance in events.
	Service string
	Index   int
}

// DefaultConfig returns the stock lifecycle parameters.
func DefaultConfig() Config {
	return Config{
		ReadyPollInterval:    10 * time.Second,
		ReadyMaxAttempts:     0,
		FailureBudget:        3,
		TickDivisor:          4,
		StopCancelsHeartbeat: true,
		ReportTimeout:        10 * time.Second,
		Service:              "AS_Server",
		Index:                1,
	}
}

// Supervisor owns the lifecycle of one local asd instance.
//
// All state is guarded by mu. Every successful start bumps the generation;
// a heartbeat task only mutates state while its generation is current.
type Supervisor struct {
	cfg       Config
	probe     Prober
	renderer  Renderer
	reporter  health.Reporter
	publisher events.Publisher
	host      TaskHost

	// sleep waits for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu      sync.Mutex
	state   State
	token   suture.ServiceToken
	hasTask bool
	// launching is set while the launcher runs, whatever the phase.
	launching bool

	// reportMu serializes health reports so a stale task cannot report after
	// a newer generation has.
	reportMu sync.Mutex
	// pending tracks unhealthy reports sent in the background by Stop.
	pending sync.WaitGroup
}

// New creates a Supervisor in the idle phase. renderer may be nil when
// cfg.Render.Mode is render.ModeNone; publisher may be nil.
func New(cfg Config, p Prober, renderer Renderer, reporter health.Reporter, publisher events.Publisher, host TaskHost) (*Supervisor, error) {
	if p == nil {
		return nil, ErrNilProbe
	}
	if reporter == nil {
		return nil, ErrNilReporter
	}
	if host == nil {
		return nil, ErrNilTaskHost
	}
	if cfg.Render.Mode != render.ModeNone && renderer == nil {
		return nil, errors.New("renderer cannot be nil when a topology mode is set")
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	def := DefaultConfig()
	if cfg.ReadyPollInterval <= 0 {
		cfg.ReadyPollInterval = def.ReadyPollInterval
	}
	if cfg.ReadyMaxAttempts < 0 {
		cfg.ReadyMaxAttempts = 0
	}
	if cfg.FailureBudget < 0 {
		cfg.FailureBudget = def.FailureBudget
	}
	if cfg.TickDivisor <= 0 {
		cfg.TickDivisor = def.TickDivisor
	}
	if cfg.ReportTimeout <= 0 {
		cfg.ReportTimeout = def.ReportTimeout
	}

	s := &Supervisor{
		cfg:       cfg,
		probe:     p,
		renderer:  renderer,
		reporter:  reporter,
		publisher: publisher,
		host:      host,
		sleep:     sleepContext,
		now:       time.Now,
		state:     State{Phase: PhaseIdle, FailureBudget: cfg.FailureBudget},
	}
	metrics.SetPhase(string(PhaseIdle))
	metrics.SetRunning(false)
	return s, nil
}

// TickInterval is the heartbeat period derived from the reporter lease.
func (s *Supervisor) TickInterval() time.Duration {
	return s.reporter.LeaseDuration() / time.Duration(s.cfg.TickDivisor)
}

// Snapshot returns a copy of the current state.
func (s *Supervisor) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start renders the config, launches asd and hands the instance to a new
// heartbeat task. It returns once the launcher exits; it does not wait for
// readiness.
func (s *Supervisor) Start(ctx context.Context) (StartOutcome, error) {
	s.mu.Lock()
	if s.state.Phase.Active() || s.launching {
		phase := s.state.Phase
		s.mu.Unlock()
		logging.Ctx(ctx).Info().Str("phase", string(phase)).Msg("Start requested while already running")
		return StartAlreadyRunning, nil
	}
	s.state.Generation++
	gen := s.state.Generation
	s.state.LastError = ""
	s.launching = true
	s.setPhaseLocked(PhaseStarting)
	s.mu.Unlock()
	defer s.launchDone()

	s.publish(ctx, events.StartRequested, gen, "")

	// the launcher must outlive a disconnected caller
	ctx = context.WithoutCancel(ctx)

	configFile := ""
	if s.cfg.Render.Mode != render.ModeNone {
		rendered, err := s.renderer.Render(s.cfg.Render)
		metrics.RecordRender(string(s.cfg.Render.Mode), err)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrConfigRender, err)
			s.abortStart(ctx, gen, err)
			return StartFailed, err
		}
		configFile = rendered.Path
		logging.Ctx(ctx).Info().
			Str("path", rendered.Path).
			Str("mode", string(rendered.Mode)).
			Str("profile", rendered.Profile.Name).
			Strs("clean_disks", rendered.Disks.Clean).
			Strs("dirty_disks", rendered.Disks.Dirty).
			Msg("Rendered asd config")
	}

	res := s.probe.Launch(ctx, configFile)
	if !res.OK() {
		err := fmt.Errorf("%w: exit code %d", ErrLaunchFailed, res.ExitCode)
		if res.Err != nil {
			err = fmt.Errorf("%w: %w", ErrLaunchFailed, res.Err)
		}
		metrics.RecordLaunch(err)
		logging.Ctx(ctx).Error().Err(err).Str("output", res.Output).Msg("asd launch failed")
		s.report(ctx, gen, false)
		s.abortStart(ctx, gen, err)
		return StartFailed, err
	}
	metrics.RecordLaunch(nil)

	s.mu.Lock()
	if s.state.Generation != gen {
		// stopped while launching; asd keeps running unsupervised
		s.mu.Unlock()
		logging.Ctx(ctx).Warn().Uint64("generation", gen).Msg("Stopped during launch, heartbeat not started")
		return StartLaunched, nil
	}
	launchedAt := s.now()
	s.state.LaunchedAt = &launchedAt
	s.state.ReadyAt = nil
	s.state.ConfigFile = configFile
	s.state.FailureBudget = s.cfg.FailureBudget
	s.setPhaseLocked(PhaseWaitingReady)
	s.token = s.host.AddControlService(newHeartbeat(s, gen))
	s.hasTask = true
	s.mu.Unlock()

	logging.Ctx(ctx).Info().
		Uint64("generation", gen).
		Str("config_file", configFile).
		Msg("asd launched, waiting for readiness")
	s.publish(ctx, events.Launched, gen, "")
	return StartLaunched, nil
}

func (s *Supervisor) launchDone() {
	s.mu.Lock()
	s.launching = false
	s.mu.Unlock()
}

// abortStart returns a failed start to idle.
func (s *Supervisor) abortStart(ctx context.Context, gen uint64, err error) {
	s.mu.Lock()
	if s.state.Generation == gen {
		s.state.LastError = err.Error()
		s.setPhaseLocked(PhaseIdle)
	}
	s.mu.Unlock()
	s.publish(ctx, events.LaunchFailed, gen, err.Error())
}

// Stop ends supervision of the current instance. It never signals asd and
// never waits on the reporter. With StopCancelsHeartbeat the heartbeat task
// is removed and the instance is reported unhealthy in the background; see
// WaitReports.
func (s *Supervisor) Stop(ctx context.Context) {
	if !s.cfg.StopCancelsHeartbeat {
		logging.Ctx(ctx).Info().Msg("Stop requested, heartbeat left running")
		return
	}

	s.mu.Lock()
	if !s.state.Phase.Active() {
		s.mu.Unlock()
		logging.Ctx(ctx).Debug().Msg("Stop requested with no active instance")
		return
	}
	s.state.Generation++
	gen := s.state.Generation
	token, hasTask := s.token, s.hasTask
	s.hasTask = false
	s.state.IsRunning = false
	s.state.LastKnownHealthy = false
	s.setPhaseLocked(PhaseStopped)
	s.mu.Unlock()

	if hasTask {
		if err := s.host.RemoveControlService(token); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to remove heartbeat task")
		}
	}

	rctx := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.report(rctx, gen, false)
	}()
	logging.Ctx(ctx).Info().Uint64("generation", gen).Msg("Supervision stopped")
	s.publish(ctx, events.Stopped, gen, "stop requested")
}

// WaitReports blocks until background reports sent by Stop have finished
// or ctx is done. Each report is bounded by ReportTimeout.
func (s *Supervisor) WaitReports(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// report sends a health verdict if gen is still current. The reporter call
// is bounded by ReportTimeout.
func (s *Supervisor) report(ctx context.Context, gen uint64, healthy bool) {
	s.reportMu.Lock()
	defer s.reportMu.Unlock()

	s.mu.Lock()
	current := s.state.Generation == gen
	s.mu.Unlock()
	if !current {
		return
	}

	rctx, cancel := context.WithTimeout(ctx, s.cfg.ReportTimeout)
	defer cancel()
	if err := s.reporter.SetHealth(rctx, healthy); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Bool("healthy", healthy).Msg("Health report failed")
		return
	}

	s.mu.Lock()
	if s.state.Generation == gen {
		s.state.LastKnownHealthy = healthy
	}
	s.mu.Unlock()
}

func (s *Supervisor) publish(ctx context.Context, typ events.Type, gen uint64, msg string) {
	s.mu.Lock()
	phase := s.state.Phase
	s.mu.Unlock()

	err := s.publisher.Publish(ctx, events.Event{
		Type:       typ,
		Service:    s.cfg.Service,
		Index:      s.cfg.Index,
		Phase:      string(phase),
		Generation: gen,
		Message:    msg,
		Time:       s.now().UTC(),
	})
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("event", string(typ)).Msg("Event publish failed")
	}
}

// setPhaseLocked must be called with mu held.
func (s *Supervisor) setPhaseLocked(p Phase) {
	s.state.Phase = p
	metrics.SetPhase(string(p))
	metrics.SetRunning(s.state.IsRunning)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
