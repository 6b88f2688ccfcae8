// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package supervisor

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/asdmgr/internal/events"
	"github.com/tomtom215/asdmgr/internal/logging"
	"github.com/tomtom215/asdmgr/internal/metrics"
)

// heartbeat is the supervised task owning one launched instance. It waits
// for readiness, then probes every tick until the failure budget runs out.
// It is never restarted: Serve always returns suture.ErrDoNotRestart.
type heartbeat struct {
	sup *Supervisor
	gen uint64
}

func newHeartbeat(s *Supervisor, gen uint64) *heartbeat {
	return &heartbeat{sup: s, gen: gen}
}

// String implements fmt.Stringer for suture event logs.
func (h *heartbeat) String() string {
	return fmt.Sprintf("heartbeat-%d", h.gen)
}

func (h *heartbeat) Serve(ctx context.Context) error {
	ctx = logging.ContextWithLogger(ctx, logging.WithComponent("heartbeat").With().Uint64("generation", h.gen).Logger())
	defer h.finish(ctx)

	if !h.waitReady(ctx) {
		return suture.ErrDoNotRestart
	}

	tick := h.sup.TickInterval()
	logging.Ctx(ctx).Info().Dur("tick", tick).Msg("asd ready, heartbeat running")

	for {
		alive := h.sup.probe.IsProcessAlive(ctx)
		queryable := h.sup.probe.IsQueryable(ctx)

		if !alive || !queryable {
			logging.Ctx(ctx).Debug().Bool("alive", alive).Bool("queryable", queryable).Msg("Probe failed")
		}
		if !h.evaluate(ctx, alive && queryable) {
			return suture.ErrDoNotRestart
		}

		if err := h.sup.sleep(ctx, tick); err != nil {
			return suture.ErrDoNotRestart
		}
	}
}

// waitReady polls until asd is queryable. It returns false when the attempt
// bound is reached, the task is cancelled or a newer start took over.
func (h *heartbeat) waitReady(ctx context.Context) bool {
	s := h.sup
	for attempt := 1; ; attempt++ {
		if !h.current() {
			return false
		}
		if s.probe.IsQueryable(ctx) {
			return h.becomeReady(ctx)
		}
		if s.cfg.ReadyMaxAttempts > 0 && attempt >= s.cfg.ReadyMaxAttempts {
			logging.Ctx(ctx).Warn().Int("attempts", attempt).Msg("asd never became queryable")
			h.setError(fmt.Sprintf("not queryable after %d attempts", attempt))
			return false
		}
		logging.Ctx(ctx).Debug().Int("attempt", attempt).Msg("Waiting for asd to become queryable")
		if err := s.sleep(ctx, s.cfg.ReadyPollInterval); err != nil {
			return false
		}
	}
}

func (h *heartbeat) becomeReady(ctx context.Context) bool {
	s := h.sup
	s.mu.Lock()
	if s.state.Generation != h.gen {
		s.mu.Unlock()
		return false
	}
	readyAt := s.now()
	s.state.ReadyAt = &readyAt
	s.state.IsRunning = true
	s.state.FailureBudget = s.cfg.FailureBudget
	s.setPhaseLocked(PhaseHealthy)
	s.mu.Unlock()

	metrics.FailureBudgetRemaining.Set(float64(s.cfg.FailureBudget))
	s.publish(ctx, events.Ready, h.gen, "")
	return true
}

// evaluate applies one tick verdict. It returns false when the task must exit.
func (h *heartbeat) evaluate(ctx context.Context, healthy bool) bool {
	s := h.sup

	s.mu.Lock()
	if s.state.Generation != h.gen {
		s.mu.Unlock()
		return false
	}
	prev := s.state.Phase
	if healthy {
		s.state.FailureBudget = s.cfg.FailureBudget
		s.setPhaseLocked(PhaseHealthy)
	} else {
		if s.state.FailureBudget == 0 {
			s.mu.Unlock()
			metrics.RecordHeartbeat(false, 0)
			logging.Ctx(ctx).Warn().Msg("Failure budget exhausted")
			return false
		}
		s.state.FailureBudget--
		s.setPhaseLocked(PhaseDegraded)
	}
	budget := s.state.FailureBudget
	s.mu.Unlock()

	metrics.RecordHeartbeat(healthy, budget)

	switch {
	case healthy:
		s.report(ctx, h.gen, true)
		if prev == PhaseDegraded {
			logging.Ctx(ctx).Info().Msg("asd recovered")
			s.publish(ctx, events.Recovered, h.gen, "")
		}
	case prev != PhaseDegraded:
		logging.Ctx(ctx).Warn().Int("budget", budget).Msg("asd degraded")
		s.publish(ctx, events.Degraded, h.gen, "")
	default:
		logging.Ctx(ctx).Warn().Int("budget", budget).Msg("asd still degraded")
	}
	return true
}

// finish marks the instance stopped and reports it unhealthy, unless a
// newer generation owns the state.
func (h *heartbeat) finish(ctx context.Context) {
	s := h.sup

	s.mu.Lock()
	if s.state.Generation != h.gen {
		s.mu.Unlock()
		return
	}
	s.hasTask = false
	s.state.IsRunning = false
	s.setPhaseLocked(PhaseStopped)
	s.mu.Unlock()

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ReportTimeout)
	defer cancel()
	s.report(rctx, h.gen, false)

	logging.Ctx(ctx).Info().Msg("Heartbeat ended, instance stopped")
	s.publish(rctx, events.Stopped, h.gen, "heartbeat ended")
}

func (h *heartbeat) current() bool {
	h.sup.mu.Lock()
	defer h.sup.mu.Unlock()
	return h.sup.state.Generation == h.gen
}

func (h *heartbeat) setError(msg string) {
	h.sup.mu.Lock()
	defer h.sup.mu.Unlock()
	if h.sup.state.Generation == h.gen {
		h.sup.state.LastError = msg
	}
}
