// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package health

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/asdmgr/internal/logging"
	"github.com/tomtom215/asdmgr/internal/metrics"
)

// BreakerConfig configures a BreakerReporter.
type BreakerConfig struct {
	Name string
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// Timeout is how long the circuit stays open before a trial report.
	Timeout time.Duration
}

// BreakerReporter guards a Reporter with a circuit breaker. While open,
// SetHealth returns gobreaker.ErrOpenState without contacting the registry.
type BreakerReporter struct {
	next Reporter
	cb   *gobreaker.CircuitBreaker[interface{}]
	name string
}

// NewBreakerReporter wraps next.
func NewBreakerReporter(next Reporter, cfg BreakerConfig) *BreakerReporter {
	if cfg.Name == "" {
		cfg.Name = "health-registry"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), stateValue(to))
		},
	})

	return &BreakerReporter{next: next, cb: cb, name: cfg.Name}
}

func (b *BreakerReporter) LeaseDuration() time.Duration {
	return b.next.LeaseDuration()
}

func (b *BreakerReporter) SetHealth(ctx context.Context, healthy bool) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.SetHealth(ctx, healthy)
	})
	return err
}

// State returns the breaker state.
func (b *BreakerReporter) State() gobreaker.State {
	return b.cb.State()
}

// stateValue maps a breaker state to the gauge value.
func stateValue(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
