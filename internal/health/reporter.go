// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package health

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/asdmgr/internal/logging"
)

// DefaultLeaseDuration is the registry lease TTL when none is configured.
const DefaultLeaseDuration = 120 * time.Second

// Reporter publishes this instance's health to the coordination layer.
type Reporter interface {
	// LeaseDuration is how long a report stays valid without renewal.
	LeaseDuration() time.Duration

	// SetHealth records healthy as the current verdict.
	SetHealth(ctx context.Context, healthy bool) error
}

// NopReporter accepts every report, logs it at debug level and remembers
// the last one.
type NopReporter struct {
	Lease time.Duration

	mu      sync.Mutex
	last    bool
	reports int
}

// NewNopReporter creates a NopReporter with the given lease, or
// DefaultLeaseDuration when lease is zero.
func NewNopReporter(lease time.Duration) *NopReporter {
	if lease <= 0 {
		lease = DefaultLeaseDuration
	}
	return &NopReporter{Lease: lease}
}

func (n *NopReporter) LeaseDuration() time.Duration {
	if n.Lease <= 0 {
		return DefaultLeaseDuration
	}
	return n.Lease
}

func (n *NopReporter) SetHealth(_ context.Context, healthy bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last = healthy
	n.reports++
	logging.Debug().Bool("healthy", healthy).Msg("Health report (no registry)")
	return nil
}

// Last returns the most recent verdict and how many reports were made.
func (n *NopReporter) Last() (healthy bool, reports int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last, n.reports
}
