// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

// Package events publishes lifecycle transitions of the managed asd so that
// other cluster components can react without polling the registry.
package events

import (
	"context"
	"time"
)

// Type names a lifecycle transition.
type Type string

const (
	StartRequested Type = "start_requested"
	LaunchFailed   Type = "launch_failed"
	Launched       Type = "launched"
	Ready          Type = "ready"
	Degraded       Type = "degraded"
	Recovered      Type = "recovered"
	Stopped        Type = "stopped"
)

// Event is one lifecycle transition.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Service    string    `json:"service"`
	Index      int       `json:"index"`
	Phase      string    `json:"phase"`
	Generation uint64    `json:"generation"`
	Message    string    `json:"message,omitempty"`
	Time       time.Time `json:"time"`
}

// Publisher delivers events. Publish must not block for long; callers treat
// failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close()
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() {}
