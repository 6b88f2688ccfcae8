// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package supervisor

import (
	"errors"
	"time"
)

// Phase is the lifecycle phase of the managed asd.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseStarting     Phase = "starting"
	PhaseWaitingReady Phase = "waiting_ready"
	PhaseHealthy      Phase = "healthy"
	PhaseDegraded     Phase = "degraded"
	PhaseStopped      Phase = "stopped"
)

// Active reports whether a start is in progress or a heartbeat task owns
// the instance.
func (p Phase) Active() bool {
	switch p {
	case PhaseStarting, PhaseWaitingReady, PhaseHealthy, PhaseDegraded:
		return true
	default:
		return false
	}
}

// StartOutcome is the result of a Start call.
type StartOutcome int

const (
	// StartFailed means the render or launch step failed.
	StartFailed StartOutcome = iota
	// StartLaunched means asd was launched and the heartbeat task added.
	StartLaunched
	// StartAlreadyRunning means an earlier start still owns the instance.
	StartAlreadyRunning
)

func (o StartOutcome) String() string {
	switch o {
	case StartLaunched:
		return "launched"
	case StartAlreadyRunning:
		return "already_running"
	default:
		return "failed"
	}
}

var (
	// ErrConfigRender is returned when the config template cannot be rendered.
	ErrConfigRender = errors.New("render asd config")

	// ErrLaunchFailed is returned when the asd launcher fails or exits non-zero.
	ErrLaunchFailed = errors.New("launch asd")
)

// State is a point in time copy of the supervisor state.
type State struct {
	Phase            Phase      `json:"phase"`
	IsRunning        bool       `json:"is_running"`
	FailureBudget    int        `json:"failure_budget"`
	LastKnownHealthy bool       `json:"last_known_healthy"`
	Generation       uint64     `json:"generation"`
	ConfigFile       string     `json:"config_file,omitempty"`
	LaunchedAt       *time.Time `json:"launched_at,omitempty"`
	ReadyAt          *time.Time `json:"ready_at,omitempty"`
	LastError        string     `json:"last_error,omitempty"`
}
