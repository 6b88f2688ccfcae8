// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package probe

import (
	"context"
	"time"

	"github.com/tomtom215/asdmgr/internal/logging"
	"github.com/tomtom215/asdmgr/internal/metrics"
)

// Probe names used in logs and metrics.
const (
	NameAlive     = "alive"
	NameQueryable = "queryable"
	NameAdmin     = "admin"
	NameLaunch    = "launch"
)

// Options names the binaries and bounds each call.
type Options struct {
	// ProcessName is passed to pidof.
	ProcessName string
	PidofBinary string
	InfoBinary  string
	AdminBinary string
	// DaemonBinary is the asd launcher.
	DaemonBinary string

	// ProbeTimeout bounds pidof, asinfo and aql calls.
	ProbeTimeout time.Duration
	// LaunchTimeout bounds the launcher. Zero means no timeout beyond ctx.
	LaunchTimeout time.Duration
}

// DefaultOptions returns the stock binary names.
func DefaultOptions() Options {
	return Options{
		ProcessName:   "asd",
		PidofBinary:   "pidof",
		InfoBinary:    "asinfo",
		AdminBinary:   "aql",
		DaemonBinary:  "asd",
		ProbeTimeout:  10 * time.Second,
		LaunchTimeout: time.Minute,
	}
}

// Probe observes and drives a local asd through external commands.
type Probe struct {
	runner CommandRunner
	opts   Options
}

// New creates a Probe. Empty option fields take their DefaultOptions value.
func New(runner CommandRunner, opts Options) *Probe {
	def := DefaultOptions()
	if opts.ProcessName == "" {
		opts.ProcessName = def.ProcessName
	}
	if opts.PidofBinary == "" {
		opts.PidofBinary = def.PidofBinary
	}
	if opts.InfoBinary == "" {
		opts.InfoBinary = def.InfoBinary
	}
	if opts.AdminBinary == "" {
		opts.AdminBinary = def.AdminBinary
	}
	if opts.DaemonBinary == "" {
		opts.DaemonBinary = def.DaemonBinary
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = def.ProbeTimeout
	}
	return &Probe{runner: runner, opts: opts}
}

// IsProcessAlive reports whether an asd process exists.
func (p *Probe) IsProcessAlive(ctx context.Context) bool {
	return p.check(ctx, NameAlive, p.opts.PidofBinary, p.opts.ProcessName)
}

// IsQueryable reports whether asd answers an info status request.
func (p *Probe) IsQueryable(ctx context.Context) bool {
	return p.check(ctx, NameQueryable, p.opts.InfoBinary, "-v", "status")
}

// RunAdmin runs the admin CLI with args.
func (p *Probe) RunAdmin(ctx context.Context, args ...string) Result {
	res := p.run(ctx, p.opts.ProbeTimeout, NameAdmin, p.opts.AdminBinary, args...)
	if !res.OK() {
		logging.Ctx(ctx).Warn().
			Int("exit_code", res.ExitCode).
			Err(res.Err).
			Str("output", res.Output).
			Strs("args", args).
			Msg("Admin command failed")
	}
	return res
}

// Launch runs the asd launcher and waits for it to exit. An empty
// configFile lets asd use its packaged config.
func (p *Probe) Launch(ctx context.Context, configFile string) Result {
	var args []string
	if configFile != "" {
		args = append(args, "--config-file", configFile)
	}
	return p.run(ctx, p.opts.LaunchTimeout, NameLaunch, p.opts.DaemonBinary, args...)
}

func (p *Probe) check(ctx context.Context, name, bin string, args ...string) bool {
	res := p.run(ctx, p.opts.ProbeTimeout, name, bin, args...)
	if !res.OK() {
		logging.Ctx(ctx).Debug().
			Str("probe", name).
			Int("exit_code", res.ExitCode).
			Err(res.Err).
			Msg("Probe failed")
	}
	return res.OK()
}

func (p *Probe) run(ctx context.Context, timeout time.Duration, name, bin string, args ...string) Result {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	res := p.runner.Run(ctx, bin, args...)
	metrics.RecordProbe(name, res.OK(), time.Since(start))
	return res
}
