// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

// Package main is the entry point of asdmgr, the lifecycle sidecar for a
// local Aerospike daemon (asd).
//
// The sidecar renders the asd config for the selected heartbeat mode,
// launches asd on request, reports its health to an etcd registry and serves
// a small command API.
//
// # Startup
//
//  1. Configuration: koanf layers (defaults, YAML, environment, flags,
//     legacy key=value arguments)
//  2. Logging: zerolog, bridged to slog for the suture tree
//  3. Health reporter: etcd behind a circuit breaker, or a log-only reporter
//  4. Event publisher: NATS when events.nats_url is set
//  5. Supervisor and command API, run under a suture tree
//
// # Example
//
//	asdmgr etcdip=10.0.0.5 svc_label=AS_Server svc_idx=2 \
//	    mode=mesh ip=10.0.0.1,10.0.0.2 port=3002 disks=4 profile=performance
//
//	asdmgr --no-etcd --log-format=console
//
// # Signals
//
// SIGINT and SIGTERM stop the tree: the HTTP server drains, the heartbeat
// task ends and the etcd lease is revoked. asd itself keeps running.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/asdmgr/internal/config"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asdmgr [key=value ...]",
		Short: "Lifecycle sidecar for the Aerospike daemon",
		Long: `asdmgr renders the asd config, launches asd on request, keeps its
health registered in etcd and serves the /v1.0 command API.

Positional key=value arguments are accepted for compatibility with the
original launcher: etcdip, svc_label, svc_idx, mode, ip, port, mem, disks,
profile.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithKoanf(cmd.Flags(), args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	config.BindFlags(cmd.Flags())
	return cmd
}
