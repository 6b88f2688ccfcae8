// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package main

import (
	"testing"

	"github.com/tomtom215/asdmgr/internal/config"
	"github.com/tomtom215/asdmgr/internal/events"
	"github.com/tomtom215/asdmgr/internal/health"
	"github.com/tomtom215/asdmgr/internal/profile"
	"github.com/tomtom215/asdmgr/internal/render"
)

func TestRenderRequest(t *testing.T) {
	tests := []struct {
		name         string
		cluster      config.ClusterConfig
		wantTemplate string
		wantProfile  string
	}{
		{
			name:         "mesh",
			cluster:      config.ClusterConfig{Mode: "mesh", Seeds: "10.0.0.1", Port: 3002, Profile: "performance", Disks: 4},
			wantTemplate: "/etc/aerospike/aerospike_mesh.conf",
			wantProfile:  profile.Performance,
		},
		{
			name:         "multicast",
			cluster:      config.ClusterConfig{Mode: "multicast", Seeds: "239.1.99.2", Port: 9918},
			wantTemplate: "/etc/aerospike/aerospike_multicast.conf",
			wantProfile:  profile.Default,
		},
		{
			name:        "no mode",
			cluster:     config.ClusterConfig{Profile: "turbo"},
			wantProfile: profile.Default,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Cluster = tt.cluster

			req := renderRequest(cfg)
			if req.TemplatePath != tt.wantTemplate {
				t.Errorf("template = %q, want %q", req.TemplatePath, tt.wantTemplate)
			}
			if req.Profile.Name != tt.wantProfile {
				t.Errorf("profile = %q, want %q", req.Profile.Name, tt.wantProfile)
			}
			if req.Mode != render.Mode(tt.cluster.Mode) || req.DiskCount != tt.cluster.Disks {
				t.Errorf("request = %+v", req)
			}
			if req.OutputPath != cfg.Render.Output {
				t.Errorf("output = %q", req.OutputPath)
			}
		})
	}
}

func TestRenderRequest_MemoryHintCaps(t *testing.T) {
	cfg := config.Defaults()
	cfg.Cluster.Profile = profile.Performance
	cfg.Cluster.MemoryGB = 12

	req := renderRequest(cfg)
	want := profile.Resolve(profile.Performance).CapMemory(12).MemoryPerNamespaceGB
	if req.Profile.MemoryPerNamespaceGB != want {
		t.Errorf("memory per namespace = %d, want %d", req.Profile.MemoryPerNamespaceGB, want)
	}
}

func TestSupervisorConfig(t *testing.T) {
	cfg := config.Defaults()
	sc := supervisorConfig(cfg)

	if sc.FailureBudget != 3 || sc.TickDivisor != 4 || !sc.StopCancelsHeartbeat {
		t.Errorf("supervisor config = %+v", sc)
	}
	if sc.Service != "AS_Server" || sc.Index != 1 {
		t.Errorf("identity = %s/%d", sc.Service, sc.Index)
	}
}

func TestLoggingConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Logging.File = "/var/log/aerospike/asdmgr.log"
	lc := loggingConfig(cfg)

	if !lc.Timestamp || lc.File != cfg.Logging.File || lc.MaxSizeMB != 10 || lc.MaxBackups != 5 {
		t.Errorf("logging config = %+v", lc)
	}
}

func TestNewReporter_Disabled(t *testing.T) {
	cfg := config.Defaults()
	cfg.Coordination.Enabled = false

	reporter, closeFn, err := newReporter(cfg)
	if err != nil {
		t.Fatalf("newReporter() error = %v", err)
	}
	if _, ok := reporter.(*health.NopReporter); !ok {
		t.Errorf("reporter = %T, want *health.NopReporter", reporter)
	}
	if reporter.LeaseDuration() != cfg.Coordination.LeaseTTL {
		t.Errorf("lease = %v", reporter.LeaseDuration())
	}
	if err := closeFn(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestNewPublisher_Disabled(t *testing.T) {
	cfg := config.Defaults()
	if _, ok := newPublisher(cfg).(events.NopPublisher); !ok {
		t.Error("empty nats_url should give a NopPublisher")
	}
}

func TestListenAddr(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.Host = "::1"
	cfg.Server.Port = 9000
	if got := listenAddr(cfg); got != "[::1]:9000" {
		t.Errorf("listenAddr = %q", got)
	}
}

func TestRootCommand_Flags(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{config.FlagConfig, "etcd", "no-etcd", "mode", "seeds", "profile", "listen-port"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}
}
