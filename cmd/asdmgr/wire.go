// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/tomtom215/asdmgr/internal/api"
	"github.com/tomtom215/asdmgr/internal/config"
	"github.com/tomtom215/asdmgr/internal/events"
	"github.com/tomtom215/asdmgr/internal/extension"
	"github.com/tomtom215/asdmgr/internal/health"
	"github.com/tomtom215/asdmgr/internal/logging"
	"github.com/tomtom215/asdmgr/internal/probe"
	"github.com/tomtom215/asdmgr/internal/profile"
	"github.com/tomtom215/asdmgr/internal/render"
	"github.com/tomtom215/asdmgr/internal/supervisor"
)

func loggingConfig(cfg *config.Config) logging.Config {
	return logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Caller:     cfg.Logging.Caller,
		Timestamp:  true,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}
}

func probeOptions(cfg *config.Config) probe.Options {
	return probe.Options{
		ProcessName:   cfg.ASD.ProcessName,
		PidofBinary:   cfg.ASD.PidofBinary,
		InfoBinary:    cfg.ASD.InfoBinary,
		AdminBinary:   cfg.ASD.AdminBinary,
		DaemonBinary:  cfg.ASD.DaemonBinary,
		ProbeTimeout:  cfg.ASD.ProbeTimeout,
		LaunchTimeout: cfg.ASD.LaunchTimeout,
	}
}

// renderRequest builds the render request for the configured mode. The
// profile is resolved here so an unknown name falls back to the default.
func renderRequest(cfg *config.Config) render.Request {
	mode := render.Mode(cfg.Cluster.Mode)

	req := render.Request{
		OutputPath:    cfg.Render.Output,
		Mode:          mode,
		SeedAddresses: cfg.Cluster.Seeds,
		SeedPort:      cfg.Cluster.Port,
		Profile:       profile.Resolve(cfg.Cluster.Profile).CapMemory(cfg.Cluster.MemoryGB),
		DiskCount:     cfg.Cluster.Disks,
	}
	switch mode {
	case render.ModeMesh:
		req.TemplatePath = cfg.Render.MeshTemplate
	case render.ModeMulticast:
		req.TemplatePath = cfg.Render.MulticastTemplate
	}
	return req
}

func supervisorConfig(cfg *config.Config) supervisor.Config {
	return supervisor.Config{
		Render:               renderRequest(cfg),
		ReadyPollInterval:    cfg.Lifecycle.ReadyPollInterval,
		ReadyMaxAttempts:     cfg.Lifecycle.ReadyMaxAttempts,
		FailureBudget:        cfg.Lifecycle.FailureBudget,
		TickDivisor:          cfg.Lifecycle.TickDivisor,
		StopCancelsHeartbeat: cfg.Lifecycle.StopCancelsHeartbeat,
		ReportTimeout:        cfg.Lifecycle.ReportTimeout,
		Service:              cfg.Coordination.ServiceType,
		Index:                cfg.Coordination.ServiceIndex,
	}
}

func etcdConfig(cfg *config.Config) health.EtcdConfig {
	return health.EtcdConfig{
		Endpoints:    cfg.Coordination.Endpoints,
		DialTimeout:  cfg.Coordination.DialTimeout,
		Prefix:       cfg.Coordination.Prefix,
		ServiceType:  cfg.Coordination.ServiceType,
		ServiceIndex: cfg.Coordination.ServiceIndex,
		LeaseTTL:     cfg.Coordination.LeaseTTL,
		Address:      cfg.Coordination.AdvertiseAddress,
		Port:         cfg.Server.Port,
	}
}

func breakerConfig(cfg *config.Config) health.BreakerConfig {
	return health.BreakerConfig{
		Name:             "etcd",
		FailureThreshold: cfg.Coordination.BreakerThreshold,
		Timeout:          cfg.Coordination.BreakerTimeout,
	}
}

func natsConfig(cfg *config.Config) events.NATSConfig {
	return events.NATSConfig{
		URL:           cfg.Events.NATSURL,
		SubjectPrefix: cfg.Events.SubjectPrefix,
		Service:       cfg.Coordination.ServiceType,
		Index:         cfg.Coordination.ServiceIndex,
	}
}

func extensionOptions(cfg *config.Config) extension.Options {
	return extension.Options{
		Retries:    cfg.Extensions.RegisterRetries,
		RetryDelay: cfg.Extensions.RegisterRetryDelay,
	}
}

func routerConfig(cfg *config.Config) api.RouterConfig {
	return api.RouterConfig{
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
		RateLimitDisabled: cfg.Server.RateLimitDisabled,
	}
}

func listenAddr(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
}

// closer releases a component on shutdown.
type closer func() error

// newReporter returns the etcd reporter behind a circuit breaker, or a
// log-only reporter when coordination is disabled.
func newReporter(cfg *config.Config) (health.Reporter, closer, error) {
	if !cfg.Coordination.Enabled {
		logging.Warn().Msg("Coordination disabled, health is only logged")
		return health.NewNopReporter(cfg.Coordination.LeaseTTL), func() error { return nil }, nil
	}

	etcd, err := health.NewEtcdReporter(etcdConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to etcd: %w", err)
	}
	logging.Info().
		Strs("endpoints", cfg.Coordination.Endpoints).
		Str("service_key", etcd.ServiceKey()).
		Dur("lease_ttl", cfg.Coordination.LeaseTTL).
		Msg("Reporting health to etcd")

	closeFn := func() error {
		ctx, cancel := shutdownContext(cfg)
		defer cancel()
		return etcd.Close(ctx)
	}
	return health.NewBreakerReporter(etcd, breakerConfig(cfg)), closeFn, nil
}

// newPublisher returns a NATS publisher when a URL is configured. A NATS
// outage at startup is logged and events are dropped.
func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.Events.NATSURL == "" {
		return events.NopPublisher{}
	}
	pub, err := events.NewNATSPublisher(natsConfig(cfg))
	if err != nil {
		logging.Warn().Err(err).Str("url", cfg.Events.NATSURL).Msg("NATS unavailable, lifecycle events disabled")
		return events.NopPublisher{}
	}
	logging.Info().Str("subject", pub.Subject()).Msg("Publishing lifecycle events to NATS")
	return pub
}
