// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/asdmgr/internal/api"
	"github.com/tomtom215/asdmgr/internal/config"
	"github.com/tomtom215/asdmgr/internal/extension"
	"github.com/tomtom215/asdmgr/internal/logging"
	"github.com/tomtom215/asdmgr/internal/probe"
	"github.com/tomtom215/asdmgr/internal/render"
	"github.com/tomtom215/asdmgr/internal/supervisor"
	"github.com/tomtom215/asdmgr/internal/supervisor/services"
)

func shutdownContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
}

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := logging.Init(loggingConfig(cfg)); err != nil {
		logging.Warn().Err(err).Msg("Failed to close previous log file")
	}
	defer func() {
		if err := logging.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close log file")
		}
	}()

	logging.Info().
		Str("version", version).
		Str("service_type", cfg.Coordination.ServiceType).
		Int("service_idx", cfg.Coordination.ServiceIndex).
		Str("mode", cfg.Cluster.Mode).
		Str("profile", cfg.Cluster.Profile).
		Msg("Starting asdmgr")
	if !cfg.ProfileKnown() {
		logging.Warn().Str("profile", cfg.Cluster.Profile).Msg("Unknown profile, using the default")
	}

	reporter, closeReporter, err := newReporter(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeReporter(); err != nil {
			logging.Warn().Err(err).Msg("Failed to release health registration")
		}
	}()

	publisher := newPublisher(cfg)
	defer publisher.Close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	asd := probe.New(probe.ExecRunner{}, probeOptions(cfg))
	renderer := render.NewRenderer(cfg.Render.DiskPool)

	sup, err := supervisor.New(supervisorConfig(cfg), asd, renderer, reporter, publisher, tree)
	if err != nil {
		return fmt.Errorf("create supervisor: %w", err)
	}
	logging.Info().Dur("tick_interval", sup.TickInterval()).Msg("Supervisor ready")

	status := probe.NewCachedStatus(asd, cfg.Server.StatusCacheTTL)
	handler, err := api.NewHandler(sup, status, extension.NewManager(asd, extensionOptions(cfg)))
	if err != nil {
		return fmt.Errorf("create API handler: %w", err)
	}

	server := &http.Server{
		Addr:              listenAddr(cfg),
		Handler:           api.NewRouter(handler, routerConfig(cfg)),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, "command-api", cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Command API service added")

	sigCtx, stopSignals := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	// the tree outlives the signal so Stop can still remove the heartbeat
	treeCtx, cancelTree := context.WithCancel(context.Background())
	defer cancelTree()
	errCh := tree.ServeBackground(treeCtx)

	var treeErr error
	select {
	case <-sigCtx.Done():
		logging.Info().Msg("Shutdown signal received, stopping supervisor tree")
		sup.Stop(context.Background())
		cancelTree()
		treeErr = <-errCh
	case treeErr = <-errCh:
		sup.Stop(context.Background())
	}
	waitCtx, cancelWait := shutdownContext(cfg)
	if err := sup.WaitReports(waitCtx); err != nil {
		logging.Warn().Err(err).Msg("Final health report did not complete")
	}
	cancelWait()

	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("asdmgr stopped")
	return nil
}
