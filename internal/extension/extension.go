// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

// Package extension registers and removes asd user defined function (UDF)
// modules through the admin CLI.
package extension

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/asdmgr/internal/logging"
	"github.com/tomtom215/asdmgr/internal/metrics"
	"github.com/tomtom215/asdmgr/internal/probe"
	"github.com/tomtom215/asdmgr/internal/validation"
)

// Defaults for the readiness wait before registering.
const (
	DefaultRetries    = 12
	DefaultRetryDelay = 5 * time.Second
)

var (
	// ErrFileNotFound is returned when the module file does not exist.
	ErrFileNotFound = errors.New("extension file not found")

	// ErrServiceUnavailable is returned when asd never becomes queryable or
	// rejects the module.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInvalidPath is returned for a path that cannot be quoted into an
	// admin command.
	ErrInvalidPath = errors.New("invalid extension path")
)

// Admin is the asd surface the manager needs.
type Admin interface {
	IsQueryable(ctx context.Context) bool
	RunAdmin(ctx context.Context, args ...string) probe.Result
}

// Options bounds the readiness wait.
type Options struct {
	Retries    int
	RetryDelay time.Duration
}

// Manager registers and unregisters modules.
type Manager struct {
	admin Admin
	opts  Options
}

// NewManager creates a Manager. Zero options take the package defaults.
func NewManager(admin Admin, opts Options) *Manager {
	if opts.Retries <= 0 {
		opts.Retries = DefaultRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Manager{admin: admin, opts: opts}
}

// Register waits for asd to be queryable and registers file as a module.
func (m *Manager) Register(ctx context.Context, file string) error {
	err := m.register(ctx, file)
	metrics.RecordExtension("register", err)
	return err
}

func (m *Manager) register(ctx context.Context, file string) error {
	if !validation.IsModulePath(file) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, file)
	}
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, file)
	}

	if !m.waitQueryable(ctx) {
		return fmt.Errorf("%w: not queryable after %d attempts", ErrServiceUnavailable, m.opts.Retries)
	}

	res := m.admin.RunAdmin(ctx, "-c", fmt.Sprintf("REGISTER MODULE '%s'", file))
	if !res.OK() {
		return fmt.Errorf("%w: register module %s exited %d", ErrServiceUnavailable, file, res.ExitCode)
	}

	logging.Ctx(ctx).Info().Str("file", file).Msg("Registered extension")
	return nil
}

// waitQueryable polls until asd answers or the attempts run out.
func (m *Manager) waitQueryable(ctx context.Context) bool {
	for attempt := 1; attempt <= m.opts.Retries; attempt++ {
		if m.admin.IsQueryable(ctx) {
			return true
		}
		if attempt == m.opts.Retries {
			break
		}
		logging.Ctx(ctx).Debug().Int("attempt", attempt).Msg("Waiting for asd before registering extension")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(m.opts.RetryDelay):
		}
	}
	return false
}

// Unregister removes the module named after file's base name. Failures are
// logged and never returned.
func (m *Manager) Unregister(ctx context.Context, file string) {
	name := filepath.Base(file)
	if !validation.IsModulePath(name) {
		err := fmt.Errorf("%w: %q", ErrInvalidPath, file)
		logging.Ctx(ctx).Warn().Err(err).Msg("Unregister extension skipped")
		metrics.RecordExtension("unregister", err)
		return
	}
	res := m.admin.RunAdmin(ctx, "-c", "REMOVE MODULE "+name)

	var err error
	if !res.OK() {
		err = fmt.Errorf("remove module %s exited %d", name, res.ExitCode)
		logging.Ctx(ctx).Warn().Err(err).Str("module", name).Msg("Unregister extension failed")
	} else {
		logging.Ctx(ctx).Info().Str("module", name).Msg("Unregistered extension")
	}
	metrics.RecordExtension("unregister", err)
}
