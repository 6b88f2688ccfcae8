// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/asdmgr/internal/extension"
	"github.com/tomtom215/asdmgr/internal/logging"
	"github.com/tomtom215/asdmgr/internal/supervisor"
	"github.com/tomtom215/asdmgr/internal/validation"
)

// start-status codes
const (
	StatusAliveNotQueryable = 0
	StatusQueryable         = 1
	StatusNotAlive          = 2
)

// Lifecycle is the supervisor surface the handlers drive.
type Lifecycle interface {
	Start(ctx context.Context) (supervisor.StartOutcome, error)
	Stop(ctx context.Context)
	Snapshot() supervisor.State
}

// StatusProber answers start-status.
type StatusProber interface {
	IsProcessAlive(ctx context.Context) bool
	IsQueryable(ctx context.Context) bool
}

// invalidator is implemented by status probers that cache results.
type invalidator interface {
	Invalidate()
}

// Extensions registers and removes UDF modules.
type Extensions interface {
	Register(ctx context.Context, file string) error
	Unregister(ctx context.Context, file string)
}

// Handler implements the command routes.
type Handler struct {
	lifecycle  Lifecycle
	prober     StatusProber
	extensions Extensions
}

// NewHandler creates a Handler. All dependencies are required.
func NewHandler(lifecycle Lifecycle, prober StatusProber, extensions Extensions) (*Handler, error) {
	if lifecycle == nil {
		return nil, ErrNilLifecycle
	}
	if prober == nil {
		return nil, ErrNilProber
	}
	if extensions == nil {
		return nil, ErrNilExtensions
	}
	return &Handler{lifecycle: lifecycle, prober: prober, extensions: extensions}, nil
}

// Start launches asd unless an instance is already supervised.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.lifecycle.Start(r.Context())
	if outcome == supervisor.StartLaunched {
		h.invalidateStatus()
	}
	switch {
	case err != nil:
		code := CodeLaunchFailed
		if errors.Is(err, supervisor.ErrConfigRender) {
			code = CodeConfigRender
		}
		respondError(r, w, http.StatusServiceUnavailable, code, err.Error(), err)
	case outcome == supervisor.StartAlreadyRunning:
		respondMessage(w, http.StatusOK, "asd is already running")
	default:
		respondMessage(w, http.StatusAccepted, "asd launched")
	}
}

// StartStatus reports process liveness and queryability.
func (h *Handler) StartStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.prober.IsProcessAlive(ctx) {
		respondJSON(w, http.StatusOK, StatusResponse{Status: StatusNotAlive, StatusMsg: "asd is not running"})
		return
	}
	if !h.prober.IsQueryable(ctx) {
		respondJSON(w, http.StatusOK, StatusResponse{Status: StatusAliveNotQueryable, StatusMsg: "asd is running but not yet accepting requests"})
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{Status: StatusQueryable, StatusMsg: "asd is running and accepting requests"})
}

// Stop ends supervision. It never terminates asd.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	h.lifecycle.Stop(r.Context())
	h.invalidateStatus()
	respondMessage(w, http.StatusOK, "stop acknowledged")
}

// invalidateStatus drops cached start-status results after a command that
// changes what asd is doing.
func (h *Handler) invalidateStatus() {
	if c, ok := h.prober.(invalidator); ok {
		c.Invalidate()
	}
}

// RegisterExtension registers a UDF module once asd is queryable.
func (h *Handler) RegisterExtension(w http.ResponseWriter, r *http.Request) {
	var req ExtensionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.extensions.Register(r.Context(), req.UDFFile)
	switch {
	case err == nil:
		respondMessage(w, http.StatusOK, "extension registered")
	case errors.Is(err, extension.ErrFileNotFound):
		respondError(r, w, http.StatusBadRequest, CodeFileNotFound, err.Error(), err)
	case errors.Is(err, extension.ErrInvalidPath):
		respondError(r, w, http.StatusBadRequest, CodeInvalidRequest, err.Error(), err)
	default:
		respondError(r, w, http.StatusServiceUnavailable, CodeServiceUnavailable, err.Error(), err)
	}
}

// UnregisterExtension removes a UDF module. It always answers 200.
func (h *Handler) UnregisterExtension(w http.ResponseWriter, r *http.Request) {
	var req ExtensionRequest
	if err := decodeJSON(w, r, &req); err != nil || !validation.IsModulePath(req.UDFFile) {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Unregister request without a usable udf_file, nothing removed")
		respondMessage(w, http.StatusOK, "extension unregistered")
		return
	}

	h.extensions.Unregister(r.Context(), req.UDFFile)
	respondMessage(w, http.StatusOK, "extension unregistered")
}

// State returns the supervisor snapshot.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.lifecycle.Snapshot())
}

// Healthz reports that the sidecar itself is serving.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
