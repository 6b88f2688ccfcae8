// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package api

import "errors"

// Handler construction errors
var (
	ErrNilLifecycle  = errors.New("lifecycle cannot be nil")
	ErrNilProber     = errors.New("status prober cannot be nil")
	ErrNilExtensions = errors.New("extension manager cannot be nil")
)

// Error codes returned in error bodies
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidation         = "VALIDATION_ERROR"
	CodeFileNotFound       = "FILE_NOT_FOUND"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeLaunchFailed       = "LAUNCH_FAILED"
	CodeConfigRender       = "CONFIG_RENDER_FAILED"
	CodeRateLimited        = "RATE_LIMITED"
)
