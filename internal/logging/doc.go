// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

// Package logging provides the zerolog based structured logger used by asdmgr.
//
// The sidecar writes one JSON object per line to stderr by default so that
// the container runtime can ship logs alongside the asd daemon's own output.
// Console format is available for local development.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("mode", "mesh").Msg("Rendering config")
//	logging.Error().Err(err).Msg("Launch failed")
//
//	// Request scoped (request_id and correlation_id are added automatically)
//	logging.Ctx(ctx).Info().Msg("Start command received")
//
// # Configuration
//
// Environment Variables (read through the config package):
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
//   - LOG_FILE: also write JSON to this file, rotated by lumberjack (default: none)
//   - LOG_MAX_SIZE_MB: rotate LOG_FILE at this size (default: 10)
//   - LOG_MAX_BACKUPS: rotated files to keep (default: 5)
//
// Call Close on shutdown to flush and release the log file.
//
// # Suture Integration
//
// The suture supervisor tree logs through log/slog. SlogHandler bridges slog
// records into the global zerolog logger so that supervisor events and
// application events share one stream and one format:
//
//	slogLogger := logging.NewSlogLogger()
//	tree, _ := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
//
// Always terminate event chains with Msg or Send; an unterminated chain is
// never written.
package logging
