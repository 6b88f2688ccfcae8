// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/asdmgr/internal/logging"
	"github.com/tomtom215/asdmgr/internal/validation"
)

// maxBodyBytes bounds command request bodies.
const maxBodyBytes = 64 << 10

// CommandResponse acknowledges a command.
type CommandResponse struct {
	StatusMsg string `json:"status_msg"`
}

// StatusResponse is the start-status body.
type StatusResponse struct {
	Status    int    `json:"status"`
	StatusMsg string `json:"status_msg"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	StatusMsg string        `json:"status_msg"`
	Code      string        `json:"code"`
	Details   []FieldDetail `json:"details,omitempty"`
}

// FieldDetail names one failed validation rule.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ExtensionRequest is the register and unregister body.
type ExtensionRequest struct {
	UDFFile string `json:"udf_file" validate:"required,modulepath"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, CommandResponse{StatusMsg: msg})
}

func respondError(r *http.Request, w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Warn().
			Str("code", code).
			Str("error", sanitizeLogValue(err.Error())).
			Int("status", status).
			Msg("API error")
	}
	respondJSON(w, status, ErrorResponse{StatusMsg: message, Code: code})
}

// decodeBody decodes and validates a JSON body into dst. On failure it has
// already written a 400.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		respondError(r, w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body", err)
		return false
	}

	if err := validation.ValidateStruct(dst); err != nil {
		resp := ErrorResponse{StatusMsg: err.Error(), Code: CodeValidation}
		var ve *validation.RequestValidationError
		if errors.As(err, &ve) {
			for _, fe := range ve.Errors() {
				resp.Details = append(resp.Details, FieldDetail{Field: fe.Field, Message: fe.Message})
			}
		}
		respondJSON(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

// sanitizeLogValue escapes control characters so request data cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
