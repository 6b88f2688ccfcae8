// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package probe

import (
	"context"
	"strings"
	"sync"
)

// recordingRunner returns canned results keyed by binary name and records
// every invocation.
type recordingRunner struct {
	mu      sync.Mutex
	results map[string]Result
	calls   []string
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	if res, ok := r.results[name]; ok {
		return res
	}
	return Result{}
}

func (r *recordingRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}
