// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package probe

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// DefaultCommandTimeout bounds a command when the caller's context has no
// deadline.
const DefaultCommandTimeout = 30 * time.Second

// Result is the outcome of one command.
type Result struct {
	// ExitCode is -1 when the process could not be started or was killed.
	ExitCode int
	Output   string
	Err      error
}

// OK reports whether the command ran and exited with status zero.
func (r Result) OK() bool {
	return r.Err == nil && r.ExitCode == 0
}

// CommandRunner runs an external command to completion.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) Result
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Timeout applies when ctx has no deadline. Zero means DefaultCommandTimeout.
	Timeout time.Duration
}

// Run starts name with args, waits for it and returns its exit status and
// combined output. A timeout or cancellation is reported as a failure.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) Result {
	if _, ok := ctx.Deadline(); !ok {
		timeout := r.Timeout
		if timeout <= 0 {
			timeout = DefaultCommandTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	// children that inherit the output pipe must not hold Wait open
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	res := Result{ExitCode: 0, Output: out.String()}
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if ctx.Err() != nil {
			res.Err = ctx.Err()
		}
		return res
	}

	res.ExitCode = -1
	res.Err = err
	return res
}
