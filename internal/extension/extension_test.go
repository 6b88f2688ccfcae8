// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package extension

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/asdmgr/internal/probe"
)

type fakeAdmin struct {
	mu sync.Mutex
	// queryableAfter is the number of failed checks before success; -1 never.
	queryableAfter int
	checks         int
	exitCode       int
	commands       []string
}

func (f *fakeAdmin) IsQueryable(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	return f.queryableAfter >= 0 && f.checks > f.queryableAfter
}

func (f *fakeAdmin) RunAdmin(_ context.Context, args ...string) probe.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, strings.Join(args, " "))
	return probe.Result{ExitCode: f.exitCode}
}

func udfFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "geo_filter.lua")
	if err := os.WriteFile(path, []byte("function f(r) return r end\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func fastOptions() Options {
	return Options{Retries: 3, RetryDelay: time.Millisecond}
}

func TestRegister(t *testing.T) {
	file := udfFile(t)
	admin := &fakeAdmin{queryableAfter: 1}
	m := NewManager(admin, fastOptions())

	if err := m.Register(context.Background(), file); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if admin.checks != 2 {
		t.Errorf("checks = %d, want 2", admin.checks)
	}
	want := []string{"-c REGISTER MODULE '" + file + "'"}
	if !slices.Equal(admin.commands, want) {
		t.Errorf("commands = %v, want %v", admin.commands, want)
	}
}

func TestRegisterMissingFile(t *testing.T) {
	admin := &fakeAdmin{}
	m := NewManager(admin, fastOptions())

	err := m.Register(context.Background(), filepath.Join(t.TempDir(), "absent.lua"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("error = %v, want ErrFileNotFound", err)
	}
	if admin.checks != 0 || len(admin.commands) != 0 {
		t.Error("missing file must not touch asd")
	}
}

func TestRegisterRejectsUnsafePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.lua'; REMOVE MODULE b.lua; '")
	if err := os.WriteFile(file, []byte("-- udf\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	admin := &fakeAdmin{}
	m := NewManager(admin, fastOptions())

	if err := m.Register(context.Background(), file); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("error = %v, want ErrInvalidPath", err)
	}
	if admin.checks != 0 || len(admin.commands) != 0 {
		t.Errorf("unsafe path reached asd: checks=%d commands=%v", admin.checks, admin.commands)
	}
}

func TestRegisterNeverQueryable(t *testing.T) {
	admin := &fakeAdmin{queryableAfter: -1}
	m := NewManager(admin, fastOptions())

	err := m.Register(context.Background(), udfFile(t))
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
	if admin.checks != 3 {
		t.Errorf("checks = %d, want exactly Retries", admin.checks)
	}
	if len(admin.commands) != 0 {
		t.Error("no admin command expected")
	}
}

func TestRegisterCommandFailure(t *testing.T) {
	admin := &fakeAdmin{exitCode: 1}
	m := NewManager(admin, fastOptions())

	if err := m.Register(context.Background(), udfFile(t)); !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
}

func TestRegisterCancelled(t *testing.T) {
	admin := &fakeAdmin{queryableAfter: -1}
	m := NewManager(admin, Options{Retries: 100, RetryDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Register(ctx, udfFile(t)); !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("error = %v, want ErrServiceUnavailable", err)
	}
	if admin.checks != 1 {
		t.Errorf("checks = %d, want 1", admin.checks)
	}
}

func TestUnregister(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
	}{
		{name: "success", exitCode: 0},
		{name: "failure is swallowed", exitCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin := &fakeAdmin{exitCode: tt.exitCode}
			m := NewManager(admin, fastOptions())

			m.Unregister(context.Background(), "/opt/udf/geo_filter.lua")

			want := []string{"-c REMOVE MODULE geo_filter.lua"}
			if !slices.Equal(admin.commands, want) {
				t.Errorf("commands = %v, want %v", admin.commands, want)
			}
		})
	}
}

func TestUnregisterRejectsUnsafeName(t *testing.T) {
	admin := &fakeAdmin{}
	m := NewManager(admin, fastOptions())

	m.Unregister(context.Background(), "/opt/udf/a.lua; REMOVE MODULE b.lua")
	if len(admin.commands) != 0 {
		t.Errorf("commands = %v, want none", admin.commands)
	}
}

func TestNewManagerDefaults(t *testing.T) {
	t.Parallel()

	m := NewManager(&fakeAdmin{}, Options{})
	if m.opts.Retries != DefaultRetries || m.opts.RetryDelay != DefaultRetryDelay {
		t.Errorf("opts = %+v", m.opts)
	}
}
