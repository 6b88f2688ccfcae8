// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package render

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/asdmgr/internal/profile"
)

const meshTemplate = `# Aerospike mesh template
service {
	proto-fd-max 15000
}

network {
	heartbeat {
		mode mesh
		# port below is rewritten
		address any
		port 3000
		interval 150
	}
}

namespace clean {
	@@NS_MEMORY_SIZE@@
	storage-engine device {
		@@CLEAN_DISK_LIST@@
		@@MAX_WRITE_CACHE@@
		@@POST_WRITE_QUEUE@@
	}
}

namespace dirty {
	@@NS_MEMORY_SIZE@@
	storage-engine device {
		@@DIRTY_DISK_LIST@@
	}
}
`

const multicastTemplate = `network {
	heartbeat {
		mode multicast
		multicast-group 239.1.99.222
		port 9918
	}
}
`

func writeTemplate(t *testing.T, body string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "template.conf")
	if err := os.WriteFile(tmpl, []byte(body), 0o600); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return tmpl, filepath.Join(dir, "modded.conf")
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return strings.Split(string(data), "\n")
}

func trimmed(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

func indexOf(lines []string, want string) int {
	for i, l := range lines {
		if l == want {
			return i
		}
	}
	return -1
}

func countPrefix(lines []string, prefix string) int {
	n := 0
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func TestRenderMeshSeeds(t *testing.T) {
	tmpl, out := writeTemplate(t, meshTemplate)

	r := NewRenderer(nil)
	res, err := r.Render(Request{
		TemplatePath:  tmpl,
		OutputPath:    out,
		Mode:          ModeMesh,
		SeedAddresses: "10.0.0.1,10.0.0.2",
		SeedPort:      3002,
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	lines := trimmed(readLines(t, out))
	i := indexOf(lines, "port 3002")
	if i < 0 {
		t.Fatalf("port line not rewritten:\n%s", strings.Join(lines, "\n"))
	}
	if lines[i+1] != "mesh-seed-address-port 10.0.0.1 3002" {
		t.Errorf("line after port = %q", lines[i+1])
	}
	if lines[i+2] != "mesh-seed-address-port 10.0.0.2 3002" {
		t.Errorf("second seed line = %q", lines[i+2])
	}
	if lines[i+3] != "interval 150" {
		t.Errorf("template resumes verbatim after seeds, got %q", lines[i+3])
	}
	if indexOf(lines, "port 3000") >= 0 {
		t.Error("original port line should be replaced")
	}
	if indexOf(lines, "# port below is rewritten") < 0 {
		t.Error("comment line should pass through")
	}
	if len(res.Seeds) != 2 {
		t.Errorf("Rendered.Seeds = %v", res.Seeds)
	}
}

func TestRenderPortWithoutModeMarkerIsUntouched(t *testing.T) {
	tmpl, out := writeTemplate(t, "service {\n\tport 3000\n}\n")

	if _, err := NewRenderer(nil).Render(Request{
		TemplatePath:  tmpl,
		OutputPath:    out,
		Mode:          ModeMesh,
		SeedAddresses: "10.0.0.1",
		SeedPort:      3002,
	}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	lines := trimmed(readLines(t, out))
	if indexOf(lines, "port 3000") < 0 {
		t.Errorf("port line before any mode marker must pass through: %v", lines)
	}
	if countPrefix(lines, "mesh-seed-address-port") != 0 {
		t.Error("no seed lines expected without a mode marker")
	}
}

func TestRenderProfileAndDisks(t *testing.T) {
	tmpl, out := writeTemplate(t, meshTemplate)
	perf := profile.Resolve(profile.Performance)

	res, err := NewRenderer(nil).Render(Request{
		TemplatePath:  tmpl,
		OutputPath:    out,
		Mode:          ModeMesh,
		SeedAddresses: "10.0.0.1",
		SeedPort:      3002,
		Profile:       perf,
		DiskCount:     4,
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	raw := readLines(t, out)
	lines := trimmed(raw)

	if got := countPrefix(lines, "memory-size "); got != 2 {
		t.Errorf("memory-size lines = %d, want 2 (one per namespace)", got)
	}
	if indexOf(lines, "memory-size 16G") < 0 {
		t.Errorf("expected performance memory-size, got:\n%s", strings.Join(lines, "\n"))
	}
	if got := countPrefix(lines, "device "); got != 4 {
		t.Errorf("device lines = %d, want 4", got)
	}
	if len(res.Disks.Clean) != 2 || len(res.Disks.Dirty) != 2 {
		t.Errorf("plan = %+v, want 2 clean + 2 dirty", res.Disks)
	}

	clean := indexOf(lines, "namespace clean {")
	dirty := indexOf(lines, "namespace dirty {")
	for i, l := range lines {
		if !strings.HasPrefix(l, "device ") {
			continue
		}
		dev := strings.TrimPrefix(l, "device ")
		inClean := i > clean && i < dirty
		if inClean && !contains(res.Disks.Clean, dev) {
			t.Errorf("%s rendered in clean namespace but planned dirty", dev)
		}
		if !inClean && !contains(res.Disks.Dirty, dev) {
			t.Errorf("%s rendered in dirty namespace but planned clean", dev)
		}
	}

	if indexOf(lines, "max-write-cache 536870912") < 0 {
		t.Error("max-write-cache not rendered from profile")
	}
	if indexOf(lines, "post-write-queue 2048") < 0 {
		t.Error("post-write-queue not rendered from profile")
	}

	// marker indentation is preserved
	for _, l := range raw {
		if strings.Contains(l, "device /dev/sdb") && !strings.HasPrefix(l, "\t\t") {
			t.Errorf("device line lost marker indentation: %q", l)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestRenderDefaults(t *testing.T) {
	tmpl, out := writeTemplate(t, meshTemplate)

	res, err := NewRenderer(nil).Render(Request{
		TemplatePath: tmpl,
		OutputPath:   out,
		Mode:         ModeMesh,
		SeedPort:     3002,
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if res.Disks.Total() != DefaultDiskCount {
		t.Errorf("default disk count = %d, want %d", res.Disks.Total(), DefaultDiskCount)
	}
	if res.Profile != profile.Resolve(profile.Default) {
		t.Errorf("default profile = %+v", res.Profile)
	}

	lines := trimmed(readLines(t, out))
	if countPrefix(lines, "mesh-seed-address-port") != 0 {
		t.Error("no seeds supplied, no seed lines expected")
	}
}

func TestRenderMulticast(t *testing.T) {
	tmpl, out := writeTemplate(t, multicastTemplate)

	if _, err := NewRenderer(nil).Render(Request{
		TemplatePath:  tmpl,
		OutputPath:    out,
		Mode:          ModeMulticast,
		SeedAddresses: "239.1.99.2",
		SeedPort:      9920,
	}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	lines := trimmed(readLines(t, out))
	i := indexOf(lines, "multicast-group 239.1.99.2")
	if i < 0 {
		t.Fatalf("multicast-group not rewritten: %v", lines)
	}
	if lines[i+1] != "port 9920" {
		t.Errorf("port after multicast-group = %q, want port 9920", lines[i+1])
	}
	if countPrefix(lines, "mesh-seed-address-port") != 0 {
		t.Error("multicast must not emit mesh seed lines")
	}
	if indexOf(lines, "mode multicast") < 0 {
		t.Error("mode line should pass through")
	}
}

func TestRenderOverwritesPreviousOutput(t *testing.T) {
	tmpl, out := writeTemplate(t, multicastTemplate)
	if err := os.WriteFile(out, []byte("stale\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewRenderer(nil).Render(Request{TemplatePath: tmpl, OutputPath: out}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	data, _ := os.ReadFile(out)
	if strings.Contains(string(data), "stale") {
		t.Error("previous render should be replaced")
	}
	if string(data) != multicastTemplate {
		t.Errorf("mode none should copy the template verbatim, got:\n%s", data)
	}
}

func TestRenderErrors(t *testing.T) {
	t.Run("missing template", func(t *testing.T) {
		dir := t.TempDir()
		_, err := NewRenderer(nil).Render(Request{
			TemplatePath: filepath.Join(dir, "missing.conf"),
			OutputPath:   filepath.Join(dir, "out.conf"),
		})
		if !errors.Is(err, ErrTemplateRead) {
			t.Errorf("error = %v, want ErrTemplateRead", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error should wrap the os cause, got %v", err)
		}
	})

	t.Run("unwritable output", func(t *testing.T) {
		tmpl, _ := writeTemplate(t, meshTemplate)
		_, err := NewRenderer(nil).Render(Request{
			TemplatePath: tmpl,
			OutputPath:   filepath.Join(t.TempDir(), "no", "such", "dir", "out.conf"),
		})
		if !errors.Is(err, ErrOutputWrite) {
			t.Errorf("error = %v, want ErrOutputWrite", err)
		}
	})
}

func TestTemplateWithoutTrailingNewline(t *testing.T) {
	tmpl, out := writeTemplate(t, "# header\nservice {}")

	if _, err := NewRenderer(nil).Render(Request{TemplatePath: tmpl, OutputPath: out}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "# header\nservice {}" {
		t.Errorf("output = %q", data)
	}
}

func TestSplitAddresses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"10.0.0.1", 1},
		{"10.0.0.1, 10.0.0.2", 2},
		{"10.0.0.1,,10.0.0.2,", 2},
	}
	for _, tt := range tests {
		if got := splitAddresses(tt.in); len(got) != tt.want {
			t.Errorf("splitAddresses(%q) = %v, want %d entries", tt.in, got, tt.want)
		}
	}
}
