// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package render

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tomtom215/asdmgr/internal/profile"
)

// Mode is the asd heartbeat (peer discovery) mode.
type Mode string

const (
	// ModeNone leaves the packaged asd config untouched.
	ModeNone Mode = ""
	// ModeMesh discovers peers from an explicit seed address list.
	ModeMesh Mode = "mesh"
	// ModeMulticast discovers peers through a multicast group.
	ModeMulticast Mode = "multicast"
)

// Placeholder markers. Each must be alone on its line.
const (
	MarkerCleanDisks     = "@@CLEAN_DISK_LIST@@"
	MarkerDirtyDisks     = "@@DIRTY_DISK_LIST@@"
	MarkerMemorySize     = "@@NS_MEMORY_SIZE@@"
	MarkerWriteCache     = "@@MAX_WRITE_CACHE@@"
	MarkerPostWriteQueue = "@@POST_WRITE_QUEUE@@"
)

var (
	// ErrTemplateRead is returned when the template cannot be opened or read.
	ErrTemplateRead = errors.New("read config template")

	// ErrOutputWrite is returned when the rendered file cannot be written.
	ErrOutputWrite = errors.New("write rendered config")
)

// Request describes one render.
type Request struct {
	TemplatePath string
	OutputPath   string
	Mode         Mode

	// SeedAddresses is a comma separated address list. In multicast mode the
	// first entry is the group address.
	SeedAddresses string
	SeedPort      int

	// Profile sizes write cache, queue depth and memory. A zero Profile means
	// the default profile.
	Profile profile.Profile

	// DiskCount of 0 means DefaultDiskCount.
	DiskCount int
}

// Rendered describes a materialized config file.
type Rendered struct {
	Path    string
	Mode    Mode
	Profile profile.Profile
	Disks   Plan
	Seeds   []string
	Bytes   int
}

// Renderer fills config templates.
type Renderer struct {
	diskPool []string
}

// NewRenderer creates a renderer drawing disks from pool, or from
// DefaultDiskPool when pool is empty.
func NewRenderer(pool []string) *Renderer {
	if len(pool) == 0 {
		pool = DefaultDiskPool
	}
	return &Renderer{diskPool: append([]string(nil), pool...)}
}

// DiskPool returns a copy of the renderer's pool.
func (r *Renderer) DiskPool() []string {
	return append([]string(nil), r.diskPool...)
}

// Render reads req.TemplatePath and writes the result to req.OutputPath,
// replacing any earlier render at that path.
func (r *Renderer) Render(req Request) (*Rendered, error) {
	if req.Profile.Name == "" {
		req.Profile = profile.Resolve(profile.Default)
	}
	if req.DiskCount <= 0 {
		req.DiskCount = DefaultDiskCount
	}

	in, err := os.Open(req.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrTemplateRead, req.TemplatePath, err)
	}
	defer in.Close()

	plan := DiskPlan(r.diskPool, req.DiskCount)
	seeds := splitAddresses(req.SeedAddresses)

	var out bytes.Buffer
	if err := expand(in, &out, req, plan, seeds); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrTemplateRead, req.TemplatePath, err)
	}

	if err := writeFileAtomic(req.OutputPath, out.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrOutputWrite, req.OutputPath, err)
	}

	return &Rendered{
		Path:    req.OutputPath,
		Mode:    req.Mode,
		Profile: req.Profile,
		Disks:   plan,
		Seeds:   seeds,
		Bytes:   out.Len(),
	}, nil
}

// expand copies src to dst line by line, applying the rewrite rules.
func expand(src io.Reader, dst *bytes.Buffer, req Request, plan Plan, seeds []string) error {
	br := bufio.NewReader(src)
	awaitingPort := false

	for {
		line, err := br.ReadString('\n')
		if line != "" {
			awaitingPort = rewriteLine(dst, line, awaitingPort, req, plan, seeds)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// rewriteLine writes the output for one template line and returns the new
// awaiting-port flag.
func rewriteLine(dst *bytes.Buffer, line string, awaitingPort bool, req Request, plan Plan, seeds []string) bool {
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, "#"):
		dst.WriteString(line)
		return awaitingPort

	case req.Mode == ModeMesh && strings.HasPrefix(trimmed, "mode mesh"):
		dst.WriteString(line)
		return true

	case req.Mode == ModeMulticast && strings.HasPrefix(trimmed, "multicast-group"):
		group := ""
		if len(seeds) > 0 {
			group = seeds[0]
		}
		fmt.Fprintf(dst, "\t\tmulticast-group %s\n", group)
		return true

	case awaitingPort && strings.HasPrefix(trimmed, "port"):
		fmt.Fprintf(dst, "\t\tport %d\n", req.SeedPort)
		if req.Mode == ModeMesh {
			for _, addr := range seeds {
				fmt.Fprintf(dst, "\t\tmesh-seed-address-port %s %d\n", addr, req.SeedPort)
			}
		}
		return false
	}

	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	switch trimmed {
	case MarkerCleanDisks:
		writeDevices(dst, indent, plan.Clean)
	case MarkerDirtyDisks:
		writeDevices(dst, indent, plan.Dirty)
	case MarkerMemorySize:
		fmt.Fprintf(dst, "%smemory-size %dG\n", indent, req.Profile.MemoryPerNamespaceGB)
	case MarkerWriteCache:
		fmt.Fprintf(dst, "%smax-write-cache %d\n", indent, req.Profile.MaxWriteCacheBytes)
	case MarkerPostWriteQueue:
		fmt.Fprintf(dst, "%spost-write-queue %d\n", indent, req.Profile.PostWriteQueueDepth)
	default:
		dst.WriteString(line)
	}
	return awaitingPort
}

func writeDevices(dst *bytes.Buffer, indent string, disks []string) {
	for _, d := range disks {
		fmt.Fprintf(dst, "%sdevice %s\n", indent, d)
	}
}

// splitAddresses splits a comma separated list, dropping blanks.
func splitAddresses(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
