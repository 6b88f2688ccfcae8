// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

// Package profile holds the static resource profiles used to size an asd
// instance: write cache, write queue depth and namespace memory.
//
// Values are design constants. They are not derived from the host; an
// optional memory hint can only lower the namespace memory (see CapMemory).
package profile

// Profile names.
const (
	Lite        = "lite"
	Standard    = "standard"
	Performance = "performance"

	// Default is used for empty or unknown names.
	Default = Standard
)

// Profile is an immutable resource sizing record.
type Profile struct {
	Name string `json:"name"`

	// MaxWriteCacheBytes is rendered as max-write-cache.
	MaxWriteCacheBytes int64 `json:"max_write_cache_bytes"`

	// PostWriteQueueDepth is rendered as post-write-queue.
	PostWriteQueueDepth int `json:"post_write_queue_depth"`

	// MemoryPerNamespaceGB is rendered as memory-size for each namespace.
	MemoryPerNamespaceGB int `json:"memory_per_namespace_gb"`

	// SystemReservedGB is memory left to the OS and the sidecar itself.
	SystemReservedGB int `json:"system_reserved_gb"`
}

const mib = int64(1) << 20

var table = map[string]Profile{
	Lite: {
		Name:                 Lite,
		MaxWriteCacheBytes:   64 * mib,
		PostWriteQueueDepth:  64,
		MemoryPerNamespaceGB: 1,
		SystemReservedGB:     1,
	},
	Standard: {
		Name:                 Standard,
		MaxWriteCacheBytes:   128 * mib,
		PostWriteQueueDepth:  256,
		MemoryPerNamespaceGB: 4,
		SystemReservedGB:     2,
	},
	Performance: {
		Name:                 Performance,
		MaxWriteCacheBytes:   512 * mib,
		PostWriteQueueDepth:  2048,
		MemoryPerNamespaceGB: 16,
		SystemReservedGB:     4,
	},
}

// Resolve returns the profile called name, or the default profile when name
// is not one of Names(). It never fails.
func Resolve(name string) Profile {
	if p, ok := table[name]; ok {
		return p
	}
	return table[Default]
}

// Known reports whether name is an enumerated profile.
func Known(name string) bool {
	_, ok := table[name]
	return ok
}

// Names returns the enumerated profile names, smallest first.
func Names() []string {
	return []string{Lite, Standard, Performance}
}

// CapMemory returns a copy of p whose namespace memory fits in hintGB.
//
// Two namespaces (clean and dirty) share what is left after SystemReservedGB.
// A non-positive hint, or a cap that is not smaller than the profile value,
// returns p unchanged. The result never drops below 1GB.
func (p Profile) CapMemory(hintGB int) Profile {
	if hintGB <= 0 {
		return p
	}
	perNS := (hintGB - p.SystemReservedGB) / 2
	if perNS < 1 {
		perNS = 1
	}
	if perNS < p.MemoryPerNamespaceGB {
		p.MemoryPerNamespaceGB = perNS
	}
	return p
}
