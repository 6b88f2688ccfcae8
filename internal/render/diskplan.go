// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package render

// DefaultDiskPool is the ordered set of block devices attached to an asd node.
var DefaultDiskPool = []string{
	"/dev/sdb",
	"/dev/sdc",
	"/dev/sdd",
	"/dev/sde",
	"/dev/sdf",
	"/dev/sdg",
	"/dev/sdh",
	"/dev/sdi",
}

// DefaultDiskCount is used when no disk count is supplied.
const DefaultDiskCount = 2

// Plan is the split of the first N pool disks between the clean and dirty
// write paths. Clean and Dirty are disjoint and keep pool order.
type Plan struct {
	Clean []string `json:"clean"`
	Dirty []string `json:"dirty"`
}

// Total returns the number of disks in the plan.
func (p Plan) Total() int {
	return len(p.Clean) + len(p.Dirty)
}

// DiskPlan assigns the first n disks of pool: floor(n/2) clean, the rest dirty.
// Negative n is treated as zero and n larger than the pool is clamped.
func DiskPlan(pool []string, n int) Plan {
	if n < 0 {
		n = 0
	}
	if n > len(pool) {
		n = len(pool)
	}

	clean := n / 2
	p := Plan{
		Clean: make([]string, 0, clean),
		Dirty: make([]string, 0, n-clean),
	}
	p.Clean = append(p.Clean, pool[:clean]...)
	p.Dirty = append(p.Dirty, pool[clean:n]...)
	return p
}
