// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

/*
Package render produces the asd configuration file used by a supervised start.

A template shipped with the image is read line by line and copied to a single
output file, with a handful of lines rewritten:

	# comment lines                   copied verbatim
	mode mesh                         copied, arms the port rewrite (mesh)
	multicast-group x.x.x.x           rewritten with the group address, arms the port rewrite (multicast)
	port NNNN                         rewritten with the seed port while armed;
	                                  mesh adds one mesh-seed-address-port line per seed
	@@CLEAN_DISK_LIST@@               one "device <disk>" line per clean disk
	@@DIRTY_DISK_LIST@@               one "device <disk>" line per dirty disk
	@@NS_MEMORY_SIZE@@                memory-size <N>G
	@@MAX_WRITE_CACHE@@               max-write-cache <bytes>
	@@POST_WRITE_QUEUE@@              post-write-queue <depth>

Anything else is copied verbatim. The grammar of the file is not otherwise
parsed or validated.

Disks come from a fixed ordered pool. For a disk count N the first floor(N/2)
pool entries go to the clean namespace and the next N-floor(N/2) to the dirty
namespace (see DiskPlan).

The output is written atomically: a temp file in the destination directory is
synced and renamed over the previous render.
*/
package render
