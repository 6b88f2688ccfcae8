// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

/*
Package probe runs the external commands used to observe and drive asd.

Every check is a short lived child process and the exit status is the only
verdict: zero means success. Output is captured for logging only.

  - IsProcessAlive runs "pidof asd"
  - IsQueryable runs "asinfo -v status"
  - RunAdmin runs the admin CLI (aql)
  - Launch runs the asd launcher and waits for it to return

Commands go through a CommandRunner so callers can substitute a fake in
tests. ExecRunner is the os/exec implementation.
*/
package probe
