// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

/*
Package supervisor owns the lifecycle of the local asd instance and the
suture tree the sidecar runs in.

# Tree

	RootSupervisor ("asdmgr")
	├── ControlSupervisor ("control-layer")
	│   └── heartbeat-<generation> (one per successful start)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Events from every layer are logged through sutureslog.

# Lifecycle

	Idle -> Starting -> WaitingReady -> Healthy <-> Degraded -> Stopped

Start renders the config (when a topology mode is set), runs the asd
launcher and waits for it to return. On success the instance is handed to a
heartbeat task in the control layer and Start returns without waiting for
readiness. A failed render or launch returns to Idle.

The heartbeat task polls the info probe until asd answers, then ticks every
lease/TickDivisor. A tick with both probes passing resets the failure budget
and reports healthy. A failing tick spends one unit of budget; a failing tick
with no budget left ends the task, which reports unhealthy and leaves the
instance Stopped. Tasks are never restarted.

Health is never reported true before the first successful info probe.

# Concurrency

One mutex guards the state. Every start and every Stop bumps the generation,
and a task only touches state or reports while its generation is current. A
second mutex orders health reports so a superseded task cannot overwrite a
newer verdict.

Stop never signals asd and never waits on the reporter. It removes the
heartbeat task (unless StopCancelsHeartbeat is false) and reports the
instance unhealthy in the background. Every report is bounded by
ReportTimeout, so a hung coordination store cannot stall ticks.

A start that is still running the launcher keeps later starts out even
after a Stop, until the launcher returns.
*/
package supervisor
