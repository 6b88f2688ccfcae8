// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/asdmgr/internal/profile"
	"github.com/tomtom215/asdmgr/internal/render"
	"github.com/tomtom215/asdmgr/internal/validation"
)

// Validate checks struct tags and then the cross field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	var errs []error
	errs = append(errs, c.validateCluster()...)

	if c.Lifecycle.TickDivisor > 0 && c.Coordination.LeaseTTL/time.Duration(c.Lifecycle.TickDivisor) <= 0 {
		errs = append(errs, errors.New("lifecycle.tick_divisor leaves a zero heartbeat interval"))
	}

	errs = append(errs, c.validateStartDeadline()...)

	return errors.Join(errs...)
}

// validateStartDeadline keeps a slow launch and its failure report inside
// the HTTP write deadline of the start call.
func (c *Config) validateStartDeadline() []error {
	write := c.Server.WriteTimeout
	if write <= 0 || c.ASD.LaunchTimeout <= 0 {
		return nil
	}
	if budget := c.ASD.LaunchTimeout + c.Lifecycle.ReportTimeout; budget >= write {
		return []error{fmt.Errorf("asd.launch_timeout plus lifecycle.report_timeout (%s) must be below server.write_timeout (%s)", budget, write)}
	}
	return nil
}

// ProfileKnown reports whether the configured profile is enumerated. Unknown
// names are accepted and resolve to the default profile.
func (c *Config) ProfileKnown() bool {
	return c.Cluster.Profile == "" || profile.Known(c.Cluster.Profile)
}

func (c *Config) validateCluster() []error {
	var errs []error
	cl := c.Cluster

	switch render.Mode(cl.Mode) {
	case render.ModeMesh:
		if len(splitList(cl.Seeds)) == 0 {
			errs = append(errs, errors.New("cluster.seeds is required in mesh mode"))
		}
		if cl.Port == 0 {
			errs = append(errs, errors.New("cluster.port is required in mesh mode"))
		}
	case render.ModeMulticast:
		if len(splitList(cl.Seeds)) == 0 {
			errs = append(errs, errors.New("cluster.seeds must hold the multicast group address"))
		}
		if cl.Port == 0 {
			errs = append(errs, errors.New("cluster.port is required in multicast mode"))
		}
	}

	pool := len(c.Render.DiskPool)
	if pool == 0 {
		pool = len(render.DefaultDiskPool)
	}
	if cl.Disks > pool {
		errs = append(errs, fmt.Errorf("cluster.disks %d exceeds the disk pool of %d", cl.Disks, pool))
	}
	return errs
}
