// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package config

import (
	"fmt"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// FlagConfig names the config file flag.
const FlagConfig = "config"

// flagKeys maps command line flags to config paths.
var flagKeys = map[string]string{
	"etcd":          "coordination.endpoints",
	"no-etcd":       "coordination.enabled",
	"service-type":  "coordination.service_type",
	"service-idx":   "coordination.service_idx",
	"mode":          "cluster.mode",
	"seeds":         "cluster.seeds",
	"seed-port":     "cluster.port",
	"memory-gb":     "cluster.memory_gb",
	"disks":         "cluster.disks",
	"profile":       "cluster.profile",
	"nats-url":      "events.nats_url",
	"listen-host":   "server.host",
	"listen-port":   "server.port",
	"log-level":     "logging.level",
	"log-format":    "logging.format",
	"log-file":      "logging.file",
	"ready-retries": "lifecycle.ready_max_attempts",
}

// BindFlags registers the configuration flags on fs. Defaults shown in help
// come from the built-in configuration; unset flags never override a file
// or the environment.
func BindFlags(fs *pflag.FlagSet) {
	d := defaultConfig()

	fs.String(FlagConfig, "", "path to a YAML config file (default: $CONFIG_PATH, asdmgr.yaml, /etc/asdmgr/config.yaml)")
	fs.String("etcd", d.Coordination.Endpoints[0], "comma separated etcd endpoints")
	fs.Bool("no-etcd", false, "do not report health to etcd")
	fs.String("service-type", d.Coordination.ServiceType, "service type label in the registry")
	fs.Int("service-idx", d.Coordination.ServiceIndex, "service instance index in the registry")
	fs.String("mode", d.Cluster.Mode, "heartbeat mode: mesh, multicast or empty for the packaged config")
	fs.String("seeds", d.Cluster.Seeds, "comma separated seed addresses (multicast: group address)")
	fs.Int("seed-port", d.Cluster.Port, "heartbeat port")
	fs.Int("memory-gb", d.Cluster.MemoryGB, "host memory hint in GB, caps namespace memory")
	fs.Int("disks", d.Cluster.Disks, "number of pool disks to use")
	fs.String("profile", d.Cluster.Profile, "resource profile: lite, standard or performance")
	fs.String("nats-url", d.Events.NATSURL, "NATS URL for lifecycle events")
	fs.String("listen-host", d.Server.Host, "command API listen host")
	fs.Int("listen-port", d.Server.Port, "command API listen port")
	fs.String("log-level", d.Logging.Level, "log level")
	fs.String("log-format", d.Logging.Format, "log format: json or console")
	fs.String("log-file", d.Logging.File, "also write JSON logs to this rotated file")
	fs.Int("ready-retries", d.Lifecycle.ReadyMaxAttempts, "readiness checks before giving up, 0 waits forever")
}

// applyFlags copies changed flags into k.
func applyFlags(k *koanf.Koanf, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		path, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		value := f.Value.String()
		switch f.Name {
		case "etcd":
			value = withDefaultPort(value, DefaultEtcdPort)
		case "no-etcd":
			value = fmt.Sprint(value != "true")
		}
		if setErr := k.Set(path, value); setErr != nil {
			err = fmt.Errorf("failed to set %s from --%s: %w", path, f.Name, setErr)
		}
	})
	return err
}
