// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultConfigPaths lists the config files searched in order. The first
// file found is used.
var DefaultConfigPaths = []string{
	"asdmgr.yaml",
	"/etc/asdmgr/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultEtcdPort is appended to legacy etcdip values without a port.
const DefaultEtcdPort = "2379"

// ErrUnknownArgument is returned for a legacy argument with an unknown key.
var ErrUnknownArgument = errors.New("unknown argument")

func defaultConfig() *Config {
	return &Config{
		Coordination: CoordinationConfig{
			Enabled:          true,
			Endpoints:        []string{"127.0.0.1:" + DefaultEtcdPort},
			DialTimeout:      5 * time.Second,
			Prefix:           "asdmgr",
			ServiceType:      "AS_Server",
			ServiceIndex:     1,
			LeaseTTL:         120 * time.Second,
			BreakerThreshold: 5,
			BreakerTimeout:   30 * time.Second,
		},
		Cluster: ClusterConfig{
			Profile: "standard",
		},
		Render: RenderConfig{
			MeshTemplate:      "/etc/aerospike/aerospike_mesh.conf",
			MulticastTemplate: "/etc/aerospike/aerospike_multicast.conf",
			Output:            "/etc/aerospike/modded.conf",
		},
		ASD: ASDConfig{
			ProcessName:   "asd",
			PidofBinary:   "pidof",
			InfoBinary:    "asinfo",
			AdminBinary:   "aql",
			DaemonBinary:  "asd",
			ProbeTimeout:  10 * time.Second,
			LaunchTimeout: time.Minute,
		},
		Lifecycle: LifecycleConfig{
			ReadyPollInterval:    10 * time.Second,
			ReadyMaxAttempts:     0,
			FailureBudget:        3,
			TickDivisor:          4,
			StopCancelsHeartbeat: true,
			ReportTimeout:        10 * time.Second,
		},
		Extensions: ExtensionsConfig{
			RegisterRetries:    12,
			RegisterRetryDelay: 5 * time.Second,
		},
		Events: EventsConfig{
			SubjectPrefix: "asdmgr",
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      90 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 60,
			RateLimitWindow:   time.Minute,
			StatusCacheTTL:    2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return defaultConfig()
}

// LoadWithKoanf loads, merges and validates the configuration. flags may be
// nil; only flags set on the command line override earlier layers. args are
// the positional legacy key=value arguments.
func LoadWithKoanf(flags *pflag.FlagSet, args []string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: struct defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath, err := findConfigFile(flags)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Layer 4: command line
	if err := applyFlags(k, flags); err != nil {
		return nil, err
	}
	if err := applyLegacyArgs(k, args); err != nil {
		return nil, err
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the --config flag, CONFIG_PATH or the first
// existing default path. An explicit path that does not exist is an error.
func findConfigFile(flags *pflag.FlagSet) (string, error) {
	if flags != nil && flags.Changed(FlagConfig) {
		path, _ := flags.GetString(FlagConfig)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
		return path, nil
	}

	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// sliceConfigPaths are parsed from comma separated strings.
var sliceConfigPaths = []string{
	"coordination.endpoints",
	"render.disk_pool",
}

// processSliceFields splits comma separated strings set by env or the
// command line into slices. YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := splitList(strVal)
		if len(parts) == 0 {
			k.Delete(path)
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variables to config paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"asdmgr_etcd_enabled":           "coordination.enabled",
	"asdmgr_etcd_endpoints":         "coordination.endpoints",
	"asdmgr_etcd_dial_timeout":      "coordination.dial_timeout",
	"asdmgr_registry_prefix":        "coordination.prefix",
	"asdmgr_service_type":           "coordination.service_type",
	"asdmgr_service_idx":            "coordination.service_idx",
	"asdmgr_lease_ttl":              "coordination.lease_ttl",
	"asdmgr_advertise_address":      "coordination.advertise_address",
	"asdmgr_breaker_threshold":      "coordination.breaker_threshold",
	"asdmgr_breaker_timeout":        "coordination.breaker_timeout",
	"asdmgr_mode":                   "cluster.mode",
	"asdmgr_seeds":                  "cluster.seeds",
	"asdmgr_seed_port":              "cluster.port",
	"asdmgr_memory_gb":              "cluster.memory_gb",
	"asdmgr_disks":                  "cluster.disks",
	"asdmgr_profile":                "cluster.profile",
	"asdmgr_mesh_template":          "render.mesh_template",
	"asdmgr_multicast_template":     "render.multicast_template",
	"asdmgr_render_output":          "render.output",
	"asdmgr_disk_pool":              "render.disk_pool",
	"asdmgr_probe_timeout":          "asd.probe_timeout",
	"asdmgr_launch_timeout":         "asd.launch_timeout",
	"asdmgr_ready_poll_interval":    "lifecycle.ready_poll_interval",
	"asdmgr_ready_max_attempts":     "lifecycle.ready_max_attempts",
	"asdmgr_failure_budget":         "lifecycle.failure_budget",
	"asdmgr_stop_cancels_heartbeat": "lifecycle.stop_cancels_heartbeat",
	"asdmgr_register_retries":       "extensions.register_retries",
	"asdmgr_register_retry_delay":   "extensions.register_retry_delay",
	"asdmgr_nats_url":               "events.nats_url",
	"asdmgr_events_subject_prefix":  "events.subject_prefix",
	"http_host":                     "server.host",
	"http_port":                     "server.port",
	"rate_limit_requests":           "server.rate_limit_requests",
	"rate_limit_window":             "server.rate_limit_window",
	"disable_rate_limit":            "server.rate_limit_disabled",
	"status_cache_ttl":              "server.status_cache_ttl",
	"log_level":                     "logging.level",
	"log_format":                    "logging.format",
	"log_caller":                    "logging.caller",
	"log_file":                      "logging.file",
	"log_max_size_mb":               "logging.max_size_mb",
	"log_max_backups":               "logging.max_backups",
}

// envTransformFunc maps an environment variable name to a config path, or
// "" to skip it.
//
// Examples:
//   - ASDMGR_ETCD_ENDPOINTS -> coordination.endpoints
//   - ASDMGR_MODE -> cluster.mode
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// legacyKeys maps the original launcher's argument names to config paths.
var legacyKeys = map[string]string{
	"etcdip":    "coordination.endpoints",
	"svc_label": "coordination.service_type",
	"svc_idx":   "coordination.service_idx",
	"mode":      "cluster.mode",
	"ip":        "cluster.seeds",
	"port":      "cluster.port",
	"mem":       "cluster.memory_gb",
	"disks":     "cluster.disks",
	"profile":   "cluster.profile",
}

// applyLegacyArgs sets key=value arguments. Empty values mean unset.
func applyLegacyArgs(k *koanf.Koanf, args []string) error {
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("%w: %q is not key=value", ErrUnknownArgument, arg)
		}
		path, known := legacyKeys[key]
		if !known {
			return fmt.Errorf("%w: %q", ErrUnknownArgument, key)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if key == "etcdip" {
			value = withDefaultPort(value, DefaultEtcdPort)
		}
		if err := k.Set(path, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// withDefaultPort appends port to every list entry that has none.
func withDefaultPort(list, port string) string {
	parts := splitList(list)
	for i, p := range parts {
		if _, _, err := net.SplitHostPort(p); err != nil {
			parts[i] = net.JoinHostPort(strings.Trim(p, "[]"), port)
		}
	}
	return strings.Join(parts, ",")
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
