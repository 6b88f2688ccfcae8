// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package config

import "time"

// Config is the complete sidecar configuration.
type Config struct {
	Coordination CoordinationConfig `koanf:"coordination"`
	Cluster      ClusterConfig      `koanf:"cluster"`
	Render       RenderConfig       `koanf:"render"`
	ASD          ASDConfig          `koanf:"asd"`
	Lifecycle    LifecycleConfig    `koanf:"lifecycle"`
	Extensions   ExtensionsConfig   `koanf:"extensions"`
	Events       EventsConfig       `koanf:"events"`
	Server       ServerConfig       `koanf:"server"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// CoordinationConfig is the etcd registry the instance reports health to.
type CoordinationConfig struct {
	// Enabled selects the etcd reporter. When false health is only logged.
	Enabled      bool          `koanf:"enabled"`
	Endpoints    []string      `koanf:"endpoints" validate:"required_if=Enabled true,dive,hostname_port"`
	DialTimeout  time.Duration `koanf:"dial_timeout" validate:"gt=0"`
	Prefix       string        `koanf:"prefix" validate:"required"`
	ServiceType  string        `koanf:"service_type" validate:"required"`
	ServiceIndex int           `koanf:"service_idx" validate:"gte=0"`
	LeaseTTL     time.Duration `koanf:"lease_ttl" validate:"gte=1s"`

	// AdvertiseAddress is published in the service record.
	AdvertiseAddress string `koanf:"advertise_address"`

	BreakerThreshold uint32        `koanf:"breaker_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
}

// ClusterConfig is the asd topology and sizing.
type ClusterConfig struct {
	// Mode is mesh, multicast or empty to keep the packaged asd config.
	Mode string `koanf:"mode" validate:"topology"`
	// Seeds is a comma separated address list; in multicast mode the first
	// entry is the group address.
	Seeds    string `koanf:"seeds" validate:"seedlist"`
	Port     int    `koanf:"port" validate:"gte=0,lte=65535"`
	MemoryGB int    `koanf:"memory_gb" validate:"gte=0"`
	Disks    int    `koanf:"disks" validate:"gte=0"`
	Profile  string `koanf:"profile"`
}

// RenderConfig locates the config templates and the rendered file.
type RenderConfig struct {
	MeshTemplate      string   `koanf:"mesh_template" validate:"required"`
	MulticastTemplate string   `koanf:"multicast_template" validate:"required"`
	Output            string   `koanf:"output" validate:"required"`
	DiskPool          []string `koanf:"disk_pool"`
}

// ASDConfig names the asd tools and bounds their runtime.
type ASDConfig struct {
	ProcessName   string        `koanf:"process_name" validate:"required"`
	PidofBinary   string        `koanf:"pidof_binary" validate:"required"`
	InfoBinary    string        `koanf:"info_binary" validate:"required"`
	AdminBinary   string        `koanf:"admin_binary" validate:"required"`
	DaemonBinary  string        `koanf:"daemon_binary" validate:"required"`
	ProbeTimeout  time.Duration `koanf:"probe_timeout" validate:"gt=0"`
	LaunchTimeout time.Duration `koanf:"launch_timeout" validate:"gte=0"`
}

// LifecycleConfig tunes the readiness wait and the heartbeat.
type LifecycleConfig struct {
	ReadyPollInterval time.Duration `koanf:"ready_poll_interval" validate:"gt=0"`
	// ReadyMaxAttempts of 0 waits for readiness indefinitely.
	ReadyMaxAttempts     int           `koanf:"ready_max_attempts" validate:"gte=0"`
	FailureBudget        int           `koanf:"failure_budget" validate:"gte=0"`
	TickDivisor          int           `koanf:"tick_divisor" validate:"gte=1"`
	StopCancelsHeartbeat bool          `koanf:"stop_cancels_heartbeat"`
	ReportTimeout        time.Duration `koanf:"report_timeout" validate:"gt=0"`
}

// ExtensionsConfig bounds the wait before registering a UDF module.
type ExtensionsConfig struct {
	RegisterRetries    int           `koanf:"register_retries" validate:"gte=1"`
	RegisterRetryDelay time.Duration `koanf:"register_retry_delay" validate:"gt=0"`
}

// EventsConfig enables lifecycle events on NATS.
type EventsConfig struct {
	// NATSURL empty disables publishing.
	NATSURL       string `koanf:"nats_url"`
	SubjectPrefix string `koanf:"subject_prefix" validate:"required"`
}

// ServerConfig is the command API listener.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout       time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gte=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	// StatusCacheTTL memoizes start-status probes. 0 disables.
	StatusCacheTTL time.Duration `koanf:"status_cache_ttl" validate:"gte=0"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`

	// File also receives JSON logs, rotated at MaxSizeMB keeping MaxBackups
	// old files. Empty disables the file.
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `koanf:"max_backups" validate:"gte=0"`
}
