// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package health

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/tomtom215/asdmgr/internal/logging"
	"github.com/tomtom215/asdmgr/internal/metrics"
)

// ErrReporterClosed is returned by SetHealth after Close.
var ErrReporterClosed = errors.New("health reporter closed")

// EtcdConfig configures an EtcdReporter.
type EtcdConfig struct {
	Endpoints    []string
	DialTimeout  time.Duration
	Prefix       string
	ServiceType  string
	ServiceIndex int
	LeaseTTL     time.Duration

	// Address and Port are advertised in the service record.
	Address string
	Port    int
}

// leaseKV is the subset of *clientv3.Client the reporter needs.
type leaseKV interface {
	Grant(ctx context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	KeepAliveOnce(ctx context.Context, id clientv3.LeaseID) (*clientv3.LeaseKeepAliveResponse, error)
	Revoke(ctx context.Context, id clientv3.LeaseID) (*clientv3.LeaseRevokeResponse, error)
	Close() error
}

// ServiceRecord is written at the service key.
type ServiceRecord struct {
	ServiceType  string    `json:"service_type"`
	ServiceIndex int       `json:"service_idx"`
	Address      string    `json:"address,omitempty"`
	Port         int       `json:"port,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// HealthRecord is written at the health key on every report.
type HealthRecord struct {
	Healthy   bool      `json:"healthy"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EtcdReporter reports health through keys bound to an etcd lease.
type EtcdReporter struct {
	cfg    EtcdConfig
	client leaseKV
	now    func() time.Time

	mu      sync.Mutex
	lease   clientv3.LeaseID
	version uint64
	closed  bool
}

// NewEtcdReporter connects to etcd. No lease is granted until the first
// SetHealth.
func NewEtcdReporter(cfg EtcdConfig) (*EtcdReporter, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to etcd %v: %w", cfg.Endpoints, err)
	}
	return newEtcdReporter(cfg, cli), nil
}

func newEtcdReporter(cfg EtcdConfig, client leaseKV) *EtcdReporter {
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = DefaultLeaseDuration
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "asdmgr"
	}
	return &EtcdReporter{cfg: cfg, client: client, now: time.Now}
}

func (r *EtcdReporter) LeaseDuration() time.Duration {
	return r.cfg.LeaseTTL
}

// ServiceKey is the key holding the service record.
func (r *EtcdReporter) ServiceKey() string {
	return "/" + path.Join(r.cfg.Prefix, r.cfg.ServiceType, strconv.Itoa(r.cfg.ServiceIndex))
}

// HealthKey is the key holding the health verdict.
func (r *EtcdReporter) HealthKey() string {
	return r.ServiceKey() + "/health"
}

// SetHealth writes the verdict under the lease and renews it. A lease that
// expired or was never granted is granted again and the service record
// rewritten.
func (r *EtcdReporter) SetHealth(ctx context.Context, healthy bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.report(ctx, healthy)
	metrics.RecordHealthReport(healthy, err)
	return err
}

func (r *EtcdReporter) report(ctx context.Context, healthy bool) error {
	if r.closed {
		return ErrReporterClosed
	}

	if r.lease != clientv3.NoLease {
		if _, err := r.client.KeepAliveOnce(ctx, r.lease); err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Int64("lease", int64(r.lease)).
				Msg("Lease renewal failed, granting a new lease")
			r.lease = clientv3.NoLease
		}
	}

	if r.lease == clientv3.NoLease {
		if err := r.register(ctx); err != nil {
			return err
		}
	}

	r.version++
	rec, err := json.Marshal(HealthRecord{Healthy: healthy, Version: r.version, UpdatedAt: r.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode health record: %w", err)
	}
	if _, err := r.client.Put(ctx, r.HealthKey(), string(rec), clientv3.WithLease(r.lease)); err != nil {
		return fmt.Errorf("put %s: %w", r.HealthKey(), err)
	}
	return nil
}

// register grants a lease and writes the service record under it.
func (r *EtcdReporter) register(ctx context.Context) error {
	grant, err := r.client.Grant(ctx, int64(r.cfg.LeaseTTL/time.Second))
	if err != nil {
		return fmt.Errorf("grant lease: %w", err)
	}

	rec, err := json.Marshal(ServiceRecord{
		ServiceType:  r.cfg.ServiceType,
		ServiceIndex: r.cfg.ServiceIndex,
		Address:      r.cfg.Address,
		Port:         r.cfg.Port,
		RegisteredAt: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode service record: %w", err)
	}
	if _, err := r.client.Put(ctx, r.ServiceKey(), string(rec), clientv3.WithLease(grant.ID)); err != nil {
		return fmt.Errorf("put %s: %w", r.ServiceKey(), err)
	}

	r.lease = grant.ID
	logging.Ctx(ctx).Info().
		Str("key", r.ServiceKey()).
		Int64("lease", int64(grant.ID)).
		Dur("ttl", r.cfg.LeaseTTL).
		Msg("Registered service")
	return nil
}

// Close revokes the lease, removing both keys, and closes the client.
func (r *EtcdReporter) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var revokeErr error
	if r.lease != clientv3.NoLease {
		if _, err := r.client.Revoke(ctx, r.lease); err != nil {
			revokeErr = fmt.Errorf("revoke lease: %w", err)
		}
		r.lease = clientv3.NoLease
	}
	return errors.Join(revokeErr, r.client.Close())
}
