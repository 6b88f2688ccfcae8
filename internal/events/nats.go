// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// NATSConfig configures a NATSPublisher.
type NATSConfig struct {
	URL string
	// SubjectPrefix is the first subject token. Events go to
	// <prefix>.<service>.<index>.
	SubjectPrefix string
	Service       string
	Index         int
}

// NATSPublisher publishes JSON encoded events on core NATS.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNATSPublisher connects to cfg.URL.
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "asdmgr"
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name("asdmgr-"+cfg.Service+"-"+strconv.Itoa(cfg.Index)),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc, subject: Subject(cfg.SubjectPrefix, cfg.Service, cfg.Index)}, nil
}

// Subject builds the subject events for one instance are published on.
func Subject(prefix, service string, index int) string {
	return prefix + "." + service + "." + strconv.Itoa(index)
}

// Subject returns the subject this publisher writes to.
func (p *NATSPublisher) Subject() string {
	return p.subject
}

// Publish encodes ev and publishes it. A missing ID or Time is filled in.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	_ = p.nc.Drain()
}
