// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

package probe

import (
	"context"
	"time"

	"github.com/tomtom215/asdmgr/internal/cache"
)

// StatusSource answers the two status checks.
type StatusSource interface {
	IsProcessAlive(ctx context.Context) bool
	IsQueryable(ctx context.Context) bool
}

// CachedStatus memoizes status checks for a short TTL so frequent
// start-status polling does not fork a process per request. The lifecycle
// supervisor must use the uncached Probe.
type CachedStatus struct {
	src   StatusSource
	cache *cache.Cache
}

// NewCachedStatus wraps src. A ttl <= 0 disables caching.
func NewCachedStatus(src StatusSource, ttl time.Duration) StatusSource {
	if ttl <= 0 {
		return src
	}
	return &CachedStatus{src: src, cache: cache.New(ttl)}
}

func (c *CachedStatus) IsProcessAlive(ctx context.Context) bool {
	return c.get(ctx, NameAlive, c.src.IsProcessAlive)
}

func (c *CachedStatus) IsQueryable(ctx context.Context) bool {
	return c.get(ctx, NameQueryable, c.src.IsQueryable)
}

// Invalidate drops both cached results.
func (c *CachedStatus) Invalidate() {
	c.cache.Clear()
}

func (c *CachedStatus) get(ctx context.Context, key string, check func(context.Context) bool) bool {
	if v, ok := c.cache.Get(key); ok {
		return v.(bool)
	}
	result := check(ctx)
	if ctx.Err() == nil {
		c.cache.Set(key, result)
	}
	return result
}
