// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes one precomputed result set.
//
// At most one computation runs at a time: concurrent callers that miss share
// the in-flight computation through singleflight. The value is published
// only once complete, so readers never observe a partial set. A computation
// that started before Invalidate is handed to its waiters but not stored;
// callers arriving after Invalidate start a new flight, which waits for the
// old computation to finish before computing.
type Cache[T any] struct {
	name    string
	compute func() *T
	ttl     time.Duration
	now     func() time.Time

	mu         sync.RWMutex
	value      *T
	computedAt time.Time
	generation uint64
	flight     singleflight.Group
	computing  sync.Mutex

	hits         atomic.Int64
	misses       atomic.Int64
	computations atomic.Int64
}

type cacheOptions struct {
	ttl time.Duration
	now func() time.Time
}

type CacheOption func(*cacheOptions)

// WithTTL makes entries stale after ttl. Zero keeps them until Invalidate.
func WithTTL(ttl time.Duration) CacheOption {
	return func(o *cacheOptions) {
		o.ttl = ttl
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(o *cacheOptions) {
		o.now = now
	}
}

func NewCache[T any](name string, compute func() *T, opts ...CacheOption) *Cache[T] {
	o := cacheOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[T]{
		name:    name,
		compute: compute,
		ttl:     o.ttl,
		now:     o.now,
	}
}

// GetOrCompute returns the cached value, computing it on first use or after
// invalidation/expiry.
func (c *Cache[T]) GetOrCompute() *T {
	if v, ok := c.load(); ok {
		c.hits.Add(1)
		cacheHits.WithLabelValues(c.name).Inc()
		return v
	}
	c.misses.Add(1)
	cacheMisses.WithLabelValues(c.name).Inc()

	res, _, _ := c.flight.Do(c.name, func() (interface{}, error) {
		// A flight forgotten by Invalidate may still be computing
		c.computing.Lock()
		defer c.computing.Unlock()

		// A flight that finished just before this one may have stored it
		if v, ok := c.load(); ok {
			return v, nil
		}

		c.mu.RLock()
		gen := c.generation
		c.mu.RUnlock()

		start := time.Now()
		v := c.compute()
		elapsed := time.Since(start)

		c.mu.Lock()
		stored := c.generation == gen
		if stored {
			c.value = v
			c.computedAt = c.now()
		}
		c.mu.Unlock()

		c.computations.Add(1)
		cacheComputations.WithLabelValues(c.name).Inc()
		computeDuration.WithLabelValues(c.name).Observe(elapsed.Seconds())
		slog.Info("result set computed", "result_set", c.name,
			"duration_ms", elapsed.Milliseconds(), "stored", stored)

		return v, nil
	})

	return res.(*T)
}

// Peek returns the cached value without computing it.
func (c *Cache[T]) Peek() (*T, bool) {
	return c.load()
}

// Invalidate drops the cached value. The next GetOrCompute recomputes.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	c.value = nil
	c.computedAt = time.Time{}
	c.generation++
	c.mu.Unlock()

	// New callers must not join a flight that started before the reset
	c.flight.Forget(c.name)
	cacheInvalidations.WithLabelValues(c.name).Inc()
}

// CacheStats is a snapshot of a cache's counters.
type CacheStats struct {
	Name         string
	Computed     bool
	ComputedAt   time.Time
	Hits         int64
	Misses       int64
	Computations int64
}

func (c *Cache[T]) Stats() CacheStats {
	c.mu.RLock()
	computed := c.value != nil && !c.expiredLocked()
	at := c.computedAt
	c.mu.RUnlock()

	return CacheStats{
		Name:         c.name,
		Computed:     computed,
		ComputedAt:   at,
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Computations: c.computations.Load(),
	}
}

func (c *Cache[T]) load() (*T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.value == nil || c.expiredLocked() {
		return nil, false
	}
	return c.value, true
}

// expiredLocked requires c.mu to be held.
func (c *Cache[T]) expiredLocked() bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(c.computedAt) >= c.ttl
}
