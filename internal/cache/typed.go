// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// TypedCache stores values of T as JSON in a Cacher. Concurrent misses
// on the same key in GetOrSet share one load.
type TypedCache[T any] struct {
	backend Cacher
	ttl     time.Duration
	loads   singleflight.Group

	// mu guards the invalidation counters. A load stores its result only
	// if no Delete or DeletePrefix touched its key while it ran.
	mu    sync.Mutex
	epoch uint64            // bumped by DeletePrefix
	gens  map[string]uint64 // bumped by Delete
}

type generation struct{ epoch, key uint64 }

// NewTypedCache wraps backend. ttl applies to every Set.
func NewTypedCache[T any](backend Cacher, ttl time.Duration) *TypedCache[T] {
	return &TypedCache[T]{backend: backend, ttl: ttl, gens: make(map[string]uint64)}
}

func (c *TypedCache[T]) generation(key string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return generation{epoch: c.epoch, key: c.gens[key]}
}

// Get reports a miss for absent and undecodable entries alike.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var v T
	data, err := c.backend.Get(ctx, key)
	if err != nil {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

func (c *TypedCache[T]) Set(ctx context.Context, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return c.backend.Set(ctx, key, data, c.ttl)
}

// Delete removes keys, stopping at the first error. Loads of these keys
// already running will not store their results.
func (c *TypedCache[T]) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	for _, key := range keys {
		c.gens[key]++
	}
	c.mu.Unlock()

	for _, key := range keys {
		if err := c.backend.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// DeletePrefix removes every key starting with prefix. Running loads of
// any key will not store their results.
func (c *TypedCache[T]) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	c.epoch++
	c.mu.Unlock()
	return c.backend.DeleteByPrefix(ctx, prefix)
}

// GetOrSet returns the cached value or runs load and caches its result.
// Load errors are returned and not cached. A failed store still returns
// the loaded value. A load overtaken by an invalidation of its key
// returns its result without caching it, and callers arriving after the
// invalidation start a fresh load.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}
	gen := c.generation(key)
	flight := fmt.Sprintf("%s#%d.%d", key, gen.epoch, gen.key)
	res, err, _ := c.loads.Do(flight, func() (any, error) {
		v, err := load()
		if err != nil {
			return v, err
		}
		c.storeIfCurrent(ctx, key, gen, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// storeIfCurrent caches v unless key was invalidated since gen. Holding
// mu across the write orders it before any later invalidation.
func (c *TypedCache[T]) storeIfCurrent(ctx context.Context, key string, gen generation, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != gen.epoch || c.gens[key] != gen.key {
		return
	}
	_ = c.Set(ctx, key, v)
}
