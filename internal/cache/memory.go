// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache is a single-instance Cacher. Values are copied in and out
// so callers may reuse their slices.
type MemoryCache struct {
	counters

	mu      sync.RWMutex
	entries map[string]memoryEntry
	bytes   int64
	closed  bool

	ttl     time.Duration
	maxSize int
	done    chan struct{}
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	// DefaultTTL applies when Set is called with ttl <= 0. Defaults to an hour.
	DefaultTTL time.Duration
	// MaxSize caps the number of entries. Zero means unlimited.
	MaxSize int
	// CleanupInterval enables a background sweep of expired entries.
	CleanupInterval time.Duration
}

// NewMemoryCache creates a memory cache. Close stops the sweeper.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     opts.DefaultTTL,
		maxSize: opts.MaxSize,
		done:    make(chan struct{}),
	}
	if c.ttl <= 0 {
		c.ttl = time.Hour
	}
	if opts.CleanupInterval > 0 {
		go c.sweep(opts.CleanupInterval)
	}
	return c
}

// Get returns a copy of the value stored under key.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrCacheClosed
	}
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	c.hits.Add(1)
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value under key, evicting the entry nearest to
// expiry when the cache is full.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := time.Now()
	e := memoryEntry{value: append([]byte(nil), value...), expiresAt: now.Add(ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}

	if old, ok := c.entries[key]; ok {
		c.bytes -= int64(len(old.value))
	} else if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.dropExpiredLocked(now)
		if len(c.entries) >= c.maxSize {
			c.evictLocked()
		}
	}
	c.entries[key] = e
	c.bytes += int64(len(e.value))
	c.sets.Add(1)
	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.removeLocked(key)
	return nil
}

// DeleteByPrefix removes every key starting with prefix.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			c.removeLocked(key)
		}
	}
	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	clear(c.entries)
	c.bytes = 0
	return nil
}

// Has reports whether key holds an unexpired value.
func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false, ErrCacheClosed
	}
	e, ok := c.entries[key]
	return ok && !time.Now().After(e.expiresAt), nil
}

// Close stops the sweeper. Later calls on the cache return ErrCacheClosed.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

// Stats reports the counters plus the entry count and stored bytes.
func (c *MemoryCache) Stats() Stats {
	s := c.snapshot()
	c.mu.RLock()
	s.Items = len(c.entries)
	s.Size = c.bytes
	c.mu.RUnlock()
	return s
}

func (c *MemoryCache) removeLocked(key string) {
	if e, ok := c.entries[key]; ok {
		c.bytes -= int64(len(e.value))
		delete(c.entries, key)
	}
}

func (c *MemoryCache) dropExpiredLocked(now time.Time) {
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			c.removeLocked(key)
		}
	}
}

func (c *MemoryCache) evictLocked() {
	victim, first := "", true
	var at time.Time
	for key, e := range c.entries {
		if first || e.expiresAt.Before(at) {
			victim, at, first = key, e.expiresAt, false
		}
	}
	if !first {
		c.removeLocked(victim)
	}
}

func (c *MemoryCache) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			c.mu.Lock()
			c.dropExpiredLocked(now)
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

var (
	_ Cacher        = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
