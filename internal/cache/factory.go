// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"fmt"
	"time"
)

// Config selects and configures a cache backend.
type Config struct {
	// RedisURL enables the Redis backend when set.
	RedisURL string
	// Prefix namespaces Redis keys.
	Prefix          string
	DefaultTTL      time.Duration
	MaxSize         int
	CleanupInterval time.Duration
}

// DefaultConfig returns an in-memory configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:          "sitecms:",
		DefaultTTL:      5 * time.Minute,
		MaxSize:         10000,
		CleanupInterval: time.Minute,
	}
}

// Backend returns "redis" or "memory" depending on cfg.
func (cfg Config) Backend() string {
	if cfg.RedisURL != "" {
		return "redis"
	}
	return "memory"
}

// NewCache builds the backend described by cfg.
func NewCache(cfg Config) (Cacher, error) {
	if cfg.RedisURL != "" {
		rc, err := NewRedisCache(cfg)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis cache: %w", err)
		}
		return rc, nil
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	}), nil
}
