// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_Memory(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "memory", cfg.Backend())

	c, err := NewCache(cfg)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, ok := c.(*MemoryCache)
	assert.True(t, ok)
}

func TestNewCache_BadRedisURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisURL = "not-a-url://"
	assert.Equal(t, "redis", cfg.Backend())

	_, err := NewCache(cfg)
	assert.Error(t, err)
}

// skipIfNoRedis skips the test if Redis is not configured.
func skipIfNoRedis(t *testing.T) string {
	url := os.Getenv("SITECMS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: SITECMS_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisCache_Basic(t *testing.T) {
	url := skipIfNoRedis(t)

	cfg := DefaultConfig()
	cfg.RedisURL = url
	cfg.Prefix = "sitecms-test:"
	c, err := NewRedisCache(cfg)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	_ = c.Clear(ctx)

	require.NoError(t, c.Set(ctx, "nodes:public:1", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "nodes:public:1")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	require.NoError(t, c.DeleteByPrefix(ctx, "nodes:"))
	_, err = c.Get(ctx, "nodes:public:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, int64(1), c.Stats().Hits)
}
