// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	ID    string `json:"id"`
	Order int    `json:"displayOrder"`
}

func TestTypedCache_SetGet(t *testing.T) {
	c := NewTypedCache[[]testNode](newTestMemoryCache(t, MemoryCacheOptions{}), time.Hour)
	ctx := context.Background()

	nodes := []testNode{{ID: "a", Order: 0}, {ID: "b", Order: 1}}
	require.NoError(t, c.Set(ctx, "nodes:public:1", nodes))

	got, ok := c.Get(ctx, "nodes:public:1")
	require.True(t, ok)
	assert.Equal(t, nodes, got)

	require.NoError(t, c.Delete(ctx, "nodes:public:1"))
	_, ok = c.Get(ctx, "nodes:public:1")
	assert.False(t, ok)
}

func TestTypedCache_UndecodableIsMiss(t *testing.T) {
	mem := newTestMemoryCache(t, MemoryCacheOptions{})
	require.NoError(t, mem.Set(context.Background(), "k", []byte("not json"), 0))

	c := NewTypedCache[testNode](mem, time.Hour)
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestTypedCache_GetOrSet(t *testing.T) {
	c := NewTypedCache[testNode](newTestMemoryCache(t, MemoryCacheOptions{}), time.Hour)
	ctx := context.Background()

	calls := 0
	load := func() (testNode, error) {
		calls++
		return testNode{ID: "x"}, nil
	}

	for range 3 {
		got, err := c.GetOrSet(ctx, "k", load)
		require.NoError(t, err)
		assert.Equal(t, "x", got.ID)
	}
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err := c.GetOrSet(ctx, "other", func() (testNode, error) { return testNode{}, boom })
	assert.ErrorIs(t, err, boom)
	_, ok := c.Get(ctx, "other")
	assert.False(t, ok, "errors are not cached")
}

func TestTypedCache_GetOrSetSharesConcurrentLoads(t *testing.T) {
	c := NewTypedCache[testNode](newTestMemoryCache(t, MemoryCacheOptions{}), time.Hour)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func() (testNode, error) {
		calls.Add(1)
		<-release
		return testNode{ID: "shared"}, nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.GetOrSet(ctx, "nodes:public:9", load)
			assert.NoError(t, err)
			assert.Equal(t, "shared", got.ID)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestTypedCache_DeletePrefix(t *testing.T) {
	c := NewTypedCache[testNode](newTestMemoryCache(t, MemoryCacheOptions{}), time.Hour)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "versions:1", testNode{ID: "1"}))
	require.NoError(t, c.Set(ctx, "versions:2", testNode{ID: "2"}))
	require.NoError(t, c.DeletePrefix(ctx, "versions:"))

	_, ok := c.Get(ctx, "versions:2")
	assert.False(t, ok)
}

func TestTypedCache_InvalidationDuringLoad(t *testing.T) {
	c := NewTypedCache[string](newTestMemoryCache(t, MemoryCacheOptions{}), time.Hour)
	ctx := context.Background()
	const key = "nodes:admin:1"

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan string)
	go func() {
		v, err := c.GetOrSet(ctx, key, func() (string, error) {
			close(started)
			<-release
			return "before-mutation", nil
		})
		assert.NoError(t, err)
		done <- v
	}()

	<-started
	require.NoError(t, c.Delete(ctx, key))
	close(release)
	assert.Equal(t, "before-mutation", <-done, "the overtaken caller still gets its own result")

	_, ok := c.Get(ctx, key)
	assert.False(t, ok, "an overtaken load is not cached")

	got, err := c.GetOrSet(ctx, key, func() (string, error) { return "after-mutation", nil })
	require.NoError(t, err)
	assert.Equal(t, "after-mutation", got)
}

func TestTypedCache_InvalidatedCallersStartFreshLoad(t *testing.T) {
	c := NewTypedCache[string](newTestMemoryCache(t, MemoryCacheOptions{}), time.Hour)
	ctx := context.Background()
	const key = "versions:4"

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.GetOrSet(ctx, key, func() (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()

	<-started
	require.NoError(t, c.DeletePrefix(ctx, "versions:"))
	got, err := c.GetOrSet(ctx, key, func() (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", got, "a caller after the invalidation does not join the old load")

	close(release)
	wg.Wait()
	cached, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "fresh", cached)
}
