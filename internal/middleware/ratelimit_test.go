// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/carepath/sitecms/internal/model"
)

func TestAPIRateLimit(t *testing.T) {
	handler := APIRateLimit(1, 2)(simpleOKHandler)

	t.Run("no key is not limited", func(t *testing.T) {
		for range 5 {
			assert.Equal(t, http.StatusOK, executeAuthRequest(handler, "").Code)
		}
	})

	t.Run("per key buckets", func(t *testing.T) {
		first := &model.APIKey{ID: 1}
		second := &model.APIKey{ID: 2}

		assert.Equal(t, http.StatusOK, executeWithAPIKey(handler, first).Code)
		assert.Equal(t, http.StatusOK, executeWithAPIKey(handler, first).Code)
		w := executeWithAPIKey(handler, first)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "rate_limit_exceeded", decodeAPIError(t, w).Error.Code)

		assert.Equal(t, http.StatusOK, executeWithAPIKey(handler, second).Code)
	})
}

func TestGlobalRateLimiter(t *testing.T) {
	request := func(h http.Handler, remote string, headers map[string]string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/public/pages", nil)
		req.RemoteAddr = remote
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("json middleware", func(t *testing.T) {
		h := NewGlobalRateLimiter(1, 1).Middleware()(simpleOKHandler)
		assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1234", nil))
		assert.Equal(t, http.StatusTooManyRequests, request(h, "10.0.0.1:5678", nil), "same host, other port")
		assert.Equal(t, http.StatusOK, request(h, "10.0.0.2:1234", nil))
	})

	t.Run("html middleware", func(t *testing.T) {
		h := NewGlobalRateLimiter(1, 1).HTMLMiddleware()(simpleOKHandler)
		assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1234", nil))
		code := request(h, "10.0.0.1:1234", nil)
		assert.Equal(t, http.StatusTooManyRequests, code)
	})

	t.Run("behind RealIP", func(t *testing.T) {
		h := chimw.RealIP(NewGlobalRateLimiter(1, 1).Middleware()(simpleOKHandler))
		proxy := "192.168.1.1:80"
		assert.Equal(t, http.StatusOK, request(h, proxy, map[string]string{"X-Real-IP": "203.0.113.5"}))
		assert.Equal(t, http.StatusTooManyRequests, request(h, proxy, map[string]string{"X-Real-IP": "203.0.113.5"}))
		assert.Equal(t, http.StatusOK, request(h, proxy, map[string]string{"X-Real-IP": "203.0.113.6"}))
	})
}

func TestLimiterSetEvictsIdleClients(t *testing.T) {
	set := newLimiterSet[int](1, 1)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	set.now = func() time.Time { return clock }

	for i := range maxLimiters {
		set.allow(i)
	}
	assert.False(t, set.allow(0), "bucket of client 0 is empty")

	clock = clock.Add(limiterIdle + time.Second)
	set.allow(-1)
	assert.Len(t, set.clients, 1, "every quiet client was evicted")
	assert.True(t, set.allow(0), "evicted client starts with a fresh bucket")
}

func TestClientIP(t *testing.T) {
	for remote, want := range map[string]string{
		"198.51.100.7:4000": "198.51.100.7",
		"198.51.100.7":      "198.51.100.7",
		"[2001:db8::1]:443": "2001:db8::1",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		assert.Equal(t, want, clientIP(req), remote)
	}
}
