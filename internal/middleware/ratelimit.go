// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// maxLimiters bounds each limiter set. Reaching it evicts idle clients.
	maxLimiters = 10000
	// limiterIdle is how long a client must be quiet before eviction.
	limiterIdle = 10 * time.Minute

	msgRateLimited     = "Rate limit exceeded. Please slow down."
	msgRateLimitedHTML = "Too many requests. Please wait a moment and try again."
)

// limiterSet hands out one token bucket per client.
type limiterSet[K comparable] struct {
	mu      sync.Mutex
	clients map[K]*client
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func newLimiterSet[K comparable](rps float64, burst int) *limiterSet[K] {
	return &limiterSet[K]{
		clients: make(map[K]*client),
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
	}
}

// allow takes a token from key's bucket.
func (s *limiterSet[K]) allow(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.clients[key]
	if !ok {
		if len(s.clients) >= maxLimiters {
			s.evictIdleLocked(now)
		}
		c = &client{bucket: rate.NewLimiter(s.limit, s.burst)}
		s.clients[key] = c
	}
	c.lastSeen = now
	return c.bucket.AllowN(now, 1)
}

// evictIdleLocked drops quiet clients, or everyone when no client is idle.
func (s *limiterSet[K]) evictIdleLocked(now time.Time) {
	before := len(s.clients)
	for k, c := range s.clients {
		if now.Sub(c.lastSeen) > limiterIdle {
			delete(s.clients, k)
		}
	}
	if len(s.clients) >= maxLimiters {
		clear(s.clients)
	}
	slog.Debug("rate limiter clients evicted", "before", before, "after", len(s.clients))
}

// APIRateLimit limits each API key to rps with the given burst. It runs
// after APIKeyAuth; requests without a key pass through.
func APIRateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	keys := newLimiterSet[int64](rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey := GetAPIKey(r); apiKey != nil && !keys.allow(apiKey.ID) {
				WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", msgRateLimited, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GlobalRateLimiter limits requests per client IP. The address comes from
// RemoteAddr, which chi's RealIP middleware rewrites behind a proxy.
type GlobalRateLimiter struct {
	ips *limiterSet[string]
}

func NewGlobalRateLimiter(rps float64, burst int) *GlobalRateLimiter {
	return &GlobalRateLimiter{ips: newLimiterSet[string](rps, burst)}
}

// Middleware answers limited requests with a JSON API error.
func (rl *GlobalRateLimiter) Middleware() func(http.Handler) http.Handler {
	return rl.wrap(func(w http.ResponseWriter, _ *http.Request, _ string) {
		WriteAPIError(w, http.StatusTooManyRequests, "rate_limit_exceeded", msgRateLimited, nil)
	})
}

// HTMLMiddleware answers limited requests, such as dashboard sign-in
// attempts, with plain text and logs the client.
func (rl *GlobalRateLimiter) HTMLMiddleware() func(http.Handler) http.Handler {
	return rl.wrap(func(w http.ResponseWriter, r *http.Request, ip string) {
		slog.Warn("public rate limit exceeded", "ip", ip, "path", r.URL.Path)
		http.Error(w, msgRateLimitedHTML, http.StatusTooManyRequests)
	})
}

func (rl *GlobalRateLimiter) wrap(reject func(http.ResponseWriter, *http.Request, string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !rl.ips.allow(ip) {
				reject(w, r, ip)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
