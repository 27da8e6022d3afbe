// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/carepath/sitecms/internal/cache"
	"github.com/carepath/sitecms/internal/middleware"
	"github.com/carepath/sitecms/internal/scheduler"
	"github.com/carepath/sitecms/internal/version"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	checkTimeout    = 2 * time.Second
)

// pinger is implemented by cache backends that can report connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// JobLister reports the background jobs. *scheduler.Scheduler satisfies it.
type JobLister interface {
	Jobs() []scheduler.JobInfo
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	cache     cache.Cacher
	sm        *scs.SessionManager
	jobs      JobLister
	version   version.Info
	startTime time.Time
}

// NewHealthHandler creates a new health handler. cacher may be nil.
func NewHealthHandler(db *sql.DB, cacher cache.Cacher, sm *scs.SessionManager, info version.Info) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     cacher,
		sm:        sm,
		version:   info,
		startTime: time.Now(),
	}
}

// WithJobs adds the scheduler jobs to verbose health output.
func (h *HealthHandler) WithJobs(jobs JobLister) *HealthHandler {
	h.jobs = jobs
	return h
}

// HealthStatusPublic is the minimal health response for anonymous callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus represents the overall health status (signed-in editors only).
type HealthStatus struct {
	Status    string              `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
	Uptime    string              `json:"uptime"`
	Version   string              `json:"version"`
	Checks    map[string]Check    `json:"checks"`
	System    *SystemInfo         `json:"system,omitempty"`
	Jobs      []scheduler.JobInfo `json:"jobs,omitempty"`
	Cache     *cache.Stats        `json:"cache_stats,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
}

// Health handles GET /health. Anonymous callers get the overall status
// only; signed-in editors also get the individual checks.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{"database": h.checkDatabase(r.Context())}
	if h.cache != nil {
		checks["cache"] = h.checkCache(r.Context())
	}

	overall := statusHealthy
	for _, c := range checks {
		if c.Status != statusHealthy {
			overall = "degraded"
		}
	}

	code := http.StatusOK
	if overall != statusHealthy {
		code = http.StatusServiceUnavailable
	}

	if !h.isSignedIn(r) {
		writeHealthJSON(w, code, HealthStatusPublic{Status: overall})
		return
	}

	status := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version.Version,
		Checks:    checks,
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = &SystemInfo{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
		}
		if h.jobs != nil {
			status.Jobs = h.jobs.Jobs()
		}
		if sp, ok := h.cache.(cache.StatsProvider); ok {
			stats := sp.Stats()
			status.Cache = &stats
		}
	}
	writeHealthJSON(w, code, status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready - checks if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if db := h.checkDatabase(r.Context()); db.Status != statusHealthy {
		writeHealthJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// isSignedIn reports whether the request carries a dashboard session.
// Returns false (without panicking) if session data is not loaded into context.
func (h *HealthHandler) isSignedIn(r *http.Request) (signedIn bool) {
	if h.sm == nil {
		return false
	}
	defer func() {
		if rec := recover(); rec != nil {
			signedIn = false
		}
	}()
	return h.sm.GetString(r.Context(), middleware.SessionKeyAPIKey) != ""
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		return Check{Status: statusUnhealthy, Message: err.Error()}
	}

	var n int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&n); err != nil {
		return Check{Status: statusUnhealthy, Message: "query failed: " + err.Error()}
	}
	return Check{Status: statusHealthy, Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkCache(ctx context.Context) Check {
	p, ok := h.cache.(pinger)
	if !ok {
		return Check{Status: statusHealthy, Message: "in-memory"}
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return Check{Status: statusUnhealthy, Message: err.Error()}
	}
	return Check{Status: statusHealthy, Latency: time.Since(start).String()}
}

func writeHealthJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
