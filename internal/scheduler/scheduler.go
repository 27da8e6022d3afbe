// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the background cron jobs: publishing pages
// whose scheduled time has passed and pruning the event log.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/carepath/sitecms/internal/model"
)

// Job names
const (
	JobPublishScheduled = "publish-scheduled"
	JobPruneEvents      = "prune-events"
)

// Default schedules
const (
	PublishSchedule = "* * * * *" // every minute
	PruneSchedule   = "0 3 * * *" // daily at 03:00
)

// jobTimeout bounds a single job run.
const jobTimeout = 5 * time.Minute

// Publisher publishes pages whose scheduled time is at or before now.
// *service.PageService satisfies it.
type Publisher interface {
	PublishScheduled(ctx context.Context, now time.Time) (int, error)
}

// EventLog records and prunes events. *service.EventService satisfies it.
type EventLog interface {
	LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) error
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Options configures a Scheduler.
type Options struct {
	// Retention is how long events are kept. Zero disables pruning.
	Retention time.Duration
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"lastRun,omitzero"`
	NextRun     time.Time `json:"nextRun,omitzero"`
}

type registeredJob struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         func(ctx context.Context) error
}

// Scheduler handles scheduled tasks like publishing pages.
type Scheduler struct {
	pages   Publisher
	events  EventLog
	opts    Options
	cron    *cron.Cron
	logger  *slog.Logger
	now     func() time.Time
	mu      sync.RWMutex
	jobs    map[string]*registeredJob
	started bool
}

// New creates a new scheduler instance. events may be nil.
func New(pages Publisher, events EventLog, opts Options, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		pages:  pages,
		events: events,
		opts:   opts,
		cron: cron.New(cron.WithLocation(time.UTC), cron.WithChain(
			cron.Recover(cron.DiscardLogger),
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		logger: logger,
		now:    time.Now,
		jobs:   make(map[string]*registeredJob),
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	if err := s.register(JobPublishScheduled, "Publish pages whose scheduled time has passed", PublishSchedule, s.publishScheduled); err != nil {
		return err
	}
	if s.opts.Retention > 0 && s.events != nil {
		if err := s.register(JobPruneEvents, "Delete events older than the retention period", PruneSchedule, s.pruneEvents); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.started = true
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// register adds a job to the cron instance. The caller holds s.mu.
func (s *Scheduler) register(name, description, schedule string, run func(ctx context.Context) error) error {
	job := &registeredJob{name: name, description: description, schedule: schedule, run: run}
	entryID, err := s.cron.AddFunc(schedule, func() { s.runJob(job) })
	if err != nil {
		return fmt.Errorf("registering job %s: %w", name, err)
	}
	job.entryID = entryID
	s.jobs[name] = job
	s.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

func (s *Scheduler) runJob(job *registeredJob) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if err := job.run(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", job.name, "error", err)
	}
}

// Stop gracefully stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Jobs returns the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, job := range s.jobs {
		entry := s.cron.Entry(job.entryID)
		result = append(result, JobInfo{
			Name:        job.name,
			Description: job.description,
			Schedule:    job.schedule,
			LastRun:     entry.Prev,
			NextRun:     entry.Next,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// RunNow executes a registered job immediately and returns its error.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("job not found: %s", name)
	}

	s.logger.Info("manually triggering job", "name", name)
	return job.run(ctx)
}

// publishScheduled publishes due pages and records the run in the event log.
func (s *Scheduler) publishScheduled(ctx context.Context) error {
	now := s.now()
	n, err := s.pages.PublishScheduled(ctx, now)
	if err != nil {
		return fmt.Errorf("publishing scheduled pages: %w", err)
	}
	if n == 0 {
		return nil
	}

	s.logger.Info("published scheduled pages", "count", n)
	s.logEvent(ctx, model.EventLevelInfo, "Scheduled pages published", map[string]any{
		"count":        n,
		"published_at": now.UTC().Format(time.RFC3339),
	})
	return nil
}

func (s *Scheduler) pruneEvents(ctx context.Context) error {
	n, err := s.events.DeleteOldEvents(ctx, s.opts.Retention)
	if err != nil {
		return fmt.Errorf("pruning events: %w", err)
	}
	s.logger.Info("pruned old events", "deleted", n, "retention", s.opts.Retention.String())
	return nil
}

func (s *Scheduler) logEvent(ctx context.Context, level, message string, metadata map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.LogEvent(ctx, level, model.EventCategoryScheduler, message, metadata); err != nil {
		s.logger.Warn("failed to log scheduler event", "error", err)
	}
}
