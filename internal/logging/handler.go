// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that copies WARN and ERROR
// records into the database-backed event log shown on the dashboard.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/store"
)

// categoryAttr names the attribute that sets an event's category
// explicitly. It is not copied into the metadata.
const categoryAttr = "category"

// categoryKeywords maps message keywords to event categories. The first
// matching row wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{model.EventCategoryAuth, []string{"api key", "auth", "csrf", "cross-site", "sign-in"}},
	{model.EventCategoryVersion, []string{"version", "restore"}},
	{model.EventCategoryNode, []string{"node", "content"}},
	{model.EventCategoryPage, []string{"page"}},
	{model.EventCategoryScheduler, []string{"schedul"}},
	{model.EventCategoryCache, []string{"cache", "redis"}},
}

// EventLogHandler passes every record to the wrapped handler and also
// stores records at or above its level as events.
type EventLogHandler struct {
	next    slog.Handler
	queries *store.Queries
	level   slog.Level

	// fields holds the WithAttrs attributes flattened to "group.key".
	fields map[string]string
	groups []string
	cat    string
}

// NewEventLogHandler stores WARN and above.
func NewEventLogHandler(next slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(next, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel stores records at level and above.
func NewEventLogHandlerWithLevel(next slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{next: next, queries: store.New(db), level: level}
}

func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level < h.level {
		return nil
	}

	fields := make(map[string]string, len(h.fields)+r.NumAttrs())
	for k, v := range h.fields {
		fields[k] = v
	}
	cat := h.cat
	r.Attrs(func(a slog.Attr) bool {
		if c, ok := categoryOf(a, h.groups); ok {
			cat = c
			return true
		}
		flatten(fields, h.groups, a)
		return true
	})
	if cat == "" {
		cat = inferCategory(r.Message)
	}

	// Background context: the event must outlive a cancelled request.
	_ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  cat,
		Message:   r.Message,
		Metadata:  encodeMetadata(fields),
		CreatedAt: r.Time.UTC(),
	})
	return nil
}

func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	child := h.clone()
	child.next = h.next.WithAttrs(attrs)
	for _, a := range attrs {
		if c, ok := categoryOf(a, h.groups); ok {
			child.cat = c
			continue
		}
		flatten(child.fields, h.groups, a)
	}
	return child
}

func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	child := h.clone()
	child.next = h.next.WithGroup(name)
	child.groups = append(child.groups, name)
	return child
}

func (h *EventLogHandler) clone() *EventLogHandler {
	c := *h
	c.fields = make(map[string]string, len(h.fields))
	for k, v := range h.fields {
		c.fields[k] = v
	}
	c.groups = append([]string(nil), h.groups...)
	return &c
}

// categoryOf reports a top-level "category" attribute.
func categoryOf(a slog.Attr, groups []string) (string, bool) {
	if len(groups) > 0 || a.Key != categoryAttr {
		return "", false
	}
	return a.Value.Resolve().String(), true
}

// flatten writes a into fields, joining group names with dots.
func flatten(fields map[string]string, groups []string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			groups = append(groups[:len(groups):len(groups)], a.Key)
		}
		for _, member := range v.Group() {
			flatten(fields, groups, member)
		}
		return
	}
	if a.Key == "" {
		return
	}
	fields[strings.Join(append(groups[:len(groups):len(groups)], a.Key), ".")] = v.String()
}

func inferCategory(message string) string {
	msg := strings.ToLower(message)
	for _, row := range categoryKeywords {
		for _, kw := range row.keywords {
			if strings.Contains(msg, kw) {
				return row.category
			}
		}
	}
	return model.EventCategorySystem
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

func encodeMetadata(fields map[string]string) string {
	if len(fields) == 0 {
		return "{}"
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(data)
}
