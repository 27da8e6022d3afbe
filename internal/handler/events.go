// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/carepath/sitecms/internal/editmode"
	"github.com/carepath/sitecms/internal/middleware"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/render"
	"github.com/carepath/sitecms/internal/service"
	"github.com/carepath/sitecms/internal/uikit"
)

const (
	// EventsPerPage is the number of events to display per page.
	EventsPerPage = 25
	// eventsWindow is how many recent events the log view reads.
	eventsWindow = 500
)

// EventsHandler handles event log viewing routes.
type EventsHandler struct {
	events         *service.EventService
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	mode           editmode.Reader
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(events *service.EventService, renderer *render.Renderer, sm *scs.SessionManager, mode editmode.Reader) *EventsHandler {
	return &EventsHandler{
		events:         events,
		renderer:       renderer,
		sessionManager: sm,
		mode:           mode,
	}
}

// EventRow is an event prepared for display.
type EventRow struct {
	model.Event
	Details     string // Formatted metadata as readable text
	DetailsLong bool   // True if details exceed display threshold
}

// detailsLengthThreshold is the max chars before details are collapsible
const detailsLengthThreshold = 80

// formatMetadata converts JSON metadata to readable text format.
// Example: {"path":"/admin/pages","error":"not found"} -> "error: not found, path: /admin/pages"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata // Return as-is if not valid JSON
	}

	if len(data) == 0 {
		return ""
	}

	// Sort keys for consistent output order
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		var strValue string
		switch v := data[key].(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			strValue = strconv.FormatBool(v)
		default:
			// For nested objects, marshal back to JSON
			if b, err := json.Marshal(v); err == nil {
				strValue = string(b)
			}
		}
		parts = append(parts, key+": "+strValue)
	}

	return strings.Join(parts, ", ")
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Events     []EventRow
	Level      string
	Category   string
	Levels     []string
	Categories []string
	Pagination uikit.Pagination
}

// List handles GET /admin/events - displays a paginated list of recent events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")
	category := r.URL.Query().Get("category")

	events, err := h.events.ListEvents(r.Context(), eventsWindow)
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	events = slices.DeleteFunc(events, func(e model.Event) bool {
		return (level != "" && e.Level != level) || (category != "" && e.Category != category)
	})

	pagination := uikit.BuildPagination(uikit.ParsePageParam(r), len(events), EventsPerPage, "/admin/events", r.URL.Query())
	pageEvents := uikit.PageSlice(events, pagination.CurrentPage, EventsPerPage)

	rows := make([]EventRow, len(pageEvents))
	for i, e := range pageEvents {
		details := formatMetadata(e.Metadata)
		rows[i] = EventRow{Event: e, Details: details, DetailsLong: len(details) > detailsLengthThreshold}
	}

	data := EventsListData{
		Events:   rows,
		Level:    level,
		Category: category,
		Levels:   []string{model.EventLevelInfo, model.EventLevelWarning, model.EventLevelError},
		Categories: []string{
			model.EventCategoryAuth,
			model.EventCategoryPage,
			model.EventCategoryNode,
			model.EventCategoryVersion,
			model.EventCategoryScheduler,
			model.EventCategoryCache,
			model.EventCategorySystem,
		},
		Pagination: pagination,
	}

	td := render.TemplateData{
		Title:       "Event log",
		Data:        data,
		KeyName:     middleware.GetKeyName(h.sessionManager, r),
		EditMode:    h.mode.IsEditMode(),
		Breadcrumbs: uikit.Crumbs("Event log", ""),
	}
	if err := h.renderer.Render(w, r, "admin/events", td); err != nil {
		logAndInternalError(w, "failed to render events", "error", err)
	}
}
