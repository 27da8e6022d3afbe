// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// Page is a row of the pages table.
type Page struct {
	ID              int64
	Slug            string
	Title           string
	Description     string
	PageType        string
	Category        string
	MetaDescription string
	FeaturedImage   string
	IsPublished     bool
	Metadata        string
	ScheduledAt     sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       sql.NullTime
}

// ContentNode is a row of the content_nodes table.
type ContentNode struct {
	ID           string
	PageID       int64
	NodeType     string
	Content      string
	DisplayOrder int64
	ParentNodeID sql.NullString
	Metadata     sql.NullString
	Hidden       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PageVersion is a row of the page_versions table.
type PageVersion struct {
	ID              int64
	PageID          int64
	VersionNumber   int64
	Title           string
	PageType        string
	Category        string
	Description     string
	MetaDescription string
	FeaturedImage   string
	IsPublished     bool
	ChangeType      string
	ChangeSummary   string
	CreatedAt       time.Time
}

// ApiKey is a row of the api_keys table.
type ApiKey struct {
	ID          int64
	Name        string
	KeyHash     string
	KeyPrefix   string
	Permissions string
	LastUsedAt  sql.NullTime
	ExpiresAt   sql.NullTime
	IsActive    bool
	CreatedAt   time.Time
}

// Event is a row of the events table.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}
