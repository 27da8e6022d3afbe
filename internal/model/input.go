// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// CreatePageInput is the body of a page creation request.
type CreatePageInput struct {
	Title           string         `json:"title"`
	Slug            string         `json:"slug,omitempty"`
	Description     string         `json:"description,omitempty"`
	PageType        PageType       `json:"pageType,omitempty"`
	Category        string         `json:"category,omitempty"`
	MetaDescription string         `json:"metaDescription,omitempty"`
	FeaturedImage   string         `json:"featuredImage,omitempty"`
	IsPublished     bool           `json:"isPublished,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	ScheduledAt     *time.Time     `json:"scheduledAt,omitempty"`
	ChangeSummary   string         `json:"changeSummary,omitempty"`
}

// UpdatePageInput is a partial page update. Nil fields are left unchanged.
type UpdatePageInput struct {
	Title           *string        `json:"title,omitempty"`
	Slug            *string        `json:"slug,omitempty"`
	Description     *string        `json:"description,omitempty"`
	PageType        *PageType      `json:"pageType,omitempty"`
	Category        *string        `json:"category,omitempty"`
	MetaDescription *string        `json:"metaDescription,omitempty"`
	FeaturedImage   *string        `json:"featuredImage,omitempty"`
	IsPublished     *bool          `json:"isPublished,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	ScheduledAt     *time.Time     `json:"scheduledAt,omitempty"`
	// ClearSchedule removes a pending scheduled publish.
	ClearSchedule bool   `json:"clearSchedule,omitempty"`
	ChangeSummary string `json:"changeSummary,omitempty"`
}

// CreateNodeInput is the body of a node creation request. A nil Content
// gets the type's default content; a nil DisplayOrder appends the node.
type CreateNodeInput struct {
	PageID       int64          `json:"pageId"`
	NodeType     NodeType       `json:"nodeType"`
	Content      Content        `json:"content,omitempty"`
	DisplayOrder *int           `json:"displayOrder,omitempty"`
	ParentNodeID *string        `json:"parentNodeId,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Hidden       bool           `json:"hidden,omitempty"`
}

// UpdateNodeInput is the body of a node update. Only content is accepted.
type UpdateNodeInput struct {
	Content Content `json:"content"`
}
