// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"
)

// PageType classifies a page for layout and listing purposes.
type PageType string

// Page types
const (
	PageTypeMarketing PageType = "marketing"
	PageTypeBlog      PageType = "blog"
	PageTypeJob       PageType = "job"
	PageTypeService   PageType = "service"
	PageTypeLegal     PageType = "legal"
)

// AllPageTypes returns all known page types.
func AllPageTypes() []PageType {
	return []PageType{
		PageTypeMarketing,
		PageTypeBlog,
		PageTypeJob,
		PageTypeService,
		PageTypeLegal,
	}
}

// Valid reports whether t is a known page type.
func (t PageType) Valid() bool {
	for _, known := range AllPageTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Page is a top-level content container addressed by its slug.
type Page struct {
	ID              int64          `json:"id"`
	Slug            string         `json:"slug"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	PageType        PageType       `json:"pageType"`
	Category        string         `json:"category"`
	MetaDescription string         `json:"metaDescription"`
	FeaturedImage   string         `json:"featuredImage"`
	IsPublished     bool           `json:"isPublished"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	ScheduledAt     *time.Time     `json:"scheduledAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Snapshot copies the versioned fields of the page.
func (p *Page) Snapshot() PageSnapshot {
	return PageSnapshot{
		Title:           p.Title,
		PageType:        p.PageType,
		Category:        p.Category,
		Description:     p.Description,
		MetaDescription: p.MetaDescription,
		FeaturedImage:   p.FeaturedImage,
		IsPublished:     p.IsPublished,
	}
}

// PageSnapshot holds the page fields captured by a version.
type PageSnapshot struct {
	Title           string   `json:"title"`
	PageType        PageType `json:"pageType"`
	Category        string   `json:"category"`
	Description     string   `json:"description"`
	MetaDescription string   `json:"metaDescription"`
	FeaturedImage   string   `json:"featuredImage"`
	IsPublished     bool     `json:"isPublished"`
}

// ChangeType tags what kind of save produced a page version.
type ChangeType string

// Change types
const (
	ChangeTypeCreate    ChangeType = "create"
	ChangeTypeUpdate    ChangeType = "update"
	ChangeTypePublish   ChangeType = "publish"
	ChangeTypeUnpublish ChangeType = "unpublish"
	ChangeTypeRestore   ChangeType = "restore"
)

// AllChangeTypes returns the change types the server emits.
func AllChangeTypes() []ChangeType {
	return []ChangeType{
		ChangeTypeCreate,
		ChangeTypeUpdate,
		ChangeTypePublish,
		ChangeTypeUnpublish,
		ChangeTypeRestore,
	}
}

// Valid reports whether c is a known change type.
func (c ChangeType) Valid() bool {
	for _, known := range AllChangeTypes() {
		if c == known {
			return true
		}
	}
	return false
}

// PageVersion is an immutable snapshot of a page taken on save.
type PageVersion struct {
	ID            int64      `json:"id"`
	PageID        int64      `json:"pageId"`
	VersionNumber int        `json:"versionNumber"`
	ChangeType    ChangeType `json:"changeType"`
	ChangeSummary string     `json:"changeSummary,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	PageSnapshot
}
