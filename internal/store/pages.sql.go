// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const pageColumns = `id, slug, title, description, page_type, category, meta_description, featured_image,
	is_published, metadata, scheduled_at, created_at, updated_at, deleted_at`

func scanPage(row interface{ Scan(...any) error }) (Page, error) {
	var p Page
	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Title,
		&p.Description,
		&p.PageType,
		&p.Category,
		&p.MetaDescription,
		&p.FeaturedImage,
		&p.IsPublished,
		&p.Metadata,
		&p.ScheduledAt,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.DeletedAt,
	)
	return p, err
}

func (q *Queries) queryPages(ctx context.Context, query string, args ...any) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createPage = `INSERT INTO pages (
	slug, title, description, page_type, category, meta_description, featured_image,
	is_published, metadata, scheduled_at, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + pageColumns

// CreatePageParams holds the columns of a new page.
type CreatePageParams struct {
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
}

// CreatePage inserts a page and returns the stored row.
func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, createPage,
		arg.Slug,
		arg.Title,
		arg.Description,
		arg.PageType,
		arg.Category,
		arg.MetaDescription,
		arg.FeaturedImage,
		arg.IsPublished,
		arg.Metadata,
		arg.ScheduledAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPage(row)
}

const getPageByID = `SELECT ` + pageColumns + ` FROM pages WHERE id = ? AND deleted_at IS NULL`

// GetPageByID returns a live (not soft-deleted) page.
func (q *Queries) GetPageByID(ctx context.Context, id int64) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPageByID, id))
}

const getPageBySlug = `SELECT ` + pageColumns + ` FROM pages WHERE slug = ? AND deleted_at IS NULL`

// GetPageBySlug returns a live page by slug.
func (q *Queries) GetPageBySlug(ctx context.Context, slug string) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPageBySlug, slug))
}

const getPublishedPageBySlug = `SELECT ` + pageColumns + `
FROM pages WHERE slug = ? AND is_published = 1 AND deleted_at IS NULL`

// GetPublishedPageBySlug returns a live, published page by slug.
func (q *Queries) GetPublishedPageBySlug(ctx context.Context, slug string) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPublishedPageBySlug, slug))
}

const listPages = `SELECT ` + pageColumns + `
FROM pages WHERE deleted_at IS NULL
ORDER BY updated_at DESC, id DESC
LIMIT ? OFFSET ?`

// ListPagesParams paginates page listings.
type ListPagesParams struct {
	Limit  int64
	Offset int64
}

// ListPages lists live pages, most recently updated first.
func (q *Queries) ListPages(ctx context.Context, arg ListPagesParams) ([]Page, error) {
	return q.queryPages(ctx, listPages, arg.Limit, arg.Offset)
}

const listPublishedPages = `SELECT ` + pageColumns + `
FROM pages WHERE is_published = 1 AND deleted_at IS NULL
ORDER BY updated_at DESC, id DESC
LIMIT ? OFFSET ?`

// ListPublishedPages lists live, published pages.
func (q *Queries) ListPublishedPages(ctx context.Context, arg ListPagesParams) ([]Page, error) {
	return q.queryPages(ctx, listPublishedPages, arg.Limit, arg.Offset)
}

const listPublishedPagesByType = `SELECT ` + pageColumns + `
FROM pages WHERE is_published = 1 AND deleted_at IS NULL AND page_type = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`

// ListPublishedPagesByTypeParams filters published pages by type.
type ListPublishedPagesByTypeParams struct {
	PageType string
	Limit    int64
}

// ListPublishedPagesByType lists published pages of one type, newest first.
func (q *Queries) ListPublishedPagesByType(ctx context.Context, arg ListPublishedPagesByTypeParams) ([]Page, error) {
	return q.queryPages(ctx, listPublishedPagesByType, arg.PageType, arg.Limit)
}

const countPages = `SELECT COUNT(*) FROM pages WHERE deleted_at IS NULL`

// CountPages counts live pages.
func (q *Queries) CountPages(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPages).Scan(&count)
	return count, err
}

const countPublishedPages = `SELECT COUNT(*) FROM pages WHERE is_published = 1 AND deleted_at IS NULL`

// CountPublishedPages counts live, published pages.
func (q *Queries) CountPublishedPages(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPublishedPages).Scan(&count)
	return count, err
}

const slugExists = `SELECT COUNT(*) FROM pages WHERE slug = ?`

// SlugExists counts pages (including soft-deleted ones) using slug.
func (q *Queries) SlugExists(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, slugExists, slug).Scan(&count)
	return count, err
}

const slugExistsExcluding = `SELECT COUNT(*) FROM pages WHERE slug = ? AND id != ?`

// SlugExistsExcludingParams checks slug uniqueness while editing a page.
type SlugExistsExcludingParams struct {
	Slug string
	ID   int64
}

// SlugExistsExcluding counts other pages using slug.
func (q *Queries) SlugExistsExcluding(ctx context.Context, arg SlugExistsExcludingParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, slugExistsExcluding, arg.Slug, arg.ID).Scan(&count)
	return count, err
}

const updatePage = `UPDATE pages SET
	slug = ?, title = ?, description = ?, page_type = ?, category = ?, meta_description = ?,
	featured_image = ?, is_published = ?, metadata = ?, scheduled_at = ?, updated_at = ?
WHERE id = ? AND deleted_at IS NULL
RETURNING ` + pageColumns

// UpdatePageParams replaces the editable columns of a page.
type UpdatePageParams struct {
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
	UpdatedAt       time.Time
	ID              int64
}

// UpdatePage writes all editable columns and returns the stored row.
func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, updatePage,
		arg.Slug,
		arg.Title,
		arg.Description,
		arg.PageType,
		arg.Category,
		arg.MetaDescription,
		arg.FeaturedImage,
		arg.IsPublished,
		arg.Metadata,
		arg.ScheduledAt,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPage(row)
}

const touchPage = `UPDATE pages SET updated_at = ? WHERE id = ?`

// TouchPageParams bumps a page's updated_at.
type TouchPageParams struct {
	UpdatedAt time.Time
	ID        int64
}

// TouchPage records that something under the page changed.
func (q *Queries) TouchPage(ctx context.Context, arg TouchPageParams) error {
	_, err := q.db.ExecContext(ctx, touchPage, arg.UpdatedAt, arg.ID)
	return err
}

const softDeletePage = `UPDATE pages SET deleted_at = ?, is_published = 0, updated_at = ?
WHERE id = ? AND deleted_at IS NULL`

// SoftDeletePageParams marks a page deleted.
type SoftDeletePageParams struct {
	DeletedAt time.Time
	ID        int64
}

// SoftDeletePage hides a page without removing its versions or nodes.
// It reports the number of affected rows.
func (q *Queries) SoftDeletePage(ctx context.Context, arg SoftDeletePageParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, softDeletePage, arg.DeletedAt, arg.DeletedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listScheduledPagesForPublishing = `SELECT ` + pageColumns + `
FROM pages
WHERE is_published = 0 AND deleted_at IS NULL AND scheduled_at IS NOT NULL AND scheduled_at <= ?
ORDER BY scheduled_at ASC`

// ListScheduledPagesForPublishing lists drafts whose scheduled time has passed.
func (q *Queries) ListScheduledPagesForPublishing(ctx context.Context, now time.Time) ([]Page, error) {
	return q.queryPages(ctx, listScheduledPagesForPublishing, now)
}
