// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const pageVersionColumns = `id, page_id, version_number, title, page_type, category, description,
	meta_description, featured_image, is_published, change_type, change_summary, created_at`

func scanPageVersion(row interface{ Scan(...any) error }) (PageVersion, error) {
	var v PageVersion
	err := row.Scan(
		&v.ID,
		&v.PageID,
		&v.VersionNumber,
		&v.Title,
		&v.PageType,
		&v.Category,
		&v.Description,
		&v.MetaDescription,
		&v.FeaturedImage,
		&v.IsPublished,
		&v.ChangeType,
		&v.ChangeSummary,
		&v.CreatedAt,
	)
	return v, err
}

const createPageVersion = `INSERT INTO page_versions (
	page_id, version_number, title, page_type, category, description,
	meta_description, featured_image, is_published, change_type, change_summary, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + pageVersionColumns

// CreatePageVersionParams holds the snapshot columns of a new version.
type CreatePageVersionParams struct {
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

// CreatePageVersion appends a version and returns the stored row.
func (q *Queries) CreatePageVersion(ctx context.Context, arg CreatePageVersionParams) (PageVersion, error) {
	row := q.db.QueryRowContext(ctx, createPageVersion,
		arg.PageID,
		arg.VersionNumber,
		arg.Title,
		arg.PageType,
		arg.Category,
		arg.Description,
		arg.MetaDescription,
		arg.FeaturedImage,
		arg.IsPublished,
		arg.ChangeType,
		arg.ChangeSummary,
		arg.CreatedAt,
	)
	return scanPageVersion(row)
}

const getPageVersion = `SELECT ` + pageVersionColumns + ` FROM page_versions WHERE id = ? AND page_id = ?`

// GetPageVersionParams addresses a version within its page.
type GetPageVersionParams struct {
	ID     int64
	PageID int64
}

// GetPageVersion returns one version of a page.
func (q *Queries) GetPageVersion(ctx context.Context, arg GetPageVersionParams) (PageVersion, error) {
	return scanPageVersion(q.db.QueryRowContext(ctx, getPageVersion, arg.ID, arg.PageID))
}

const listPageVersions = `SELECT ` + pageVersionColumns + `
FROM page_versions WHERE page_id = ?
ORDER BY version_number DESC`

// ListPageVersions lists a page's versions, newest first.
func (q *Queries) ListPageVersions(ctx context.Context, pageID int64) ([]PageVersion, error) {
	rows, err := q.db.QueryContext(ctx, listPageVersions, pageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []PageVersion{}
	for rows.Next() {
		v, err := scanPageVersion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const nextVersionNumber = `SELECT COALESCE(MAX(version_number), 0) + 1 FROM page_versions WHERE page_id = ?`

// NextVersionNumber returns the number the next version of a page will get.
func (q *Queries) NextVersionNumber(ctx context.Context, pageID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, nextVersionNumber, pageID).Scan(&n)
	return n, err
}
