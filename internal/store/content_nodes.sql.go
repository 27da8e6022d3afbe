// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const contentNodeColumns = `id, page_id, node_type, content, display_order, parent_node_id, metadata, hidden, created_at, updated_at`

func scanContentNode(row interface{ Scan(...any) error }) (ContentNode, error) {
	var n ContentNode
	err := row.Scan(
		&n.ID,
		&n.PageID,
		&n.NodeType,
		&n.Content,
		&n.DisplayOrder,
		&n.ParentNodeID,
		&n.Metadata,
		&n.Hidden,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	return n, err
}

func (q *Queries) queryContentNodes(ctx context.Context, query string, args ...any) ([]ContentNode, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []ContentNode{}
	for rows.Next() {
		n, err := scanContentNode(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createContentNode = `INSERT INTO content_nodes (
	id, page_id, node_type, content, display_order, parent_node_id, metadata, hidden, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + contentNodeColumns

// CreateContentNodeParams holds the columns of a new content node.
type CreateContentNodeParams struct {
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

// CreateContentNode inserts a node and returns the stored row.
func (q *Queries) CreateContentNode(ctx context.Context, arg CreateContentNodeParams) (ContentNode, error) {
	row := q.db.QueryRowContext(ctx, createContentNode,
		arg.ID,
		arg.PageID,
		arg.NodeType,
		arg.Content,
		arg.DisplayOrder,
		arg.ParentNodeID,
		arg.Metadata,
		arg.Hidden,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanContentNode(row)
}

const getContentNode = `SELECT ` + contentNodeColumns + ` FROM content_nodes WHERE id = ? AND page_id = ?`

// GetContentNodeParams addresses a node within its page.
type GetContentNodeParams struct {
	ID     string
	PageID int64
}

// GetContentNode returns a single node of a page.
func (q *Queries) GetContentNode(ctx context.Context, arg GetContentNodeParams) (ContentNode, error) {
	return scanContentNode(q.db.QueryRowContext(ctx, getContentNode, arg.ID, arg.PageID))
}

const getContentNodeByID = `SELECT ` + contentNodeColumns + ` FROM content_nodes WHERE id = ?`

// GetContentNodeByID returns a node by its id alone.
func (q *Queries) GetContentNodeByID(ctx context.Context, id string) (ContentNode, error) {
	return scanContentNode(q.db.QueryRowContext(ctx, getContentNodeByID, id))
}

// Rows come back in insertion order; callers sort by display_order
// themselves so ties keep the order the store returned them in.
const listContentNodesByPage = `SELECT ` + contentNodeColumns + `
FROM content_nodes WHERE page_id = ?
ORDER BY created_at ASC, rowid ASC`

// ListContentNodesByPage lists every node of a page.
func (q *Queries) ListContentNodesByPage(ctx context.Context, pageID int64) ([]ContentNode, error) {
	return q.queryContentNodes(ctx, listContentNodesByPage, pageID)
}

const listVisibleContentNodesByPage = `SELECT ` + contentNodeColumns + `
FROM content_nodes WHERE page_id = ? AND hidden = 0
ORDER BY created_at ASC, rowid ASC`

// ListVisibleContentNodesByPage lists the nodes of a page that are not hidden.
func (q *Queries) ListVisibleContentNodesByPage(ctx context.Context, pageID int64) ([]ContentNode, error) {
	return q.queryContentNodes(ctx, listVisibleContentNodesByPage, pageID)
}

const countContentNodesByPage = `SELECT COUNT(*) FROM content_nodes WHERE page_id = ?`

// CountContentNodesByPage counts the nodes of a page.
func (q *Queries) CountContentNodesByPage(ctx context.Context, pageID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countContentNodesByPage, pageID).Scan(&count)
	return count, err
}

const updateContentNodeContent = `UPDATE content_nodes SET content = ?, updated_at = ?
WHERE id = ? AND page_id = ?
RETURNING ` + contentNodeColumns

// UpdateContentNodeContentParams replaces a node's content bag.
type UpdateContentNodeContentParams struct {
	Content   string
	UpdatedAt time.Time
	ID        string
	PageID    int64
}

// UpdateContentNodeContent writes a node's content and returns the stored row.
func (q *Queries) UpdateContentNodeContent(ctx context.Context, arg UpdateContentNodeContentParams) (ContentNode, error) {
	row := q.db.QueryRowContext(ctx, updateContentNodeContent, arg.Content, arg.UpdatedAt, arg.ID, arg.PageID)
	return scanContentNode(row)
}

const deleteContentNode = `DELETE FROM content_nodes WHERE id = ? AND page_id = ?`

// DeleteContentNodeParams addresses a node within its page.
type DeleteContentNodeParams struct {
	ID     string
	PageID int64
}

// DeleteContentNode removes a node and reports the number of deleted rows.
func (q *Queries) DeleteContentNode(ctx context.Context, arg DeleteContentNodeParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteContentNode, arg.ID, arg.PageID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
