// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/store"
	"github.com/carepath/sitecms/internal/util"
)

// MaxContentBytes bounds the encoded size of a node's content bag.
const MaxContentBytes = 64 << 10

func publicNodesKey(pageID int64) string {
	return fmt.Sprintf("nodes:public:%d", pageID)
}

// ListNodes returns every node of a live page, hidden ones included.
func (s *PageService) ListNodes(ctx context.Context, pageID int64) ([]model.ContentNode, error) {
	if _, err := s.GetPage(ctx, pageID); err != nil {
		return nil, err
	}
	rows, err := s.queries.ListContentNodesByPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("listing nodes of page %d: %w", pageID, err)
	}
	return nodesFromStore(rows), nil
}

// ListPublicNodes returns the visible nodes of a published page. Drafts
// and deleted pages report ErrNotFound.
func (s *PageService) ListPublicNodes(ctx context.Context, pageID int64) ([]model.ContentNode, error) {
	if _, err := s.GetPublishedPage(ctx, pageID); err != nil {
		return nil, err
	}

	load := func() ([]model.ContentNode, error) {
		rows, err := s.queries.ListVisibleContentNodesByPage(ctx, pageID)
		if err != nil {
			return nil, fmt.Errorf("listing public nodes of page %d: %w", pageID, err)
		}
		return nodesFromStore(rows), nil
	}
	if s.nodeCache == nil {
		return load()
	}
	return s.nodeCache.GetOrSet(ctx, publicNodesKey(pageID), load)
}

// CreateNode adds a node to a live page. Missing content gets the type's
// default; a missing display order appends the node.
func (s *PageService) CreateNode(ctx context.Context, in model.CreateNodeInput) (model.ContentNode, error) {
	v := validator{}
	v.check(in.NodeType.Valid(), "nodeType", "Unknown node type")
	v.check(in.DisplayOrder == nil || *in.DisplayOrder >= 0, "displayOrder", "Display order must not be negative")
	if err := v.err(); err != nil {
		return model.ContentNode{}, err
	}

	content := in.Content
	if content == nil {
		content = model.DefaultContent(in.NodeType)
	}
	contentJSON, err := encodeContent(content)
	if err != nil {
		return model.ContentNode{}, err
	}
	metadata, err := nullableJSON(in.Metadata)
	if err != nil {
		return model.ContentNode{}, &ValidationError{Fields: map[string]string{"metadata": "Metadata must be a JSON object"}}
	}

	var created store.ContentNode
	err = store.WithTx(ctx, s.db, func(q *store.Queries) error {
		if _, err := q.GetPageByID(ctx, in.PageID); err != nil {
			return notFound(err, fmt.Sprintf("page %d", in.PageID))
		}

		var order int64
		if in.DisplayOrder != nil {
			order = int64(*in.DisplayOrder)
		} else {
			count, err := q.CountContentNodesByPage(ctx, in.PageID)
			if err != nil {
				return fmt.Errorf("counting nodes: %w", err)
			}
			order = count
		}

		now := s.now()
		var err error
		created, err = q.CreateContentNode(ctx, store.CreateContentNodeParams{
			ID:           uuid.NewString(),
			PageID:       in.PageID,
			NodeType:     string(in.NodeType),
			Content:      contentJSON,
			DisplayOrder: order,
			ParentNodeID: util.NullStringFromPtr(in.ParentNodeID),
			Metadata:     metadata,
			Hidden:       in.Hidden,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("creating node: %w", err)
		}
		return q.TouchPage(ctx, store.TouchPageParams{UpdatedAt: now, ID: in.PageID})
	})
	if err != nil {
		return model.ContentNode{}, err
	}

	s.invalidateNodes(ctx, in.PageID)
	s.logger.Info("content node created", "page_id", in.PageID, "node_id", created.ID, "node_type", in.NodeType)
	return nodeFromStore(created), nil
}

// UpdateNodeContent replaces a node's content and nothing else.
func (s *PageService) UpdateNodeContent(ctx context.Context, nodeID string, content model.Content) (model.ContentNode, error) {
	if content == nil {
		return model.ContentNode{}, &ValidationError{Fields: map[string]string{"content": "Content is required"}}
	}
	contentJSON, err := encodeContent(content)
	if err != nil {
		return model.ContentNode{}, err
	}

	var updated store.ContentNode
	err = store.WithTx(ctx, s.db, func(q *store.Queries) error {
		node, err := s.liveNode(ctx, q, nodeID)
		if err != nil {
			return err
		}

		now := s.now()
		updated, err = q.UpdateContentNodeContent(ctx, store.UpdateContentNodeContentParams{
			Content:   contentJSON,
			UpdatedAt: now,
			ID:        node.ID,
			PageID:    node.PageID,
		})
		if err != nil {
			return notFound(err, fmt.Sprintf("node %s", nodeID))
		}
		return q.TouchPage(ctx, store.TouchPageParams{UpdatedAt: now, ID: node.PageID})
	})
	if err != nil {
		return model.ContentNode{}, err
	}

	s.invalidateNodes(ctx, updated.PageID)
	s.logger.Info("content node updated", "page_id", updated.PageID, "node_id", nodeID)
	return nodeFromStore(updated), nil
}

// DeleteNode removes a node from its page.
func (s *PageService) DeleteNode(ctx context.Context, nodeID string) error {
	var pageID int64
	err := store.WithTx(ctx, s.db, func(q *store.Queries) error {
		node, err := s.liveNode(ctx, q, nodeID)
		if err != nil {
			return err
		}
		pageID = node.PageID

		n, err := q.DeleteContentNode(ctx, store.DeleteContentNodeParams{ID: node.ID, PageID: node.PageID})
		if err != nil {
			return fmt.Errorf("deleting node %s: %w", nodeID, err)
		}
		if n == 0 {
			return fmt.Errorf("node %s: %w", nodeID, ErrNotFound)
		}
		return q.TouchPage(ctx, store.TouchPageParams{UpdatedAt: s.now(), ID: node.PageID})
	})
	if err != nil {
		return err
	}

	s.invalidateNodes(ctx, pageID)
	s.logger.Info("content node deleted", "page_id", pageID, "node_id", nodeID)
	return nil
}

// liveNode loads a node whose page has not been deleted.
func (s *PageService) liveNode(ctx context.Context, q *store.Queries, nodeID string) (store.ContentNode, error) {
	node, err := q.GetContentNodeByID(ctx, nodeID)
	if err != nil {
		return store.ContentNode{}, notFound(err, fmt.Sprintf("node %s", nodeID))
	}
	if _, err := q.GetPageByID(ctx, node.PageID); err != nil {
		return store.ContentNode{}, notFound(err, fmt.Sprintf("page of node %s", nodeID))
	}
	return node, nil
}

func (s *PageService) invalidateNodes(ctx context.Context, pageID int64) {
	if s.nodeCache == nil {
		return
	}
	if err := s.nodeCache.Delete(ctx, publicNodesKey(pageID)); err != nil {
		s.logger.Warn("invalidating node cache failed", "page_id", pageID, "error", err)
	}
}

func encodeContent(c model.Content) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", &ValidationError{Fields: map[string]string{"content": "Content must be a JSON object"}}
	}
	if len(data) > MaxContentBytes {
		return "", &ValidationError{Fields: map[string]string{"content": fmt.Sprintf("Content must be at most %d bytes", MaxContentBytes)}}
	}
	return string(data), nil
}
