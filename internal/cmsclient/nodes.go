// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmsclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/carepath/sitecms/internal/model"
)

// ListNodes returns the nodes of a page in the order the server sent them.
// The admin scope includes hidden nodes.
func (c *Client) ListNodes(ctx context.Context, scope Scope, pageID int64) ([]model.ContentNode, error) {
	return fetch(ctx, c.queries.nodesCache(), nodesKey(scope, pageID), func() ([]model.ContentNode, error) {
		var nodes []model.ContentNode
		path := fmt.Sprintf("/%s/pages/%d/nodes", scope, pageID)
		if err := c.do(ctx, http.MethodGet, path, scope == ScopeAdmin, nil, &nodes); err != nil {
			return nil, fmt.Errorf("listing nodes of page %d: %w", pageID, err)
		}
		if nodes == nil {
			nodes = []model.ContentNode{}
		}
		return nodes, nil
	})
}

// CreateNode adds a node to a page.
func (c *Client) CreateNode(ctx context.Context, in model.CreateNodeInput) (model.ContentNode, error) {
	var node model.ContentNode
	path := fmt.Sprintf("/admin/pages/%d/nodes", in.PageID)
	if err := c.do(ctx, http.MethodPost, path, true, in, &node); err != nil {
		return model.ContentNode{}, fmt.Errorf("creating %s node: %w", in.NodeType, err)
	}
	c.queries.invalidateNodes(ctx, in.PageID)
	return node, nil
}

// UpdateNodeContent replaces a node's content. pageID scopes cache invalidation.
func (c *Client) UpdateNodeContent(ctx context.Context, pageID int64, nodeID string, content model.Content) (model.ContentNode, error) {
	var node model.ContentNode
	path := "/admin/nodes/" + url.PathEscape(nodeID)
	if err := c.do(ctx, http.MethodPatch, path, true, model.UpdateNodeInput{Content: content}, &node); err != nil {
		return model.ContentNode{}, fmt.Errorf("updating node %s: %w", nodeID, err)
	}
	c.queries.invalidateNodes(ctx, pageID)
	return node, nil
}

// DeleteNode removes a node.
func (c *Client) DeleteNode(ctx context.Context, pageID int64, nodeID string) error {
	path := "/admin/nodes/" + url.PathEscape(nodeID)
	if err := c.do(ctx, http.MethodDelete, path, true, nil, nil); err != nil {
		return fmt.Errorf("deleting node %s: %w", nodeID, err)
	}
	c.queries.invalidateNodes(ctx, pageID)
	return nil
}
