// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepath/sitecms/internal/model"
)

func TestCreateNodeDefaults(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := createPage(t, s, "Home", true)

	first, err := s.CreateNode(ctx, model.CreateNodeInput{PageID: p.ID, NodeType: model.NodeTypeHeading})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 0, first.DisplayOrder)
	assert.Equal(t, model.Content{"text": "New Heading", "level": "h2"}, first.Content)

	second, err := s.CreateNode(ctx, model.CreateNodeInput{
		PageID:   p.ID,
		NodeType: model.NodeTypeParagraph,
		Content:  model.Content{"text": "Hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, second.DisplayOrder, "appended after the existing node")
	assert.NotEqual(t, first.ID, second.ID)

	nodes, err := s.ListNodes(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, model.Content{"text": "Hello"}, nodes[1].Content)
}

func TestCreateNodeValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := createPage(t, s, "Home", true)

	_, err := s.CreateNode(ctx, model.CreateNodeInput{PageID: p.ID, NodeType: "video"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "nodeType")

	order := -1
	_, err = s.CreateNode(ctx, model.CreateNodeInput{PageID: p.ID, NodeType: model.NodeTypeList, DisplayOrder: &order})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "displayOrder")

	_, err = s.CreateNode(ctx, model.CreateNodeInput{
		PageID: p.ID, NodeType: model.NodeTypeRichText,
		Content: model.Content{"html": strings.Repeat("x", MaxContentBytes)},
	})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "content")

	_, err = s.CreateNode(ctx, model.CreateNodeInput{PageID: 4242, NodeType: model.NodeTypeList})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateNodeTouchesPage(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := createPage(t, s, "Home", true)

	_, err := s.CreateNode(ctx, model.CreateNodeInput{PageID: p.ID, NodeType: model.NodeTypeButton})
	require.NoError(t, err)

	after, err := s.GetPage(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, after.UpdatedAt.Before(p.UpdatedAt))

	versions, err := s.ListVersions(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1, "node edits do not add page versions")
}

func TestUpdateNodeContentOnlyChangesContent(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := createPage(t, s, "Home", true)
	parent := "section-1"
	order := 5
	n, err := s.CreateNode(ctx, model.CreateNodeInput{
		PageID: p.ID, NodeType: model.NodeTypeParagraph, DisplayOrder: &order, ParentNodeID: &parent,
		Metadata: map[string]any{"anchor": "intro"},
	})
	require.NoError(t, err)

	updated, err := s.UpdateNodeContent(ctx, n.ID, model.Content{"text": "Updated"})
	require.NoError(t, err)
	assert.Equal(t, model.Content{"text": "Updated"}, updated.Content)
	assert.Equal(t, 5, updated.DisplayOrder)
	assert.Equal(t, model.NodeTypeParagraph, updated.NodeType)
	require.NotNil(t, updated.ParentNodeID)
	assert.Equal(t, "section-1", *updated.ParentNodeID)
	assert.Equal(t, "intro", updated.Metadata["anchor"])

	_, err = s.UpdateNodeContent(ctx, n.ID, nil)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = s.UpdateNodeContent(ctx, "missing", model.Content{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteNode(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := createPage(t, s, "Home", true)
	n, err := s.CreateNode(ctx, model.CreateNodeInput{PageID: p.ID, NodeType: model.NodeTypeImage})
	require.NoError(t, err)

	require.NoError(t, s.DeleteNode(ctx, n.ID))
	assert.ErrorIs(t, s.DeleteNode(ctx, n.ID), ErrNotFound)

	nodes, err := s.ListNodes(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestListPublicNodes(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := createPage(t, s, "Home", true)
	draft := createPage(t, s, "Draft", false)

	_, err := s.CreateNode(ctx, model.CreateNodeInput{PageID: p.ID, NodeType: model.NodeTypeHeading})
	require.NoError(t, err)
	_, err = s.CreateNode(ctx, model.CreateNodeInput{PageID: p.ID, NodeType: model.NodeTypeParagraph, Hidden: true})
	require.NoError(t, err)

	public, err := s.ListPublicNodes(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, model.NodeTypeHeading, public[0].NodeType)

	admin, err := s.ListNodes(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, admin, 2)

	_, err = s.ListPublicNodes(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublicNodeCacheInvalidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := createPage(t, s, "Home", true)
	n, err := s.CreateNode(ctx, model.CreateNodeInput{PageID: p.ID, NodeType: model.NodeTypeParagraph, Content: model.Content{"text": "v1"}})
	require.NoError(t, err)

	first, err := s.ListPublicNodes(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "v1", first[0].Content["text"])

	_, cached := s.nodeCache.Get(ctx, publicNodesKey(p.ID))
	assert.True(t, cached)

	_, err = s.UpdateNodeContent(ctx, n.ID, model.Content{"text": "v2"})
	require.NoError(t, err)
	_, cached = s.nodeCache.Get(ctx, publicNodesKey(p.ID))
	assert.False(t, cached, "mutation invalidates")

	second, err := s.ListPublicNodes(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", second[0].Content["text"])

	_, err = s.UpdatePage(ctx, p.ID, model.UpdatePageInput{IsPublished: ptr(false)})
	require.NoError(t, err)
	_, err = s.ListPublicNodes(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound, "unpublished page hides its nodes")
}
