// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pagecontent

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepath/sitecms/internal/cmsclient"
	"github.com/carepath/sitecms/internal/editmode"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/notify"
)

// memorySource is an in-memory node listing. Hidden nodes only appear
// in the admin scope.
type memorySource struct {
	nodes     []model.ContentNode
	listErr   error
	createErr error

	scopes  []cmsclient.Scope
	creates []model.CreateNodeInput
}

func (m *memorySource) ListNodes(_ context.Context, scope cmsclient.Scope, pageID int64) ([]model.ContentNode, error) {
	m.scopes = append(m.scopes, scope)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.ContentNode
	for _, n := range m.nodes {
		if n.PageID != pageID || (n.Hidden && scope == cmsclient.ScopePublic) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *memorySource) CreateNode(_ context.Context, in model.CreateNodeInput) (model.ContentNode, error) {
	m.creates = append(m.creates, in)
	if m.createErr != nil {
		return model.ContentNode{}, m.createErr
	}
	n := model.ContentNode{
		ID:           fmt.Sprintf("n%d", len(m.nodes)+1),
		PageID:       in.PageID,
		NodeType:     in.NodeType,
		Content:      in.Content,
		DisplayOrder: *in.DisplayOrder,
		CreatedAt:    time.Now(),
	}
	m.nodes = append(m.nodes, n)
	return n, nil
}

func ids(nodes []model.ContentNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestLoadSortsByDisplayOrder(t *testing.T) {
	src := &memorySource{nodes: []model.ContentNode{
		{ID: "c", PageID: 1, DisplayOrder: 3},
		{ID: "a", PageID: 1, DisplayOrder: 1},
		{ID: "b", PageID: 1, DisplayOrder: 2},
		{ID: "other", PageID: 2, DisplayOrder: 0},
	}}
	agg := New(src, editmode.Static(false), nil, nil)

	view, err := agg.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(view.Nodes))
	assert.Equal(t, EmptyNone, view.Empty)
}

func TestSortNodesIsStable(t *testing.T) {
	nodes := []model.ContentNode{
		{ID: "x", DisplayOrder: 1},
		{ID: "y", DisplayOrder: 0},
		{ID: "z", DisplayOrder: 1},
		{ID: "w", DisplayOrder: 0},
	}
	sorted := SortNodes(nodes)
	assert.Equal(t, []string{"y", "w", "x", "z"}, ids(sorted))
	assert.Equal(t, "x", nodes[0].ID, "input is not reordered")
	assert.NotNil(t, SortNodes(nil))
}

func TestLoadScopeFollowsEditMode(t *testing.T) {
	src := &memorySource{nodes: []model.ContentNode{
		{ID: "shown", PageID: 1, DisplayOrder: 0},
		{ID: "hidden", PageID: 1, DisplayOrder: 1, Hidden: true},
	}}
	state := editmode.New()
	agg := New(src, state, nil, nil)
	ctx := context.Background()

	view, err := agg.Load(ctx, 1)
	require.NoError(t, err)
	assert.False(t, view.EditMode)
	assert.Equal(t, []string{"shown"}, ids(view.Nodes))

	state.ToggleEditMode()
	view, err = agg.Load(ctx, 1)
	require.NoError(t, err)
	assert.True(t, view.EditMode)
	assert.Equal(t, []string{"shown", "hidden"}, ids(view.Nodes))

	assert.Equal(t, []cmsclient.Scope{cmsclient.ScopePublic, cmsclient.ScopeAdmin}, src.scopes)
}

func TestEditModeIsSharedAcrossPages(t *testing.T) {
	src := &memorySource{}
	state := editmode.New()
	home := New(src, state, nil, nil)
	about := New(src, state, nil, nil)
	ctx := context.Background()

	state.ToggleEditMode()
	v1, err := home.Load(ctx, 1)
	require.NoError(t, err)
	v2, err := about.Load(ctx, 2)
	require.NoError(t, err)

	assert.True(t, v1.EditMode)
	assert.True(t, v2.EditMode)
}

func TestLoadEmptyState(t *testing.T) {
	agg := New(&memorySource{}, editmode.Static(false), nil, nil)
	view, err := agg.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, EmptyPlaceholder, view.Empty)
	assert.NotNil(t, view.Nodes)

	agg = New(&memorySource{}, editmode.Static(true), nil, nil)
	view, err = agg.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, EmptyAddBlock, view.Empty)
}

func TestLoadError(t *testing.T) {
	cause := &cmsclient.APIError{StatusCode: http.StatusNotFound, Message: "Page not found"}
	agg := New(&memorySource{listErr: cause}, editmode.Static(false), nil, nil)

	_, err := agg.Load(context.Background(), 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, cmsclient.ErrNotFound)
	assert.Contains(t, err.Error(), "page 9")
}

func TestCreateAppendsAndReloads(t *testing.T) {
	src := &memorySource{nodes: []model.ContentNode{
		{ID: "n1", PageID: 1, NodeType: model.NodeTypeHeading, DisplayOrder: 0},
		{ID: "n2", PageID: 1, NodeType: model.NodeTypeParagraph, DisplayOrder: 1},
	}}
	rec := &notify.Recorder{}
	agg := New(src, editmode.Static(true), rec, nil)
	ctx := context.Background()

	view, err := agg.Load(ctx, 1)
	require.NoError(t, err)

	next, err := agg.Create(ctx, view, model.NodeTypeHeading)
	require.NoError(t, err)

	require.Len(t, src.creates, 1)
	in := src.creates[0]
	assert.Equal(t, int64(1), in.PageID)
	assert.Equal(t, 2, *in.DisplayOrder)
	assert.Equal(t, model.Content{"text": "New Heading", "level": "h2"}, in.Content)

	assert.Len(t, next.Nodes, 3)
	assert.Equal(t, "n3", next.Nodes[2].ID)
	assert.Len(t, view.Nodes, 2, "previous view is not mutated")
	assert.Len(t, src.scopes, 2, "create re-fetches")

	msg, _ := rec.Last()
	assert.Equal(t, notify.Message{Level: notify.LevelSuccess, Text: MsgCreated}, msg)
}

func TestCreateFailure(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
		silent   bool
	}{
		{"server message", &cmsclient.APIError{StatusCode: http.StatusUnprocessableEntity, Message: "Invalid content"}, "Invalid content", false},
		{"transport", fmt.Errorf("%w: dial tcp: refused", cmsclient.ErrTransport), MsgCreateFailed, false},
		{"auth", &cmsclient.APIError{StatusCode: http.StatusForbidden}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &memorySource{createErr: tt.err}
			rec := &notify.Recorder{}
			agg := New(src, editmode.Static(true), rec, nil)

			next, err := agg.Create(context.Background(), &View{PageID: 1}, model.NodeTypeList)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, next)
			assert.Empty(t, src.scopes, "no re-fetch after a failed create")

			if tt.silent {
				assert.Empty(t, rec.Messages())
				return
			}
			msg, _ := rec.Last()
			assert.Equal(t, notify.Message{Level: notify.LevelError, Text: tt.wantText}, msg)
		})
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	src := &memorySource{}
	agg := New(src, editmode.Static(true), nil, nil)
	_, err := agg.Create(context.Background(), &View{PageID: 1}, "carousel")
	require.Error(t, err)
	assert.Empty(t, src.creates)
}

func TestNodeTypeChoices(t *testing.T) {
	choices := NodeTypeChoices()
	require.Len(t, choices, 6)
	assert.Equal(t, NodeTypeChoice{Type: model.NodeTypeHeading, Label: "Heading"}, choices[0])
	assert.Equal(t, model.NodeTypeRichText, choices[5].Type)
}
