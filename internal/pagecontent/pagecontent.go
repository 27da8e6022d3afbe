// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pagecontent loads the ordered content nodes of a page and
// appends new ones.
package pagecontent

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/carepath/sitecms/internal/cmsclient"
	"github.com/carepath/sitecms/internal/editmode"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/notify"
)

// Notification texts
const (
	MsgCreated      = "Content block added"
	MsgCreateFailed = "Failed to add content block"
)

// NodeSource lists and creates nodes. *cmsclient.Client satisfies it.
type NodeSource interface {
	ListNodes(ctx context.Context, scope cmsclient.Scope, pageID int64) ([]model.ContentNode, error)
	CreateNode(ctx context.Context, in model.CreateNodeInput) (model.ContentNode, error)
}

// EmptyState says what to show in place of an empty node list.
type EmptyState int

// Empty states
const (
	EmptyNone EmptyState = iota
	EmptyPlaceholder
	EmptyAddBlock
)

// View is the loaded, ordered content of one page.
type View struct {
	PageID   int64
	Nodes    []model.ContentNode
	EditMode bool
	Empty    EmptyState
}

// NodeTypeChoice is one entry of the add-block menu.
type NodeTypeChoice struct {
	Type  model.NodeType
	Label string
}

// Aggregator fetches a page's nodes from the listing that matches the
// current edit mode.
type Aggregator struct {
	source   NodeSource
	mode     editmode.Reader
	notifier notify.Notifier
	logger   *slog.Logger
}

// New creates an Aggregator. A nil notifier discards notifications.
func New(source NodeSource, mode editmode.Reader, notifier notify.Notifier, logger *slog.Logger) *Aggregator {
	if notifier == nil {
		notifier = notify.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{source: source, mode: mode, notifier: notifier, logger: logger}
}

// Load fetches and orders the nodes of a page. Editors read the admin
// listing with the full node set; visitors read the public one.
func (a *Aggregator) Load(ctx context.Context, pageID int64) (*View, error) {
	editing := a.mode.IsEditMode()
	scope := cmsclient.ScopePublic
	if editing {
		scope = cmsclient.ScopeAdmin
	}

	nodes, err := a.source.ListNodes(ctx, scope, pageID)
	if err != nil {
		return nil, fmt.Errorf("loading %s nodes of page %d: %w", scope, pageID, err)
	}

	view := &View{
		PageID:   pageID,
		Nodes:    SortNodes(nodes),
		EditMode: editing,
	}
	if len(view.Nodes) == 0 {
		view.Empty = EmptyPlaceholder
		if editing {
			view.Empty = EmptyAddBlock
		}
	}
	return view, nil
}

// Create appends a node of the given type with its default content and
// reloads the page. On failure the error is notified and returned so the
// caller can keep the add form open.
func (a *Aggregator) Create(ctx context.Context, view *View, nodeType model.NodeType) (*View, error) {
	if !nodeType.Valid() {
		err := fmt.Errorf("unknown node type %q", nodeType)
		a.notifier.Error(ctx, MsgCreateFailed)
		return nil, err
	}

	order := len(view.Nodes)
	created, err := a.source.CreateNode(ctx, model.CreateNodeInput{
		PageID:       view.PageID,
		NodeType:     nodeType,
		Content:      model.DefaultContent(nodeType),
		DisplayOrder: &order,
	})
	if err != nil {
		if !cmsclient.IsAuthError(err) {
			a.notifier.Error(ctx, cmsclient.ErrorMessage(err, MsgCreateFailed))
		}
		return nil, err
	}
	a.logger.Info("content node created", "page_id", view.PageID, "node_id", created.ID, "node_type", nodeType)
	a.notifier.Success(ctx, MsgCreated)

	return a.Load(ctx, view.PageID)
}

// SortNodes returns the nodes ordered by display order. Equal orders
// keep their listing order.
func SortNodes(nodes []model.ContentNode) []model.ContentNode {
	out := slices.Clone(nodes)
	if out == nil {
		out = []model.ContentNode{}
	}
	slices.SortStableFunc(out, func(a, b model.ContentNode) int {
		return a.DisplayOrder - b.DisplayOrder
	})
	return out
}

// NodeTypeChoices returns the add-block menu in display order.
func NodeTypeChoices() []NodeTypeChoice {
	types := model.AllNodeTypes()
	choices := make([]NodeTypeChoice, 0, len(types))
	for _, t := range types {
		choices = append(choices, NodeTypeChoice{Type: t, Label: t.Label()})
	}
	return choices
}
