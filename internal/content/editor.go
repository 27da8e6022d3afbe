// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/carepath/sitecms/internal/cmsclient"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/notify"
)

// EditorState is the state of a NodeEditor.
type EditorState int

// Editor states
const (
	Viewing EditorState = iota
	Editing
)

func (s EditorState) String() string {
	if s == Editing {
		return "editing"
	}
	return "viewing"
}

// Editor errors
var (
	ErrNotEditing       = errors.New("content: node is not being edited")
	ErrInvalidDraftJSON = errors.New("content: draft is not a JSON object")
)

// Notification texts
const (
	MsgSaved        = "Content saved"
	MsgSaveFailed   = "Failed to save changes"
	MsgDeleted      = "Content block deleted"
	MsgDeleteFailed = "Failed to delete content block"
)

// NodeAPI is the part of the CMS API the editor mutates nodes through.
// *cmsclient.Client satisfies it.
type NodeAPI interface {
	UpdateNodeContent(ctx context.Context, pageID int64, nodeID string, content model.Content) (model.ContentNode, error)
	DeleteNode(ctx context.Context, pageID int64, nodeID string) error
}

// NodeEditor is the view/edit state machine of one content node. The
// draft is an isolated copy: nothing reaches the node until Save succeeds.
type NodeEditor struct {
	api      NodeAPI
	notifier notify.Notifier

	node  model.ContentNode
	state EditorState
	draft model.Content
}

// NewNodeEditor returns an editor for node in the Viewing state.
func NewNodeEditor(node model.ContentNode, api NodeAPI, notifier notify.Notifier) *NodeEditor {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &NodeEditor{api: api, notifier: notifier, node: node}
}

// Node returns the node as last confirmed by the server.
func (e *NodeEditor) Node() model.ContentNode { return e.node }

// State returns the current editor state.
func (e *NodeEditor) State() EditorState { return e.state }

// Draft returns a copy of the pending draft, or nil when viewing.
func (e *NodeEditor) Draft() model.Content { return e.draft.Clone() }

// BeginEdit enters Editing with a deep copy of the node content.
// Calling it while already editing keeps the current draft.
func (e *NodeEditor) BeginEdit() {
	if e.state == Editing {
		return
	}
	e.draft = e.node.Content.Clone()
	if e.draft == nil {
		e.draft = model.Content{}
	}
	e.state = Editing
}

// SetDraft replaces the whole draft.
func (e *NodeEditor) SetDraft(c model.Content) error {
	if e.state != Editing {
		return ErrNotEditing
	}
	e.draft = c.Clone()
	if e.draft == nil {
		e.draft = model.Content{}
	}
	return nil
}

// SetDraftField sets one key of the draft.
func (e *NodeEditor) SetDraftField(key string, value any) error {
	if e.state != Editing {
		return ErrNotEditing
	}
	e.draft[key] = value
	return nil
}

// SetDraftJSON replaces the draft with a JSON object. Text that is not a
// JSON object leaves the draft unchanged and returns ErrInvalidDraftJSON.
func (e *NodeEditor) SetDraftJSON(text string) error {
	if e.state != Editing {
		return ErrNotEditing
	}
	c, err := parseContentJSON(text)
	if err != nil {
		return err
	}
	e.draft = c
	return nil
}

// Cancel discards the draft without contacting the server.
func (e *NodeEditor) Cancel() {
	e.draft = nil
	e.state = Viewing
}

// Save sends the draft as the node's new content. On success the editor
// returns to Viewing; on failure it stays in Editing with the draft kept.
// Authorization failures are returned without a notification so the
// caller can handle the session.
func (e *NodeEditor) Save(ctx context.Context) error {
	if e.state != Editing {
		return ErrNotEditing
	}

	updated, err := e.api.UpdateNodeContent(ctx, e.node.PageID, e.node.ID, e.draft.Clone())
	if err != nil {
		if !cmsclient.IsAuthError(err) {
			e.notifier.Error(ctx, cmsclient.ErrorMessage(err, MsgSaveFailed))
		}
		return err
	}

	e.node = updated
	e.draft = nil
	e.state = Viewing
	e.notifier.Success(ctx, MsgSaved)
	return nil
}

// Delete removes the node after confirm approves. A declined prompt
// sends no request and returns (false, nil).
func (e *NodeEditor) Delete(ctx context.Context, confirm notify.Confirmer) (bool, error) {
	if confirm == nil || !confirm.Confirm(ctx, notify.PromptDeleteNode) {
		return false, nil
	}

	if err := e.api.DeleteNode(ctx, e.node.PageID, e.node.ID); err != nil {
		if !cmsclient.IsAuthError(err) {
			e.notifier.Error(ctx, cmsclient.ErrorMessage(err, MsgDeleteFailed))
		}
		return false, err
	}

	e.draft = nil
	e.state = Viewing
	e.notifier.Success(ctx, MsgDeleted)
	return true, nil
}

func parseContentJSON(text string) (model.Content, error) {
	var c model.Content
	if err := json.Unmarshal([]byte(text), &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDraftJSON, err)
	}
	if c == nil {
		return nil, ErrInvalidDraftJSON
	}
	return c, nil
}
