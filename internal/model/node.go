// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// NodeType identifies the shape of a content node's content bag.
type NodeType string

// Node types
const (
	NodeTypeHeading   NodeType = "heading"
	NodeTypeParagraph NodeType = "paragraph"
	NodeTypeImage     NodeType = "image"
	NodeTypeButton    NodeType = "button"
	NodeTypeList      NodeType = "list"
	NodeTypeRichText  NodeType = "richtext"
)

// AllNodeTypes returns the closed set of node types in menu order.
func AllNodeTypes() []NodeType {
	return []NodeType{
		NodeTypeHeading,
		NodeTypeParagraph,
		NodeTypeImage,
		NodeTypeButton,
		NodeTypeList,
		NodeTypeRichText,
	}
}

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeHeading, NodeTypeParagraph, NodeTypeImage, NodeTypeButton, NodeTypeList, NodeTypeRichText:
		return true
	}
	return false
}

// Label returns a human readable name for the node type.
func (t NodeType) Label() string {
	switch t {
	case NodeTypeHeading:
		return "Heading"
	case NodeTypeParagraph:
		return "Paragraph"
	case NodeTypeImage:
		return "Image"
	case NodeTypeButton:
		return "Button"
	case NodeTypeList:
		return "List"
	case NodeTypeRichText:
		return "Rich Text"
	default:
		return string(t)
	}
}

// Content is the type-dependent attribute bag of a content node.
type Content map[string]any

// Clone returns a deep copy of the content bag.
func (c Content) Clone() Content {
	if c == nil {
		return nil
	}
	out := make(Content, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return map[string]any(Content(val).Clone())
	case Content:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return val
	}
}

// JSON returns the content as indented JSON, falling back to "{}".
func (c Content) JSON() string {
	if c == nil {
		return "{}"
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ContentNode is one ordered, typed block of content within a page.
type ContentNode struct {
	ID           string         `json:"id"`
	PageID       int64          `json:"pageId"`
	NodeType     NodeType       `json:"nodeType"`
	Content      Content        `json:"content"`
	DisplayOrder int            `json:"displayOrder"`
	ParentNodeID *string        `json:"parentNodeId,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Hidden       bool           `json:"hidden,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// DefaultContent returns the seed content for a freshly created node.
func DefaultContent(t NodeType) Content {
	switch t {
	case NodeTypeHeading:
		return Content{"text": "New Heading", "level": "h2"}
	case NodeTypeParagraph:
		return Content{"text": "New paragraph text."}
	case NodeTypeImage:
		return Content{"src": "/static/images/placeholder.png", "alt": "Placeholder image"}
	case NodeTypeButton:
		return Content{"text": "Learn More", "href": "/contact"}
	case NodeTypeList:
		return Content{"items": []any{"First item", "Second item"}, "ordered": false}
	case NodeTypeRichText:
		return Content{"html": "<p>New rich text block.</p>"}
	default:
		return Content{}
	}
}
