// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
)

// Heading levels accepted by heading nodes.
var headingLevels = map[string]bool{"h1": true, "h2": true, "h3": true, "h4": true}

// DefaultHeadingLevel is used when a heading has no usable level.
const DefaultHeadingLevel = "h2"

// Block is the decoded, typed form of a content node.
// Every node decodes to exactly one Block; nodes whose content does not
// satisfy their type's shape decode to RawBlock.
type Block interface {
	Kind() NodeType
	Accept(v BlockVisitor)
}

// BlockVisitor dispatches over every Block variant. Adding a variant means
// adding a method here, which breaks every visitor until it handles it.
type BlockVisitor interface {
	VisitHeading(HeadingBlock)
	VisitParagraph(ParagraphBlock)
	VisitImage(ImageBlock)
	VisitButton(ButtonBlock)
	VisitList(ListBlock)
	VisitRichText(RichTextBlock)
	VisitRaw(RawBlock)
}

// HeadingBlock is a section heading.
type HeadingBlock struct {
	Text  string
	Level string
}

// ParagraphBlock is plain paragraph text.
type ParagraphBlock struct {
	Text string
}

// ImageBlock is an image reference.
type ImageBlock struct {
	Src string
	Alt string
}

// ButtonBlock is a call-to-action link styled as a button.
type ButtonBlock struct {
	Text   string
	Href   string
	Target string
	Rel    string
}

// ListBlock is a bulleted or numbered list.
type ListBlock struct {
	Items   []string
	Ordered bool
}

// RichTextBlock holds author supplied markup. HTML and Markdown are
// untrusted and must be sanitized before rendering.
type RichTextBlock struct {
	HTML     string
	Markdown string
}

// RawBlock is the fallback for unknown node types and malformed content.
type RawBlock struct {
	NodeType NodeType
	Content  Content
	Reason   string
}

func (HeadingBlock) Kind() NodeType   { return NodeTypeHeading }
func (ParagraphBlock) Kind() NodeType { return NodeTypeParagraph }
func (ImageBlock) Kind() NodeType     { return NodeTypeImage }
func (ButtonBlock) Kind() NodeType    { return NodeTypeButton }
func (ListBlock) Kind() NodeType      { return NodeTypeList }
func (RichTextBlock) Kind() NodeType  { return NodeTypeRichText }
func (b RawBlock) Kind() NodeType     { return b.NodeType }

func (b HeadingBlock) Accept(v BlockVisitor)   { v.VisitHeading(b) }
func (b ParagraphBlock) Accept(v BlockVisitor) { v.VisitParagraph(b) }
func (b ImageBlock) Accept(v BlockVisitor)     { v.VisitImage(b) }
func (b ButtonBlock) Accept(v BlockVisitor)    { v.VisitButton(b) }
func (b ListBlock) Accept(v BlockVisitor)      { v.VisitList(b) }
func (b RichTextBlock) Accept(v BlockVisitor)  { v.VisitRichText(b) }
func (b RawBlock) Accept(v BlockVisitor)       { v.VisitRaw(b) }

// DecodeBlock converts a node into its typed Block. It never fails:
// anything it cannot interpret becomes a RawBlock carrying the reason.
func DecodeBlock(n ContentNode) Block {
	c := n.Content
	raw := func(reason string) Block {
		return RawBlock{NodeType: n.NodeType, Content: c, Reason: reason}
	}
	if c == nil {
		return raw("content is empty")
	}

	switch n.NodeType {
	case NodeTypeHeading:
		text, ok := stringField(c, "text")
		if !ok {
			return raw("heading requires text")
		}
		level, _ := stringField(c, "level")
		if !headingLevels[level] {
			level = DefaultHeadingLevel
		}
		return HeadingBlock{Text: text, Level: level}

	case NodeTypeParagraph:
		text, ok := stringField(c, "text")
		if !ok {
			return raw("paragraph requires text")
		}
		return ParagraphBlock{Text: text}

	case NodeTypeImage:
		src, ok := stringField(c, "src")
		if !ok || src == "" {
			return raw("image requires src")
		}
		alt, _ := stringField(c, "alt")
		return ImageBlock{Src: src, Alt: alt}

	case NodeTypeButton:
		text, ok := stringField(c, "text")
		if !ok {
			return raw("button requires text")
		}
		href, ok := stringField(c, "href")
		if !ok {
			return raw("button requires href")
		}
		target, _ := stringField(c, "target")
		rel, _ := stringField(c, "rel")
		return ButtonBlock{Text: text, Href: href, Target: target, Rel: rel}

	case NodeTypeList:
		items, ok := stringSliceField(c, "items")
		if !ok {
			return raw("list requires items as a list of strings")
		}
		ordered := false
		if v, present := c["ordered"]; present {
			b, isBool := v.(bool)
			if !isBool {
				return raw("list ordered flag must be a boolean")
			}
			ordered = b
		}
		return ListBlock{Items: items, Ordered: ordered}

	case NodeTypeRichText:
		html, hasHTML := stringField(c, "html")
		md, hasMD := stringField(c, "markdown")
		if !hasHTML && !hasMD {
			return raw("richtext requires html")
		}
		return RichTextBlock{HTML: html, Markdown: md}

	default:
		return raw(fmt.Sprintf("unknown node type %q", n.NodeType))
	}
}

// BlockContent converts a block back into its wire content bag.
func BlockContent(b Block) Content {
	switch v := b.(type) {
	case HeadingBlock:
		return Content{"text": v.Text, "level": v.Level}
	case ParagraphBlock:
		return Content{"text": v.Text}
	case ImageBlock:
		return Content{"src": v.Src, "alt": v.Alt}
	case ButtonBlock:
		c := Content{"text": v.Text, "href": v.Href}
		if v.Target != "" {
			c["target"] = v.Target
		}
		if v.Rel != "" {
			c["rel"] = v.Rel
		}
		return c
	case ListBlock:
		items := make([]any, len(v.Items))
		for i, item := range v.Items {
			items[i] = item
		}
		return Content{"items": items, "ordered": v.Ordered}
	case RichTextBlock:
		if v.Markdown != "" && v.HTML == "" {
			return Content{"markdown": v.Markdown}
		}
		return Content{"html": v.HTML}
	case RawBlock:
		return v.Content.Clone()
	default:
		return Content{}
	}
}

func stringField(c Content, key string) (string, bool) {
	v, ok := c[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func stringSliceField(c Content, key string) ([]string, bool) {
	v, ok := c[key]
	if !ok {
		return nil, false
	}
	switch items := v.(type) {
	case []string:
		out := make([]string, len(items))
		copy(out, items)
		return out, true
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, isString := item.(string)
			if !isString {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
