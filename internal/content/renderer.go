// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content renders content nodes to HTML and drives the inline
// node editor (view, draft, save, cancel, delete).
package content

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/util"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Links builds the dashboard URLs used by node controls and editor forms.
type Links struct {
	Edit   func(n model.ContentNode) string
	Delete func(n model.ContentNode) string
	Save   func(n model.ContentNode) string
	Cancel func(n model.ContentNode) string
}

// DefaultLinks returns links under /admin/pages/{pageId}.
func DefaultLinks() Links {
	base := func(n model.ContentNode) string {
		return fmt.Sprintf("/admin/pages/%d", n.PageID)
	}
	return Links{
		Edit: func(n model.ContentNode) string {
			return fmt.Sprintf("%s/edit?edit=%s#node-%s", base(n), url.QueryEscape(n.ID), n.ID)
		},
		Delete: func(n model.ContentNode) string {
			return fmt.Sprintf("%s/nodes/%s/delete", base(n), url.PathEscape(n.ID))
		},
		Save: func(n model.ContentNode) string {
			return fmt.Sprintf("%s/nodes/%s", base(n), url.PathEscape(n.ID))
		},
		Cancel: func(n model.ContentNode) string {
			return fmt.Sprintf("%s/edit#node-%s", base(n), n.ID)
		},
	}
}

// Renderer turns content nodes into HTML fragments.
type Renderer struct {
	tmpl   *template.Template
	links  Links
	logger *slog.Logger
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithLinks overrides the control and form URLs.
func WithLinks(l Links) RendererOption {
	return func(r *Renderer) { r.links = l }
}

// WithLogger sets the logger used to report render failures.
func WithLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) { r.logger = l }
}

// NewRenderer parses the embedded node templates.
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	tmpl, err := template.New("content").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing node templates: %w", err)
	}

	r := &Renderer{
		tmpl:   tmpl,
		links:  DefaultLinks(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// MustNewRenderer is NewRenderer for package-level setup and tests.
func MustNewRenderer(opts ...RendererOption) *Renderer {
	r, err := NewRenderer(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// RenderView returns the static HTML of a node. It never fails: nodes
// that cannot be rendered as their type come out as raw JSON.
func (r *Renderer) RenderView(node model.ContentNode) (out template.HTML) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic rendering content node", "node_id", node.ID, "node_type", node.NodeType, "panic", rec)
			out = rawFallback(node.Content)
		}
	}()

	v := &viewVisitor{}
	model.DecodeBlock(node).Accept(v)
	if v.err != nil {
		r.logger.Warn("content node rendered as raw", "node_id", node.ID, "error", v.err)
		return rawFallback(node.Content)
	}

	html, err := r.execute(v.name, v.data)
	if err != nil {
		r.logger.Error("rendering content node", "node_id", node.ID, "error", err)
		return rawFallback(node.Content)
	}
	return html
}

type frameData struct {
	Node      model.ContentNode
	Label     string
	EditMode  bool
	EditURL   string
	DeleteURL string
	Body      template.HTML
}

// RenderNode wraps the node view in its frame. In edit mode the frame
// carries edit and delete controls.
func (r *Renderer) RenderNode(node model.ContentNode, editMode bool) template.HTML {
	data := frameData{
		Node:     node,
		Label:    node.NodeType.Label(),
		EditMode: editMode,
		Body:     r.RenderView(node),
	}
	if editMode {
		data.EditURL = r.links.Edit(node)
		data.DeleteURL = r.links.Delete(node)
	}

	html, err := r.execute("node-frame", data)
	if err != nil {
		r.logger.Error("rendering node frame", "node_id", node.ID, "error", err)
		return data.Body
	}
	return html
}

// RenderEditor returns the inline form for a node, pre-filled from
// draft. A nil draft uses the node's stored content.
func (r *Renderer) RenderEditor(node model.ContentNode, draft model.Content) template.HTML {
	if draft == nil {
		draft = node.Content
	}

	data := editorData{
		Node:      node,
		Label:     node.NodeType.Label(),
		SaveURL:   r.links.Save(node),
		CancelURL: r.links.Cancel(node),
		Draft:     draft,
		Levels:    []string{"h1", "h2", "h3", "h4"},
	}

	name := "editor-raw"
	// Malformed content of a known type is edited as JSON so nothing is lost.
	if _, raw := model.DecodeBlock(model.ContentNode{NodeType: node.NodeType, Content: draft}).(model.RawBlock); !raw {
		name = "editor-" + string(node.NodeType)
	}

	html, err := r.execute(name, data)
	if err != nil {
		r.logger.Error("rendering node editor", "node_id", node.ID, "error", err)
		html, _ = r.execute("editor-raw", data)
	}
	return html
}

// RenderRawEditor returns the JSON editor holding text as typed, with
// hint shown above it. It is used when a submission could not be parsed
// so the editor's input is not lost.
func (r *Renderer) RenderRawEditor(node model.ContentNode, text, hint string) template.HTML {
	data := editorData{
		Node:      node,
		Label:     node.NodeType.Label(),
		SaveURL:   r.links.Save(node),
		CancelURL: r.links.Cancel(node),
		Draft:     node.Content,
		RawText:   text,
		Hint:      hint,
	}
	html, err := r.execute("editor-raw", data)
	if err != nil {
		r.logger.Error("rendering raw node editor", "node_id", node.ID, "error", err)
	}
	return html
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}

func rawFallback(c model.Content) template.HTML {
	return template.HTML(`<pre class="cms-raw">` + template.HTMLEscapeString(c.JSON()) + `</pre>`) //nolint:gosec // escaped above
}

// viewVisitor selects the template and data for each block kind.
type viewVisitor struct {
	name string
	data any
	err  error
}

func (v *viewVisitor) VisitHeading(b model.HeadingBlock) {
	v.name, v.data = "node-heading", b
}

func (v *viewVisitor) VisitParagraph(b model.ParagraphBlock) {
	v.name, v.data = "node-paragraph", b
}

func (v *viewVisitor) VisitImage(b model.ImageBlock) {
	b.Src = util.SafeLinkURL(b.Src, "")
	if b.Src == "" {
		v.err = fmt.Errorf("image src is not a safe URL")
		return
	}
	v.name, v.data = "node-image", b
}

func (v *viewVisitor) VisitButton(b model.ButtonBlock) {
	b.Href = util.SafeLinkURL(b.Href, "#")
	switch b.Target {
	case "_blank":
		if b.Rel == "" {
			b.Rel = "noopener noreferrer"
		}
	case "_self":
	default:
		b.Target = ""
	}
	v.name, v.data = "node-button", b
}

func (v *viewVisitor) VisitList(b model.ListBlock) {
	v.name, v.data = "node-list", b
}

func (v *viewVisitor) VisitRichText(b model.RichTextBlock) {
	v.name = "node-richtext"
	if b.HTML == "" && b.Markdown != "" {
		html, err := MarkdownToHTML(b.Markdown)
		if err != nil {
			v.err = fmt.Errorf("converting markdown: %w", err)
			return
		}
		v.data = html
		return
	}
	v.data = SanitizeHTML(b.HTML)
}

func (v *viewVisitor) VisitRaw(b model.RawBlock) {
	v.name = "node-raw"
	v.data = struct {
		Reason string
		JSON   string
	}{Reason: b.Reason, JSON: b.Content.JSON()}
}

var _ model.BlockVisitor = (*viewVisitor)(nil)

// editorData is the view model of the inline editor templates.
type editorData struct {
	Node      model.ContentNode
	Label     string
	SaveURL   string
	CancelURL string
	Draft     model.Content
	Levels    []string
	RawText   string // unparsed JSON kept from a rejected submission
	Hint      string
}

// Field returns a draft value as a string for form inputs.
func (d editorData) Field(key string) string {
	switch v := d.Draft[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Lines joins a string list with newlines for a textarea.
func (d editorData) Lines(key string) string {
	switch items := d.Draft[key].(type) {
	case []string:
		return strings.Join(items, "\n")
	case []any:
		lines := make([]string, 0, len(items))
		for _, item := range items {
			lines = append(lines, fmt.Sprint(item))
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}

// Flag reads a boolean draft value.
func (d editorData) Flag(key string) bool {
	b, _ := d.Draft[key].(bool)
	return b
}

// JSON returns the draft as indented JSON, or the rejected text when
// there is one.
func (d editorData) JSON() string {
	if d.RawText != "" {
		return d.RawText
	}
	return d.Draft.JSON()
}
