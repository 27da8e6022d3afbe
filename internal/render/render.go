// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the embedded HTML templates and renders pages
// with their layout.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/carepath/sitecms/internal/notify"
	"github.com/carepath/sitecms/internal/seo"
	"github.com/carepath/sitecms/internal/uikit"
)

// FlashSource yields the notifications queued for the current request.
// *notify.SessionNotifier satisfies it.
type FlashSource interface {
	Pop(ctx context.Context) []notify.Message
}

// Renderer handles template rendering with caching.
type Renderer struct {
	templates map[string]*template.Template
	flashes   FlashSource
	siteName  string
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS fs.FS
	Flashes     FlashSource
	SiteName    string
}

// template groups: directory and the layouts each page is parsed with.
var groups = []struct {
	dir     string
	layouts []string
}{
	{dir: "admin", layouts: []string{"layouts/base.html", "layouts/admin.html"}},
	{dir: "auth", layouts: []string{"layouts/base.html"}},
	{dir: "site", layouts: []string{"layouts/base.html", "layouts/site.html"}},
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		flashes:   cfg.Flashes,
		siteName:  cfg.SiteName,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := templateFiles(templatesFS, "partials")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	for _, g := range groups {
		pages, err := templateFiles(templatesFS, g.dir)
		if err != nil {
			return fmt.Errorf("getting %s templates: %w", g.dir, err)
		}

		for _, tmplPath := range pages {
			name := g.dir + "/" + strings.TrimSuffix(path.Base(tmplPath), ".html")

			// Parse in order: layouts, partials, page template
			files := append([]string{}, g.layouts...)
			files = append(files, partials...)
			files = append(files, tmplPath)

			tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templatesFS, files...)
			if err != nil {
				return fmt.Errorf("parsing template %s: %w", name, err)
			}
			r.templates[name] = tmpl
		}
	}

	return nil
}

// templateFiles returns all .html files in a directory. A missing
// directory yields no files.
func templateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		return nil, nil
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

func templateFuncs() template.FuncMap {
	funcs := uikit.TemplateFuncs()
	funcs["flashClass"] = func(level notify.Level) string {
		if level == notify.LevelError {
			return "flash-error"
		}
		return "flash-success"
	}
	return funcs
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Description string
	SiteName    string
	Data        any
	Flashes     []notify.Message
	CurrentYear int
	Path        string
	KeyName     string
	EditMode    bool
	Breadcrumbs []uikit.Breadcrumb
	Meta        *seo.Meta
}

// Has reports whether a template is registered under name.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render renders a template with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status code. Queued
// flash messages are popped and shown ahead of data.Flashes. Nothing is
// written to w when execution fails.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	data.CurrentYear = time.Now().Year()
	data.Path = req.URL.Path
	if data.SiteName == "" {
		data.SiteName = r.siteName
	}
	if r.flashes != nil {
		data.Flashes = append(r.flashes.Pop(req.Context()), data.Flashes...)
	}

	// Render to buffer first to catch errors
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}
