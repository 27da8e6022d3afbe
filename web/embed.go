// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web holds the dashboard and public site assets compiled
// into the binary.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed all:templates
var templates embed.FS

//go:embed all:static/dist
var static embed.FS

// StaticPrefix is the URL prefix the stylesheet and scripts are served under.
const StaticPrefix = "/static/"

// Templates returns the page templates rooted at the templates directory,
// so layouts/base.html is addressed without a prefix.
func Templates() (fs.FS, error) {
	return fs.Sub(templates, "templates")
}

// StaticHandler serves the built assets under StaticPrefix.
func StaticHandler() http.Handler {
	return http.StripPrefix(StaticPrefix, http.FileServerFS(mustSub(static, "static")))
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
