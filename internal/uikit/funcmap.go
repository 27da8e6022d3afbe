// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package uikit provides template helpers and pagination logic shared
// by the dashboard, the public site and the API.
package uikit

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Date layouts used across the dashboard and the site.
const (
	DateLayout     = "Jan 2, 2006"
	DateTimeLayout = "Jan 2, 2006 3:04 PM"
)

// TemplateFuncs returns the helpers every template set shares. The
// renderer adds its own on top.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"hasPrefix":      strings.HasPrefix,
		"truncate":       Truncate,
		"label":          Label,
		"formatDate":     func(t any) string { return FormatTime(t, DateLayout) },
		"formatDateTime": func(t any) string { return FormatTime(t, DateTimeLayout) },
		"isoTime":        func(t any) string { return FormatTime(t, time.RFC3339) },
		"prettyJSON":     PrettyJSON,
	}
}

// Truncate shortens s to at most n runes, appending "..." when
// something was cut.
func Truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "..."
		}
		i++
	}
	return s
}

// Label turns an identifier such as a page type or event category into
// display text: "job_posting" becomes "Job Posting".
func Label(v any) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(fmt.Sprint(v))
	return cases.Title(language.English).String(s)
}

// FormatTime formats a time.Time or *time.Time. Nil pointers, zero
// times and other types format as "".
func FormatTime(t any, layout string) string {
	var tm time.Time
	switch v := t.(type) {
	case time.Time:
		tm = v
	case *time.Time:
		if v != nil {
			tm = *v
		}
	}
	if tm.IsZero() {
		return ""
	}
	return tm.Format(layout)
}

// PrettyJSON indents a JSON document. Invalid JSON is returned as-is.
func PrettyJSON(s string) string {
	var doc any
	if json.Unmarshal([]byte(s), &doc) != nil {
		return s
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return s
	}
	return string(out)
}
