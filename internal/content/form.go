// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"maps"
	"net/url"
	"strings"

	"github.com/carepath/sitecms/internal/model"
)

// formFields lists the content keys each inline editor posts. Keys not
// listed here are never on the form.
var formFields = map[model.NodeType][]string{
	model.NodeTypeHeading:   {"text", "level"},
	model.NodeTypeParagraph: {"text"},
	model.NodeTypeImage:     {"src", "alt"},
	model.NodeTypeButton:    {"text", "href", "target", "rel"},
	model.NodeTypeList:      {"items", "ordered"},
	model.NodeTypeRichText:  {"html", "markdown"},
}

// ApplyForm returns base with the inline editor's fields replaced by the
// posted values. Keys the form does not carry keep their stored values.
// The raw JSON editor replaces the whole bag.
func ApplyForm(base model.Content, nodeType model.NodeType, form url.Values) (model.Content, error) {
	draft, err := DraftFromForm(nodeType, form)
	if err != nil {
		return nil, err
	}
	owned, ok := formFields[nodeType]
	if form.Has("json") || !ok {
		return draft, nil
	}
	out := base.Clone()
	if out == nil {
		out = model.Content{}
	}
	for _, key := range owned {
		delete(out, key)
	}
	maps.Copy(out, draft)
	return out, nil
}

// DraftFromForm builds a draft content bag from the inline editor form.
// A "json" field, as posted by the raw editor, takes precedence and must
// hold a JSON object.
func DraftFromForm(nodeType model.NodeType, form url.Values) (model.Content, error) {
	if form.Has("json") {
		return parseContentJSON(form.Get("json"))
	}

	switch nodeType {
	case model.NodeTypeHeading:
		level := form.Get("level")
		if level == "" {
			level = model.DefaultHeadingLevel
		}
		return model.Content{"text": form.Get("text"), "level": level}, nil

	case model.NodeTypeParagraph:
		return model.Content{"text": form.Get("text")}, nil

	case model.NodeTypeImage:
		return model.Content{
			"src": strings.TrimSpace(form.Get("src")),
			"alt": form.Get("alt"),
		}, nil

	case model.NodeTypeButton:
		c := model.Content{
			"text": form.Get("text"),
			"href": strings.TrimSpace(form.Get("href")),
		}
		if t := form.Get("target"); t != "" {
			c["target"] = t
		}
		if rel := form.Get("rel"); rel != "" {
			c["rel"] = rel
		}
		return c, nil

	case model.NodeTypeList:
		items := []any{}
		for _, line := range strings.Split(strings.ReplaceAll(form.Get("items"), "\r\n", "\n"), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				items = append(items, line)
			}
		}
		ordered := form.Get("ordered") == "true" || form.Get("ordered") == "on"
		return model.Content{"items": items, "ordered": ordered}, nil

	case model.NodeTypeRichText:
		if form.Get("format") == "markdown" {
			return model.Content{"markdown": form.Get("markdown")}, nil
		}
		return model.Content{"html": form.Get("html")}, nil

	default:
		return nil, ErrInvalidDraftJSON
	}
}
