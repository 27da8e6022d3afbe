// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package history

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/carepath/sitecms/internal/model"
)

// Tag is the visual badge of a change type.
type Tag struct {
	Label string
	Class string
}

// NeutralClass styles change types the dashboard does not know.
const NeutralClass = "tag-neutral"

var changeTags = map[model.ChangeType]Tag{
	model.ChangeTypeCreate:    {Label: "Created", Class: "tag-create"},
	model.ChangeTypeUpdate:    {Label: "Updated", Class: "tag-update"},
	model.ChangeTypePublish:   {Label: "Published", Class: "tag-publish"},
	model.ChangeTypeUnpublish: {Label: "Unpublished", Class: "tag-unpublish"},
	model.ChangeTypeRestore:   {Label: "Restored", Class: "tag-restore"},
}

// TagFor returns the badge for a change type. Unknown values get a
// neutral badge labelled with the title-cased raw value.
func TagFor(ct model.ChangeType) Tag {
	if tag, ok := changeTags[ct]; ok {
		return tag
	}
	label := strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(string(ct)))
	if label == "" {
		label = "Unknown"
	}
	return Tag{Label: cases.Title(language.English).String(label), Class: NeutralClass}
}
