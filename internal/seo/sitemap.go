// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/carepath/sitecms/internal/model"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// MaxSitemapURLs is the protocol limit for one sitemap file.
const MaxSitemapURLs = 50000

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Valid change frequency values.
const (
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
	ChangeFreqYearly  ChangeFreq = "yearly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// pageHints is how often each page type changes and how it ranks.
var pageHints = map[model.PageType]struct {
	freq     ChangeFreq
	priority string
}{
	model.PageTypeService:   {ChangeFreqMonthly, "0.9"},
	model.PageTypeMarketing: {ChangeFreqWeekly, "0.8"},
	model.PageTypeBlog:      {ChangeFreqMonthly, "0.6"},
	model.PageTypeJob:       {ChangeFreqWeekly, "0.5"},
	model.PageTypeLegal:     {ChangeFreqYearly, "0.3"},
}

// SitemapBuilder builds sitemap XML from published pages.
type SitemapBuilder struct {
	siteURL  string
	homeSlug string
	urls     []SitemapURL
}

// NewSitemapBuilder creates a new sitemap builder. The page with
// homeSlug is listed as the site root.
func NewSitemapBuilder(siteURL, homeSlug string) *SitemapBuilder {
	return &SitemapBuilder{
		siteURL:  strings.TrimRight(siteURL, "/"),
		homeSlug: homeSlug,
		urls:     make([]SitemapURL, 0),
	}
}

// AddHomepage adds the site root to the sitemap.
func (b *SitemapBuilder) AddHomepage(updatedAt time.Time) {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/",
		LastMod:    lastMod(updatedAt),
		ChangeFreq: ChangeFreqDaily,
		Priority:   "1.0",
	})
}

// AddPage adds a published page. The home page is skipped because it is
// served at the root.
func (b *SitemapBuilder) AddPage(page model.Page) {
	if page.Slug == b.homeSlug || len(b.urls) >= MaxSitemapURLs {
		return
	}
	hints, ok := pageHints[page.PageType]
	if !ok {
		hints = pageHints[model.PageTypeMarketing]
	}
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/" + page.Slug,
		LastMod:    lastMod(page.UpdatedAt),
		ChangeFreq: hints.freq,
		Priority:   hints.priority,
	})
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(output, xmlBytes...), nil
}

// GenerateSitemap builds the sitemap of the published pages. The root
// takes the update time of the home page when there is one.
func GenerateSitemap(siteURL, homeSlug string, pages []model.Page) ([]byte, error) {
	builder := NewSitemapBuilder(siteURL, homeSlug)
	var homeUpdated time.Time
	for _, p := range pages {
		if p.Slug == homeSlug {
			homeUpdated = p.UpdatedAt
		}
	}
	builder.AddHomepage(homeUpdated)
	for _, p := range pages {
		builder.AddPage(p)
	}
	return builder.Build()
}

func lastMod(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
