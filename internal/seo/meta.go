// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds the search-engine surface of the public site:
// page meta tags, structured data, the sitemap and robots.txt.
package seo

import (
	"encoding/json"
	"html/template"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/carepath/sitecms/internal/model"
)

// maxDescriptionLength is where meta descriptions are cut.
const maxDescriptionLength = 160

// Meta holds the SEO tags of one public page.
type Meta struct {
	Canonical     string      // Canonical URL
	OGTitle       string      // Open Graph title
	OGDescription string      // Open Graph description
	OGImage       string      // Open Graph image URL (absolute)
	OGType        string      // Open Graph type (website, article)
	OGSiteName    string      // Open Graph site name
	Robots        string      // Robots directive
	JSONLD        template.JS // Structured data
}

// SiteInfo contains site-wide settings for SEO.
type SiteInfo struct {
	Name        string
	URL         string
	Description string
}

func (s SiteInfo) baseURL() string {
	return strings.TrimRight(s.URL, "/")
}

// PageMeta builds the tags of a published page. The page with homeSlug
// is canonical at the site root.
func PageMeta(page model.Page, site SiteInfo, homeSlug string) *Meta {
	canonical := site.baseURL() + "/" + page.Slug
	if page.Slug == homeSlug {
		canonical = site.baseURL() + "/"
	}

	description := page.MetaDescription
	if description == "" {
		description = page.Description
	}
	description = truncateText(description, maxDescriptionLength)

	meta := &Meta{
		Canonical:     canonical,
		OGTitle:       page.Title,
		OGDescription: description,
		OGImage:       makeAbsoluteURL(page.FeaturedImage, site.baseURL()),
		OGType:        "website",
		OGSiteName:    site.Name,
		Robots:        "index,follow",
	}
	if page.PageType == model.PageTypeBlog {
		meta.OGType = "article"
	}

	meta.JSONLD = marshalJSONLD(WebPageSchema{
		Context:       "https://schema.org",
		Type:          schemaType(page.PageType),
		Name:          page.Title,
		Description:   description,
		URL:           canonical,
		Image:         meta.OGImage,
		DatePublished: formatDate(page.CreatedAt),
		DateModified:  formatDate(page.UpdatedAt),
		Publisher:     &OrgSchema{Type: "MedicalOrganization", Name: site.Name, URL: site.baseURL() + "/"},
	})
	return meta
}

// HomeMeta builds the tags of the page index served when no home page
// is published.
func HomeMeta(site SiteInfo) *Meta {
	root := site.baseURL() + "/"
	return &Meta{
		Canonical:     root,
		OGTitle:       site.Name,
		OGDescription: site.Description,
		OGType:        "website",
		OGSiteName:    site.Name,
		Robots:        "index,follow",
		JSONLD: marshalJSONLD(WebSiteSchema{
			Context:     "https://schema.org",
			Type:        "WebSite",
			Name:        site.Name,
			URL:         root,
			Description: site.Description,
		}),
	}
}

// WebPageSchema represents JSON-LD page structured data.
type WebPageSchema struct {
	Context       string     `json:"@context"`
	Type          string     `json:"@type"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	URL           string     `json:"url"`
	Image         string     `json:"image,omitempty"`
	DatePublished string     `json:"datePublished,omitempty"`
	DateModified  string     `json:"dateModified,omitempty"`
	Publisher     *OrgSchema `json:"publisher,omitempty"`
}

// OrgSchema represents JSON-LD Organization structured data.
type OrgSchema struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// WebSiteSchema represents JSON-LD WebSite structured data for the root.
type WebSiteSchema struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// schemaType maps a page type onto its schema.org type.
func schemaType(t model.PageType) string {
	switch t {
	case model.PageTypeBlog:
		return "BlogPosting"
	case model.PageTypeService:
		return "MedicalWebPage"
	case model.PageTypeJob:
		return "JobPosting"
	default:
		return "WebPage"
	}
}

// marshalJSONLD marshals structured data for a script tag.
func marshalJSONLD(v any) template.JS {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return template.JS(data)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// truncateText truncates text to maxLen bytes at a word boundary.
func truncateText(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}

	for maxLen > 0 && !utf8.RuneStart(text[maxLen]) {
		maxLen--
	}
	truncated := text[:maxLen]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > maxLen/2 {
		truncated = truncated[:lastSpace]
	}
	return strings.TrimSpace(truncated) + "..."
}

// makeAbsoluteURL ensures a URL is absolute by prepending site URL if needed.
func makeAbsoluteURL(url, siteURL string) string {
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return siteURL + url
}
