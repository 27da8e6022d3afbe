// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"net/url"
	"strings"
)

// MaxLinkURLLength is the longest href or src accepted in content.
const MaxLinkURLLength = 2048

var allowedLinkSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"tel":    true,
}

// IsSafeLinkURL reports whether s can be placed in an href or src
// attribute: relative references, fragments and http(s)/mailto/tel URLs.
func IsSafeLinkURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > MaxLinkURLLength {
		return false
	}
	if strings.ContainsAny(s, "\x00\r\n\t") {
		return false
	}

	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		// "//host" is protocol relative and leaves the site.
		return !strings.HasPrefix(s, "//")
	}
	return allowedLinkSchemes[strings.ToLower(u.Scheme)]
}

// SafeLinkURL returns s when it is safe and fallback otherwise.
func SafeLinkURL(s, fallback string) string {
	if IsSafeLinkURL(s) {
		return strings.TrimSpace(s)
	}
	return fallback
}
