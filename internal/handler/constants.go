// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import "fmt"

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteParamSlug is the public page slug pattern.
	RouteParamSlug = "/{slug}"
	// RouteFeed is the RSS feed of blog pages.
	RouteFeed = "/feed.xml"
	// RouteSitemap is the XML sitemap of published pages.
	RouteSitemap = "/sitemap.xml"
	// RouteRobots is the crawler policy.
	RouteRobots = "/robots.txt"

	// RouteLogin is the dashboard sign-in route.
	RouteLogin = "/login"
	// RouteLogout is the dashboard sign-out route.
	RouteLogout = "/logout"
	// RouteEditMode toggles the global edit-mode flag.
	RouteEditMode = "/edit-mode"
	// RouteEvents is the event log route.
	RouteEvents = "/events"

	// RoutePages is the pages admin route.
	RoutePages = "/pages"
	// RoutePagesID is the page preview route.
	RoutePagesID = RoutePages + "/{id}"
	// RoutePageEdit is the page edit session route.
	RoutePageEdit = RoutePagesID + "/edit"
	// RoutePagePublish toggles publication.
	RoutePagePublish = RoutePagesID + "/publish"
	// RoutePageNodes adds content blocks.
	RoutePageNodes = RoutePagesID + "/nodes"
	// RoutePageNode saves one content block.
	RoutePageNode = RoutePageNodes + "/{nodeId}"
	// RoutePageNodeDelete confirms and deletes a content block.
	RoutePageNodeDelete = RoutePageNode + "/delete"
	// RoutePageVersions lists versions.
	RoutePageVersions = RoutePagesID + "/versions"
	// RoutePageVersion shows one version.
	RoutePageVersion = RoutePageVersions + "/{versionId}"
	// RoutePageVersionRestore confirms and restores a version.
	RoutePageVersionRestore = RoutePageVersion + "/restore"
)

// Dashboard URLs
const (
	adminPagesURL = "/admin/pages"
	adminLoginURL = "/admin/login"
)

func adminPageURL(pageID int64) string {
	return fmt.Sprintf("/admin/pages/%d", pageID)
}

func adminEditURL(pageID int64) string {
	return adminPageURL(pageID) + "/edit"
}

func adminNodeAnchorURL(pageID int64, nodeID string) string {
	return adminEditURL(pageID) + "#node-" + nodeID
}

func adminVersionsURL(pageID int64) string {
	return adminPageURL(pageID) + "/versions"
}
