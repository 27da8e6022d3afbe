// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/carepath/sitecms/internal/cmsclient"
	"github.com/carepath/sitecms/internal/content"
	"github.com/carepath/sitecms/internal/editmode"
	"github.com/carepath/sitecms/internal/history"
	"github.com/carepath/sitecms/internal/middleware"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/notify"
	"github.com/carepath/sitecms/internal/pagecontent"
	"github.com/carepath/sitecms/internal/render"
	"github.com/carepath/sitecms/internal/uikit"
)

// PagesPerPage is the number of pages shown per dashboard list page.
const PagesPerPage = 20

// Dashboard messages
const (
	MsgPageCreated        = "Page created"
	MsgPageCreateFailed   = "Failed to create page"
	MsgPageUpdateFailed   = "Failed to update page"
	MsgPageLoadFailed     = "Failed to load page"
	MsgEditModeOn         = "Edit mode on"
	MsgEditModeOff        = "Edit mode off"
	MsgInvalidContentJSON = "Content must be a JSON object"
)

// DashboardHandler serves the editor dashboard. Every read and write
// goes through the CMS API with the API key of the signed-in editor.
type DashboardHandler struct {
	client         *cmsclient.Client
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	notifier       *notify.SessionNotifier
	mode           *editmode.State
	nodes          *content.Renderer
	aggregator     *pagecontent.Aggregator
	editing        *pagecontent.Aggregator
	history        *history.History
	onAuthFailure  AuthFailureHandler
	logger         *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler. A nil
// onAuthFailure uses SessionExpired.
func NewDashboardHandler(client *cmsclient.Client, renderer *render.Renderer, sm *scs.SessionManager, mode *editmode.State, onAuthFailure AuthFailureHandler, logger *slog.Logger) *DashboardHandler {
	if onAuthFailure == nil {
		onAuthFailure = SessionExpired(sm, renderer)
	}
	notifier := notify.NewSessionNotifier(sm)
	return &DashboardHandler{
		client:         client,
		renderer:       renderer,
		sessionManager: sm,
		notifier:       notifier,
		mode:           mode,
		nodes:          content.MustNewRenderer(content.WithLogger(logger)),
		aggregator:     pagecontent.New(client, mode, notifier, logger),
		editing:        pagecontent.New(client, editmode.Static(true), notifier, logger),
		history:        history.New(client, notifier, logger),
		onAuthFailure:  onAuthFailure,
		logger:         logger,
	}
}

// Routes registers the dashboard routes on r, which is mounted at /admin
// behind the session and DashboardAuth middleware.
func (h *DashboardHandler) Routes(r chi.Router) {
	r.Get(RouteRoot, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, adminPagesURL, http.StatusSeeOther)
	})
	r.Post(RouteEditMode, h.ToggleEditMode)
	r.Get(RoutePages, h.ListPages)
	r.Post(RoutePages, h.CreatePage)
	r.Get(RoutePagesID, h.Preview)
	r.Get(RoutePageEdit, h.Edit)
	r.Post(RoutePagePublish, h.TogglePublish)
	r.Post(RoutePageNodes, h.AddBlock)
	r.Post(RoutePageNode, h.SaveNode)
	r.Get(RoutePageNodeDelete, h.ConfirmDeleteNode)
	r.Post(RoutePageNodeDelete, h.DeleteNode)
	r.Get(RoutePageVersions, h.ListVersions)
	r.Get(RoutePageVersion, h.ViewVersion)
	r.Get(RoutePageVersionRestore, h.ConfirmRestore)
	r.Post(RoutePageVersionRestore, h.RestoreVersion)
}

// PageListData holds data for the page list template.
type PageListData struct {
	Pages      []model.Page
	Pagination uikit.Pagination
	PageType   string
	PageTypes  []model.PageType
}

// BlockView is one rendered content block.
type BlockView struct {
	Node    model.ContentNode
	HTML    template.HTML
	Editing bool
}

// PageViewData holds data for the preview and edit templates.
type PageViewData struct {
	Page      model.Page
	Blocks    []BlockView
	Empty     pagecontent.EmptyState
	EditMode  bool
	Session   bool
	NodeTypes []pagecontent.NodeTypeChoice
}

// ShowPlaceholder reports whether the "no content" placeholder is shown.
func (d PageViewData) ShowPlaceholder() bool { return d.Empty == pagecontent.EmptyPlaceholder }

// ShowAddBlock reports whether the add-block form is shown.
func (d PageViewData) ShowAddBlock() bool { return d.EditMode }

// ConfirmData holds data for the confirmation template.
type ConfirmData struct {
	Prompt    string
	Action    string
	CancelURL string
	Submit    string
}

func (h *DashboardHandler) templateData(r *http.Request, title string, data any, crumbs ...string) render.TemplateData {
	return render.TemplateData{
		Title:       title,
		Data:        data,
		KeyName:     middleware.GetKeyName(h.sessionManager, r),
		EditMode:    h.mode.IsEditMode(),
		Breadcrumbs: uikit.Crumbs(crumbs...),
	}
}

func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data render.TemplateData) {
	if err := h.renderer.RenderStatus(w, r, status, name, data); err != nil {
		logAndInternalError(w, "failed to render template", "template", name, "error", err)
	}
}

// apiFailure answers a failed CMS API call: rejected credentials go to
// the auth failure handler, missing resources get a 404 page and
// anything else is flashed on the way back to fallback.
func (h *DashboardHandler) apiFailure(w http.ResponseWriter, r *http.Request, err error, fallback, message string) {
	switch {
	case cmsclient.IsAuthError(err):
		h.onAuthFailure(w, r, err)
	case errors.Is(err, cmsclient.ErrNotFound), errors.Is(err, history.ErrVersionNotFound):
		h.notFound(w, r)
	default:
		h.logger.Error("cms api request failed", "path", r.URL.Path, "error", err)
		flashError(w, r, h.notifier, fallback, cmsclient.ErrorMessage(err, message))
	}
}

func (h *DashboardHandler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "admin/not_found", h.templateData(r, "Not found", nil, "Pages", adminPagesURL, "Not found", ""))
}

// ToggleEditMode handles POST /admin/edit-mode.
func (h *DashboardHandler) ToggleEditMode(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	back := safeReturn(r.PostForm.Get("return"), adminPagesURL)

	msg := MsgEditModeOff
	if h.mode.ToggleEditMode() {
		msg = MsgEditModeOn
	}
	flashSuccess(w, r, h.notifier, back, msg)
}

// ListPages handles GET /admin/pages.
func (h *DashboardHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.client.ListPages(r.Context(), cmsclient.ScopeAdmin)
	if err != nil {
		if cmsclient.IsAuthError(err) {
			h.onAuthFailure(w, r, err)
			return
		}
		logAndInternalError(w, "failed to list pages", "error", err)
		return
	}

	pageType := r.URL.Query().Get("type")
	if pageType != "" {
		pages = slices.DeleteFunc(slices.Clone(pages), func(p model.Page) bool {
			return string(p.PageType) != pageType
		})
	}

	pagination := uikit.BuildPagination(uikit.ParsePageParam(r), len(pages), PagesPerPage, adminPagesURL, r.URL.Query())
	data := PageListData{
		Pages:      uikit.PageSlice(pages, pagination.CurrentPage, PagesPerPage),
		Pagination: pagination,
		PageType:   pageType,
		PageTypes:  model.AllPageTypes(),
	}
	h.render(w, r, http.StatusOK, "admin/pages", h.templateData(r, "Pages", data, "Pages", adminPagesURL))
}

// CreatePage handles POST /admin/pages.
func (h *DashboardHandler) CreatePage(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.notifier, adminPagesURL) {
		return
	}

	in := model.CreatePageInput{
		Title:       strings.TrimSpace(r.PostForm.Get("title")),
		PageType:    model.PageType(r.PostForm.Get("page_type")),
		Category:    strings.TrimSpace(r.PostForm.Get("category")),
		Description: strings.TrimSpace(r.PostForm.Get("description")),
	}
	page, err := h.client.CreatePage(r.Context(), in)
	if err != nil {
		if cmsclient.IsAuthError(err) {
			h.onAuthFailure(w, r, err)
			return
		}
		flashError(w, r, h.notifier, adminPagesURL, apiErrorText(err, MsgPageCreateFailed))
		return
	}

	h.logger.Info("page created", "page_id", page.ID, "slug", page.Slug)
	flashSuccess(w, r, h.notifier, adminEditURL(page.ID), MsgPageCreated)
}

// TogglePublish handles POST /admin/pages/{id}/publish.
func (h *DashboardHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	page, err := h.client.GetPage(r.Context(), pageID)
	if err != nil {
		h.apiFailure(w, r, err, adminPagesURL, MsgPageLoadFailed)
		return
	}

	published := !page.IsPublished
	page, err = h.client.UpdatePage(r.Context(), pageID, model.UpdatePageInput{IsPublished: &published})
	if err != nil {
		h.apiFailure(w, r, err, adminPageURL(pageID), MsgPageUpdateFailed)
		return
	}

	msg := "Page unpublished"
	if page.IsPublished {
		msg = "Page published"
	}
	flashSuccess(w, r, h.notifier, safeReturn(r.Referer(), adminPageURL(pageID)), msg)
}

// Preview handles GET /admin/pages/{id}. Content follows the global
// edit-mode flag. The page and its nodes load concurrently.
func (h *DashboardHandler) Preview(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	data, err := h.loadPage(r, h.aggregator, pageID, nil)
	if err != nil {
		h.apiFailure(w, r, err, adminPagesURL, MsgPageLoadFailed)
		return
	}
	h.render(w, r, http.StatusOK, "admin/page", h.templateData(r, data.Page.Title, data,
		"Pages", adminPagesURL, data.Page.Title, ""))
}

// Edit handles GET /admin/pages/{id}/edit, a page-scoped edit session:
// edit mode is switched on for the load and restored afterwards.
// ?edit={nodeID} opens the inline editor of one node.
func (h *DashboardHandler) Edit(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var open *openEditor
	if nodeID := r.URL.Query().Get("edit"); nodeID != "" {
		open = &openEditor{nodeID: nodeID}
	}
	h.renderEdit(w, r, http.StatusOK, pageID, open)
}

// openEditor selects the node shown with its inline editor. A nil draft
// starts from the stored content. rawJSON, when set, is rejected JSON
// shown back in the JSON editor as typed.
type openEditor struct {
	nodeID  string
	draft   model.Content
	rawJSON string
}

// renderEdit renders the edit session. The session keeps the global flag
// on while it runs, but reads through the editing aggregator so a toggle
// from another request cannot switch it to the public listing.
func (h *DashboardHandler) renderEdit(w http.ResponseWriter, r *http.Request, status int, pageID int64, open *openEditor) {
	var data *PageViewData
	err := editmode.WithEditMode(h.mode, func() error {
		var err error
		data, err = h.loadPage(r, h.editing, pageID, open)
		return err
	})
	if err != nil {
		h.apiFailure(w, r, err, adminPagesURL, MsgPageLoadFailed)
		return
	}
	data.Session = true
	h.render(w, r, status, "admin/page", h.templateData(r, "Editing "+data.Page.Title, data,
		"Pages", adminPagesURL, data.Page.Title, adminPageURL(pageID), "Edit", ""))
}

// loadPage fetches the page and its content concurrently and renders
// the blocks for the edit mode agg reads.
func (h *DashboardHandler) loadPage(r *http.Request, agg *pagecontent.Aggregator, pageID int64, open *openEditor) (*PageViewData, error) {
	var (
		page model.Page
		view *pagecontent.View
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		page, err = h.client.GetPage(ctx, pageID)
		return err
	})
	g.Go(func() error {
		var err error
		view, err = agg.Load(ctx, pageID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := &PageViewData{
		Page:     page,
		Blocks:   make([]BlockView, 0, len(view.Nodes)),
		Empty:    view.Empty,
		EditMode: view.EditMode,
	}
	if view.EditMode {
		data.NodeTypes = pagecontent.NodeTypeChoices()
	}
	for _, node := range view.Nodes {
		block := BlockView{Node: node}
		if view.EditMode && open != nil && open.nodeID == node.ID {
			if open.rawJSON != "" {
				block.HTML = h.nodes.RenderRawEditor(node, open.rawJSON, MsgInvalidContentJSON)
			} else {
				draft := open.draft
				if draft == nil {
					draft = node.Content
				}
				block.HTML = h.nodes.RenderEditor(node, draft)
			}
			block.Editing = true
		} else {
			block.HTML = h.nodes.RenderNode(node, view.EditMode)
		}
		data.Blocks = append(data.Blocks, block)
	}
	return data, nil
}

// findNode returns a node of the page from the admin listing.
func (h *DashboardHandler) findNode(r *http.Request, pageID int64, nodeID string) (model.ContentNode, error) {
	nodes, err := h.client.ListNodes(r.Context(), cmsclient.ScopeAdmin, pageID)
	if err != nil {
		return model.ContentNode{}, err
	}
	for _, n := range nodes {
		if n.ID == nodeID {
			return n, nil
		}
	}
	return model.ContentNode{}, cmsclient.ErrNotFound
}

// AddBlock handles POST /admin/pages/{id}/nodes.
func (h *DashboardHandler) AddBlock(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.notifier, adminEditURL(pageID)) {
		return
	}
	nodeType := model.NodeType(r.PostForm.Get("node_type"))

	var created *pagecontent.View
	err := editmode.WithEditMode(h.mode, func() error {
		view, err := h.editing.Load(r.Context(), pageID)
		if err != nil {
			return err
		}
		created, err = h.editing.Create(r.Context(), view, nodeType)
		return err
	})
	switch {
	case err == nil:
		target := adminEditURL(pageID)
		if n := len(created.Nodes); n > 0 {
			last := created.Nodes[n-1]
			target = adminEditURL(pageID) + "?edit=" + last.ID + "#node-" + last.ID
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	case cmsclient.IsAuthError(err):
		h.onAuthFailure(w, r, err)
	case errors.Is(err, cmsclient.ErrNotFound):
		h.notFound(w, r)
	default:
		// Create already queued the error notification.
		h.logger.Warn("adding content block failed", "page_id", pageID, "node_type", nodeType, "error", err)
		http.Redirect(w, r, adminEditURL(pageID), http.StatusSeeOther)
	}
}

// SaveNode handles POST /admin/pages/{id}/nodes/{nodeId}. A failed save
// re-renders the editor with the submitted draft.
func (h *DashboardHandler) SaveNode(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	nodeID := chi.URLParam(r, "nodeId")
	if !parseFormOrRedirect(w, r, h.notifier, adminEditURL(pageID)) {
		return
	}

	node, err := h.findNode(r, pageID, nodeID)
	if err != nil {
		h.apiFailure(w, r, err, adminEditURL(pageID), MsgPageLoadFailed)
		return
	}

	editor := content.NewNodeEditor(node, h.client, h.notifier)
	editor.BeginEdit()

	if r.PostForm.Has("json") {
		// Text that is not a JSON object is not applied; the editor stays
		// open with the text as typed.
		text := r.PostForm.Get("json")
		if err := editor.SetDraftJSON(text); err != nil {
			h.renderEdit(w, r, http.StatusUnprocessableEntity, pageID, &openEditor{nodeID: node.ID, rawJSON: text})
			return
		}
	} else {
		draft, err := content.ApplyForm(node.Content, node.NodeType, r.PostForm)
		if err != nil {
			h.renderEdit(w, r, http.StatusUnprocessableEntity, pageID, &openEditor{nodeID: node.ID})
			return
		}
		if err := editor.SetDraft(draft); err != nil {
			logAndInternalError(w, "failed to set draft", "error", err)
			return
		}
	}

	if err := editor.Save(r.Context()); err != nil {
		if cmsclient.IsAuthError(err) {
			h.onAuthFailure(w, r, err)
			return
		}
		h.renderEdit(w, r, http.StatusUnprocessableEntity, pageID, &openEditor{nodeID: node.ID, draft: editor.Draft()})
		return
	}

	http.Redirect(w, r, adminNodeAnchorURL(pageID, node.ID), http.StatusSeeOther)
}

// ConfirmDeleteNode handles GET /admin/pages/{id}/nodes/{nodeId}/delete.
func (h *DashboardHandler) ConfirmDeleteNode(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	node, err := h.findNode(r, pageID, chi.URLParam(r, "nodeId"))
	if err != nil {
		h.apiFailure(w, r, err, adminEditURL(pageID), MsgPageLoadFailed)
		return
	}

	data := ConfirmData{
		Prompt:    notify.PromptDeleteNode,
		Action:    r.URL.Path,
		CancelURL: adminNodeAnchorURL(pageID, node.ID),
		Submit:    "Delete " + strings.ToLower(node.NodeType.Label()),
	}
	h.render(w, r, http.StatusOK, "admin/confirm", h.templateData(r, "Delete content block", data,
		"Pages", adminPagesURL, "Edit", adminEditURL(pageID), "Delete", ""))
}

// DeleteNode handles POST /admin/pages/{id}/nodes/{nodeId}/delete.
func (h *DashboardHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	pageID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !parseFormOrRedirect(w, r, h.notifier, adminEditURL(pageID)) {
		return
	}
	node, err := h.findNode(r, pageID, chi.URLParam(r, "nodeId"))
	if err != nil {
		h.apiFailure(w, r, err, adminEditURL(pageID), MsgPageLoadFailed)
		return
	}

	editor := content.NewNodeEditor(node, h.client, h.notifier)
	deleted, err := editor.Delete(r.Context(), confirmer(r))
	switch {
	case cmsclient.IsAuthError(err):
		h.onAuthFailure(w, r, err)
	case deleted:
		h.logger.Info("content node deleted", "page_id", pageID, "node_id", node.ID)
		http.Redirect(w, r, adminEditURL(pageID), http.StatusSeeOther)
	default:
		http.Redirect(w, r, adminNodeAnchorURL(pageID, node.ID), http.StatusSeeOther)
	}
}
