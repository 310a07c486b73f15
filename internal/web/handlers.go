package web

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hpungsan/spark/internal/ops"
)

// Handlers contains the HTTP route handlers.
type Handlers struct {
	engine    *ops.Engine
	owner     string
	logger    *slog.Logger
	bodyLimit int64
}

type folderRequest struct {
	Name        *string `json:"name,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
	ClearParent bool    `json:"clear_parent,omitempty"`
}

type snippetRequest struct {
	Name        *string `json:"name,omitempty"`
	Shortcut    *string `json:"shortcut,omitempty"`
	Body        *string `json:"body,omitempty"`
	FolderID    *string `json:"folder_id,omitempty"`
	ClearFolder bool    `json:"clear_folder,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	MatchType   *string `json:"match_type,omitempty"`
}

type importRequest struct {
	Path     string  `json:"path,omitempty"`
	Payload  string  `json:"payload,omitempty"`
	Format   string  `json:"format,omitempty"`
	FolderID *string `json:"folder_id,omitempty"`
}

type exportRequest struct {
	Path     string  `json:"path,omitempty"`
	FolderID *string `json:"folder_id,omitempty"`
}

type settingsRequest struct {
	ExpandEnabled *bool    `json:"expand_enabled,omitempty"`
	Trigger       *string  `json:"trigger,omitempty"`
	ExcludedApps  []string `json:"excluded_apps,omitempty"`
}

type keystrokeRequest struct {
	Char    string `json:"char"`
	App     string `json:"app,omitempty"`
	Context string `json:"context,omitempty"`
}

type expandRequest struct {
	Text string `json:"text"`
	App  string `json:"app,omitempty"`
}

// HandleListFolders handles GET /api/folders.
func (h *Handlers) HandleListFolders(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.ListFolders(ops.ListFoldersInput{Owner: h.owner})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleCreateFolder handles POST /api/folders.
func (h *Handlers) HandleCreateFolder(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[folderRequest](w, r, h.bodyLimit)
	if err != nil {
		renderError(w, err)
		return
	}
	out, err := h.engine.CreateFolder(ops.CreateFolderInput{
		Owner:    h.owner,
		Name:     deref(req.Name),
		ParentID: req.ParentID,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, out)
}

// HandleUpdateFolder handles PATCH /api/folders/{id}.
func (h *Handlers) HandleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[folderRequest](w, r, h.bodyLimit)
	if err != nil {
		renderError(w, err)
		return
	}
	out, err := h.engine.UpdateFolder(ops.UpdateFolderInput{
		Owner:       h.owner,
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		ParentID:    req.ParentID,
		ClearParent: req.ClearParent,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleDeleteFolder handles DELETE /api/folders/{id}.
func (h *Handlers) HandleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.DeleteFolder(ops.DeleteFolderInput{Owner: h.owner, ID: chi.URLParam(r, "id")})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleListSnippets handles GET /api/snippets, optionally filtered by
// ?folder_id=.
func (h *Handlers) HandleListSnippets(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.ListSnippets(ops.ListSnippetsInput{
		Owner:    h.owner,
		FolderID: queryPtr(r, "folder_id"),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleCreateSnippet handles POST /api/snippets.
func (h *Handlers) HandleCreateSnippet(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[snippetRequest](w, r, h.bodyLimit)
	if err != nil {
		renderError(w, err)
		return
	}
	out, err := h.engine.CreateSnippet(ops.CreateSnippetInput{
		Owner:     h.owner,
		Name:      deref(req.Name),
		Shortcut:  deref(req.Shortcut),
		Body:      deref(req.Body),
		FolderID:  req.FolderID,
		IsActive:  req.IsActive,
		MatchType: deref(req.MatchType),
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, out)
}

// HandleUpdateSnippet handles PATCH /api/snippets/{id}.
func (h *Handlers) HandleUpdateSnippet(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[snippetRequest](w, r, h.bodyLimit)
	if err != nil {
		renderError(w, err)
		return
	}
	out, err := h.engine.UpdateSnippet(ops.UpdateSnippetInput{
		Owner:       h.owner,
		ID:          chi.URLParam(r, "id"),
		Name:        req.Name,
		Shortcut:    req.Shortcut,
		Body:        req.Body,
		FolderID:    req.FolderID,
		ClearFolder: req.ClearFolder,
		IsActive:    req.IsActive,
		MatchType:   req.MatchType,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleDeleteSnippet handles DELETE /api/snippets/{id}.
func (h *Handlers) HandleDeleteSnippet(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.DeleteSnippet(ops.DeleteSnippetInput{Owner: h.owner, ID: chi.URLParam(r, "id")})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandlePreview handles GET /api/snippets/{id}/preview.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.Preview(ops.PreviewInput{Owner: h.owner, ID: chi.URLParam(r, "id")})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleImport handles POST /api/import.
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[importRequest](w, r, h.bodyLimit)
	if err != nil {
		renderError(w, err)
		return
	}
	out, err := h.engine.ImportSnippets(ops.ImportInput{
		Owner:    h.owner,
		Path:     req.Path,
		Payload:  req.Payload,
		Format:   req.Format,
		FolderID: req.FolderID,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleExportInline handles GET /api/export and returns the export document
// as an attachment.
func (h *Handlers) HandleExportInline(w http.ResponseWriter, r *http.Request) {
	doc, err := h.engine.ExportDocument(h.owner, queryPtr(r, "folder_id"))
	if err != nil {
		renderError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="spark-export.json"`)
	renderJSON(w, http.StatusOK, doc)
}

// HandleExportFile handles POST /api/export and writes the export to disk.
func (h *Handlers) HandleExportFile(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[exportRequest](w, r, h.bodyLimit)
	if err != nil {
		renderError(w, err)
		return
	}
	out, err := h.engine.ExportSnippets(r.Context(), ops.ExportInput{
		Owner:    h.owner,
		Path:     req.Path,
		FolderID: req.FolderID,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleGetSettings handles GET /api/settings.
func (h *Handlers) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	out, err := h.engine.GetSettings(h.owner)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleUpdateSettings handles PUT /api/settings. Omitted fields keep their
// current value.
func (h *Handlers) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[settingsRequest](w, r, h.bodyLimit)
	if err != nil {
		renderError(w, err)
		return
	}
	out, err := h.engine.UpdateSettings(ops.UpdateSettingsInput{
		Owner:         h.owner,
		ExpandEnabled: req.ExpandEnabled,
		Trigger:       req.Trigger,
		ExcludedApps:  req.ExcludedApps,
	})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleKeystroke handles POST /api/keystrokes: one typed character in, one
// decision out.
func (h *Handlers) HandleKeystroke(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[keystrokeRequest](w, r, h.bodyLimit)
	if err != nil {
		renderError(w, err)
		return
	}
	ch, err := ops.ParseKeyChar(req.Char)
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, h.engine.OnKeystroke(h.owner, req.Context, ch, req.App))
}

// HandleExpand handles POST /api/expand.
func (h *Handlers) HandleExpand(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[expandRequest](w, r, h.bodyLimit)
	if err != nil {
		renderError(w, err)
		return
	}
	out, err := h.engine.ExpandText(ops.ExpandInput{Owner: h.owner, App: req.App, Text: req.Text})
	if err != nil {
		renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// queryPtr returns a pointer to a query parameter, or nil when it is absent.
func queryPtr(r *http.Request, key string) *string {
	q := r.URL.Query()
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
