package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	engine *ops.Engine
	owner  string
}

// NewHandlers creates a new Handlers instance serving owner.
func NewHandlers(engine *ops.Engine, owner string) *Handlers {
	return &Handlers{engine: engine, owner: owner}
}

// Request types for each tool

// FolderCreateRequest represents the arguments for folder_create.
type FolderCreateRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// FolderUpdateRequest represents the arguments for folder_update.
type FolderUpdateRequest struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	ParentID    *string `json:"parent_id,omitempty"`
	ClearParent bool    `json:"clear_parent,omitempty"`
}

// IDRequest represents the arguments for tools addressing one record.
type IDRequest struct {
	ID string `json:"id"`
}

// SnippetListRequest represents the arguments for snippet_list.
type SnippetListRequest struct {
	FolderID *string `json:"folder_id,omitempty"`
}

// SnippetCreateRequest represents the arguments for snippet_create.
type SnippetCreateRequest struct {
	Name      string  `json:"name"`
	Shortcut  string  `json:"shortcut"`
	Body      string  `json:"body,omitempty"`
	FolderID  *string `json:"folder_id,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
	MatchType string  `json:"match_type,omitempty"`
}

// SnippetUpdateRequest represents the arguments for snippet_update.
type SnippetUpdateRequest struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Shortcut    *string `json:"shortcut,omitempty"`
	Body        *string `json:"body,omitempty"`
	FolderID    *string `json:"folder_id,omitempty"`
	ClearFolder bool    `json:"clear_folder,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	MatchType   *string `json:"match_type,omitempty"`
}

// ImportRequest represents the arguments for snippet_import.
type ImportRequest struct {
	Path     string  `json:"path,omitempty"`
	Payload  string  `json:"payload,omitempty"`
	Format   string  `json:"format,omitempty"`
	FolderID *string `json:"folder_id,omitempty"`
}

// ExportRequest represents the arguments for snippet_export.
type ExportRequest struct {
	Path     string  `json:"path,omitempty"`
	FolderID *string `json:"folder_id,omitempty"`
	Inline   bool    `json:"inline,omitempty"`
}

// ExpandRequest represents the arguments for snippet_expand.
type ExpandRequest struct {
	Text string `json:"text"`
	App  string `json:"app,omitempty"`
}

// SettingsUpdateRequest represents the arguments for settings_update.
type SettingsUpdateRequest struct {
	ExpandEnabled *bool    `json:"expand_enabled,omitempty"`
	Trigger       *string  `json:"trigger,omitempty"`
	ExcludedApps  []string `json:"excluded_apps,omitempty"`
}

// Handler implementations

// HandleFolderList handles the folder_list tool call.
func (h *Handlers) HandleFolderList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.engine.ListFolders(ops.ListFoldersInput{Owner: h.owner})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFolderCreate handles the folder_create tool call.
func (h *Handlers) HandleFolderCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FolderCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.engine.CreateFolder(ops.CreateFolderInput{
		Owner:    h.owner,
		Name:     input.Name,
		ParentID: input.ParentID,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFolderUpdate handles the folder_update tool call.
func (h *Handlers) HandleFolderUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FolderUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.engine.UpdateFolder(ops.UpdateFolderInput{
		Owner:       h.owner,
		ID:          input.ID,
		Name:        input.Name,
		ParentID:    input.ParentID,
		ClearParent: input.ClearParent,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleFolderDelete handles the folder_delete tool call.
func (h *Handlers) HandleFolderDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.engine.DeleteFolder(ops.DeleteFolderInput{Owner: h.owner, ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSnippetList handles the snippet_list tool call.
func (h *Handlers) HandleSnippetList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SnippetListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.engine.ListSnippets(ops.ListSnippetsInput{Owner: h.owner, FolderID: input.FolderID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSnippetCreate handles the snippet_create tool call.
func (h *Handlers) HandleSnippetCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SnippetCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.engine.CreateSnippet(ops.CreateSnippetInput{
		Owner:     h.owner,
		Name:      input.Name,
		Shortcut:  input.Shortcut,
		Body:      input.Body,
		FolderID:  input.FolderID,
		IsActive:  input.IsActive,
		MatchType: input.MatchType,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSnippetUpdate handles the snippet_update tool call.
func (h *Handlers) HandleSnippetUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SnippetUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.engine.UpdateSnippet(ops.UpdateSnippetInput{
		Owner:       h.owner,
		ID:          input.ID,
		Name:        input.Name,
		Shortcut:    input.Shortcut,
		Body:        input.Body,
		FolderID:    input.FolderID,
		ClearFolder: input.ClearFolder,
		IsActive:    input.IsActive,
		MatchType:   input.MatchType,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSnippetDelete handles the snippet_delete tool call.
func (h *Handlers) HandleSnippetDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.engine.DeleteSnippet(ops.DeleteSnippetInput{Owner: h.owner, ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSnippetImport handles the snippet_import tool call.
func (h *Handlers) HandleSnippetImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.engine.ImportSnippets(ops.ImportInput{
		Owner:    h.owner,
		Path:     input.Path,
		Payload:  input.Payload,
		Format:   input.Format,
		FolderID: input.FolderID,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSnippetExport handles the snippet_export tool call.
func (h *Handlers) HandleSnippetExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.Inline {
		if input.Path != "" {
			return errorResult(errors.NewInvalidRequest("inline and path are mutually exclusive")), nil
		}
		doc, err := h.engine.ExportDocument(h.owner, input.FolderID)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(doc)
	}

	result, err := h.engine.ExportSnippets(ctx, ops.ExportInput{
		Owner:    h.owner,
		Path:     input.Path,
		FolderID: input.FolderID,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSnippetPreview handles the snippet_preview tool call.
func (h *Handlers) HandleSnippetPreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.engine.Preview(ops.PreviewInput{Owner: h.owner, ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSnippetExpand handles the snippet_expand tool call.
func (h *Handlers) HandleSnippetExpand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExpandRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.engine.ExpandText(ops.ExpandInput{Owner: h.owner, App: input.App, Text: input.Text})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSettingsGet handles the settings_get tool call.
func (h *Handlers) HandleSettingsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.engine.GetSettings(h.owner)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSettingsUpdate handles the settings_update tool call.
func (h *Handlers) HandleSettingsUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SettingsUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.engine.UpdateSettings(ops.UpdateSettingsInput{
		Owner:         h.owner,
		ExpandEnabled: input.ExpandEnabled,
		Trigger:       input.Trigger,
		ExcludedApps:  input.ExcludedApps,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if sErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    sErr.Code,
			"message": sErr.Message,
			"status":  sErr.Status,
		}
		if sErr.Code == errors.ErrInternal {
			errorObj["message"] = "an internal error occurred"
		} else if sErr.Details != nil {
			errorObj["details"] = sErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
