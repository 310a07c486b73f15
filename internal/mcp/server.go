package mcp

import (
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/spark/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"folder", "snippet", "settings"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"folder_list": {
		def:     folderListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFolderList },
	},
	"folder_create": {
		def:     folderCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFolderCreate },
	},
	"folder_update": {
		def:     folderUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFolderUpdate },
	},
	"folder_delete": {
		def:     folderDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFolderDelete },
	},
	"snippet_list": {
		def:     snippetListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSnippetList },
	},
	"snippet_create": {
		def:     snippetCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSnippetCreate },
	},
	"snippet_update": {
		def:     snippetUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSnippetUpdate },
	},
	"snippet_delete": {
		def:     snippetDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSnippetDelete },
	},
	"snippet_import": {
		def:     snippetImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSnippetImport },
	},
	"snippet_export": {
		def:     snippetExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSnippetExport },
	},
	"snippet_preview": {
		def:     snippetPreviewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSnippetPreview },
	},
	"snippet_expand": {
		def:     snippetExpandToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSnippetExpand },
	},
	"settings_get": {
		def:     settingsGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsGet },
	},
	"settings_update": {
		def:     settingsUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettingsUpdate },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "snippet_create" → "snippet").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates an MCP server exposing the engine's operations.
// Tools listed in DisabledTools or belonging to DisabledTypes are not registered.
func NewServer(engine *ops.Engine, logger *slog.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"spark",
		version,
		server.WithToolCapabilities(true),
	)

	cfg := engine.Config()
	h := NewHandlers(engine, cfg.Owner)

	if unknown := ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 && logger != nil {
		logger.Warn("unknown disabled_tools entries", slog.Any("tools", unknown))
	}
	if unknown := ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 && logger != nil {
		logger.Warn("unknown disabled_types entries", slog.Any("types", unknown))
	}

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves the MCP protocol on stdio.
func Run(engine *ops.Engine, logger *slog.Logger, version string) error {
	return server.ServeStdio(NewServer(engine, logger, version))
}
