package mcp

import "github.com/mark3labs/mcp-go/mcp"

var folderListToolDef = mcp.NewTool("folder_list",
	mcp.WithDescription("List folders, ordered by name."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var folderCreateToolDef = mcp.NewTool("folder_create",
	mcp.WithDescription("Create a folder, optionally nested under another folder."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Folder name")),
	mcp.WithString("parent_id", mcp.Description("Parent folder id (omit for a root folder)")),
)

var folderUpdateToolDef = mcp.NewTool("folder_update",
	mcp.WithDescription("Rename or move a folder. A folder cannot be moved under itself or its descendants."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Folder id")),
	mcp.WithString("name", mcp.Description("New name")),
	mcp.WithString("parent_id", mcp.Description("New parent folder id")),
	mcp.WithBoolean("clear_parent", mcp.Description("Move the folder to the root")),
)

var folderDeleteToolDef = mcp.NewTool("folder_delete",
	mcp.WithDescription("Delete a folder. Its snippets become unfiled and its child folders move up one level."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Folder id")),
	mcp.WithDestructiveHintAnnotation(true),
)

var snippetListToolDef = mcp.NewTool("snippet_list",
	mcp.WithDescription("List snippets, ordered by name."),
	mcp.WithString("folder_id", mcp.Description("Only list snippets in this folder")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var snippetCreateToolDef = mcp.NewTool("snippet_create",
	mcp.WithDescription("Create a snippet. Typing its shortcut replaces the shortcut with the body. "+
		"Bodies may contain {{date:FMT}}, {{time:FMT}}, {{clipboard}}, {{env:NAME}} and {{cursor}}."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Display name")),
	mcp.WithString("shortcut", mcp.Required(), mcp.Description("Trigger text, e.g. /ty (case-sensitive)")),
	mcp.WithString("body", mcp.Description("Replacement text")),
	mcp.WithString("folder_id", mcp.Description("Folder to file the snippet in")),
	mcp.WithBoolean("is_active", mcp.Description("Whether the snippet expands (default true)")),
	mcp.WithString("match_type", mcp.Enum("exact", "prefix"),
		mcp.Description("exact: the shortcut must not continue a word; prefix: fires anywhere (default exact)")),
)

var snippetUpdateToolDef = mcp.NewTool("snippet_update",
	mcp.WithDescription("Update a snippet. Omitted fields are left unchanged."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Snippet id")),
	mcp.WithString("name", mcp.Description("New name")),
	mcp.WithString("shortcut", mcp.Description("New shortcut")),
	mcp.WithString("body", mcp.Description("New body")),
	mcp.WithString("folder_id", mcp.Description("Move into this folder")),
	mcp.WithBoolean("clear_folder", mcp.Description("Unfile the snippet")),
	mcp.WithBoolean("is_active", mcp.Description("Enable or disable expansion")),
	mcp.WithString("match_type", mcp.Enum("exact", "prefix"), mcp.Description("New match type")),
)

var snippetDeleteToolDef = mcp.NewTool("snippet_delete",
	mcp.WithDescription("Delete a snippet."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Snippet id")),
	mcp.WithDestructiveHintAnnotation(true),
)

var snippetImportToolDef = mcp.NewTool("snippet_import",
	mcp.WithDescription("Import snippets from a JSON or CSV export (Text Blaze, Espanso-style arrays, CSV with "+
		"name, shortcut and content columns). Give either a file path or the raw payload."),
	mcp.WithString("path", mcp.Description("Path to a .json or .csv file in an allowed directory")),
	mcp.WithString("payload", mcp.Description("Raw export text")),
	mcp.WithString("format", mcp.Enum("auto", "json", "csv"), mcp.Description("Force a format (default auto)")),
	mcp.WithString("folder_id", mcp.Description("Folder for every imported snippet")),
)

var snippetExportToolDef = mcp.NewTool("snippet_export",
	mcp.WithDescription("Export snippets as JSON that snippet_import accepts."),
	mcp.WithString("path", mcp.Description("Output .json path (default: exports directory)")),
	mcp.WithString("folder_id", mcp.Description("Only export this folder")),
	mcp.WithBoolean("inline", mcp.Description("Return the document instead of writing a file")),
)

var snippetPreviewToolDef = mcp.NewTool("snippet_preview",
	mcp.WithDescription("Render a snippet body with placeholders expanded, plus an HTML preview."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Snippet id")),
	mcp.WithReadOnlyHintAnnotation(true),
)

var snippetExpandToolDef = mcp.NewTool("snippet_expand",
	mcp.WithDescription("Type text one character at a time and return the text after every expansion fires."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to type")),
	mcp.WithString("app", mcp.Description("Focused application name (for excluded apps)")),
)

var settingsGetToolDef = mcp.NewTool("settings_get",
	mcp.WithDescription("Get expansion settings."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var settingsUpdateToolDef = mcp.NewTool("settings_update",
	mcp.WithDescription("Update expansion settings. Omitted fields are left unchanged."),
	mcp.WithBoolean("expand_enabled", mcp.Description("Turn expansion on or off")),
	mcp.WithString("trigger", mcp.Description("Hotkey such as Ctrl+Alt+Space")),
	mcp.WithArray("excluded_apps", mcp.WithStringItems(), mcp.Description("Applications where expansion never fires")),
)
