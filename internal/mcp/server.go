package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/kinsfolk/internal/app"
	"github.com/hpungsan/kinsfolk/internal/config"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"garden_stats": {
		def:     gardenStatsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGardenStats },
	},
	"photo_list": {
		def:     photoListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePhotoList },
	},
	"photo_add": {
		def:     photoAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePhotoAdd },
	},
	"photo_remove": {
		def:     photoRemoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePhotoRemove },
	},
	"family_list": {
		def:     familyListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFamilyList },
	},
	"family_add": {
		def:     familyAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFamilyAdd },
	},
	"family_rename": {
		def:     familyRenameToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFamilyRename },
	},
	"family_remove": {
		def:     familyRemoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFamilyRemove },
	},
	"family_set_status": {
		def:     familySetStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFamilySetStatus },
	},
	"credential_status": {
		def:     credentialStatusToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCredentialStatus },
	},
}

// Tool definitions

var gardenStatsToolDef = mcp.NewTool("garden_stats",
	mcp.WithDescription("Get the capsule garden snapshot: photo count, garden level (1-5), streak, and next unlock time."),
)

var photoListToolDef = mcp.NewTool("photo_list",
	mcp.WithDescription("List the photos in the current capsule, newest first."),
)

var photoAddToolDef = mcp.NewTool("photo_add",
	mcp.WithDescription("Add a photo to the current capsule by source reference (file path, URL, or data URI)."),
	mcp.WithString("source_ref", mcp.Required(), mcp.Description("Displayable image locator")),
	mcp.WithString("caption", mcp.Description("Optional caption")),
	mcp.WithString("contributor", mcp.Description("Display name of the contributor (default: You)")),
	mcp.WithBoolean("ai_generated", mcp.Description("Mark the photo as AI-generated")),
)

var photoRemoveToolDef = mcp.NewTool("photo_remove",
	mcp.WithDescription("Remove a photo from the current capsule. Removing an unknown id is a no-op."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Photo ID")),
)

var familyListToolDef = mcp.NewTool("family_list",
	mcp.WithDescription("List family members and their contribution status for this capsule cycle."),
)

var familyAddToolDef = mcp.NewTool("family_add",
	mcp.WithDescription("Add a family member to the roster with pending status."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Member display name")),
)

var familyRenameToolDef = mcp.NewTool("family_rename",
	mcp.WithDescription("Rename a family member; the avatar label is re-derived from the new name."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Member ID")),
	mcp.WithString("name", mcp.Required(), mcp.Description("New display name")),
)

var familyRemoveToolDef = mcp.NewTool("family_remove",
	mcp.WithDescription("Remove a family member from the roster. Requires confirm=true; the roster never prompts on its own."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Member ID")),
	mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Explicit confirmation of the removal")),
)

var familySetStatusToolDef = mcp.NewTool("family_set_status",
	mcp.WithDescription("Set a member's contribution status for this cycle."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Member ID")),
	mcp.WithString("status", mcp.Required(), mcp.Description("One of: ready, pending, overdue")),
)

var credentialStatusToolDef = mcp.NewTool("credential_status",
	mcp.WithDescription("Report whether an AI credential is configured and where it comes from. Never returns the credential itself."),
)

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

// NewServer creates a new MCP server with Kinsfolk tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(a *app.App, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"kinsfolk",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(a)

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(a *app.App, cfg *config.Config, version string) error {
	s := NewServer(a, cfg, version)
	return server.ServeStdio(s)
}
