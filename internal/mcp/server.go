package mcp

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/spinit/internal/config"
	"github.com/hpungsan/spinit/internal/ops"
	"github.com/hpungsan/spinit/internal/session"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"spinner_create": {
		def:     spinnerCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSpinnerCreate },
	},
	"spinner_update": {
		def:     spinnerUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSpinnerUpdate },
	},
	"spinner_delete": {
		def:     spinnerDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSpinnerDelete },
	},
	"spinner_list": {
		def:     spinnerListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSpinnerList },
	},
	"spinner_layout": {
		def:     spinnerLayoutToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSpinnerLayout },
	},
	"spinner_spin": {
		def:     spinnerSpinToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSpinnerSpin },
	},
	"spinner_export": {
		def:     spinnerExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSpinnerExport },
	},
	"spinner_import": {
		def:     spinnerImportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSpinnerImport },
	},
	"option_add": {
		def:     optionAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOptionAdd },
	},
	"option_update": {
		def:     optionUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOptionUpdate },
	},
	"option_delete": {
		def:     optionDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOptionDelete },
	},
	"option_list": {
		def:     optionListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOptionList },
	},
}

// AllToolNames returns a sorted list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
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

// NewServer creates a new MCP server with Spinit tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(coll *ops.Collection, sessions *session.Manager, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"spinit",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(coll, sessions, cfg)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
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

// Run starts the MCP server using stdio transport.
func Run(coll *ops.Collection, sessions *session.Manager, cfg *config.Config, version string) error {
	s := NewServer(coll, sessions, cfg, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
