package mcp

import (
	"context"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/eventrank/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"events_list": {
		def:     eventsListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEventsList },
	},
	"events_rank": {
		def:     eventsRankToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEventsRank },
	},
	"events_export": {
		def:     eventsExportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleEventsExport },
	},
	"majors_list": {
		def:     majorsListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleMajorsList },
	},
	"cache_stats": {
		def:     cacheStatsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCacheStats },
	},
	"cache_purge": {
		def:     cachePurgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCachePurge },
	},
}

// AllToolNames returns the sorted list of tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
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

// NewServer creates an MCP server with the event tools registered.
// Tools named in disabled are skipped.
func NewServer(deps *ops.Deps, version string, disabled []string) *server.MCPServer {
	s := server.NewMCPServer(
		"eventrank",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(deps)
	for name, entry := range toolRegistry {
		if slices.Contains(disabled, name) {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run starts the MCP server using stdio transport.
func Run(deps *ops.Deps, version string, disabled []string) error {
	return server.ServeStdio(NewServer(deps, version, disabled))
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
