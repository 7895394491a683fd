package mcp

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/carryover/internal/config"
	"github.com/hpungsan/carryover/internal/heartbeat"
)

// KnownTypes lists the tool type prefixes accepted in disabled_types.
var KnownTypes = []string{"digest", "heartbeat", "handover", "log"}

type toolEntry struct {
	name    string
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry is kept in registration order.
var toolRegistry = []toolEntry{
	{"digest_session", digestSessionToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleDigestSession }},
	{"heartbeat_check", heartbeatCheckToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleHeartbeatCheck }},
	{"handover_latest", handoverLatestToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleHandoverLatest }},
	{"handover_list", handoverListToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleHandoverList }},
	{"log_append", logAppendToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleLogAppend }},
}

// AllToolNames returns every registered tool name in registration order.
func AllToolNames() []string {
	names := make([]string, len(toolRegistry))
	for i, e := range toolRegistry {
		names[i] = e.name
	}
	return names
}

// ValidateDisabledTools returns the entries of names that are not tools.
func ValidateDisabledTools(names []string) []string {
	return unknownNames(names, AllToolNames())
}

// ValidateDisabledTypes returns the entries of names that are not tool types.
func ValidateDisabledTypes(names []string) []string {
	return unknownNames(names, KnownTypes)
}

func unknownNames(names, known []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if !slices.Contains(known, name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool returns the type prefix of a "type_action" tool name
// ("handover_list" is a "handover" tool).
func GetTypeForTool(toolName string) string {
	typ, _, ok := strings.Cut(toolName, "_")
	if !ok {
		return ""
	}
	return typ
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	tools := make([]string, 0)
	for _, e := range toolRegistry {
		if slices.Contains(types, GetTypeForTool(e.name)) {
			tools = append(tools, e.name)
		}
	}
	return tools
}

// disabledSet merges cfg.DisabledTypes (expanded to their tools) with
// cfg.DisabledTools.
func disabledSet(cfg *config.Config) map[string]bool {
	disabled := make(map[string]bool)
	for _, name := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[name] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}
	return disabled
}

// NewServer creates an MCP server exposing the carryover tools that cfg
// does not disable.
func NewServer(store heartbeat.StateStore, cfg *config.Config, version string, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"carryover",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(store, cfg, logger)
	disabled := disabledSet(cfg)
	for _, e := range toolRegistry {
		if !disabled[e.name] {
			s.AddTool(e.def, e.handler(h))
		}
	}
	return s
}

// Run serves the tools over stdio until stdin closes.
func Run(store heartbeat.StateStore, cfg *config.Config, version string, logger *slog.Logger) error {
	return server.ServeStdio(NewServer(store, cfg, version, logger))
}
