package mcp

import "github.com/mark3labs/mcp-go/mcp"

var digestSessionToolDef = mcp.NewTool("digest_session",
	mcp.WithDescription("Assemble the session-start briefing: today's log, inbox, team activity, assigned tasks and, "+
		"for compact/resume sources, the latest handover. Bounded by max_context_chars."),
	mcp.WithString("source",
		mcp.Description("Session source. Handover context is included only for compact and resume. Default: startup."),
		mcp.Enum("startup", "resume", "compact", "clear"),
	),
	mcp.WithString("cwd",
		mcp.Description("Working directory shown in the briefing header. Default: the server's working directory."),
	),
)

var heartbeatCheckToolDef = mcp.NewTool("heartbeat_check",
	mcp.WithDescription("Report shared documents changed and inbox messages received since the previous check. "+
		"Read-only: the baseline is advanced only by the heartbeat hook, so calls here do not suppress its alerts."),
)

var handoverLatestToolDef = mcp.NewTool("handover_latest",
	mcp.WithDescription("Return LATEST_HANDOVER.md with its age in minutes. item is null when no handover exists."),
)

var handoverListToolDef = mcp.NewTool("handover_list",
	mcp.WithDescription("List saved handover snapshots, newest first."),
)

var logAppendToolDef = mcp.NewTool("log_append",
	mcp.WithDescription("Append an entry to today's daily log, before the Metrics trailer when present. "+
		"Creates the log with a standard header when missing."),
	mcp.WithString("title",
		mcp.Required(),
		mcp.Description("Single-line entry title, written as the ### heading after the current time."),
	),
	mcp.WithString("body",
		mcp.Description("Markdown body of the entry."),
	),
)
