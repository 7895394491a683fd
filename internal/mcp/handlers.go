package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/carryover/internal/config"
	"github.com/hpungsan/carryover/internal/digest"
	"github.com/hpungsan/carryover/internal/errors"
	"github.com/hpungsan/carryover/internal/heartbeat"
	"github.com/hpungsan/carryover/internal/logging"
	"github.com/hpungsan/carryover/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store  heartbeat.StateStore
	cfg    *config.Config
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store heartbeat.StateStore, cfg *config.Config, logger *slog.Logger) *Handlers {
	return &Handlers{store: store, cfg: cfg, logger: logging.OrDiscard(logger)}
}

// DigestSessionRequest represents the arguments for digest_session.
type DigestSessionRequest struct {
	Source string `json:"source,omitempty"`
	Cwd    string `json:"cwd,omitempty"`
}

// LogAppendRequest represents the arguments for log_append.
type LogAppendRequest struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
}

// DigestSessionResponse is the digest_session result.
type DigestSessionResponse struct {
	Context string `json:"context"`
	Chars   int    `json:"chars"`
}

var validSources = map[string]bool{
	digest.SourceStartup: true,
	digest.SourceResume:  true,
	digest.SourceCompact: true,
	digest.SourceClear:   true,
}

// HandleDigestSession handles the digest_session tool call.
func (h *Handlers) HandleDigestSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DigestSessionRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Source != "" && !validSources[input.Source] {
		return errorResult(errors.NewInvalidRequest("source must be one of startup, resume, compact, clear")), nil
	}

	out := ops.SessionStart(h.cfg, ops.SessionStartInput{
		Source: input.Source,
		Cwd:    input.Cwd,
		Logger: h.logger,
	})
	return successResult(DigestSessionResponse{Context: out.Context, Chars: len([]rune(out.Context))})
}

// HandleHeartbeatCheck handles the heartbeat_check tool call. It peeks so
// the heartbeat hook still alerts on the same changes.
func (h *Handlers) HandleHeartbeatCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := ctx.Err(); err != nil {
		return errorResult(errors.NewInternal(err)), nil
	}
	out := ops.Heartbeat(ctx, h.store, h.cfg, ops.HeartbeatInput{Logger: h.logger, Peek: true})
	return successResult(out)
}

// HandleHandoverLatest handles the handover_latest tool call.
func (h *Handlers) HandleHandoverLatest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := ops.LatestHandover(h.cfg, ops.LatestHandoverInput{})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleHandoverList handles the handover_list tool call.
func (h *Handlers) HandleHandoverList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := ops.ListHandovers(h.cfg)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleLogAppend handles the log_append tool call.
func (h *Handlers) HandleLogAppend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LogAppendRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.AppendLog(h.cfg, ops.AppendLogInput{Title: input.Title, Body: input.Body})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var cErr *errors.CarryError
	if stderrors.As(err, &cErr) {
		errorObj := map[string]any{
			"code":    cErr.Code,
			"message": cErr.Message,
			"status":  cErr.Status,
		}
		// Keep context added by fmt.Errorf("...: %w", err) wrappers.
		if err != error(cErr) {
			errorObj["message"] = err.Error()
		}
		if cErr.Code != errors.ErrInternal && cErr.Details != nil {
			errorObj["details"] = cErr.Details
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
