package ops

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hpungsan/carryover/internal/config"
	"github.com/hpungsan/carryover/internal/dailylog"
	"github.com/hpungsan/carryover/internal/handover"
	"github.com/hpungsan/carryover/internal/transcript"
)

// StatusPrefix starts every pre-compact status line.
const StatusPrefix = "[CARRYOVER PRE-COMPACT]"

// PreCompactInput contains parameters for the PreCompact operation.
type PreCompactInput struct {
	SessionID      string
	TranscriptPath string
	Cwd            string    // log entry falls back to the process working directory
	Trigger        string    // default: auto
	Now            time.Time // default: time.Now()
	Logger         *slog.Logger
}

// PreCompactOutput contains the result of the PreCompact operation.
type PreCompactOutput struct {
	Status   string             `json:"status"`
	LogPath  string             `json:"log_path,omitempty"` // "" when the merge failed
	Snapshot *handover.Snapshot `json:"snapshot,omitempty"` // nil when the save failed
	Work     *transcript.Work   `json:"work"`
}

// PreCompact captures recent work before the host discards conversation
// context: it merges an auto entry into today's log and saves a handover
// snapshot. The two writes are independent; either failure is reported in
// Status and never returned.
func PreCompact(cfg *config.Config, input PreCompactInput) *PreCompactOutput {
	logger := loggerOf(input.Logger)
	now := clock(input.Now)

	work := transcript.Extract(input.TranscriptPath)
	if work.Err != "" {
		logger.Debug("transcript partially read", "path", input.TranscriptPath, "error", work.Err)
	}

	out := &PreCompactOutput{Work: work}

	logStatus := "auto-logged to daily log"
	merger := &dailylog.Merger{LogsDir: cfg.LogsDir(), Agent: cfg.Agent}
	path, err := merger.Merge(now, dailylog.AutoEntry(work, workingDir(input.Cwd), now))
	if err != nil {
		logger.Warn("auto-log failed", "path", path, "error", err)
		logStatus = fmt.Sprintf("auto-log FAILED: %v", err)
	} else {
		out.LogPath = path
	}

	handoverStatus := ""
	manager := &handover.Manager{Dir: cfg.HandoverDir(), Agent: cfg.Agent, Keep: cfg.HandoverKeep, Logger: logger}
	meta := handover.Meta{SessionID: input.SessionID, Trigger: input.Trigger, Cwd: input.Cwd}
	snap, err := manager.Save(meta, work, now)
	if err != nil {
		logger.Warn("handover failed", "dir", cfg.HandoverDir(), "error", err)
		handoverStatus = fmt.Sprintf("handover FAILED: %v", err)
	} else {
		out.Snapshot = snap
		handoverStatus = "saved to " + filepath.Base(snap.Path)
	}

	out.Status = fmt.Sprintf("%s Work %s. Handover %s. %d tool calls, %d files touched.",
		StatusPrefix, logStatus, handoverStatus, work.ToolCalls, len(work.FilesTouched))
	return out
}
