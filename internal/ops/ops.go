// Package ops implements the carryover operations shared by the hook
// commands, the CLI and the MCP server. Hook flows never return errors:
// failures are logged or embedded in the output text.
package ops

import (
	"log/slog"
	"os"
	"time"

	"github.com/hpungsan/carryover/internal/logging"
)

// clock returns t, or the current time when t is zero.
func clock(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func loggerOf(l *slog.Logger) *slog.Logger {
	return logging.OrDiscard(l)
}

// workingDir is the fallback for events that omit cwd.
func workingDir(cwd string) string {
	if cwd != "" {
		return cwd
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "unknown"
}
