// Package dailylog maintains each agent's dated markdown work log:
// merging new entries and scanning an existing log into typed sections.
package dailylog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/carryover/internal/errors"
	"github.com/hpungsan/carryover/internal/fsutil"
)

// DateLayout names daily log files: <YYYY-MM-DD>.md.
const DateLayout = "2006-01-02"

// TrailerHeading marks the end of the work log. New entries go right before
// its first occurrence.
const TrailerHeading = "## Metrics"

// Merger appends entries to one agent's daily logs.
type Merger struct {
	LogsDir string
	Agent   string
}

// Path returns the log file for the calendar day of t.
func (m *Merger) Path(t time.Time) string {
	return PathFor(m.LogsDir, t)
}

// PathFor returns <logsDir>/<YYYY-MM-DD>.md for the calendar day of t.
func PathFor(logsDir string, t time.Time) string {
	return filepath.Join(logsDir, t.Format(DateLayout)+".md")
}

// Merge inserts entry into the log for now's date and returns the log path.
// An existing log keeps its header; entry lands before TrailerHeading when
// present, else at the end. A missing log is created with a standard
// header. Every call adds an entry; nothing is deduplicated.
func (m *Merger) Merge(now time.Time, entry string) (string, error) {
	path := m.Path(now)

	content, ok, err := fsutil.ReadIfExists(path)
	if err != nil {
		return path, errors.NewIOFailure("read", path, err)
	}

	if ok {
		content = insertBeforeTrailer(content, entry)
	} else {
		if err := os.MkdirAll(m.LogsDir, 0755); err != nil {
			return path, errors.NewIOFailure("mkdir", m.LogsDir, err)
		}
		content = m.header(now) + entry + "\n"
	}

	if err := fsutil.WriteFileAtomic(path, []byte(content), 0644); err != nil {
		return path, errors.NewIOFailure("write", path, err)
	}
	return path, nil
}

func insertBeforeTrailer(content, entry string) string {
	if i := strings.Index(content, TrailerHeading); i >= 0 {
		return content[:i] + entry + "\n" + content[i:]
	}
	return content + entry
}

// header is written once, when the day's log is created.
func (m *Merger) header(now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Log - %s\n", now.Format(DateLayout))
	fmt.Fprintf(&b, "**Agent:** %s | **Session start:** %s | **Session end:** TBD\n", m.Agent, now.Format("15:04 MST"))
	b.WriteString("\n## Summary\n")
	b.WriteString("Auto-created by the pre-compact hook. Fill in summary next session.\n")
	b.WriteString("\n## Work Log\n")
	return b.String()
}
