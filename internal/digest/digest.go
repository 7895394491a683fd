// Package digest assembles the bounded session-start briefing from the
// shared filesystem: today's log, the inbox, peer activity, assigned tasks
// and, after a compaction or resume, the latest handover.
package digest

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/carryover/internal/config"
	"github.com/hpungsan/carryover/internal/dailylog"
	"github.com/hpungsan/carryover/internal/fsutil"
	"github.com/hpungsan/carryover/internal/handover"
	"github.com/hpungsan/carryover/internal/logging"
	"github.com/hpungsan/carryover/internal/runes"
)

// Session sources that make the latest handover relevant.
const (
	SourceStartup = "startup"
	SourceResume  = "resume"
	SourceCompact = "compact"
	SourceClear   = "clear"
)

// Freshness windows and per-section caps.
const (
	InboxMaxAge    = 24 * time.Hour
	HandoverMaxAge = 120 * time.Minute

	inboxMaxChars    = 600
	handoverMaxChars = 800
	peerLineMaxChars = 150
	maxTasks         = 5
)

// Markers appended when text is cut.
const (
	TrimMarker          = "\n[...context trimmed to stay lean]"
	inboxTruncMarker    = "\n[...truncated, read full file]"
	handoverTruncMarker = "\n[...truncated]"
)

var taskMarkers = []string{"In Progress", "TODO", "Assigned"}

// Request identifies the session being started.
type Request struct {
	Source string
	Cwd    string
}

// Assembler reads the shared root described by Config.
type Assembler struct {
	Config *config.Config
	Logger *slog.Logger
}

// Assemble builds the digest. Absent documents contribute nothing (or a
// directive, for today's log); the result never exceeds
// Config.MaxContextChars runes.
func (a *Assembler) Assemble(req Request, now time.Time) string {
	cfg := a.Config
	source := req.Source
	if source == "" {
		source = SourceStartup
	}

	parts := []string{
		fmt.Sprintf("# %s Session Start (%s)", cfg.Agent, source),
		fmt.Sprintf("**Date:** %s | **Time:** %s | **CWD:** %s",
			now.Format(dailylog.DateLayout), now.Format("15:04"), filepath.Base(req.Cwd)),
		"",
		"## Today's Log",
		a.todayLog(now),
		"",
	}

	if inbox := a.inbox(now); inbox != "" {
		parts = append(parts, "## Inbox", inbox, "")
	}
	if team := a.teamActivity(now); len(team) > 0 {
		parts = append(parts, "## Team Activity")
		parts = append(parts, team...)
		parts = append(parts, "")
	}
	if tasks := a.tasks(); tasks != "" {
		parts = append(parts, "## Tasks", tasks, "")
	}
	if ho := a.handover(source, now); ho != "" {
		parts = append(parts, "## Handover Context", ho, "")
	}

	budget := cfg.MaxContextChars
	if budget <= 0 {
		budget = config.DefaultMaxContextChars
	}
	return runes.Clip(strings.Join(parts, "\n"), budget, TrimMarker)
}

func (a *Assembler) todayLog(now time.Time) string {
	path := dailylog.PathFor(a.Config.LogsDir(), now)
	content, ok := a.read(path)
	if !ok {
		return fmt.Sprintf("**NO LOG FOR TODAY (%s).** CREATE ONE IMMEDIATELY from %s/logs/TEMPLATE.md before doing any work.",
			now.Format(dailylog.DateLayout), a.Config.Agent)
	}
	return dailylog.Parse(content).Brief()
}

func (a *Assembler) inbox(now time.Time) string {
	path := a.Config.InboxFile()
	mtime, ok := fsutil.ModTime(path)
	if !ok {
		return ""
	}
	content, ok := a.read(path)
	if !ok {
		return ""
	}
	content = strings.TrimSpace(content)
	age := fsutil.Age(mtime, now)
	if content == "" || age >= InboxMaxAge {
		return ""
	}
	if runes.Count(content) > inboxMaxChars {
		content = runes.Head(content, inboxMaxChars) + inboxTruncMarker
	}
	return fmt.Sprintf("**Messages (%dh ago):**\n%s", int(age.Hours()), content)
}

// teamActivity reports one line per peer from today's log, else yesterday's.
func (a *Assembler) teamActivity(now time.Time) []string {
	days := []struct {
		t     time.Time
		label string
	}{
		{now, "today"},
		{now.AddDate(0, 0, -1), "yesterday"},
	}

	var lines []string
	for _, peer := range a.Config.PeerAgents() {
		line := fmt.Sprintf("**%s**: No recent logs", peer)
		for _, d := range days {
			content, ok := a.read(dailylog.PathFor(a.Config.AgentLogsDir(peer), d.t))
			if !ok {
				continue
			}
			if first, found := firstContentLine(content); found {
				line = fmt.Sprintf("**%s** (%s): %s", peer, d.label, runes.Head(first, peerLineMaxChars))
			} else {
				line = fmt.Sprintf("**%s**: Log exists for %s", peer, d.label)
			}
			break
		}
		lines = append(lines, line)
	}
	return lines
}

// firstContentLine skips blank lines, headings and bold metadata lines.
func firstContentLine(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "**") {
			continue
		}
		return strings.TrimSpace(line), true
	}
	return "", false
}

func (a *Assembler) tasks() string {
	content, ok := a.read(a.Config.TasksFile())
	if !ok {
		return ""
	}

	var mine []string
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, a.Config.Agent) || !hasTaskMarker(line) {
			continue
		}
		mine = append(mine, strings.TrimSpace(line))
		if len(mine) == maxTasks {
			break
		}
	}
	if len(mine) == 0 {
		return ""
	}
	return "**My active tasks:** " + strings.Join(mine, " | ")
}

func hasTaskMarker(line string) bool {
	for _, m := range taskMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

func (a *Assembler) handover(source string, now time.Time) string {
	if source != SourceCompact && source != SourceResume {
		return ""
	}

	m := &handover.Manager{Dir: a.Config.HandoverDir(), Agent: a.Config.Agent}
	latest, ok, err := m.Latest(now)
	if err != nil {
		logging.OrDiscard(a.Logger).Debug("latest handover unreadable", "error", err)
		return ""
	}
	if !ok || latest.Age >= HandoverMaxAge {
		return ""
	}

	content := latest.Content
	if runes.Count(content) > handoverMaxChars {
		content = runes.Head(content, handoverMaxChars) + handoverTruncMarker
	}
	return fmt.Sprintf("**Recent handover (%dm ago):**\n%s", int(latest.Age.Minutes()), content)
}

// read returns the file content; unreadable files count as absent.
func (a *Assembler) read(path string) (string, bool) {
	content, ok, err := fsutil.ReadIfExists(path)
	if err != nil {
		logging.OrDiscard(a.Logger).Debug("skipping unreadable file", "path", path, "error", err)
		return "", false
	}
	return content, ok
}
