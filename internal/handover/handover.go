// Package handover writes pre-compaction snapshot documents into the shared
// handovers directory and keeps that directory bounded.
package handover

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/carryover/internal/errors"
	"github.com/hpungsan/carryover/internal/fsutil"
	"github.com/hpungsan/carryover/internal/logging"
	"github.com/hpungsan/carryover/internal/runes"
	"github.com/hpungsan/carryover/internal/transcript"
)

const (
	// LatestFileName always mirrors the newest snapshot.
	LatestFileName = "LATEST_HANDOVER.md"
	// Pattern matches rotated snapshot files.
	Pattern = "handover_*.md"
	// DefaultKeep is the rotation bound when Manager.Keep is unset.
	DefaultKeep = 10

	fileTimeLayout = "20060102_150405"
	unknown        = "unknown"
)

// Bounds on what a snapshot repeats from the extracted work.
const (
	maxFiles     = 15
	maxActions   = 10
	maxCommands  = 5
	maxNarrative = 3
)

// Meta carries the hook event fields a snapshot records.
type Meta struct {
	SessionID string
	Trigger   string
	Cwd       string
}

// Snapshot is a saved handover document.
type Snapshot struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Content string `json:"-"`
}

// Entry describes one rotated snapshot file.
type Entry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// Latest is the current LATEST_HANDOVER.md.
type Latest struct {
	Path    string
	Content string
	ModTime time.Time
	Age     time.Duration
}

// Manager owns one handovers directory.
type Manager struct {
	Dir    string
	Agent  string
	Keep   int
	Logger *slog.Logger
}

// Save renders a snapshot, writes it under a timestamped name and as
// LATEST_HANDOVER.md, then rotates old snapshots.
func (m *Manager) Save(meta Meta, work *transcript.Work, now time.Time) (*Snapshot, error) {
	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return nil, errors.NewIOFailure("mkdir", m.Dir, err)
	}

	id := ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0)).String()
	content := m.render(id, meta, work, now)

	name := fmt.Sprintf("handover_%s_%s.md", now.Format(fileTimeLayout), sessionFragment(meta.SessionID))
	path := filepath.Join(m.Dir, name)
	if err := fsutil.WriteFileAtomic(path, []byte(content), 0644); err != nil {
		return nil, errors.NewIOFailure("write", path, err)
	}

	latest := filepath.Join(m.Dir, LatestFileName)
	if err := fsutil.WriteFileAtomic(latest, []byte(content), 0644); err != nil {
		return nil, errors.NewIOFailure("write", latest, err)
	}

	m.rotate()

	return &Snapshot{ID: id, Path: path, Content: content}, nil
}

func (m *Manager) render(id string, meta Meta, work *transcript.Work, now time.Time) string {
	session := unknown
	if meta.SessionID != "" {
		session = runes.Head(meta.SessionID, 12)
	}
	trigger := meta.Trigger
	if trigger == "" {
		trigger = "auto"
	}
	cwd := meta.Cwd
	if cwd == "" {
		cwd = unknown
	}
	stamp := now.Format("2006-01-02 15:04")

	lines := []string{
		"# PreCompact Handover - " + stamp,
		"**Snapshot:** " + id,
		"**Agent:** " + m.Agent,
		"**Session:** " + session,
		"**Trigger:** " + trigger,
		"**CWD:** " + cwd,
		fmt.Sprintf("**Tool calls:** %d", work.ToolCalls),
		"**Files touched:** " + strings.Join(first(work.FilesTouched, maxFiles), ", "),
		"",
		"---",
		"",
	}

	if len(work.Actions) > 0 {
		lines = append(lines, "## Recent File Operations")
		for _, a := range transcript.Last(work.Actions, maxActions) {
			lines = append(lines, "- "+a)
		}
		lines = append(lines, "")
	}

	if len(work.Commands) > 0 {
		lines = append(lines, "## Recent Commands")
		for _, c := range transcript.Last(work.Commands, maxCommands) {
			lines = append(lines, "- "+c)
		}
		lines = append(lines, "")
	}

	if len(work.Narrative) > 0 {
		lines = append(lines, "## Recent Context (last assistant messages)")
		for i, msg := range transcript.Last(work.Narrative, maxNarrative) {
			lines = append(lines, fmt.Sprintf("\n### Message %d", i+1), msg)
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		"---",
		"",
		"## Resume Instructions",
		fmt.Sprintf("1. Read today's daily log: %s/logs/%s.md", m.Agent, now.Format("2006-01-02")),
		"2. Check messages inbox",
		"3. Continue from where this handover left off",
		"",
		"*Auto-generated by the pre-compact hook at "+stamp+"*",
	)

	return strings.Join(lines, "\n")
}

// rotate deletes all but the newest Keep snapshots. Failures are logged
// and otherwise ignored.
func (m *Manager) rotate() {
	log := logging.OrDiscard(m.Logger)

	names, err := m.names()
	if err != nil {
		log.Debug("handover rotation skipped", "dir", m.Dir, "error", err)
		return
	}

	keep := m.Keep
	if keep <= 0 {
		keep = DefaultKeep
	}
	if len(names) <= keep {
		return
	}
	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(m.Dir, name)); err != nil {
			log.Debug("handover rotation failed", "file", name, "error", err)
		}
	}
}

// names returns snapshot file names in ascending (oldest first) order.
func (m *Manager) names() ([]string, error) {
	names, err := doublestar.Glob(os.DirFS(m.Dir), Pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// List returns the rotated snapshots, newest first. A missing directory
// yields an empty list.
func (m *Manager) List() ([]Entry, error) {
	names, err := m.names()
	if err != nil {
		return nil, errors.NewIOFailure("list", m.Dir, err)
	}

	entries := make([]Entry, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		path := filepath.Join(m.Dir, names[i])
		info, err := os.Stat(path)
		if err != nil {
			// Rotated away by a concurrent run.
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.NewIOFailure("stat", path, err)
		}
		entries = append(entries, Entry{
			Name:    names[i],
			Path:    path,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return entries, nil
}

// Latest reads LATEST_HANDOVER.md. ok is false when there is none.
func (m *Manager) Latest(now time.Time) (latest *Latest, ok bool, err error) {
	path := filepath.Join(m.Dir, LatestFileName)

	mtime, ok := fsutil.ModTime(path)
	if !ok {
		return nil, false, nil
	}
	content, ok, err := fsutil.ReadIfExists(path)
	if err != nil {
		return nil, false, errors.NewIOFailure("read", path, err)
	}
	if !ok {
		return nil, false, nil
	}

	return &Latest{
		Path:    path,
		Content: content,
		ModTime: mtime,
		Age:     fsutil.Age(mtime, now),
	}, true, nil
}

// sessionFragment is the file-name-safe session prefix: up to eight
// characters from [A-Za-z0-9_-], or "unknown".
func sessionFragment(sessionID string) string {
	var b strings.Builder
	for _, r := range sessionID {
		if b.Len() == 8 {
			break
		}
		if r == '-' || r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return unknown
	}
	return b.String()
}

func first(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
