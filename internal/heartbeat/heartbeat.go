// Package heartbeat detects changes to the team's shared documents and new
// inbox messages since the previous invocation.
package heartbeat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/carryover/internal/fsutil"
	"github.com/hpungsan/carryover/internal/logging"
)

// RecentWindow bounds how old a modification may be and still be reported.
const RecentWindow = time.Hour

// InboxKey is the pseudo-document under which the newest inbox mtime is stored.
const InboxKey = "messages/"

// WatchDoc is a shared document tracked across invocations.
type WatchDoc struct {
	File  string
	Label string
}

// WatchDocs is the fixed watch list: high-signal, low-noise documents at the
// shared root.
var WatchDocs = []WatchDoc{
	{File: "CHANGELOG.md", Label: "CHANGELOG"},
	{File: "DECISIONS.md", Label: "DECISIONS"},
	{File: "RESOURCES.md", Label: "RESOURCES"},
	{File: "SQUAD.md", Label: "SQUAD"},
}

// StateStore persists the last observed timestamps per agent.
type StateStore interface {
	Load(ctx context.Context, agent string) (map[string]float64, error)
	Save(ctx context.Context, agent string, state map[string]float64) error
}

// Report lists what changed since the last check.
type Report struct {
	Changes []string `json:"changes,omitempty"`
	Alerts  []string `json:"alerts,omitempty"`
}

// Empty reports whether there is nothing to tell the agent.
func (r *Report) Empty() bool {
	return r == nil || len(r.Changes)+len(r.Alerts) == 0
}

// String renders the single-line alert. Empty reports render as "".
func (r *Report) String() string {
	if r.Empty() {
		return ""
	}
	parts := make([]string, 0, len(r.Changes)+len(r.Alerts))
	parts = append(parts, r.Changes...)
	parts = append(parts, r.Alerts...)
	return "[HEARTBEAT] Updates: " + strings.Join(parts, "; ")
}

// Tracker compares the watch list and inbox against the stored baseline.
type Tracker struct {
	Store    StateStore
	Agent    string
	Root     string
	InboxDir string
	Logger   *slog.Logger

	// Peek reports against the stored baseline without replacing it.
	Peek bool
}

// Check computes the delta since the previous call and stores the new
// baseline unconditionally unless Peek is set. The returned report is valid
// even when err is non-nil; err only signals that the baseline could not be
// persisted.
func (t *Tracker) Check(ctx context.Context, now time.Time) (*Report, error) {
	logger := logging.OrDiscard(t.Logger)

	previous, err := t.Store.Load(ctx, t.Agent)
	if err != nil {
		logger.Warn("watch state unreadable, starting fresh", "agent", t.Agent, "error", err)
		previous = map[string]float64{}
	}

	report := &Report{}
	current := make(map[string]float64, len(WatchDocs)+1)

	for _, doc := range WatchDocs {
		mtime, ok := fsutil.ModTime(filepath.Join(t.Root, doc.File))
		if !ok {
			continue
		}
		seen := fsutil.UnixSeconds(mtime)
		current[doc.File] = seen

		last := previous[doc.File]
		if last <= 0 || seen <= last {
			continue
		}
		age := fsutil.Age(mtime, now)
		if age >= RecentWindow {
			continue
		}
		report.Changes = append(report.Changes, fmt.Sprintf("%s (%s)", doc.Label, describeAge(age)))
	}

	alerts, newest := t.scanInbox(now, logger)
	report.Alerts = alerts
	if !newest.IsZero() {
		current[InboxKey] = fsutil.UnixSeconds(newest)
	}

	if t.Peek {
		return report, nil
	}
	if err := t.Store.Save(ctx, t.Agent, current); err != nil {
		return report, err
	}
	return report, nil
}

// scanInbox alerts on every message file modified within RecentWindow and
// returns the newest mtime seen. A missing inbox yields nothing.
func (t *Tracker) scanInbox(now time.Time, logger *slog.Logger) ([]string, time.Time) {
	entries, err := os.ReadDir(t.InboxDir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debug("inbox unreadable", "dir", t.InboxDir, "error", err)
		}
		return nil, time.Time{}
	}

	var alerts []string
	var newest time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		mtime := info.ModTime()
		if mtime.After(newest) {
			newest = mtime
		}
		age := fsutil.Age(mtime, now)
		if age < RecentWindow {
			alerts = append(alerts, fmt.Sprintf("Message in messages/%s (%dm ago)", e.Name(), minutes(age)))
		}
	}
	return alerts, newest
}

func describeAge(age time.Duration) string {
	if m := minutes(age); m > 0 {
		return fmt.Sprintf("%dm ago", m)
	}
	return "just now"
}

// minutes truncates to whole seconds first, then to whole minutes.
func minutes(age time.Duration) int {
	return int(age/time.Second) / 60
}
