package dailylog

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/carryover/internal/runes"
	"github.com/hpungsan/carryover/internal/transcript"
)

// TokensPerToolCall is the flat per-call estimate written to auto entries.
const TokensPerToolCall = 500

// PlaceholderOutcome is used when the transcript had no narrative.
const PlaceholderOutcome = "Work in progress (auto-captured before compaction)"

const (
	maxEntryFiles  = 10
	outcomeMaxChar = 200
)

// AutoEntry formats the entry written just before a context compaction.
func AutoEntry(work *transcript.Work, cwd string, now time.Time) string {
	files := "none extracted"
	if len(work.FilesTouched) > 0 {
		files = strings.Join(head(work.FilesTouched, maxEntryFiles), ", ")
	}
	project := "unknown"
	if cwd != "" {
		project = filepath.Base(cwd)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n### %s - [AUTO-LOGGED] Pre-Compact Work Capture\n", now.Format("15:04"))
	fmt.Fprintf(&b, "- **project:** %s\n", project)
	b.WriteString("- **type:** mixed\n")
	b.WriteString("- **status:** in-progress (compaction imminent)\n")
	fmt.Fprintf(&b, "- **files_touched:** %s\n", files)
	b.WriteString("- **cost_usd:** 0\n")
	fmt.Fprintf(&b, "- **tokens_used:** ~%d (estimated from %d tool calls)\n", work.ToolCalls*TokensPerToolCall, work.ToolCalls)
	fmt.Fprintf(&b, "- **outcome:** %s\n", Outcome(work))
	fmt.Fprintf(&b, "- **notes:** Auto-logged before compaction. %d file operations, %d bash commands. Review and refine next session.\n",
		len(work.Actions), len(work.Commands))
	return b.String()
}

// Outcome derives a one-line outcome from the most recent narrative
// snippet: its text up to the first period when one occurs within the first
// 200 characters, else its first 200 characters. Abbreviations such as
// "e.g." cut the sentence short; that is accepted. Whitespace runs,
// newlines included, collapse to one space so a code fence in the
// narrative cannot open a block inside the log.
func Outcome(work *transcript.Work) string {
	last, ok := work.LastNarrative()
	if !ok {
		return PlaceholderOutcome
	}
	last = strings.Join(strings.Fields(last), " ")
	if strings.Contains(runes.Head(last, outcomeMaxChar), ".") {
		first, _, _ := strings.Cut(last, ".")
		return runes.Head(first, outcomeMaxChar)
	}
	return runes.Head(last, outcomeMaxChar)
}

// ManualEntry formats an agent-authored entry.
func ManualEntry(title, body string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n### %s - %s\n", now.Format("15:04"), strings.TrimSpace(title))
	if body = strings.TrimSpace(body); body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String()
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
