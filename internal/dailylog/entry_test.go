package dailylog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hpungsan/carryover/internal/transcript"
)

func TestAutoEntry(t *testing.T) {
	work := &transcript.Work{
		FilesTouched: []string{"parse.go", "notes.md"},
		Actions:      []string{"Edit: parse.go"},
		Commands:     []string{"Run tests", "List files"},
		Narrative:    []string{"Refactored the parser. Tests pass now."},
		ToolCalls:    6,
	}

	got := AutoEntry(work, "/home/dev/projects/atlas", day)

	for _, want := range []string{
		"\n### 14:05 - [AUTO-LOGGED] Pre-Compact Work Capture\n",
		"- **project:** atlas\n",
		"- **type:** mixed\n",
		"- **status:** in-progress (compaction imminent)\n",
		"- **files_touched:** parse.go, notes.md\n",
		"- **cost_usd:** 0\n",
		"- **tokens_used:** ~3000 (estimated from 6 tool calls)\n",
		"- **outcome:** Refactored the parser\n",
		"1 file operations, 2 bash commands",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("entry missing %q:\n%s", want, got)
		}
	}
}

func TestAutoEntry_EmptyWork(t *testing.T) {
	got := AutoEntry(&transcript.Work{}, "", day)

	for _, want := range []string{
		"- **project:** unknown\n",
		"- **files_touched:** none extracted\n",
		"- **tokens_used:** ~0 (estimated from 0 tool calls)\n",
		"- **outcome:** " + PlaceholderOutcome + "\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("entry missing %q:\n%s", want, got)
		}
	}
}

func TestAutoEntry_FilesCappedAtTen(t *testing.T) {
	var files []string
	for i := 0; i < 14; i++ {
		files = append(files, fmt.Sprintf("f%02d.go", i))
	}
	got := AutoEntry(&transcript.Work{FilesTouched: files}, "/x", day)

	if !strings.Contains(got, "f09.go\n") {
		t.Errorf("expected list to end at f09.go:\n%s", got)
	}
	if strings.Contains(got, "f10.go") {
		t.Errorf("expected at most 10 files:\n%s", got)
	}
}

func TestOutcome(t *testing.T) {
	long := strings.Repeat("x", 250)

	tests := []struct {
		name      string
		narrative []string
		want      string
	}{
		{"placeholder", nil, PlaceholderOutcome},
		{"uses most recent", []string{"Old work. Ignored.", "New work done. Next step."}, "New work done"},
		{"no period", []string{"Still going without punctuation"}, "Still going without punctuation"},
		{"no period long", []string{long}, long[:200]},
		{"period after 200", []string{long + ". tail"}, long[:200]},
		{"abbreviation cuts early", []string{"Used e.g. goldmark for parsing"}, "Used e"},
		{"code collapses to one line", []string{"Here is the fix:\n```go\nfmt.Println(1)\n```"}, "Here is the fix: ```go fmt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Outcome(&transcript.Work{Narrative: tt.narrative})
			if got != tt.want {
				t.Errorf("Outcome() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestManualEntry(t *testing.T) {
	got := ManualEntry("  Shipped v2  ", "\n- item one\n- item two\n\n", day)
	want := "\n### 14:05 - Shipped v2\n- item one\n- item two\n"
	if got != want {
		t.Errorf("ManualEntry() = %q, want %q", got, want)
	}

	if got := ManualEntry("Title only", "  ", day); got != "\n### 14:05 - Title only\n" {
		t.Errorf("ManualEntry() without body = %q", got)
	}
}
