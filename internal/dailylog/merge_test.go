package dailylog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var day = time.Date(2026, 10, 19, 14, 5, 0, 0, time.UTC)

func TestMerge_CreatesLogWithHeader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Nova", "logs")
	m := &Merger{LogsDir: dir, Agent: "Nova"}

	path, err := m.Merge(day, ManualEntry("Wired parser", "Body text.", day))
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if want := filepath.Join(dir, "2026-10-19.md"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	got := string(data)
	for _, want := range []string{
		"# Daily Log - 2026-10-19\n",
		"**Agent:** Nova | **Session start:** 14:05 UTC | **Session end:** TBD",
		"## Summary\n",
		"## Work Log\n",
		"### 14:05 - Wired parser\nBody text.\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("log missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "## Work Log") > strings.Index(got, "### 14:05") {
		t.Error("entry should follow the Work Log heading")
	}
}

func TestMerge_InsertsBeforeMetrics(t *testing.T) {
	dir := t.TempDir()
	m := &Merger{LogsDir: dir, Agent: "Nova"}
	path := m.Path(day)

	existing := "# Daily Log - 2026-10-19\n\n## Work Log\n\n### 09:00 - Morning\nDone.\n\n## Metrics\ncost: 0\n\n## Metrics\nsecond\n"
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	entry := ManualEntry("Afternoon", "More.", day)
	if _, err := m.Merge(day, entry); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	got := string(data)
	want := "# Daily Log - 2026-10-19\n\n## Work Log\n\n### 09:00 - Morning\nDone.\n\n" + entry + "\n## Metrics\ncost: 0\n\n## Metrics\nsecond\n"
	if got != want {
		t.Errorf("merged log:\n%q\nwant:\n%q", got, want)
	}
}

func TestMerge_TwiceSameDayStaysBeforeMetricsInOrder(t *testing.T) {
	const prefix = "# Daily Log - 2026-10-19\n\n## Work Log\n\n### 09:00 - Morning\nDone.\n\n"
	const trailer = "## Metrics\ncost: 0\n"

	tests := []struct {
		name          string
		first, second string
	}{
		{"same text", ManualEntry("Sync", "Same body.", day), ManualEntry("Sync", "Same body.", day)},
		{"distinct text", ManualEntry("Early", "A.", day), ManualEntry("Late", "B.", day.Add(time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Merger{LogsDir: t.TempDir(), Agent: "Nova"}
			path := m.Path(day)
			if err := os.WriteFile(path, []byte(prefix+trailer), 0644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			for _, entry := range []string{tt.first, tt.second} {
				if _, err := m.Merge(day, entry); err != nil {
					t.Fatalf("Merge() error = %v", err)
				}
			}

			data, _ := os.ReadFile(path)
			want := prefix + tt.first + "\n" + tt.second + "\n" + trailer
			if got := string(data); got != want {
				t.Errorf("merged log:\n%q\nwant:\n%q", got, want)
			}
			if n := len(Parse(string(data)).Entries); n != 3 {
				t.Errorf("parsed entries = %d, want 3", n)
			}
		})
	}
}

func TestMerge_AppendsWithoutMetrics(t *testing.T) {
	dir := t.TempDir()
	m := &Merger{LogsDir: dir, Agent: "Nova"}
	path := m.Path(day)

	existing := "# Daily Log\n\n## Work Log\n"
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	entry := ManualEntry("One", "", day)
	for i := 0; i < 2; i++ {
		if _, err := m.Merge(day, entry); err != nil {
			t.Fatalf("Merge() error = %v", err)
		}
	}

	data, _ := os.ReadFile(path)
	if got, want := string(data), existing+entry+entry; got != want {
		t.Errorf("merged log = %q, want %q", got, want)
	}
}

func TestMerge_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	m := &Merger{LogsDir: dir, Agent: "Nova"}
	if _, err := m.Merge(day, ManualEntry("x", "y", day)); err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir entries = %v, want only the log", names)
	}
}
