// Package transcript reduces the tail of an append-only JSONL session
// transcript to a bounded summary of recent work.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hpungsan/carryover/internal/runes"
)

// TailBytes bounds how much of the transcript is read, from the end.
// Older records are invisible to extraction; raise it to trade I/O for recall.
const TailBytes = 200_000

// Bounds on the extracted sequences. Each keeps its most recent entries.
const (
	MaxNarrative = 5
	MaxActions   = 20
	MaxCommands  = 10
)

const (
	narrativeMinChars = 30
	narrativeMaxChars = 300
	commandMaxChars   = 100
)

// Tool names recognized in tool_use parts.
const (
	ToolRead         = "Read"
	ToolWrite        = "Write"
	ToolEdit         = "Edit"
	ToolMultiEdit    = "MultiEdit"
	ToolNotebookEdit = "NotebookEdit"
	ToolBash         = "Bash"
)

var (
	fileTools  = map[string]bool{ToolRead: true, ToolWrite: true, ToolEdit: true, ToolMultiEdit: true, ToolNotebookEdit: true}
	writeTools = map[string]bool{ToolWrite: true, ToolEdit: true, ToolMultiEdit: true, ToolNotebookEdit: true}
)

// Work is the extracted summary. Sequences are chronological, oldest first.
type Work struct {
	// FilesTouched holds distinct basenames in first-seen order.
	FilesTouched []string `json:"files_touched"`
	// Actions holds "<Tool>: <basename>" for write/edit calls.
	Actions []string `json:"actions"`
	// Commands holds shell descriptions (or raw commands).
	Commands []string `json:"commands"`
	// Narrative holds assistant text snippets.
	Narrative []string `json:"narrative"`
	// ToolCalls counts every tool_use part seen.
	ToolCalls int `json:"tool_calls"`
	// Err notes a read failure; the other fields hold what was gathered.
	Err string `json:"error,omitempty"`
}

// record is one transcript line. Only the fields extraction needs are decoded.
type record struct {
	Type    string `json:"type"`
	Message struct {
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// part is one element of an assistant message's content array.
type part struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// Extract reads the tail of the transcript at path and summarizes it.
// It never fails: a missing path yields an empty Work, and a read failure
// yields whatever was gathered with Err set.
func Extract(path string) *Work {
	w := &Work{}
	if path == "" {
		return w.finish()
	}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.Err = err.Error()
		}
		return w.finish()
	}
	defer f.Close()

	tail, err := readTail(f, TailBytes)
	if err != nil {
		w.Err = err.Error()
		return w.finish()
	}

	w.scan(tail)
	return w.finish()
}

// readTail returns at most n bytes from the end of f.
func readTail(f *os.File, n int64) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat transcript: %w", err)
	}
	offset := max(info.Size()-n, 0)
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek transcript: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(f, n))
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	return data, nil
}

// scan decodes each line independently. The first line after a mid-file
// seek is usually partial and fails to decode; it is skipped like any other
// malformed record.
func (w *Work) scan(tail []byte) {
	seen := make(map[string]bool)

	for _, line := range bytes.Split(tail, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.Type != "assistant" {
			continue
		}
		var parts []json.RawMessage
		if err := json.Unmarshal(rec.Message.Content, &parts); err != nil {
			continue
		}
		for _, raw := range parts {
			var p part
			if err := json.Unmarshal(raw, &p); err != nil {
				continue
			}
			w.addPart(p, seen)
		}
	}
}

func (w *Work) addPart(p part, seen map[string]bool) {
	switch p.Type {
	case "text":
		text := strings.TrimSpace(p.Text)
		if runes.Count(text) > narrativeMinChars {
			w.Narrative = append(w.Narrative, runes.Head(text, narrativeMaxChars))
		}

	case "tool_use":
		w.ToolCalls++
		input := decodeInput(p.Input)

		if fileTools[p.Name] {
			path := input["file_path"]
			if path == "" {
				path = input["notebook_path"]
			}
			if name := baseName(path); name != "" {
				if !seen[name] {
					seen[name] = true
					w.FilesTouched = append(w.FilesTouched, name)
				}
				if writeTools[p.Name] {
					w.Actions = append(w.Actions, p.Name+": "+name)
				}
			}
		}

		if p.Name == ToolBash {
			desc := input["description"]
			if desc == "" {
				desc = input["command"]
			}
			w.Commands = append(w.Commands, runes.Head(desc, commandMaxChars))
		}
	}
}

// decodeInput keeps the string-valued fields of a tool input object.
func decodeInput(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	if len(raw) == 0 {
		return out
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out
	}
	for k, v := range fields {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// baseName returns the last element of a slash- or backslash-separated path.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// finish trims sequences to their bounded suffixes and materializes empty
// slices so the JSON form never carries nulls.
func (w *Work) finish() *Work {
	w.Narrative = suffix(w.Narrative, MaxNarrative)
	w.Actions = suffix(w.Actions, MaxActions)
	w.Commands = suffix(w.Commands, MaxCommands)
	if w.FilesTouched == nil {
		w.FilesTouched = []string{}
	}
	return w
}

func suffix(s []string, n int) []string {
	if s == nil {
		return []string{}
	}
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

// LastNarrative returns the most recent narrative snippet, if any.
func (w *Work) LastNarrative() (string, bool) {
	if len(w.Narrative) == 0 {
		return "", false
	}
	return w.Narrative[len(w.Narrative)-1], true
}

// Last returns up to n trailing elements of s.
func Last(s []string, n int) []string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
