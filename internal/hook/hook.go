// Package hook decodes the event record a host tool pipes to a hook command
// and encodes the single JSON record the command answers with.
package hook

import (
	"encoding/json"
	"io"
)

// Event names carried in hookSpecificOutput.
const (
	EventSessionStart = "SessionStart"
	EventPreCompact   = "PreCompact"
)

// Event is the hook input. Every field is optional.
type Event struct {
	HookEventName  string `json:"hook_event_name"`
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Cwd            string `json:"cwd"`
	Trigger        string `json:"trigger"`
	Source         string `json:"source"`
}

// ReadEvent decodes one event from r. Empty, malformed or partially typed
// input yields the zero Event; unknown fields are ignored.
func ReadEvent(r io.Reader) Event {
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return Event{}
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}
	}
	return ev
}

// ContextOutput is the heartbeat answer.
type ContextOutput struct {
	AdditionalContext string `json:"additionalContext"`
}

// SpecificOutput is the answer for named lifecycle events.
type SpecificOutput struct {
	HookSpecificOutput EventContext `json:"hookSpecificOutput"`
}

// EventContext is the body of SpecificOutput.
type EventContext struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// NewSpecificOutput wraps context for the named event.
func NewSpecificOutput(event, context string) SpecificOutput {
	return SpecificOutput{HookSpecificOutput: EventContext{HookEventName: event, AdditionalContext: context}}
}

// Write emits v as one JSON line.
func Write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
