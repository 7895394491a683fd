package dailylog

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/hpungsan/carryover/internal/runes"
)

// Section headings recognized in a daily log. Matching is by prefix, so
// "## Handoff Notes" and "## Handoff" both open the handoff section.
const (
	HeadingSummary  = "## Summary"
	HeadingWorkLog  = "## Work Log"
	HeadingHandoff  = "## Handoff"
	HeadingBlockers = "## Blockers"
	entryPrefix     = "### "
	sectionPrefix   = "## "
)

// Log is a daily log split into its known sections.
type Log struct {
	LineCount int
	Summary   string
	Entries   []string
	Handoff   string
	Blockers  string
}

type section int

const (
	sectionNone section = iota
	sectionSummary
	sectionWorkLog
	sectionHandoff
	sectionBlockers
)

// Parse scans content line by line. A "## " heading switches the current
// section (unknown ones close it); inside the work log each "### " heading
// starts a new entry. Heading lines are located with a CommonMark parser so
// look-alikes inside fenced code blocks stay content.
func Parse(content string) *Log {
	headings := headingLines([]byte(content))
	lines := strings.Split(content, "\n")

	log := &Log{LineCount: len(lines)}
	var summary, handoff, blockers, entry []string
	cur := sectionNone

	flush := func() {
		if len(entry) > 0 {
			log.Entries = append(log.Entries, strings.Join(entry, "\n"))
			entry = nil
		}
	}

	for i, line := range lines {
		isHeading := headings[i]

		if isHeading && strings.HasPrefix(line, sectionPrefix) {
			switch {
			case strings.HasPrefix(line, HeadingSummary):
				cur = sectionSummary
			case strings.HasPrefix(line, HeadingWorkLog):
				cur = sectionWorkLog
			case strings.HasPrefix(line, HeadingHandoff):
				cur = sectionHandoff
			case strings.HasPrefix(line, HeadingBlockers):
				cur = sectionBlockers
			default:
				cur = sectionNone
			}
			continue
		}

		switch cur {
		case sectionSummary:
			summary = append(summary, line)
		case sectionWorkLog:
			if isHeading && strings.HasPrefix(line, entryPrefix) {
				flush()
				entry = []string{line}
			} else if len(entry) > 0 {
				entry = append(entry, line)
			}
		case sectionHandoff:
			handoff = append(handoff, line)
		case sectionBlockers:
			blockers = append(blockers, line)
		}
	}
	flush()

	log.Summary = strings.TrimSpace(strings.Join(summary, "\n"))
	log.Handoff = strings.TrimSpace(strings.Join(handoff, "\n"))
	log.Blockers = strings.TrimSpace(strings.Join(blockers, "\n"))
	return log
}

// headingLines returns the 0-based line numbers of top-level ATX headings.
// A fenced block left open runs to the end of the document under
// CommonMark; from its first content line on, lines starting with "#"
// count as headings again so a stray fence cannot hide the rest of the log.
func headingLines(src []byte) map[int]bool {
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))
	lines := make(map[int]bool)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)
		lines[lineOf(src, seg.Start)] = true
	}

	if from, ok := unclosedFence(doc, src); ok {
		for i, line := range bytes.Split(src, []byte{'\n'}) {
			if i >= from && bytes.HasPrefix(line, []byte("#")) {
				lines[i] = true
			}
		}
	}
	return lines
}

// unclosedFence reports the line of the first content line of a fenced code
// block whose content reaches the end of src without a closing fence.
// A block with no content lines hides nothing and is ignored.
func unclosedFence(doc ast.Node, src []byte) (int, bool) {
	line, found := 0, false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !entering || !ok || fcb.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		last := fcb.Lines().At(fcb.Lines().Len() - 1)
		if len(bytes.TrimSpace(src[last.Stop:])) == 0 {
			line, found = lineOf(src, fcb.Lines().At(0).Start), true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return line, found
}

func lineOf(src []byte, offset int) int {
	return bytes.Count(src[:offset], []byte{'\n'})
}

// Brief renders the log for the session-start digest.
func (l *Log) Brief() string {
	parts := []string{
		fmt.Sprintf("**Log exists** (%d lines, %d work entries)", l.LineCount, len(l.Entries)),
	}
	if l.Summary != "" {
		parts = append(parts, "Summary: "+runes.Head(l.Summary, 300))
	}
	if len(l.Entries) > 0 {
		parts = append(parts, "Last entries:")
		recent := l.Entries
		if len(recent) > 2 {
			recent = recent[len(recent)-2:]
		}
		for _, e := range recent {
			parts = append(parts, runes.Head(e, 200))
		}
	}
	if l.Handoff != "" {
		parts = append(parts, "Handoff: "+runes.Head(l.Handoff, 300))
	}
	if l.Blockers != "" {
		parts = append(parts, "Blockers: "+runes.Head(l.Blockers, 200))
	}
	return strings.Join(parts, "\n")
}
