// Package runes measures and cuts text by characters (runes), not bytes,
// so budgets hold for multi-byte UTF-8 content.
package runes

import "unicode/utf8"

// Count returns the character count as runes (not bytes).
func Count(s string) int {
	return utf8.RuneCountInString(s)
}

// Head returns the first n runes of s (all of s when shorter).
func Head(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Clip returns s unchanged when it fits in max runes. Otherwise it returns
// the longest prefix that, followed by marker, fits in max runes.
func Clip(s string, max int, marker string) string {
	if Count(s) <= max {
		return s
	}
	room := max - Count(marker)
	if room < 0 {
		return Head(marker, max)
	}
	return Head(s, room) + marker
}
