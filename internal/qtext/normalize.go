// Package qtext holds the text routines shared by generation and display:
// stem normalization, similarity-based deduplication, and parsing of raw
// question blobs into a stem plus lettered options.
package qtext

import "strings"

// Leading characters stripped from stored question text: numbering digits,
// the 問題 label, and separator punctuation.
const leadingCutset = "0123456789問題:."

// Normalize strips leading question numbering from raw and truncates it at
// the first sentence terminator. A full-width period terminator is replaced
// with a full-width question mark so cleaned stems read as questions. If no
// terminator is present the trimmed string is returned unchanged.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, leadingCutset)
	s = strings.TrimSpace(s)

	if i := strings.Index(s, "？"); i >= 0 {
		return strings.TrimSpace(s[:i]) + "？"
	}
	if i := strings.Index(s, "。"); i >= 0 {
		return strings.TrimSpace(s[:i]) + "？"
	}
	return s
}
