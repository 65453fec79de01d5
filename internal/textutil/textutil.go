package textutil

import (
	"strings"
	"unicode/utf8"
)

// keyStripper deletes the punctuation that never makes it into a lookup key.
var keyStripper = strings.NewReplacer(
	`\"`, "", `"`, "",
	".", "", ",", "", "@", "", "/", "",
	"(", "", ")", "", "[", "", "]", "",
	"|", "", "{", "", "}", "", "'", "",
	":", "", "+", "", "%", "", "=", "",
	"!", "", "&", "",
)

// Key derives a locale key from a normalized phrase: punctuation removed,
// lowercased, words joined with underscores.
func Key(text string) string {
	s := keyStripper.Replace(text)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), "_")
}

// EscapeQuotes prefixes every double quote with a backslash.
func EscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// UnescapeQuotes undoes EscapeQuotes.
func UnescapeQuotes(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}

// LineAt returns the 1-based line number of byte offset off in s.
func LineAt(s string, off int) int {
	if off < 0 {
		return 0
	}
	if off > len(s) {
		off = len(s)
	}
	return strings.Count(s[:off], "\n") + 1
}

// Truncate shortens a string to at most maxLen bytes, appending "..." if
// truncated. It never cuts inside a UTF-8 sequence.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := max(maxLen, 0)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
