package util

import (
	"strings"
	"unicode/utf8"
)

// NormalizeWhitespace collapses every whitespace run into a single space and
// trims the ends. Applying it twice yields the same string.
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// RuneLen counts characters rather than bytes.
func RuneLen(text string) int {
	return utf8.RuneCountInString(text)
}

// TruncateRunes keeps at most limit characters of text.
func TruncateRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}

// Preview shortens text for log lines.
func Preview(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return TruncateRunes(text, limit) + "..."
}
