package util

import "strings"

// SanitizePromptText strips characters that tend to break completion APIs:
// control characters, NUL bytes and non-ASCII runes. Internal whitespace is
// collapsed to single spaces.
func SanitizePromptText(value string) string {
	if value == "" {
		return value
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteByte(' ')
		case r > 0x1f && r < 0x7f:
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
