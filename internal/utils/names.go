package utils

import (
	"strings"
	"unicode"
)

// SanitizeName keeps letters, digits, spaces, hyphens and underscores,
// collapses runs of whitespace and truncates to maxLen runes. An empty
// result yields placeholder.
func SanitizeName(name, placeholder string, maxLen int) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	cleaned := strings.Join(strings.Fields(b.String()), " ")
	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			cleaned = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	if cleaned == "" {
		return placeholder
	}
	return cleaned
}
