package knowledge

import (
	"strings"
	"unicode"
)

// Normalize lowercases text and replaces punctuation with spaces. Apostrophes
// are kept so contractions like "can't" survive, and a dot between two digits
// is kept so "1.5 hours" stays a single number.
func Normalize(text string) string {
	runes := []rune(strings.ToLower(text))
	var b strings.Builder
	b.Grow(len(runes))

	space := true
	for i, r := range runes {
		switch {
		case r == '’' || r == '\'':
			b.WriteRune('\'')
			space = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case r == '.' && i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]):
			b.WriteRune(r)
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// isWordByte reports whether b can be part of a word in normalized text.
func isWordByte(b byte) bool {
	return b == '\'' || b >= 0x80 || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// IndexWord returns the byte offset of the first occurrence of phrase in text
// at or after from that starts and ends on a word boundary, or -1.
func IndexWord(text, phrase string, from int) int {
	for from <= len(text)-len(phrase) {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(phrase)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return start
		}
		from = start + 1
	}
	return -1
}
