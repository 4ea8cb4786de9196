package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer replaces characters FL Studio cannot store in a folder name.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a name.
// Slashes, backslashes, colons and asterisks become dashes; other unsafe
// characters and control characters are removed. Leading and trailing spaces
// and trailing dots are trimmed since Windows drops them silently.
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, fileNameReplacer.Replace(name))
	return strings.TrimRight(strings.TrimSpace(name), ". ")
}

// Token converts value to a lowercase token of letters, digits, hyphens and
// underscores. Any other rune becomes an underscore. fallback is returned when
// nothing usable remains.
func Token(value, fallback string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(value) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return fallback
	}
	return out
}
