// Package normalizers provides the string normalizers used by provider matching
// and provisioning.
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold is the case-insensitive comparison key for provider names.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StripDiacritics removes combining marks (é -> e). Safe for concurrent use.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Slug lowercases, strips diacritics, collapses every run of characters outside
// [a-z0-9] into one '-' and trims leading and trailing '-'.
func Slug(s string) string {
	s = strings.ToLower(StripDiacritics(s))

	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
