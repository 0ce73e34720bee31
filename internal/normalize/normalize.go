// Package normalize provides utilities for normalizing user-entered identity data.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Matches runs of whitespace.
var whitespaceRun = regexp.MustCompile(`\s+`)

// Email lowercases and trims an email address for case-insensitive
// storage and lookup.
func Email(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PenName canonicalizes a pen name for display: NFC-composed unicode with
// whitespace runs collapsed to single spaces. The visible casing is kept.
func PenName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	return whitespaceRun.ReplaceAllString(name, " ")
}

// PenNameKey folds a pen name to a comparison key so "Río Verde" and
// "rio  verde" collide. Decomposes accents, strips combining marks, and
// lowercases.
func PenNameKey(name string) string {
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, name)
	name = strings.ToLower(strings.TrimSpace(name))
	return whitespaceRun.ReplaceAllString(name, " ")
}
