// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolver decides which author records across sources refer to
// the same person, and owns the normalization rules shared by title and
// name matching throughout the engine.
package resolver

import (
	"strings"
	"unicode"
)

// titleKeyLen caps normalized titles for matching, so subtitle and
// truncation differences across sources do not defeat equality.
const titleKeyLen = 60

// NormalizeTitle lowercases a title, strips punctuation, and collapses
// whitespace. The result is the cross-source identity of a paper that has
// no stable id.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TitleKey returns the truncated normalized title used as a merge and
// index key. Truncation counts runes, not bytes, so non-ASCII titles
// keep their full key length and never end mid-character.
func TitleKey(title string) string {
	n := NormalizeTitle(title)
	if r := []rune(n); len(r) > titleKeyLen {
		n = string(r[:titleKeyLen])
	}
	return n
}

// NormalizeName lowercases an author name, keeping hyphens, and collapses
// whitespace.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// LastName extracts the final name token, which survives first-name
// abbreviation ("C. Tantithamthavorn" vs "Chakkrit Tantithamthavorn").
func LastName(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(fields[len(fields)-1], ".,"))
}
