// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug turns free text into ASCII machine names. Content type and
// role identifiers go through [Identifier] before validation, so "Blog Post"
// and "blog_post" name the same thing.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// From returns s lowercased, stripped of accents, with every run of other
// characters collapsed into a single separator '-'.
//
//	slug.From("Café  Crème!") // "cafe-creme"
func From(s string) string {
	return join(s, '-')
}

// Identifier is [From] with '_' as the separator.
//
//	slug.Identifier("Blog Post (v2)") // "blog_post_v2"
func Identifier(s string) string {
	return join(s, '_')
}

func join(s string, separator rune) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var builder strings.Builder
	builder.Grow(len(folded))

	pending := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && builder.Len() > 0 {
				builder.WriteRune(separator)
			}
			builder.WriteRune(r)
			pending = false
			continue
		}
		pending = true
	}
	return builder.String()
}
