// Package slug turns titles into URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
)

// space matches Unicode spaces too (NBSP, ideographic space, BOM), not
// just the ASCII set of \s.
const space = `\s\v\p{Z}\x{FEFF}`

var (
	disallowed = regexp.MustCompile(`[^\w` + space + `-]`)
	separators = regexp.MustCompile(`[` + space + `_-]+`)
)

// Make lowercases and trims title, drops everything except ASCII word
// characters, whitespace and hyphens, collapses separator runs into a single
// hyphen and strips hyphens from both ends.
func Make(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	s = disallowed.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
