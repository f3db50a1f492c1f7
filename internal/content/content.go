// Package content cleans rich-text bodies produced by the blog editor.
package content

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// wordsPerMinute is the reading speed used for read-time estimates.
const wordsPerMinute = 200

var (
	htmlTag       = regexp.MustCompile(`<[^>]*>`)
	embeddedMedia = regexp.MustCompile(`(?i)<(img|video|audio)\b`)

	// policy is safe for concurrent use once built.
	policy = bluemonday.UGCPolicy()
)

// Sanitize keeps the formatting markup of an editor body and drops
// everything executable. Line endings are normalized.
func Sanitize(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	return strings.TrimSpace(policy.Sanitize(body))
}

// PlainText removes tags, unescapes entities and collapses whitespace.
func PlainText(body string) string {
	cleaned := htmlTag.ReplaceAllString(body, " ")
	cleaned = html.UnescapeString(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}

// IsBlank reports whether body has neither visible text nor embedded media.
// Editors emit markup such as "<p><br></p>" for an empty document.
func IsBlank(body string) bool {
	if strings.TrimSpace(body) == "" {
		return true
	}
	return PlainText(body) == "" && !embeddedMedia.MatchString(body)
}

// EstimateReadTime returns "N min read", at least one minute.
func EstimateReadTime(body string) string {
	words := len(strings.Fields(PlainText(body)))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}
