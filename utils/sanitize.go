package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips all markup from user supplied text and trims it.
// The policy escapes entities for HTML output; they are decoded again since
// the text is stored and served as JSON.
func SanitizeText(input string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(input)))
}

// SanitizeAll applies SanitizeText to every element and drops empty results.
func SanitizeAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := SanitizeText(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}
