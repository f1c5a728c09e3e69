package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes every tag. Used for titles, places and remarks.
	StrictPolicy = bluemonday.StrictPolicy()

	// UGCPolicy keeps basic formatting. Used for event descriptions.
	UGCPolicy = bluemonday.UGCPolicy()
)

// Text strips all markup and returns plain text. Entities produced by the
// policy are decoded again so "R&D" is stored as typed.
func Text(input string) string {
	if input == "" {
		return ""
	}
	return html.UnescapeString(StrictPolicy.Sanitize(input))
}

// HTML removes scripts, frames, handlers and styles but keeps safe formatting.
func HTML(input string) string {
	if input == "" {
		return ""
	}
	return UGCPolicy.Sanitize(input)
}

// Fields trims each entry and drops the empty ones, preserving order. It
// returns an empty, non-nil slice so callers can tell "no restriction" apart
// from "not provided".
func Fields(inputs []string) []string {
	out := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if item := strings.TrimSpace(input); item != "" {
			out = append(out, item)
		}
	}
	return out
}
