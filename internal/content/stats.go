package content

import (
	"strings"
	"unicode/utf8"
)

// Stats summarizes loaded content.
type Stats struct {
	Runes int `json:"runes"`
	Words int `json:"words"`
	Lines int `json:"lines"`
}

// Measure counts runes, whitespace-separated words, and lines. A trailing
// newline does not start a new line.
func Measure(text string) Stats {
	if text == "" {
		return Stats{}
	}
	lines := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		lines++
	}
	return Stats{
		Runes: utf8.RuneCountInString(text),
		Words: len(strings.Fields(text)),
		Lines: lines,
	}
}
