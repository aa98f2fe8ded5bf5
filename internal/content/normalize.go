// Package content prepares loaded files for typing.
package content

import (
	"strings"
	"unicode"
)

const byteOrderMark = "\uFEFF"

// Options controls content normalization.
type Options struct {
	NormalizeNewlines bool
	TrimTrailingSpace bool
	// TabWidth expands tabs to this many spaces. Zero keeps tabs as-is.
	TabWidth int
}

// Normalize applies configured cleanup to text before it is loaded. A leading
// byte order mark is always dropped; it is never meant to be typed.
func Normalize(text string, opts Options) string {
	text = strings.TrimPrefix(text, byteOrderMark)
	if text == "" {
		return ""
	}

	if opts.NormalizeNewlines {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}

	if opts.TabWidth > 0 {
		text = strings.ReplaceAll(text, "\t", strings.Repeat(" ", opts.TabWidth))
	}

	if opts.TrimTrailingSpace {
		text = trimTrailingSpace(text)
	}
	return text
}

func trimTrailingSpace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, func(r rune) bool {
			return r != '\r' && unicode.IsSpace(r)
		})
	}
	return strings.Join(lines, "\n")
}
