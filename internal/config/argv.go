package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	errOpenQuote  = errors.New("unterminated quote")
	errOpenEscape = errors.New("unterminated escape sequence")
)

// splitCommand breaks a shell-like command string into argv. Single and
// double quotes group words and a backslash takes the next rune literally.
// Blank input and lines starting with '#' yield no argv. No expansion of any
// kind is performed.
func splitCommand(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return nil, nil
	}

	var lx commandLexer
	for _, r := range line {
		lx.feed(r)
	}
	if err := lx.finish(); err != nil {
		return nil, fmt.Errorf("%w in command: %q", err, line)
	}
	return lx.words, nil
}

type commandLexer struct {
	words   []string
	word    strings.Builder
	inWord  bool
	quote   rune
	escaped bool
}

func (lx *commandLexer) feed(r rune) {
	if lx.escaped {
		lx.escaped = false
		lx.put(r)
		return
	}
	if r == '\\' {
		lx.escaped = true
		return
	}
	if lx.quote != 0 {
		if r == lx.quote {
			lx.quote = 0
		} else {
			lx.put(r)
		}
		return
	}
	switch {
	case r == '\'', r == '"':
		lx.quote = r
	case unicode.IsSpace(r):
		lx.cut()
	default:
		lx.put(r)
	}
}

func (lx *commandLexer) put(r rune) {
	lx.word.WriteRune(r)
	lx.inWord = true
}

func (lx *commandLexer) cut() {
	if !lx.inWord || lx.word.Len() == 0 {
		lx.inWord = false
		return
	}
	lx.words = append(lx.words, lx.word.String())
	lx.word.Reset()
	lx.inWord = false
}

func (lx *commandLexer) finish() error {
	switch {
	case lx.escaped:
		return errOpenEscape
	case lx.quote != 0:
		return errOpenQuote
	}
	lx.cut()
	return nil
}

// builtinArgv splits a command string compiled into the binary; a failure is
// a programming error.
func builtinArgv(line string) []string {
	argv, err := splitCommand(line)
	if err != nil {
		panic(err)
	}
	return argv
}
