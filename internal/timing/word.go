package timing

import "github.com/rbright/ghostkeys/internal/layout"

// WordContext locates a character within its word.
type WordContext struct {
	// CharsInWord counts word characters typed before this one.
	CharsInWord int
	WordStart   bool
	WordEnd     bool
	// WordLength estimates the full word length: CharsInWord plus the run of
	// word characters from this one forward.
	WordLength int
}

// Analyze computes the word context of chars[index]. An out-of-range index
// is treated as a space.
func Analyze(chars []rune, index int) WordContext {
	current := ' '
	if index >= 0 && index < len(chars) {
		current = chars[index]
	}

	var wc WordContext
	for i := index - 1; i >= 0 && i < len(chars); i-- {
		if layout.IsWordBoundary(chars[i]) {
			break
		}
		wc.CharsInWord++
	}

	ahead := 0
	for i := max(index, 0); i < len(chars); i++ {
		if layout.IsWordBoundary(chars[i]) {
			break
		}
		ahead++
	}
	wc.WordLength = wc.CharsInWord + ahead

	currentIsBoundary := layout.IsWordBoundary(current)
	prevIsBoundary := index <= 0 || index > len(chars) || layout.IsWordBoundary(chars[index-1])
	nextIsBoundary := index+1 >= len(chars) || index+1 < 0 || layout.IsWordBoundary(chars[index+1])

	wc.WordStart = prevIsBoundary && !currentIsBoundary
	wc.WordEnd = nextIsBoundary && !currentIsBoundary
	return wc
}
