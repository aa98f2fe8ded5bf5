// Package mistake decides whether a keystroke goes wrong and how.
package mistake

import (
	"unicode"

	"github.com/rbright/ghostkeys/internal/layout"
	"github.com/rbright/ghostkeys/internal/random"
)

// Kind classifies a typing mistake.
type Kind int

const (
	KindNone Kind = iota
	// KindAdjacentKey hits a physically neighboring key instead.
	KindAdjacentKey
	// KindTransposition swaps the current and next characters.
	KindTransposition
	// KindOmission skips the current character.
	KindOmission
	// KindDoubleTap types the current character twice.
	KindDoubleTap
	// KindCapitalization flips the case of a letter.
	KindCapitalization
)

func (k Kind) String() string {
	switch k {
	case KindAdjacentKey:
		return "adjacent_key"
	case KindTransposition:
		return "transposition"
	case KindOmission:
		return "omission"
	case KindDoubleTap:
		return "double_tap"
	case KindCapitalization:
		return "capitalization"
	default:
		return "none"
	}
}

// Cumulative upper bounds of the kind roulette: adjacent 40%, transposition
// 20%, omission 15%, double tap 15%, capitalization the remaining 10%.
var roulette = []struct {
	below float64
	kind  Kind
}{
	{below: 0.40, kind: KindAdjacentKey},
	{below: 0.60, kind: KindTransposition},
	{below: 0.75, kind: KindOmission},
	{below: 0.90, kind: KindDoubleTap},
}

// Decision is what to emit for one source position.
type Decision struct {
	// Emit is typed in order. It is empty for an omission.
	Emit []rune
	// Consumed is how many source characters this decision covers; always >= 1.
	Consumed int
	Mistake  bool
	Kind     Kind
}

// Decide rolls for a mistake on current. next is only consulted when hasNext
// is true. A kind that does not apply to the input falls back to typing
// current correctly.
func Decide(rng random.Source, current rune, next rune, hasNext bool, rate float64) Decision {
	if rng.Float64() >= rate {
		return correct(current)
	}

	switch pick(rng.Float64()) {
	case KindAdjacentKey:
		return adjacentKey(rng, current)
	case KindTransposition:
		if !hasNext {
			return correct(current)
		}
		return Decision{Emit: []rune{next, current}, Consumed: 2, Mistake: true, Kind: KindTransposition}
	case KindOmission:
		return Decision{Emit: []rune{}, Consumed: 1, Mistake: true, Kind: KindOmission}
	case KindDoubleTap:
		return Decision{Emit: []rune{current, current}, Consumed: 1, Mistake: true, Kind: KindDoubleTap}
	default:
		return flipCase(current)
	}
}

func pick(p float64) Kind {
	for _, slot := range roulette {
		if p < slot.below {
			return slot.kind
		}
	}
	return KindCapitalization
}

func correct(current rune) Decision {
	return Decision{Emit: []rune{current}, Consumed: 1}
}

func adjacentKey(rng random.Source, current rune) Decision {
	candidates := layout.Neighbors(unicode.ToLower(current))
	if len(candidates) == 0 {
		return correct(current)
	}

	wrong := candidates[rng.IntN(len(candidates))]
	if unicode.IsUpper(current) {
		wrong = unicode.ToUpper(wrong)
	}
	return Decision{Emit: []rune{wrong}, Consumed: 1, Mistake: true, Kind: KindAdjacentKey}
}

func flipCase(current rune) Decision {
	flipped := current
	switch {
	case unicode.IsUpper(current):
		flipped = unicode.ToLower(current)
	case unicode.IsLower(current):
		flipped = unicode.ToUpper(current)
	}
	if flipped == current {
		return correct(current)
	}
	return Decision{Emit: []rune{flipped}, Consumed: 1, Mistake: true, Kind: KindCapitalization}
}
