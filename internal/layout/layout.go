// Package layout describes the physical QWERTY keyboard that the timing and
// mistake models reason about.
package layout

import "unicode"

// Hand identifies which hand strikes a key.
type Hand int

const (
	HandNeither Hand = iota
	HandLeft
	HandRight
)

func (h Hand) String() string {
	switch h {
	case HandLeft:
		return "left"
	case HandRight:
		return "right"
	default:
		return "neither"
	}
}

var neighbors = map[rune][]rune{
	// top row
	'q': {'w', 'a'},
	'w': {'q', 'e', 'a', 's'},
	'e': {'w', 'r', 's', 'd'},
	'r': {'e', 't', 'd', 'f'},
	't': {'r', 'y', 'f', 'g'},
	'y': {'t', 'u', 'g', 'h'},
	'u': {'y', 'i', 'h', 'j'},
	'i': {'u', 'o', 'j', 'k'},
	'o': {'i', 'p', 'k', 'l'},
	'p': {'o', 'l', '['},

	// home row
	'a': {'q', 'w', 's', 'z'},
	's': {'a', 'w', 'e', 'd', 'z', 'x'},
	'd': {'s', 'e', 'r', 'f', 'x', 'c'},
	'f': {'d', 'r', 't', 'g', 'c', 'v'},
	'g': {'f', 't', 'y', 'h', 'v', 'b'},
	'h': {'g', 'y', 'u', 'j', 'b', 'n'},
	'j': {'h', 'u', 'i', 'k', 'n', 'm'},
	'k': {'j', 'i', 'o', 'l', 'm', ','},
	'l': {'k', 'o', 'p', ';', ',', '.'},

	// bottom row
	'z': {'a', 's', 'x'},
	'x': {'z', 's', 'd', 'c'},
	'c': {'x', 'd', 'f', 'v'},
	'v': {'c', 'f', 'g', 'b'},
	'b': {'v', 'g', 'h', 'n'},
	'n': {'b', 'h', 'j', 'm'},
	'm': {'n', 'j', 'k', ','},

	// number row
	'1': {'2', 'q'},
	'2': {'1', '3', 'q', 'w'},
	'3': {'2', '4', 'w', 'e'},
	'4': {'3', '5', 'e', 'r'},
	'5': {'4', '6', 'r', 't'},
	'6': {'5', '7', 't', 'y'},
	'7': {'6', '8', 'y', 'u'},
	'8': {'7', '9', 'u', 'i'},
	'9': {'8', '0', 'i', 'o'},
	'0': {'9', '-', 'o', 'p'},
}

var leftHand = runeSet("qwertasdfgzxcvb12345`~")

var rightHand = runeSet("yuiophjklnm67890-=[]\\;',./")

// Common English and programming digraphs, typed faster from muscle memory.
var digraphs = map[string]struct{}{
	"th": {}, "he": {}, "in": {}, "er": {}, "an": {}, "re": {}, "on": {}, "at": {}, "en": {}, "nd": {},
	"ti": {}, "es": {}, "or": {}, "te": {}, "of": {}, "ed": {}, "is": {}, "it": {}, "al": {}, "ar": {},
	"st": {}, "to": {}, "nt": {}, "ng": {}, "ha": {}, "as": {}, "ou": {}, "io": {}, "le": {},
	"ve": {}, "co": {}, "me": {}, "de": {}, "hi": {}, "ri": {}, "ro": {}, "ic": {}, "ne": {}, "ea": {},
	"ra": {}, "ce": {}, "li": {}, "ch": {}, "ll": {}, "be": {}, "ma": {}, "si": {}, "om": {}, "ur": {},
	"if": {}, "el": {}, "fo": {}, "wh": {}, "tu": {}, "rn": {}, "fu": {}, "nc": {},
	"ct": {}, "va": {}, "et": {}, "ue": {}, "tr": {}, "fa": {},
	"ls": {}, "nu": {}, "un": {}, "fi": {}, "cl": {}, "ss": {},
}

var boundaryPunctuation = runeSet(".,;:!?\"'()[]{}-/\\")

// Neighbors returns the physically adjacent keys of a lowercase key, or nil
// when the key has no mapping.
func Neighbors(r rune) []rune {
	return neighbors[r]
}

// HandOf classifies the hand that types r. Letters are matched case-insensitively.
func HandOf(r rune) Hand {
	r = unicode.ToLower(r)
	if _, ok := leftHand[r]; ok {
		return HandLeft
	}
	if _, ok := rightHand[r]; ok {
		return HandRight
	}
	return HandNeither
}

// IsCommonDigraph reports whether prev followed by curr is a high-frequency pair.
func IsCommonDigraph(prev, curr rune) bool {
	_, ok := digraphs[string([]rune{unicode.ToLower(prev), unicode.ToLower(curr)})]
	return ok
}

// IsWordBoundary reports whether r delimits a word for rhythm purposes.
func IsWordBoundary(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	_, ok := boundaryPunctuation[r]
	return ok
}

// IsSentenceTerminator reports whether r ends a sentence.
func IsSentenceTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// IsClauseSeparator reports whether r separates clauses inside a sentence.
func IsClauseSeparator(r rune) bool {
	return r == ',' || r == ';' || r == ':'
}

func runeSet(chars string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(chars))
	for _, r := range chars {
		set[r] = struct{}{}
	}
	return set
}
