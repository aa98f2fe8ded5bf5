// Package timing computes human-like inter-keystroke delays.
package timing

import (
	"math"
	"time"

	"github.com/rbright/ghostkeys/internal/config"
	"github.com/rbright/ghostkeys/internal/layout"
	"github.com/rbright/ghostkeys/internal/random"
)

const (
	minBaseDelayMS      = 20
	minDelayMS          = 8
	minVarianceDelayMS  = 10
	minBackspaceDelayMS = 10

	warmupChars  = 30
	warmupWeight = 0.35

	fatigueOnset  = 0.85
	fatigueWeight = 0.15

	burstChance = 0.08
)

// BaseDelayMS converts words per minute into the per-character delay,
// assuming five characters per word.
func BaseDelayMS(wpm int) int64 {
	if wpm <= 0 {
		wpm = 1
	}
	delay := int64(12000 / wpm)
	if delay < minBaseDelayMS {
		return minBaseDelayMS
	}
	return delay
}

// Delay returns the pause to take after typing chars[index] in a text of
// total characters.
func Delay(cfg config.TypingConfig, rng random.Source, chars []rune, index, total int) time.Duration {
	base := float64(BaseDelayMS(cfg.BaseWPM))
	if index < 0 || index >= len(chars) {
		return time.Duration(base) * time.Millisecond
	}

	current := chars[index]
	var prev rune
	hasPrev := index > 0
	if hasPrev {
		prev = chars[index-1]
	}
	wc := Analyze(chars, index)

	delay := base

	if wc.WordStart {
		delay *= random.Uniform(rng, 1.15, 1.30)
	}

	if wc.CharsInWord > 0 && wc.CharsInWord < wc.WordLength {
		delay *= momentum(float64(wc.CharsInWord) / float64(wc.WordLength))
	}

	if hasPrev {
		if layout.IsCommonDigraph(prev, current) {
			delay *= random.Uniform(rng, 0.75, 0.85)
		}

		prevHand, currHand := layout.HandOf(prev), layout.HandOf(current)
		if prevHand != layout.HandNeither && currHand != layout.HandNeither {
			if prevHand != currHand {
				delay *= random.Uniform(rng, 0.88, 0.96)
			} else {
				delay *= random.Uniform(rng, 1.05, 1.15)
			}
		}
	}

	if current == ' ' {
		delay *= random.Uniform(rng, 1.2, 1.5)
	}

	if hasPrev {
		punct := float64(cfg.PunctuationPauseMS)
		switch {
		case layout.IsSentenceTerminator(prev):
			delay += punct * random.Uniform(rng, 0.8, 1.2)
		case layout.IsClauseSeparator(prev):
			delay += punct * 0.5 * random.Uniform(rng, 0.7, 1.3)
		}
	}

	if current == '\n' {
		delay += float64(cfg.ParagraphPauseMS) * random.Uniform(rng, 0.6, 1.4)
	}

	if cfg.BurstTyping && rng.Float64() < burstChance {
		delay *= random.Uniform(rng, 0.6, 0.75)
	}

	if rng.Float64() < thinkingChance(cfg.ThinkingPauseChance, wc, current) {
		delay += float64(AddVariance(rng, int64(cfg.ThinkingPauseMS), 0.4))
	}

	if index < warmupChars {
		remaining := 1 - float64(index)/warmupChars
		delay *= 1 + warmupWeight*remaining*remaining
	}

	progress := float64(index) / float64(max(total, 1))
	if progress > fatigueOnset {
		delay *= 1 + fatigueWeight*((progress-fatigueOnset)/(1-fatigueOnset))
	}

	delay *= random.Uniform(rng, 0.9, 1.1)

	final := AddVariance(rng, int64(delay), cfg.WPMVariance*0.5)
	return time.Duration(max(final, minDelayMS)) * time.Millisecond
}

// momentum speeds up the middle of a word: fastest at 40% through, easing
// slightly toward the end.
func momentum(p float64) float64 {
	if p < 0.4 {
		return 0.85 + 0.15*(1-p/0.4)
	}
	return 0.85 + 0.1*((p-0.4)/0.6)
}

func thinkingChance(base float64, wc WordContext, current rune) float64 {
	switch {
	case wc.WordStart:
		return base * 1.5
	case layout.IsWordBoundary(current):
		return base * 2.0
	default:
		return base * 0.3
	}
}

// AddVariance perturbs delayMS with a normal sample whose standard deviation
// is delayMS*variance. The result stays within [50%, 200%] of the input and
// never drops below 10ms.
func AddVariance(rng random.Source, delayMS int64, variance float64) int64 {
	if variance <= 0 {
		return delayMS
	}
	mean := float64(delayMS)
	std := mean * variance
	if std <= 0 || math.IsNaN(std) || math.IsInf(std, 0) {
		return delayMS
	}

	sample := mean + rng.NormFloat64()*std
	lo, hi := mean*0.5, mean*2
	sample = min(max(sample, lo), hi)
	return max(int64(sample), minVarianceDelayMS)
}

// BackspaceDelay is the pause between correction backspaces, about 30%
// faster than regular typing.
func BackspaceDelay(cfg config.TypingConfig, rng random.Source) time.Duration {
	faster := int64(float64(BaseDelayMS(cfg.BaseWPM)) * 0.7)
	delay := AddVariance(rng, faster, cfg.WPMVariance*0.5)
	return time.Duration(max(delay, minBackspaceDelayMS)) * time.Millisecond
}

// NoticeDelay is how long a typist takes to notice a mistake: 50-499ms.
func NoticeDelay(rng random.Source) time.Duration {
	return time.Duration(50+rng.IntN(450)) * time.Millisecond
}
