package cli

import (
	"github.com/rbright/ghostkeys/internal/config"
	"github.com/spf13/cobra"
)

// TypingOverrides holds the typing settings explicitly set on the command
// line. Nil fields keep the daemon's current value.
type TypingOverrides struct {
	BaseWPM             *int
	WPMVariance         *float64
	MistakeRate         *float64
	CorrectionRate      *float64
	PunctuationPauseMS  *int
	ParagraphPauseMS    *int
	ThinkingPauseChance *float64
	ThinkingPauseMS     *int
	BurstTyping         *bool
	CountdownSeconds    *int
}

// Empty reports whether no override flag was given.
func (o TypingOverrides) Empty() bool {
	return o == TypingOverrides{}
}

// Apply returns cfg with every set override written over it.
func (o TypingOverrides) Apply(cfg config.TypingConfig) config.TypingConfig {
	applyOverride(&cfg.BaseWPM, o.BaseWPM)
	applyOverride(&cfg.WPMVariance, o.WPMVariance)
	applyOverride(&cfg.MistakeRate, o.MistakeRate)
	applyOverride(&cfg.CorrectionRate, o.CorrectionRate)
	applyOverride(&cfg.PunctuationPauseMS, o.PunctuationPauseMS)
	applyOverride(&cfg.ParagraphPauseMS, o.ParagraphPauseMS)
	applyOverride(&cfg.ThinkingPauseChance, o.ThinkingPauseChance)
	applyOverride(&cfg.ThinkingPauseMS, o.ThinkingPauseMS)
	applyOverride(&cfg.BurstTyping, o.BurstTyping)
	applyOverride(&cfg.CountdownSeconds, o.CountdownSeconds)
	return cfg
}

func applyOverride[T any](target *T, value *T) {
	if value == nil {
		return
	}
	*target = *value
}

func newConfigCmd(h Handlers, inv *Invocation) *cobra.Command {
	var (
		wpm             int
		variance        float64
		mistakeRate     float64
		correctionRate  float64
		punctuationMS   int
		paragraphMS     int
		thinkingChance  float64
		thinkingPauseMS int
		burst           bool
		countdown       int
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the daemon's typing settings, or change them with flags",
		Long: "Without flags, prints the typing settings the daemon is using.\n" +
			"With flags, only the given settings change; the next run picks them up.",
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := TypingOverrides{
				BaseWPM:             changedValue(cmd, "wpm", wpm),
				WPMVariance:         changedValue(cmd, "variance", variance),
				MistakeRate:         changedValue(cmd, "mistake-rate", mistakeRate),
				CorrectionRate:      changedValue(cmd, "correction-rate", correctionRate),
				PunctuationPauseMS:  changedValue(cmd, "punctuation-pause-ms", punctuationMS),
				ParagraphPauseMS:    changedValue(cmd, "paragraph-pause-ms", paragraphMS),
				ThinkingPauseChance: changedValue(cmd, "thinking-chance", thinkingChance),
				ThinkingPauseMS:     changedValue(cmd, "thinking-pause-ms", thinkingPauseMS),
				BurstTyping:         changedValue(cmd, "burst", burst),
				CountdownSeconds:    changedValue(cmd, "countdown", countdown),
			}
			return h.Config(cmd.Context(), *inv, overrides)
		},
	}

	defaults := config.DefaultTyping()
	flags := cmd.Flags()
	flags.IntVar(&wpm, "wpm", defaults.BaseWPM, "base typing speed in words per minute")
	flags.Float64Var(&variance, "variance", defaults.WPMVariance, "relative speed variance (0-1)")
	flags.Float64Var(&mistakeRate, "mistake-rate", defaults.MistakeRate, "chance of a typo per character (0-1)")
	flags.Float64Var(&correctionRate, "correction-rate", defaults.CorrectionRate, "chance a typo gets corrected (0-1)")
	flags.IntVar(&punctuationMS, "punctuation-pause-ms", defaults.PunctuationPauseMS, "pause after sentence punctuation")
	flags.IntVar(&paragraphMS, "paragraph-pause-ms", defaults.ParagraphPauseMS, "pause after a newline")
	flags.Float64Var(&thinkingChance, "thinking-chance", defaults.ThinkingPauseChance, "chance of a thinking pause at a word boundary (0-1)")
	flags.IntVar(&thinkingPauseMS, "thinking-pause-ms", defaults.ThinkingPauseMS, "thinking pause length")
	flags.BoolVar(&burst, "burst", defaults.BurstTyping, "type common digraphs faster")
	flags.IntVar(&countdown, "countdown", defaults.CountdownSeconds, "seconds to wait before typing starts")

	return cmd
}

// changedValue returns a pointer to value only when the flag was set explicitly.
func changedValue[T any](cmd *cobra.Command, name string, value T) *T {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}
