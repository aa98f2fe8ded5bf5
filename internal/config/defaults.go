package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Typing: DefaultTyping(),
		Keyboard: KeyboardConfig{
			Backend:          "wtype",
			CommandTimeoutMS: 2000,
		},
		Indicator: IndicatorConfig{
			Enable:             true,
			Backend:            "hypr",
			DesktopAppName:     "ghostkeys",
			SoundEnable:        true,
			SoundDevice:        "default",
			ProgressIntervalMS: 5000,
			ErrorTimeoutMS:     4000,
		},
		Feed: FeedConfig{
			Enable: false,
			Listen: "127.0.0.1:7077",
		},
		Content: ContentConfig{
			NormalizeNewlines: true,
			TrimTrailingSpace: false,
			TabWidth:          0,
		},
	}
}

// DefaultTyping returns the default typing profile: a 60 WPM typist who makes
// a mistake on roughly 3% of keystrokes and notices most of them.
func DefaultTyping() TypingConfig {
	return TypingConfig{
		BaseWPM:             60,
		WPMVariance:         0.3,
		MistakeRate:         0.03,
		CorrectionRate:      0.7,
		PunctuationPauseMS:  300,
		ParagraphPauseMS:    800,
		ThinkingPauseChance: 0.02,
		ThinkingPauseMS:     1500,
		BurstTyping:         true,
		CountdownSeconds:    3,
	}
}
