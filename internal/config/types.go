// Package config resolves, parses, validates, and defaults ghostkeys configuration.
package config

// Config is the fully materialized runtime configuration used by ghostkeys.
type Config struct {
	Typing    TypingConfig
	Keyboard  KeyboardConfig
	Indicator IndicatorConfig
	Feed      FeedConfig
	Content   ContentConfig
}

// TypingConfig holds every tunable of the timing and mistake models.
// A run snapshots it at start.
type TypingConfig struct {
	BaseWPM             int     `toml:"base_wpm" json:"base_wpm" validate:"gt=0"`
	WPMVariance         float64 `toml:"wpm_variance" json:"wpm_variance" validate:"gte=0,lte=1"`
	MistakeRate         float64 `toml:"mistake_rate" json:"mistake_rate" validate:"gte=0,lte=1"`
	CorrectionRate      float64 `toml:"correction_rate" json:"correction_rate" validate:"gte=0,lte=1"`
	PunctuationPauseMS  int     `toml:"punctuation_pause_ms" json:"punctuation_pause_ms" validate:"gte=0"`
	ParagraphPauseMS    int     `toml:"paragraph_pause_ms" json:"paragraph_pause_ms" validate:"gte=0"`
	ThinkingPauseChance float64 `toml:"thinking_pause_chance" json:"thinking_pause_chance" validate:"gte=0,lte=1"`
	ThinkingPauseMS     int     `toml:"thinking_pause_ms" json:"thinking_pause_ms" validate:"gte=0"`
	BurstTyping         bool    `toml:"burst_typing" json:"burst_typing"`
	CountdownSeconds    int     `toml:"countdown_seconds" json:"countdown_seconds" validate:"gte=0"`
}

// KeyboardConfig selects the key-injection backend.
type KeyboardConfig struct {
	Backend          string        `toml:"backend" validate:"oneof=wtype xdotool ydotool custom"`
	TypeCmd          CommandConfig `toml:"-"`
	BackspaceCmd     CommandConfig `toml:"-"`
	CommandTimeoutMS int           `toml:"command_timeout_ms" validate:"gt=0"`
}

// IndicatorConfig controls visual notifications and audio cue behavior.
type IndicatorConfig struct {
	Enable             bool   `toml:"enable"`
	Backend            string `toml:"backend" validate:"oneof=hypr desktop"`
	DesktopAppName     string `toml:"desktop_app_name"`
	SoundEnable        bool   `toml:"sound_enable"`
	SoundDevice        string `toml:"sound_device"`
	SoundTickFile      string `toml:"sound_tick_file"`
	SoundStartFile     string `toml:"sound_start_file"`
	SoundDoneFile      string `toml:"sound_done_file"`
	SoundStopFile      string `toml:"sound_stop_file"`
	SoundErrorFile     string `toml:"sound_error_file"`
	ProgressIntervalMS int    `toml:"progress_interval_ms" validate:"gte=0"`
	ErrorTimeoutMS     int    `toml:"error_timeout_ms" validate:"gte=0"`
}

// FeedConfig controls the optional HTTP/websocket event feed.
type FeedConfig struct {
	Enable bool   `toml:"enable"`
	Listen string `toml:"listen" validate:"omitempty,hostname_port"`
}

// ContentConfig controls normalization applied to loaded files.
type ContentConfig struct {
	NormalizeNewlines bool `toml:"normalize_newlines"`
	TrimTrailingSpace bool `toml:"trim_trailing_space"`
	TabWidth          int  `toml:"tab_width" validate:"gte=0,lte=16"`
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
