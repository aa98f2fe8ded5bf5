package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type fileConfig struct {
	Typing    *fileTyping    `toml:"typing"`
	Keyboard  *fileKeyboard  `toml:"keyboard"`
	Indicator *fileIndicator `toml:"indicator"`
	Feed      *fileFeed      `toml:"feed"`
	Content   *fileContent   `toml:"content"`
}

type fileTyping struct {
	BaseWPM             *int     `toml:"base_wpm" env:"BASE_WPM"`
	WPMVariance         *float64 `toml:"wpm_variance" env:"WPM_VARIANCE"`
	MistakeRate         *float64 `toml:"mistake_rate" env:"MISTAKE_RATE"`
	CorrectionRate      *float64 `toml:"correction_rate" env:"CORRECTION_RATE"`
	PunctuationPauseMS  *int     `toml:"punctuation_pause_ms" env:"PUNCTUATION_PAUSE_MS"`
	ParagraphPauseMS    *int     `toml:"paragraph_pause_ms" env:"PARAGRAPH_PAUSE_MS"`
	ThinkingPauseChance *float64 `toml:"thinking_pause_chance" env:"THINKING_PAUSE_CHANCE"`
	ThinkingPauseMS     *int     `toml:"thinking_pause_ms" env:"THINKING_PAUSE_MS"`
	BurstTyping         *bool    `toml:"burst_typing" env:"BURST_TYPING"`
	CountdownSeconds    *int     `toml:"countdown_seconds" env:"COUNTDOWN_SECONDS"`
}

type fileKeyboard struct {
	Backend          *string `toml:"backend" env:"BACKEND"`
	TypeCmd          *string `toml:"type_cmd" env:"TYPE_CMD"`
	BackspaceCmd     *string `toml:"backspace_cmd" env:"BACKSPACE_CMD"`
	CommandTimeoutMS *int    `toml:"command_timeout_ms" env:"COMMAND_TIMEOUT_MS"`
}

type fileIndicator struct {
	Enable             *bool   `toml:"enable" env:"ENABLE"`
	Backend            *string `toml:"backend" env:"BACKEND"`
	DesktopAppName     *string `toml:"desktop_app_name" env:"DESKTOP_APP_NAME"`
	SoundEnable        *bool   `toml:"sound_enable" env:"SOUND_ENABLE"`
	SoundDevice        *string `toml:"sound_device" env:"SOUND_DEVICE"`
	SoundTickFile      *string `toml:"sound_tick_file" env:"SOUND_TICK_FILE"`
	SoundStartFile     *string `toml:"sound_start_file" env:"SOUND_START_FILE"`
	SoundDoneFile      *string `toml:"sound_done_file" env:"SOUND_DONE_FILE"`
	SoundStopFile      *string `toml:"sound_stop_file" env:"SOUND_STOP_FILE"`
	SoundErrorFile     *string `toml:"sound_error_file" env:"SOUND_ERROR_FILE"`
	ProgressIntervalMS *int    `toml:"progress_interval_ms" env:"PROGRESS_INTERVAL_MS"`
	ErrorTimeoutMS     *int    `toml:"error_timeout_ms" env:"ERROR_TIMEOUT_MS"`
}

type fileFeed struct {
	Enable *bool   `toml:"enable" env:"ENABLE"`
	Listen *string `toml:"listen" env:"LISTEN"`
}

type fileContent struct {
	NormalizeNewlines *bool `toml:"normalize_newlines" env:"NORMALIZE_NEWLINES"`
	TrimTrailingSpace *bool `toml:"trim_trailing_space" env:"TRIM_TRAILING_SPACE"`
	TabWidth          *int  `toml:"tab_width" env:"TAB_WIDTH"`
}

// Parse decodes TOML content over base and validates the result.
// Keys that do not map to a known setting are reported as warnings.
func Parse(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	var payload fileConfig
	meta, err := toml.Decode(content, &payload)
	if err != nil {
		return Config{}, nil, wrapDecodeError(err)
	}

	warnings := make([]Warning, 0)
	for _, key := range meta.Undecoded() {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("unknown key %q ignored", key.String())})
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	validated, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, append(warnings, validated...), nil
}

func wrapDecodeError(err error) error {
	var parseErr toml.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("line %d: %s", parseErr.Position.Line, parseErr.Message)
	}
	return err
}

func (payload fileConfig) applyTo(cfg *Config) error {
	if t := payload.Typing; t != nil {
		setIfPresent(&cfg.Typing.BaseWPM, t.BaseWPM)
		setIfPresent(&cfg.Typing.WPMVariance, t.WPMVariance)
		setIfPresent(&cfg.Typing.MistakeRate, t.MistakeRate)
		setIfPresent(&cfg.Typing.CorrectionRate, t.CorrectionRate)
		setIfPresent(&cfg.Typing.PunctuationPauseMS, t.PunctuationPauseMS)
		setIfPresent(&cfg.Typing.ParagraphPauseMS, t.ParagraphPauseMS)
		setIfPresent(&cfg.Typing.ThinkingPauseChance, t.ThinkingPauseChance)
		setIfPresent(&cfg.Typing.ThinkingPauseMS, t.ThinkingPauseMS)
		setIfPresent(&cfg.Typing.BurstTyping, t.BurstTyping)
		setIfPresent(&cfg.Typing.CountdownSeconds, t.CountdownSeconds)
	}

	if k := payload.Keyboard; k != nil {
		if k.Backend != nil {
			cfg.Keyboard.Backend = strings.ToLower(strings.TrimSpace(*k.Backend))
		}
		if k.TypeCmd != nil {
			cmd, err := parseCommand("keyboard.type_cmd", *k.TypeCmd)
			if err != nil {
				return err
			}
			cfg.Keyboard.TypeCmd = cmd
		}
		if k.BackspaceCmd != nil {
			cmd, err := parseCommand("keyboard.backspace_cmd", *k.BackspaceCmd)
			if err != nil {
				return err
			}
			cfg.Keyboard.BackspaceCmd = cmd
		}
		setIfPresent(&cfg.Keyboard.CommandTimeoutMS, k.CommandTimeoutMS)
	}

	if i := payload.Indicator; i != nil {
		setIfPresent(&cfg.Indicator.Enable, i.Enable)
		if i.Backend != nil {
			cfg.Indicator.Backend = strings.ToLower(strings.TrimSpace(*i.Backend))
		}
		setIfPresent(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		setIfPresent(&cfg.Indicator.SoundEnable, i.SoundEnable)
		if i.SoundDevice != nil {
			cfg.Indicator.SoundDevice = strings.TrimSpace(*i.SoundDevice)
		}
		setIfPresent(&cfg.Indicator.SoundTickFile, i.SoundTickFile)
		setIfPresent(&cfg.Indicator.SoundStartFile, i.SoundStartFile)
		setIfPresent(&cfg.Indicator.SoundDoneFile, i.SoundDoneFile)
		setIfPresent(&cfg.Indicator.SoundStopFile, i.SoundStopFile)
		setIfPresent(&cfg.Indicator.SoundErrorFile, i.SoundErrorFile)
		setIfPresent(&cfg.Indicator.ProgressIntervalMS, i.ProgressIntervalMS)
		setIfPresent(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if f := payload.Feed; f != nil {
		setIfPresent(&cfg.Feed.Enable, f.Enable)
		if f.Listen != nil {
			cfg.Feed.Listen = strings.TrimSpace(*f.Listen)
		}
	}

	if c := payload.Content; c != nil {
		setIfPresent(&cfg.Content.NormalizeNewlines, c.NormalizeNewlines)
		setIfPresent(&cfg.Content.TrimTrailingSpace, c.TrimTrailingSpace)
		setIfPresent(&cfg.Content.TabWidth, c.TabWidth)
	}

	return nil
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func parseCommand(key string, raw string) (CommandConfig, error) {
	argv, err := splitCommand(raw)
	if err != nil {
		return CommandConfig{}, fmt.Errorf("%s: %w", key, err)
	}
	return CommandConfig{Raw: strings.TrimSpace(raw), Argv: argv}, nil
}
