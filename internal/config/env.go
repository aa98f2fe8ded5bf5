package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override, e.g. GHOSTKEYS_TYPING_BASE_WPM.
const EnvPrefix = "GHOSTKEYS_"

type envConfig struct {
	Typing    fileTyping    `envPrefix:"TYPING_"`
	Keyboard  fileKeyboard  `envPrefix:"KEYBOARD_"`
	Indicator fileIndicator `envPrefix:"INDICATOR_"`
	Feed      fileFeed      `envPrefix:"FEED_"`
	Content   fileContent   `envPrefix:"CONTENT_"`
}

// ApplyEnv overlays GHOSTKEYS_* environment variables onto cfg.
// Only variables that are set take effect.
func ApplyEnv(cfg Config, environ map[string]string) (Config, error) {
	var overlay envConfig
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&overlay, opts); err != nil {
		return Config{}, fmt.Errorf("parse environment overrides: %w", err)
	}

	payload := fileConfig{
		Typing:    &overlay.Typing,
		Keyboard:  &overlay.Keyboard,
		Indicator: &overlay.Indicator,
		Feed:      &overlay.Feed,
		Content:   &overlay.Content,
	}
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, fmt.Errorf("apply environment overrides: %w", err)
	}
	return cfg, nil
}
