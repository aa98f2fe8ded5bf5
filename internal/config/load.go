package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded is the outcome of Load: the effective config, where it came from,
// and anything the user should be warned about.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	// Exists is false when no file was found and defaults were used.
	Exists bool
}

// Load builds the effective config in layers: defaults, then the TOML file
// at ResolvePath(explicitPath) if present, then GHOSTKEYS_* environment
// overrides. The merged result must validate.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	out := Loaded{Path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		out.Warnings = append(out.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
	} else if err != nil {
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	} else {
		out.Exists = true
	}

	cfg, fileWarnings, err := Parse(string(raw), Default())
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	if cfg, err = ApplyEnv(cfg, nil); err != nil {
		return Loaded{}, err
	}
	if _, err := Validate(cfg); err != nil {
		return Loaded{}, fmt.Errorf("validate config with environment overrides: %w", err)
	}

	out.Config = cfg
	out.Warnings = append(out.Warnings, fileWarnings...)
	return out, nil
}
