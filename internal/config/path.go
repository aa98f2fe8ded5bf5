package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	appDir   = "ghostkeys"
	fileName = "config.toml"
)

// ResolvePath picks the config file location. An explicit --config path wins
// (with "~" expanded), then $XDG_CONFIG_HOME/ghostkeys/config.toml, then
// ~/.config/ghostkeys/config.toml.
func ResolvePath(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return ExpandHome(explicit), nil
	}

	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New("unable to resolve user home for config fallback")
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appDir, fileName), nil
}

// ExpandHome replaces a leading "~" or "~/" with the user's home directory.
// Other paths, and paths that cannot be expanded, come back trimmed but
// otherwise unchanged.
func ExpandHome(path string) string {
	path = strings.TrimSpace(path)
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && rest[0] != '/') {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
