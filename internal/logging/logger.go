// Package logging configures runtime JSONL logging output.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName   = "log.jsonl"
	maxLogSizeMB  = 5
	maxLogBackups = 3
)

// Options selects the logger sinks.
type Options struct {
	// Console, when set, also receives human-readable records.
	Console io.Writer
	Level   slog.Level
	// Path overrides the resolved log file location.
	Path string
}

// Runtime bundles the configured logger and its open file handle lifecycle.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	closer io.Closer
}

// Close flushes and closes the logger output sink.
func (r Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// New builds a rotating JSONL logger rooted at the resolved state path.
func New(opts Options) (Runtime, error) {
	path := opts.Path
	if path == "" {
		resolved, err := resolveLogPath()
		if err != nil {
			return Runtime{}, err
		}
		path = resolved
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Runtime{}, err
	}

	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
	}

	var handler slog.Handler = slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: opts.Level})
	if opts.Console != nil {
		handler = tee{
			handler,
			tint.NewHandler(opts.Console, &tint.Options{
				Level:      opts.Level,
				TimeFormat: time.Kitchen,
				NoColor:    !isTerminal(opts.Console),
			}),
		}
	}
	return Runtime{Logger: slog.New(handler), Path: path, closer: sink}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// resolveLogPath places log.jsonl under $XDG_STATE_HOME/ghostkeys, falling
// back to ~/.local/state/ghostkeys.
func resolveLogPath() (string, error) {
	state := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if state == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		state = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(state, "ghostkeys", logFileName), nil
}
