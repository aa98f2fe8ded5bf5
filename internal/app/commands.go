package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/rbright/ghostkeys/internal/audio"
	"github.com/rbright/ghostkeys/internal/cli"
	"github.com/rbright/ghostkeys/internal/config"
	"github.com/rbright/ghostkeys/internal/content"
	"github.com/rbright/ghostkeys/internal/doctor"
	"github.com/rbright/ghostkeys/internal/ipc"
	"github.com/rbright/ghostkeys/internal/logging"
	"github.com/rbright/ghostkeys/internal/watch"
)

var errDoctorFailed = errors.New("doctor found failing checks")

// Load reads a file, normalizes it, and hands it to the daemon.
func (r Runner) Load(ctx context.Context, inv cli.Invocation, path string, label string) error {
	env, err := r.bootstrap(inv, "load", logging.Options{Level: slog.LevelInfo})
	if err != nil {
		return err
	}
	defer env.close()

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	contentCfg := env.loaded.Config.Content
	text := content.Normalize(string(raw), content.Options{
		NormalizeNewlines: contentCfg.NormalizeNewlines,
		TrimTrailingSpace: contentCfg.TrimTrailingSpace,
		TabWidth:          contentCfg.TabWidth,
	})
	if text == "" {
		return fmt.Errorf("%s is empty", path)
	}
	if label == "" {
		label = filepath.Base(path)
	}

	client, err := socketClient()
	if err != nil {
		return err
	}
	if _, err := client.Do(ctx, ipc.Request{Command: ipc.CommandLoad, Text: text, Label: label}); err != nil {
		return err
	}

	stats := content.Measure(text)
	env.logger.Info("content loaded", "label", label, "runes", stats.Runes, "bytes", len(text))
	fmt.Fprintf(r.Stdout, "loaded %s: %d characters, %d words, %d lines\n", label, stats.Runes, stats.Words, stats.Lines)
	return nil
}

// Control forwards a lifecycle command and prints the daemon's reply.
func (r Runner) Control(ctx context.Context, inv cli.Invocation, command string) error {
	env, err := r.bootstrap(inv, command, logging.Options{Level: slog.LevelInfo})
	if err != nil {
		return err
	}
	defer env.close()

	client, err := socketClient()
	if err != nil {
		return err
	}
	resp, err := client.Do(ctx, ipc.Request{Command: command})
	if err != nil {
		env.logger.Warn("command rejected", "command", command, "state", resp.State, "error", err.Error())
		return err
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return nil
}

// Status prints one line: state, progress, and file label. A missing daemon
// is reported as "not running" rather than an error.
func (r Runner) Status(ctx context.Context, inv cli.Invocation) error {
	env, err := r.bootstrap(inv, "status", logging.Options{Level: slog.LevelInfo})
	if err != nil {
		return err
	}
	defer env.close()

	client, err := socketClient()
	if err != nil {
		fmt.Fprintln(r.Stdout, "not running")
		return nil
	}
	resp, err := client.Do(ctx, ipc.Request{Command: ipc.CommandProgress})
	if errors.Is(err, ipc.ErrNotRunning) {
		fmt.Fprintln(r.Stdout, "not running")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(r.Stdout, formatStatus(resp))
	if resp.Error != "" {
		fmt.Fprintf(r.Stdout, "last error: %s\n", resp.Error)
	}
	return nil
}

func formatStatus(resp ipc.Response) string {
	state := resp.State
	if state == "" {
		state = "idle"
	}
	p := resp.Progress
	if p == nil || p.Total == 0 {
		return state
	}
	line := fmt.Sprintf("%s %d/%d (%.0f%%)", state, p.Current, p.Total, p.Percent)
	if resp.File != "" {
		line += " " + resp.File
	}
	return line
}

// Config prints the daemon's typing settings, applying overrides first when
// any flag was given.
func (r Runner) Config(ctx context.Context, inv cli.Invocation, overrides cli.TypingOverrides) error {
	env, err := r.bootstrap(inv, "config", logging.Options{Level: slog.LevelInfo})
	if err != nil {
		return err
	}
	defer env.close()

	client, err := socketClient()
	if err != nil {
		return err
	}
	resp, err := client.Do(ctx, ipc.Request{Command: ipc.CommandGetConfig})
	if err != nil {
		return err
	}
	if resp.Config == nil {
		return errors.New("daemon returned no config")
	}

	cfg := *resp.Config
	if !overrides.Empty() {
		cfg = overrides.Apply(cfg)
		if err := config.ValidateTyping(cfg); err != nil {
			return err
		}
		resp, err = client.Do(ctx, ipc.Request{Command: ipc.CommandSetConfig, Config: &cfg})
		if err != nil {
			return err
		}
		if resp.Config != nil {
			cfg = *resp.Config
		}
		env.logger.Info("typing config updated", "base_wpm", cfg.BaseWPM, "mistake_rate", cfg.MistakeRate)
		if resp.Message != "" {
			fmt.Fprintln(r.Stderr, resp.Message)
		}
	}
	return writeTypingConfig(r.Stdout, cfg)
}

func writeTypingConfig(w io.Writer, cfg config.TypingConfig) error {
	doc := struct {
		Typing config.TypingConfig `toml:"typing"`
	}{Typing: cfg}
	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode typing config: %w", err)
	}
	return nil
}

// Watch opens the terminal progress view.
func (r Runner) Watch(ctx context.Context, _ cli.Invocation) error {
	client, err := socketClient()
	if err != nil {
		return err
	}
	return watch.Run(ctx, client)
}

// Devices lists playback sinks, marking the default and the one cues use.
func (r Runner) Devices(ctx context.Context, inv cli.Invocation) error {
	env, err := r.bootstrap(inv, "devices", logging.Options{Level: slog.LevelInfo})
	if err != nil {
		return err
	}
	defer env.close()

	sinks, err := audio.ListSinks(ctx)
	if err != nil {
		return err
	}
	if len(sinks) == 0 {
		return errors.New("no audio output sinks found")
	}

	for _, sink := range sinks {
		defaultMark := " "
		if sink.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			sink.ID,
			sink.Description,
			sink.State,
			yesNo(sink.Available),
			yesNo(sink.Muted),
		)
	}

	if selection, err := audio.SelectSink(ctx, env.loaded.Config.Indicator.SoundDevice); err == nil {
		fmt.Fprintf(r.Stdout, "cues: %s\n", selection.Sink.ID)
		if selection.Warning != "" {
			fmt.Fprintf(r.Stderr, "warning: %s\n", selection.Warning)
		}
	} else {
		fmt.Fprintf(r.Stderr, "warning: %v\n", err)
	}
	return nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// Doctor prints the readiness report and fails when any check fails.
func (r Runner) Doctor(ctx context.Context, inv cli.Invocation) error {
	env, err := r.bootstrap(inv, "doctor", logging.Options{Level: slog.LevelInfo})
	if err != nil {
		return err
	}
	defer env.close()

	socketPath, _ := ipc.RuntimeSocketPath()
	report := doctor.Run(ctx, env.loaded, socketPath)
	fmt.Fprintln(r.Stdout, report.String())
	if !report.OK() {
		return errDoctorFailed
	}
	return nil
}
