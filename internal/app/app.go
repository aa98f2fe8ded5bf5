// Package app is the ghostkeys composition root: it runs the command tree and
// implements every command against config, logging, and the daemon socket.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rbright/ghostkeys/internal/cli"
	"github.com/rbright/ghostkeys/internal/config"
	"github.com/rbright/ghostkeys/internal/ipc"
	"github.com/rbright/ghostkeys/internal/logging"
)

const clientTimeout = 2 * time.Second

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

// Execute runs one command and returns the process exit code: 0 on success,
// 1 on runtime failure, 2 on usage errors.
func (r Runner) Execute(ctx context.Context, args []string) int {
	root := cli.NewRootCmd(r)
	root.SetArgs(args)
	root.SetOut(r.Stdout)
	root.SetErr(r.Stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}

	fmt.Fprintf(r.Stderr, "error: %v\n", err)
	if cli.IsUsageError(err) {
		fmt.Fprintf(r.Stderr, "\n%s", cmd.UsageString())
		return 2
	}
	return 1
}

// runtimeEnv is the per-command setup shared by every handler.
type runtimeEnv struct {
	logger *slog.Logger
	loaded config.Loaded
	close  func()
}

// bootstrap opens the log sink and loads config. Config warnings go to
// stderr and the log.
func (r Runner) bootstrap(inv cli.Invocation, command string, opts logging.Options) (runtimeEnv, error) {
	logRuntime, err := logging.New(opts)
	if err != nil {
		return runtimeEnv{}, fmt.Errorf("setup logging: %w", err)
	}

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	loaded, err := config.Load(inv.ConfigPath)
	if err != nil {
		logger.Error("load config failed", "error", err.Error())
		_ = logRuntime.Close()
		return runtimeEnv{}, err
	}
	for _, w := range loaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Debug("command start",
		"command", command,
		"config", loaded.Path,
		"log", logRuntime.Path,
	)

	return runtimeEnv{
		logger: logger,
		loaded: loaded,
		close:  func() { _ = logRuntime.Close() },
	}, nil
}

func socketClient() (ipc.Client, error) {
	path, err := ipc.RuntimeSocketPath()
	if err != nil {
		return ipc.Client{}, err
	}
	return ipc.Client{Path: path, Timeout: clientTimeout}, nil
}
