// Package output injects synthetic keystrokes through an external backend
// command (wtype, xdotool, ydotool, or a custom pair).
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/rbright/ghostkeys/internal/config"
)

// ErrClosed rejects keystrokes on a released keyboard.
var ErrClosed = errors.New("keyboard closed")

// Injector opens keyboards for the configured backend.
type Injector struct {
	backend       string
	typeArgv      []string
	backspaceArgv []string
	timeout       time.Duration
	logger        *slog.Logger

	lookPath     func(string) (string, error)
	activeWindow func(context.Context) (string, error)
}

// NewInjector resolves the backend commands from keyboard config.
func NewInjector(cfg config.KeyboardConfig, logger *slog.Logger) *Injector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	typeCmd, backspaceCmd := cfg.Commands()
	timeout := time.Duration(cfg.CommandTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Injector{
		backend:       cfg.Backend,
		typeArgv:      typeCmd.Argv,
		backspaceArgv: backspaceCmd.Argv,
		timeout:       timeout,
		logger:        logger,
		lookPath:      exec.LookPath,
		activeWindow:  describeActiveWindow,
	}
}

// Open verifies the backend binaries are installed and returns a keyboard
// for one run.
func (i *Injector) Open(ctx context.Context) (*Keyboard, error) {
	if len(i.typeArgv) == 0 || len(i.backspaceArgv) == 0 {
		return nil, fmt.Errorf("keyboard backend %s: commands are not configured", i.backend)
	}
	for _, argv := range [][]string{i.typeArgv, i.backspaceArgv} {
		if _, err := i.lookPath(argv[0]); err != nil {
			return nil, fmt.Errorf("keyboard backend %s: %w", i.backend, err)
		}
	}

	if window, err := i.activeWindow(ctx); err != nil {
		i.logger.Debug("active window unavailable", "error", err.Error())
	} else if window != "" {
		i.logger.Info("keyboard target", "backend", i.backend, "window", window)
	}

	return &Keyboard{
		typeArgv:      i.typeArgv,
		backspaceArgv: i.backspaceArgv,
		timeout:       i.timeout,
	}, nil
}

// Keyboard runs one backend process per key. It is used by a single worker.
type Keyboard struct {
	typeArgv      []string
	backspaceArgv []string
	timeout       time.Duration
	closed        atomic.Bool
}

// Type sends text to the type command on stdin.
func (k *Keyboard) Type(ctx context.Context, text string) error {
	if k.closed.Load() {
		return ErrClosed
	}
	if text == "" {
		return nil
	}
	cmdCtx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	return runKeystrokeCommand(cmdCtx, k.typeArgv, text)
}

// Backspace runs the backspace command once.
func (k *Keyboard) Backspace(ctx context.Context) error {
	if k.closed.Load() {
		return ErrClosed
	}
	cmdCtx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	return runKeystrokeCommand(cmdCtx, k.backspaceArgv, "")
}

// Close releases the keyboard. Further keystrokes fail with ErrClosed.
func (k *Keyboard) Close() error {
	k.closed.Store(true)
	return nil
}
