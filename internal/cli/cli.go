// Package cli defines the ghostkeys command tree. Command bodies live in the
// Handlers implementation supplied by the app package.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/ghostkeys/internal/ipc"
	"github.com/rbright/ghostkeys/internal/version"
	"github.com/spf13/cobra"
)

// Invocation carries the global flags shared by every subcommand.
type Invocation struct {
	ConfigPath string
}

// Handlers executes parsed commands.
type Handlers interface {
	Daemon(ctx context.Context, inv Invocation, verbose bool) error
	Load(ctx context.Context, inv Invocation, path string, label string) error
	// Control forwards a bare lifecycle command (start, stop, pause, ...).
	Control(ctx context.Context, inv Invocation, command string) error
	Status(ctx context.Context, inv Invocation) error
	Config(ctx context.Context, inv Invocation, overrides TypingOverrides) error
	Watch(ctx context.Context, inv Invocation) error
	Doctor(ctx context.Context, inv Invocation) error
	Devices(ctx context.Context, inv Invocation) error
}

// UsageError marks argument and flag mistakes. They exit with code 2.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// IsUsageError reports whether err came from bad command-line input.
func IsUsageError(err error) bool {
	var usage *UsageError
	if errors.As(err, &usage) {
		return true
	}
	// cobra reports unknown subcommands with a plain error.
	return err != nil && strings.HasPrefix(err.Error(), "unknown command")
}

// NewRootCmd builds the ghostkeys command tree around h.
func NewRootCmd(h Handlers) *cobra.Command {
	var inv Invocation

	rootCmd := &cobra.Command{
		Use:           "ghostkeys",
		Short:         "Type a loaded text file into the focused window like a human would",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})
	rootCmd.PersistentFlags().StringVar(&inv.ConfigPath, "config", "", "path to config.toml")

	rootCmd.AddCommand(
		newDaemonCmd(h, &inv),
		newLoadCmd(h, &inv),
		newControlCmd(h, &inv, ipc.CommandStart, "Start typing the loaded content"),
		newControlCmd(h, &inv, ipc.CommandStop, "Stop the current run and rewind"),
		newControlCmd(h, &inv, ipc.CommandPause, "Pause typing"),
		newControlCmd(h, &inv, ipc.CommandResume, "Resume a paused run"),
		newControlCmd(h, &inv, ipc.CommandToggle, "Start when ready, stop when running"),
		newControlCmd(h, &inv, ipc.CommandTogglePause, "Pause when typing, resume when paused"),
		newStatusCmd(h, &inv),
		newConfigCmd(h, &inv),
		newWatchCmd(h, &inv),
		newDoctorCmd(h, &inv),
		newDevicesCmd(h, &inv),
		newVersionCmd(),
	)

	return rootCmd
}

func newDaemonCmd(h Handlers, inv *Invocation) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the typing daemon that owns the control socket",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Daemon(cmd.Context(), *inv, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also log to stderr at debug level")
	return cmd
}

func newLoadCmd(h Handlers, inv *Invocation) *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "load PATH",
		Short: "Load a text file into the daemon",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Load(cmd.Context(), *inv, args[0], label)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "display name (default: file name)")
	return cmd
}

func newControlCmd(h Handlers, inv *Invocation, command string, short string) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: short,
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Control(cmd.Context(), *inv, command)
		},
	}
}

func newStatusCmd(h Handlers, inv *Invocation) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the daemon state and progress",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Status(cmd.Context(), *inv)
		},
	}
}

func newWatchCmd(h Handlers, inv *Invocation) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow progress in a terminal UI",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Watch(cmd.Context(), *inv)
		},
	}
}

func newDoctorCmd(h Handlers, inv *Invocation) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check config, key injection tools and the daemon",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Doctor(cmd.Context(), *inv)
		},
	}
}

func newDevicesCmd(h Handlers, inv *Invocation) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio output sinks for cue playback",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return h.Devices(cmd.Context(), *inv)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}
