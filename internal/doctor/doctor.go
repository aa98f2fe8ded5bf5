// Package doctor runs readiness diagnostics for config, key injection tools,
// the indicator, and the daemon socket.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/ghostkeys/internal/audio"
	"github.com/rbright/ghostkeys/internal/config"
	"github.com/rbright/ghostkeys/internal/ipc"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded, socketPath string) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkSession(cfg.Keyboard.Backend))

	typeCmd, backspaceCmd := cfg.Keyboard.Commands()
	checks = append(checks,
		checkCommand(typeCmd.Argv, "keyboard.type_cmd"),
		checkCommand(backspaceCmd.Argv, "keyboard.backspace_cmd"),
	)

	if cfg.Indicator.Enable {
		switch cfg.Indicator.Backend {
		case "desktop":
			checks = append(checks, checkBinary("busctl", "desktop notifications"))
		default:
			checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
				return strings.TrimSpace(v) != ""
			}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))
			checks = append(checks, checkBinary("hyprctl", "Hyprland notifications"))
		}
	}
	if cfg.Indicator.SoundEnable {
		checks = append(checks, checkSound(ctx, cfg.Indicator.SoundDevice))
		if hasCueFiles(cfg.Indicator) {
			checks = append(checks, checkBinary("pw-play", "custom cue files"))
		}
	}

	checks = append(checks, checkDaemon(ctx, socketPath))
	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		message = fmt.Sprintf("using defaults (%q not found)", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 {
		message = fmt.Sprintf("%s with %d warning(s)", message, n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkSession matches the display server to what the backend can drive.
func checkSession(backend string) Check {
	switch backend {
	case "wtype":
		return checkEnv("XDG_SESSION_TYPE", func(v string) bool {
			return strings.EqualFold(strings.TrimSpace(v), "wayland")
		}, "session type is wayland", "wtype requires XDG_SESSION_TYPE=wayland")
	case "xdotool":
		return checkEnv("DISPLAY", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "X display available", "xdotool requires DISPLAY (X11 or XWayland)")
	default:
		return Check{Name: "XDG_SESSION_TYPE", Pass: true, Message: fmt.Sprintf("%s works on any session type", backend)}
	}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

func hasCueFiles(cfg config.IndicatorConfig) bool {
	for _, path := range []string{
		cfg.SoundTickFile,
		cfg.SoundStartFile,
		cfg.SoundDoneFile,
		cfg.SoundStopFile,
		cfg.SoundErrorFile,
	} {
		if strings.TrimSpace(path) != "" {
			return true
		}
	}
	return false
}

// selectSink is swapped in tests that run without a Pulse server.
var selectSink = audio.SelectSink

// checkSound resolves the sink cues will play on.
func checkSound(ctx context.Context, device string) Check {
	selection, err := selectSink(ctx, device)
	if err != nil {
		return Check{Name: "sound", Pass: false, Message: err.Error()}
	}
	if selection.Warning != "" {
		return Check{Name: "sound", Pass: true, Message: selection.Warning}
	}
	return Check{Name: "sound", Pass: true, Message: fmt.Sprintf("cues play on %s", selection.Sink.ID)}
}

// checkDaemon reports whether a daemon owns the socket. A stopped daemon is
// not a failure.
func checkDaemon(ctx context.Context, socketPath string) Check {
	if socketPath == "" {
		return Check{Name: "daemon", Pass: false, Message: "runtime socket path unavailable"}
	}
	running, err := ipc.Probe(ctx, socketPath, 300*time.Millisecond)
	switch {
	case err != nil:
		return Check{Name: "daemon", Pass: false, Message: err.Error()}
	case running:
		return Check{Name: "daemon", Pass: true, Message: fmt.Sprintf("running (socket %s)", socketPath)}
	default:
		return Check{Name: "daemon", Pass: true, Message: fmt.Sprintf("not running (socket %s)", socketPath)}
	}
}
