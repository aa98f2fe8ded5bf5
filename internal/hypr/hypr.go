// Package hypr talks to a running Hyprland compositor through hyprctl.
package hypr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const ctlBinary = "hyprctl"

// Available reports whether a Hyprland instance signature is set.
func Available() bool {
	return strings.TrimSpace(os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")) != ""
}

// ctl runs hyprctl and returns stdout. Output written to stderr (or stdout,
// when stderr is empty) is attached to the error.
func ctl(ctx context.Context, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ctlBinary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail == "" {
			return nil, fmt.Errorf("%s %s: %w", ctlBinary, strings.Join(args, " "), err)
		}
		return nil, fmt.Errorf("%s %s: %w (%s)", ctlBinary, strings.Join(args, " "), err, detail)
	}
	return stdout.Bytes(), nil
}

func dispatch(ctx context.Context, args ...string) error {
	_, err := ctl(ctx, append([]string{"--quiet", "dispatch"}, args...)...)
	return err
}
