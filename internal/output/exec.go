package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// killGrace is how long a cancelled command may keep its pipes open.
const killGrace = 500 * time.Millisecond

var errEmptyArgv = errors.New("keyboard command is empty")

// runKeystrokeCommand runs argv with stdin fed from input and waits for it.
// A non-zero exit is reported together with whatever the tool printed to
// stderr, since typing tools explain failures (no uinput access, no
// compositor) only there.
func runKeystrokeCommand(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return errEmptyArgv
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(input)
	cmd.Stderr = &stderr
	cmd.WaitDelay = killGrace

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if detail := strings.TrimSpace(stderr.String()); detail != "" {
		return fmt.Errorf("run %s: %w: %s", argv[0], err, detail)
	}
	return fmt.Errorf("run %s: %w", argv[0], err)
}
