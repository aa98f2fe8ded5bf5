package output

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbright/ghostkeys/internal/hypr"
)

const (
	windowLookupTimeout = 500 * time.Millisecond
	windowLookupTries   = 3
	windowLookupDelay   = 10 * time.Millisecond
)

// describeActiveWindow names the window about to receive keystrokes, for the
// log line written when a run starts. Outside Hyprland it returns "".
func describeActiveWindow(ctx context.Context) (string, error) {
	if !hypr.Available() {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, windowLookupTimeout)
	defer cancel()

	w, err := focusedWindowRetry(ctx, windowLookupTries, windowLookupDelay)
	if err != nil {
		return "", err
	}
	return w.Label(), nil
}

// focusedWindowRetry tolerates the brief focus gap while a launcher closes.
func focusedWindowRetry(ctx context.Context, tries int, delay time.Duration) (hypr.Window, error) {
	lastErr := errors.New("focused window unavailable")
	for try := range max(tries, 1) {
		if try > 0 {
			select {
			case <-ctx.Done():
				return hypr.Window{}, ctx.Err()
			case <-time.After(delay):
			}
		}
		w, err := hypr.FocusedWindow(ctx)
		if err == nil {
			return w, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return hypr.Window{}, ctx.Err()
		}
	}
	return hypr.Window{}, fmt.Errorf("resolve active window: %w", lastErr)
}
