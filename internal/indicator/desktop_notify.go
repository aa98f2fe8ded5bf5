package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// freedesktop notification service, reached with `busctl --user call`.
const (
	fdoService = "org.freedesktop.Notifications"
	fdoPath    = "/org/freedesktop/Notifications"
	fdoIcon    = "input-keyboard"
)

// desktopNotify shows summary and returns the server-assigned id. Passing
// the previous id as replaceID updates that bubble instead of stacking a new
// one.
func desktopNotify(ctx context.Context, appName string, replaceID uint32, summary string, timeoutMS int) (uint32, error) {
	reply, err := busctl(ctx, "Notify", "susssasa{sv}i",
		appName,
		strconv.FormatUint(uint64(replaceID), 10),
		fdoIcon,
		summary,
		"",  // body
		"0", // no actions
		"0", // no hints
		strconv.Itoa(timeoutMS),
	)
	if err != nil {
		return 0, fmt.Errorf("desktop notify: %w", err)
	}

	var id uint32
	if _, err := fmt.Sscanf(reply, "u %d", &id); err != nil {
		return 0, fmt.Errorf("desktop notify: unexpected reply %q", reply)
	}
	return id, nil
}

func desktopDismiss(ctx context.Context, id uint32) error {
	if _, err := busctl(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10)); err != nil {
		return fmt.Errorf("desktop dismiss: %w", err)
	}
	return nil
}

// busctl calls method on the notification service and returns its trimmed
// reply, e.g. "u 42".
func busctl(ctx context.Context, method, signature string, args ...string) (string, error) {
	argv := append([]string{"--user", "call", fdoService, fdoPath, fdoService, method, signature}, args...)
	out, err := exec.CommandContext(ctx, "busctl", argv...).CombinedOutput()
	reply := strings.TrimSpace(string(out))
	switch {
	case err == nil:
		return reply, nil
	case reply == "":
		return "", err
	default:
		return "", fmt.Errorf("%w: %s", err, reply)
	}
}
