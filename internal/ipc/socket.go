package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// SocketName is the control socket file inside XDG_RUNTIME_DIR.
const SocketName = "ghostkeys.sock"

// ErrAlreadyRunning means another live daemon answered on the socket.
var ErrAlreadyRunning = errors.New("ghostkeys daemon already running")

// RuntimeSocketPath locates the control socket for the current session.
func RuntimeSocketPath() (string, error) {
	dir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if dir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(dir, SocketName), nil
}

// AcquireOptions tune how a daemon claims the socket path.
type AcquireOptions struct {
	// ProbeTimeout bounds the status request sent to an existing socket.
	ProbeTimeout time.Duration
	// Retries is how many extra listen attempts follow a stale-socket unlink.
	Retries int
	// OnStale runs after a dead socket file is removed.
	OnStale func(context.Context)
}

// Acquire listens on path as the single daemon owner. A socket file with a
// live owner yields ErrAlreadyRunning; a dead one is unlinked and the listen
// is retried with a growing delay. A probe that neither connects nor is
// refused leaves the file untouched.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := range opts.Retries + 1 {
		ln, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return ln, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		if err := reclaimStale(ctx, path, opts.ProbeTimeout); err != nil {
			return nil, err
		}
		if opts.OnStale != nil {
			opts.OnStale(ctx)
		}
		if attempt == opts.Retries {
			break
		}
		if err := sleepCtx(ctx, time.Duration(attempt+1)*25*time.Millisecond); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed to acquire socket %s after %d retries", path, opts.Retries)
}

// reclaimStale removes path when nothing answers on it.
func reclaimStale(ctx context.Context, path string, timeout time.Duration) error {
	alive, err := Probe(ctx, path, timeout)
	switch {
	case alive:
		return ErrAlreadyRunning
	case err != nil:
		return fmt.Errorf("probe existing socket %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
