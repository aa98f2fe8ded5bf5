package indicator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rbright/ghostkeys/internal/config"
	"github.com/rbright/ghostkeys/internal/events"
	"github.com/rbright/ghostkeys/internal/fsm"
	"github.com/stretchr/testify/require"
)

type cueRecorder struct {
	mu    sync.Mutex
	kinds []cueKind
}

func (r *cueRecorder) play(kind cueKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func (r *cueRecorder) played() []cueKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]cueKind(nil), r.kinds...)
}

func newTestNotifier(t *testing.T, mutate func(*config.IndicatorConfig)) (*Notifier, *cueRecorder) {
	t.Helper()
	cfg := config.Default().Indicator
	cfg.Enable = true
	cfg.SoundEnable = false
	if mutate != nil {
		mutate(&cfg)
	}
	n := NewNotifier(cfg, nil)
	cues := &cueRecorder{}
	n.playCue = cues.play
	return n, cues
}

func status(next, previous fsm.State) events.Event {
	return events.Event{Kind: events.KindStatus, Status: next, Previous: previous}
}

func progress(current, total int) events.Event {
	p := events.NewProgress(current, total)
	return events.Event{Kind: events.KindProgress, Progress: &p}
}

func TestRunRendersLifecycle(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installStub(t, "hyprctl", `printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"`)

	n, cues := newTestNotifier(t, func(cfg *config.IndicatorConfig) {
		cfg.ProgressIntervalMS = 60000
	})

	feed := make(chan events.Event, 16)
	feed <- status(fsm.StateReady, fsm.StateIdle)
	feed <- status(fsm.StateCountdown, fsm.StateReady)
	feed <- events.Event{Kind: events.KindCountdown, Remaining: 2}
	feed <- events.Event{Kind: events.KindCountdown, Remaining: 1}
	feed <- status(fsm.StateTyping, fsm.StateCountdown)
	feed <- progress(1, 4)
	feed <- progress(2, 4)
	feed <- status(fsm.StatePaused, fsm.StateTyping)
	feed <- progress(3, 4)
	feed <- status(fsm.StateTyping, fsm.StatePaused)
	feed <- progress(4, 4)
	feed <- status(fsm.StateDone, fsm.StateTyping)
	close(feed)

	require.NoError(t, n.Run(context.Background(), feed))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, []string{
		"--quiet dispatch notify 1 1100 rgb(89b4fa) Typing in 2…",
		"--quiet dispatch notify 1 1100 rgb(89b4fa) Typing in 1…",
		"--quiet dispatch notify 1 300000 rgb(89b4fa) Typing…",
		"--quiet dispatch notify 1 300000 rgb(89b4fa) Typing… 25%",
		"--quiet dispatch notify 0 300000 rgb(f9e2af) Paused",
		"--quiet dispatch notify 1 300000 rgb(89b4fa) Typing…",
		"--quiet dispatch notify 5 2000 rgb(a6e3a1) Done typing",
	}, lines)
	require.Equal(t, []cueKind{cueTick, cueTick, cueStart, cueDone}, cues.played())
}

func TestStopAndErrorEvents(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installStub(t, "hyprctl", `printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"`)

	n, cues := newTestNotifier(t, func(cfg *config.IndicatorConfig) {
		cfg.ErrorTimeoutMS = 0
		cfg.ProgressIntervalMS = 0
	})
	ctx := context.Background()

	n.Handle(ctx, status(fsm.StateTyping, fsm.StateCountdown))
	n.Handle(ctx, progress(1, 10))
	n.Handle(ctx, status(fsm.StateReady, fsm.StateTyping))
	n.Handle(ctx, status(fsm.StateReady, fsm.StateDone))
	n.Handle(ctx, events.Event{Kind: events.KindError, Message: "key injection failed"})
	n.Handle(ctx, events.Event{Kind: events.KindError})

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, []string{
		"--quiet dispatch notify 1 300000 rgb(89b4fa) Typing…",
		"--quiet dispatch dismissnotify",
		"--quiet dispatch notify 3 1200 rgb(f38ba8) key injection failed",
		"--quiet dispatch notify 3 1200 rgb(f38ba8) Typing failed",
	}, lines)
	require.Equal(t, []cueKind{cueStart, cueStop, cueError, cueError}, cues.played())
}

func TestDisabledSkipsDispatchButKeepsCues(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installStub(t, "hyprctl", `printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"`)

	n, cues := newTestNotifier(t, func(cfg *config.IndicatorConfig) {
		cfg.Enable = false
	})
	ctx := context.Background()
	n.Handle(ctx, events.Event{Kind: events.KindCountdown, Remaining: 1})
	n.Handle(ctx, status(fsm.StateTyping, fsm.StateCountdown))
	n.Handle(ctx, events.Event{Kind: events.KindError, Message: "boom"})

	_, err := os.Stat(argsFile)
	require.True(t, os.IsNotExist(err))
	require.Equal(t, []cueKind{cueTick, cueStart, cueError}, cues.played())
}

func TestDesktopBackendReplacesNotification(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "busctl-args.log")
	t.Setenv("BUSCTL_ARGS_FILE", argsFile)
	installStub(t, "busctl", `
printf '%s\n' "$*" >> "${BUSCTL_ARGS_FILE}"
if [[ "$*" == *" Notify "* ]]; then
  echo "u 42"
fi
`)

	n, _ := newTestNotifier(t, func(cfg *config.IndicatorConfig) {
		cfg.Backend = "desktop"
		cfg.DesktopAppName = "ghostkeys"
	})
	ctx := context.Background()
	n.Handle(ctx, status(fsm.StateTyping, fsm.StateCountdown))
	n.Handle(ctx, status(fsm.StatePaused, fsm.StateTyping))
	n.Handle(ctx, status(fsm.StateReady, fsm.StatePaused))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "Notify susssasa{sv}i ghostkeys 0 input-keyboard Typing…")
	require.Contains(t, lines[1], "Notify susssasa{sv}i ghostkeys 42 input-keyboard Paused")
	require.Contains(t, lines[2], "CloseNotification u 42")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	n, _ := newTestNotifier(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, n.Run(ctx, make(chan events.Event)))
}

func installStub(t *testing.T, name string, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
