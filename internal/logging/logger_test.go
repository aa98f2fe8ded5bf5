package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveLogPath(t *testing.T) {
	home := t.TempDir()
	state := t.TempDir()

	tests := []struct {
		name  string
		state string
		want  string
	}{
		{name: "xdg state home", state: state, want: filepath.Join(state, "ghostkeys", "log.jsonl")},
		{name: "home fallback", state: " ", want: filepath.Join(home, ".local", "state", "ghostkeys", "log.jsonl")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("HOME", home)
			t.Setenv("XDG_STATE_HOME", tc.state)
			got, err := resolveLogPath()
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestFileSinkIsPrivateJSONAtInfo(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	rt, err := New(Options{})
	require.NoError(t, err)
	rt.Logger.Info("run finished", "typed", 42)
	rt.Logger.Debug("keystroke", "rune", "a")
	require.NoError(t, rt.Close())

	raw, err := os.ReadFile(rt.Path)
	require.NoError(t, err)
	log := string(raw)
	require.Contains(t, log, `"msg":"run finished"`)
	require.Contains(t, log, `"typed":42`)
	require.NotContains(t, log, "keystroke")

	info, err := os.Stat(rt.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConsoleReceivesSameRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "daemon.jsonl")
	var console bytes.Buffer

	rt, err := New(Options{Console: &console, Level: slog.LevelDebug, Path: path})
	require.NoError(t, err)
	require.Equal(t, path, rt.Path)

	rt.Logger.With("file", "essay.txt").Debug("countdown", "remaining", 3)
	require.NoError(t, rt.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"file":"essay.txt"`)
	require.Contains(t, string(raw), `"remaining":3`)

	require.Contains(t, console.String(), "countdown")
	require.Contains(t, console.String(), "remaining=3")
	require.NotContains(t, console.String(), "\x1b[", "non-terminal console is uncolored")
}

func TestCloseWithoutSink(t *testing.T) {
	require.NoError(t, Runtime{}.Close())
}
