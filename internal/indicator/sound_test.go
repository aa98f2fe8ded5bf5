package indicator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/rbright/ghostkeys/internal/config"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCuesCoverEveryKind(t *testing.T) {
	for _, kind := range []cueKind{cueTick, cueStart, cueDone, cueStop, cueError} {
		pcm := builtinCues[kind]
		require.NotEmpty(t, pcm, "cue %d", kind)
		require.Zero(t, pcm[0], "cue %d starts silent", kind)
		require.Zero(t, pcm[len(pcm)-1], "cue %d ends silent", kind)
	}
	require.Empty(t, builtinCues[cueKind(42)])
}

func TestCueFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := config.IndicatorConfig{
		SoundStartFile: "~/cues/start.oga",
		SoundStopFile:  "/usr/share/sounds/freedesktop/stereo/complete.oga",
		SoundErrorFile: " ",
	}
	require.Equal(t, filepath.Join(home, "cues", "start.oga"), cueFile(cueStart, cfg))
	require.Equal(t, "/usr/share/sounds/freedesktop/stereo/complete.oga", cueFile(cueStop, cfg))
	require.Empty(t, cueFile(cueError, cfg))
	require.Empty(t, cueFile(cueTick, cfg))
}

func TestPlayCueFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "pw-play.log")
	t.Setenv("PW_LOG", logPath)
	installStub(t, "pw-play", `printf '%s\n' "$*" >> "$PW_LOG"`)

	cue := filepath.Join(t.TempDir(), "done.wav")
	require.NoError(t, os.WriteFile(cue, []byte("RIFF"), 0o644))
	require.NoError(t, playCueFile(cue))

	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Equal(t, "--media-role Notification "+cue+"\n", string(logged))

	require.ErrorIs(t, playCueFile(filepath.Join(t.TempDir(), "nope.wav")), os.ErrNotExist)
}

func TestRenderTone(t *testing.T) {
	got := renderTone(tone{hz: 440, length: 50 * time.Millisecond, gain: 0.5})
	require.Len(t, got, 1200)

	var peak int16
	for _, s := range got {
		peak = max(peak, s)
	}
	require.InDelta(t, 0.5*32767, float64(peak), 200)

	require.Empty(t, renderTone(tone{hz: 0, length: time.Second, gain: 1}))
	require.Empty(t, renderTone(tone{hz: 440, gain: 1}))
	require.Empty(t, renderTone(tone{hz: 440, length: time.Second}))
}

func TestRenderChimeSeparatesTones(t *testing.T) {
	chime := renderChime([]tone{
		{hz: 500, length: 10 * time.Millisecond, gain: 0.2},
		{hz: 700, length: 10 * time.Millisecond, gain: 0.2},
	})
	require.Len(t, chime, 240+480+240)
	require.Equal(t, make([]int16, 480), chime[240:720])
	require.Empty(t, renderChime(nil))
}

func TestPCMReaderEndsWithData(t *testing.T) {
	r := pcmReader([]int16{1, 2, 3, 4, 5})
	buf := make([]byte, 6)

	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 6, n)

	n, err = r.Read(buf)
	require.ErrorIs(t, err, pulse.EndOfData)
	require.Equal(t, 4, n)
}

func TestSampleCount(t *testing.T) {
	require.Zero(t, sampleCount(-time.Second))
	require.Equal(t, 600, sampleCount(25*time.Millisecond))
}
