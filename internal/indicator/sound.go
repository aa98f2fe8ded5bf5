package indicator

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/rbright/ghostkeys/internal/audio"
	"github.com/rbright/ghostkeys/internal/config"
)

type cueKind int

const (
	cueTick cueKind = iota + 1
	cueStart
	cueDone
	cueStop
	cueError
)

const (
	cueRate        = 24000
	cueGap         = 20 * time.Millisecond
	cueMaxRamp     = 5 * time.Millisecond
	cueFileTimeout = 4 * time.Second
)

// tone is one sine segment of a built-in chime.
type tone struct {
	hz     float64
	length time.Duration
	gain   float64
}

// builtinCues are rendered once at startup and played when no cue file is
// configured, or the file fails to play.
var builtinCues = renderCues(map[cueKind][]tone{
	cueTick:  {{hz: 1320, length: 35 * time.Millisecond, gain: 0.12}},
	cueStart: {{hz: 880, length: 70 * time.Millisecond, gain: 0.18}, {hz: 1175, length: 70 * time.Millisecond, gain: 0.18}},
	cueDone:  {{hz: 740, length: 65 * time.Millisecond, gain: 0.18}, {hz: 988, length: 90 * time.Millisecond, gain: 0.18}},
	cueStop:  {{hz: 620, length: 120 * time.Millisecond, gain: 0.18}},
	cueError: {{hz: 480, length: 75 * time.Millisecond, gain: 0.18}, {hz: 360, length: 90 * time.Millisecond, gain: 0.18}},
})

func renderCues(specs map[cueKind][]tone) map[cueKind][]int16 {
	out := make(map[cueKind][]int16, len(specs))
	for kind, tones := range specs {
		out[kind] = renderChime(tones)
	}
	return out
}

// emitCue plays the configured file for kind through pw-play, else the
// built-in chime through Pulse on the configured sink.
func emitCue(kind cueKind, cfg config.IndicatorConfig) error {
	if path := cueFile(kind, cfg); path != "" && playCueFile(path) == nil {
		return nil
	}
	pcm := builtinCues[kind]
	if len(pcm) == 0 {
		return nil
	}
	return playPCM(pcm, cfg.SoundDevice)
}

func cueFile(kind cueKind, cfg config.IndicatorConfig) string {
	files := map[cueKind]string{
		cueTick:  cfg.SoundTickFile,
		cueStart: cfg.SoundStartFile,
		cueDone:  cfg.SoundDoneFile,
		cueStop:  cfg.SoundStopFile,
		cueError: cfg.SoundErrorFile,
	}
	return config.ExpandHome(files[kind])
}

func playCueFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cue file %q: %w", path, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), cueFileTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, "pw-play", "--media-role", "Notification", path).Run(); err != nil {
		return fmt.Errorf("pw-play %q: %w", path, err)
	}
	return nil
}

// playPCM streams mono 16-bit samples to device and blocks until drained.
func playPCM(pcm []int16, device string) error {
	client, err := audio.NewClient()
	if err != nil {
		return err
	}
	defer client.Close()

	sink, _, err := audio.ResolveSink(client, device)
	if err != nil {
		return err
	}

	opts := []pulse.PlaybackOption{
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("ghostkeys cue"),
	}
	if sink != nil {
		opts = append(opts, pulse.PlaybackSink(sink))
	}
	stream, err := client.NewPlayback(pcmReader(pcm), opts...)
	if err != nil {
		return fmt.Errorf("open cue stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("cue stream: %w", err)
	}
	return nil
}

func pcmReader(pcm []int16) pulse.Reader {
	rest := pcm
	return pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, rest)
		rest = rest[n:]
		if len(rest) == 0 {
			return n, pulse.EndOfData
		}
		return n, nil
	})
}

// renderChime concatenates tones with a short silence between them.
func renderChime(tones []tone) []int16 {
	var pcm []int16
	for i, t := range tones {
		if i > 0 {
			pcm = append(pcm, make([]int16, sampleCount(cueGap))...)
		}
		pcm = append(pcm, renderTone(t)...)
	}
	return pcm
}

// renderTone produces a sine wave with linear fade in and out so segments
// start and end at zero and do not click.
func renderTone(t tone) []int16 {
	n := sampleCount(t.length)
	if n == 0 || t.hz <= 0 || t.gain <= 0 {
		return nil
	}
	ramp := float64(max(min(n/10, sampleCount(cueMaxRamp)), 1))

	pcm := make([]int16, n)
	for i := range pcm {
		fade := min(1, float64(i)/ramp, float64(n-1-i)/ramp)
		phase := 2 * math.Pi * t.hz * float64(i) / cueRate
		pcm[i] = int16(math.Round(math.Sin(phase) * t.gain * fade * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueRate))
}
