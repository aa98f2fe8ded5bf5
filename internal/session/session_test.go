package session

import (
	"errors"
	"testing"

	"github.com/rbright/ghostkeys/internal/events"
	"github.com/rbright/ghostkeys/internal/fsm"
	"github.com/rbright/ghostkeys/internal/random"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTypesContentExactly(t *testing.T) {
	kb := &fakeKeyboard{}
	ctrl, rec := newTestController(t, kb, fastProfile(), nil)

	progress, err := ctrl.LoadContent("Hi.", "greeting.txt")
	require.NoError(t, err)
	require.Equal(t, events.Progress{Current: 0, Total: 3, Percent: 0}, progress)

	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)

	require.Equal(t, fsm.StateDone, ctrl.Status())
	require.Equal(t, []string{"H", "i", "."}, kb.keystrokes())
	require.Equal(t, []int{0, 1, 2, 3}, rec.progressCurrents())
	require.Equal(t, []fsm.State{fsm.StateReady, fsm.StateCountdown, fsm.StateTyping, fsm.StateDone}, rec.statuses())
	require.Equal(t, events.Progress{Current: 3, Total: 3, Percent: 100}, ctrl.Progress())
	require.Equal(t, "greeting.txt", ctrl.FileName())
	require.EqualValues(t, 1, kb.opens.Load())
	require.EqualValues(t, 1, kb.closes.Load())
	require.Empty(t, rec.ofKind(events.KindError))
}

func TestRunCountsRunesNotBytes(t *testing.T) {
	kb := &fakeKeyboard{}
	ctrl, _ := newTestController(t, kb, fastProfile(), nil)

	progress, err := ctrl.LoadContent("héllo wörld ✓", "")
	require.NoError(t, err)
	require.Equal(t, 13, progress.Total)

	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)
	require.Equal(t, chars("héllo wörld ✓"), kb.keystrokes())
}

func TestRunPublishesCountdownTicks(t *testing.T) {
	cfg := fastProfile()
	cfg.CountdownSeconds = 3
	kb := &fakeKeyboard{}
	ctrl, rec := newTestController(t, kb, cfg, nil)

	_, err := ctrl.LoadContent("ok", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)

	ticks := rec.ofKind(events.KindCountdown)
	require.Len(t, ticks, 3)
	for i, tick := range ticks {
		require.Equal(t, 3-i, tick.Remaining)
		require.NotEmpty(t, tick.RunID)
	}
}

func TestStopDuringCountdown(t *testing.T) {
	cfg := fastProfile()
	cfg.CountdownSeconds = 3
	clock := newGateClock()
	kb := &fakeKeyboard{}
	ctrl, rec := newTestController(t, kb, cfg, clock)

	_, err := ctrl.LoadContent("hello", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	require.Equal(t, fsm.StateCountdown, ctrl.Status())

	require.NoError(t, ctrl.Stop())
	require.Equal(t, fsm.StateReady, ctrl.Status())
	waitRun(t, ctrl)

	require.Equal(t, fsm.StateReady, ctrl.Status())
	require.Zero(t, kb.opens.Load(), "no keyboard is opened for a run stopped during countdown")
	require.Empty(t, kb.keystrokes())
	require.Equal(t, events.Progress{Current: 0, Total: 5, Percent: 0}, ctrl.Progress())
	require.LessOrEqual(t, len(rec.ofKind(events.KindCountdown)), 1)
}

func TestCapabilityFailureOnFifthCharacter(t *testing.T) {
	kb := &fakeKeyboard{failOnType: 5}
	ctrl, rec := newTestController(t, kb, fastProfile(), nil)

	_, err := ctrl.LoadContent("abcdefgh", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)

	require.Equal(t, fsm.StateError, ctrl.Status())
	require.Equal(t, 4, ctrl.Progress().Current)
	require.ErrorIs(t, ctrl.LastError(), ErrCapabilityFailure)
	require.ErrorIs(t, ctrl.LastError(), errCompositor)

	errs := rec.ofKind(events.KindError)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "key injection failed")
	require.EqualValues(t, 1, kb.closes.Load())

	require.ErrorIs(t, ctrl.Start(), ErrInvalidState)
	require.Equal(t, fsm.StateError, ctrl.Status())

	require.NoError(t, ctrl.Stop())
	require.Equal(t, fsm.StateReady, ctrl.Status())
	require.NoError(t, ctrl.LastError())
}

func TestOpenFailureIsCapabilityFailure(t *testing.T) {
	ctrl, rec := newTestController(t, nil, fastProfile(), nil)

	_, err := ctrl.LoadContent("abc", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)

	require.Equal(t, fsm.StateError, ctrl.Status())
	require.ErrorIs(t, ctrl.LastError(), ErrCapabilityFailure)
	require.ErrorIs(t, ctrl.LastError(), ErrKeyboardUnavailable)
	require.Len(t, rec.ofKind(events.KindError), 1)
}

func TestWorkerPanicIsTaskFailure(t *testing.T) {
	kb := &fakeKeyboard{panicOn: 2}
	ctrl, rec := newTestController(t, kb, fastProfile(), nil)

	_, err := ctrl.LoadContent("abc", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)

	require.Equal(t, fsm.StateError, ctrl.Status())
	require.ErrorIs(t, ctrl.LastError(), ErrTaskFailure)
	require.Equal(t, 1, ctrl.Progress().Current)
	require.Len(t, rec.ofKind(events.KindError), 1)
	require.EqualValues(t, 1, kb.closes.Load())
}

func TestPauseAndResume(t *testing.T) {
	const text = "pause me here"
	kb := &fakeKeyboard{}
	ctrl, _ := newTestController(t, kb, fastProfile(), nil)
	kb.onType = func(n int) {
		if n == 3 {
			assert.NoError(t, ctrl.Pause())
		}
	}

	_, err := ctrl.LoadContent(text, "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())

	waitForState(t, ctrl, fsm.StatePaused)
	waitForCursor(t, ctrl, 3)
	require.Len(t, kb.keystrokes(), 3, "the worker parks before the next character")

	require.NoError(t, ctrl.Resume())
	waitRun(t, ctrl)

	require.Equal(t, fsm.StateDone, ctrl.Status())
	require.Equal(t, text, kb.buffer())
}

func TestStartWhilePausedResumes(t *testing.T) {
	kb := &fakeKeyboard{}
	ctrl, _ := newTestController(t, kb, fastProfile(), nil)
	kb.onType = func(n int) {
		if n == 2 {
			assert.NoError(t, ctrl.Pause())
		}
	}

	_, err := ctrl.LoadContent("resume", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitForState(t, ctrl, fsm.StatePaused)

	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)
	require.Equal(t, fsm.StateDone, ctrl.Status())
	require.Equal(t, "resume", kb.buffer())
}

func TestStopDuringTypingEmitsNoFurtherKeys(t *testing.T) {
	kb := &fakeKeyboard{}
	ctrl, _ := newTestController(t, kb, fastProfile(), nil)
	kb.onType = func(n int) {
		if n == 4 {
			assert.NoError(t, ctrl.Stop())
		}
	}

	_, err := ctrl.LoadContent("stop after four", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)

	require.Equal(t, fsm.StateReady, ctrl.Status())
	require.Equal(t, []string{"s", "t", "o", "p"}, kb.keystrokes())
	require.Equal(t, 4, ctrl.Progress().Current, "every key on screen is counted")
	require.EqualValues(t, 1, kb.closes.Load())
}

func TestStopDuringCorrectionLeavesIterationUncommitted(t *testing.T) {
	cfg := fastProfile()
	cfg.MistakeRate = 1
	cfg.CorrectionRate = 1
	kb := &fakeKeyboard{}
	ctrl, _ := newTestController(t, kb, cfg, nil)
	cursorAtStop := -1
	kb.onBackspace = func(n int) {
		if n == 1 {
			cursorAtStop = ctrl.Progress().Current
			assert.NoError(t, ctrl.Stop())
		}
	}

	_, err := ctrl.LoadContent("correct me if you can", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)

	require.Equal(t, fsm.StateReady, ctrl.Status())
	require.GreaterOrEqual(t, cursorAtStop, 0)
	require.Equal(t, cursorAtStop, ctrl.Progress().Current)
	require.Equal(t, backspaceKey, kb.keystrokes()[len(kb.keystrokes())-1], "no key follows the interrupted backspace")
}

func TestStopWhilePausedWakesWorker(t *testing.T) {
	kb := &fakeKeyboard{}
	ctrl, _ := newTestController(t, kb, fastProfile(), nil)
	kb.onType = func(n int) {
		if n == 1 {
			assert.NoError(t, ctrl.Pause())
		}
	}

	_, err := ctrl.LoadContent("abc", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitForState(t, ctrl, fsm.StatePaused)

	require.NoError(t, ctrl.Stop())
	waitRun(t, ctrl)
	require.Equal(t, fsm.StateReady, ctrl.Status())
	require.Len(t, kb.keystrokes(), 1)
}

func TestStartRejections(t *testing.T) {
	cfg := fastProfile()
	cfg.CountdownSeconds = 1
	clock := newGateClock()
	ctrl, rec := newTestController(t, &fakeKeyboard{}, cfg, clock)

	require.ErrorIs(t, ctrl.Start(), ErrEmptyContent)
	require.Equal(t, fsm.StateIdle, ctrl.Status())

	_, err := ctrl.LoadContent("", "empty.txt")
	require.NoError(t, err)
	require.ErrorIs(t, ctrl.Start(), ErrEmptyContent)
	require.Equal(t, fsm.StateReady, ctrl.Status())

	_, err = ctrl.LoadContent("abc", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	before := len(rec.statuses())

	require.ErrorIs(t, ctrl.Start(), ErrAlreadyRunning)
	require.Equal(t, fsm.StateCountdown, ctrl.Status())
	require.Len(t, rec.statuses(), before, "a rejected start publishes no status change")

	require.NoError(t, ctrl.Stop())
	waitRun(t, ctrl)
}

func TestLoadRejectedWhileRunning(t *testing.T) {
	cfg := fastProfile()
	cfg.CountdownSeconds = 1
	ctrl, _ := newTestController(t, &fakeKeyboard{}, cfg, newGateClock())

	_, err := ctrl.LoadContent("first", "first.txt")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())

	_, err = ctrl.LoadContent("second", "second.txt")
	require.ErrorIs(t, err, ErrBusy)
	require.Equal(t, "first.txt", ctrl.FileName())
	require.Equal(t, 5, ctrl.Progress().Total)

	require.NoError(t, ctrl.Stop())
	waitRun(t, ctrl)
}

func TestLoadFromErrorResetsToReady(t *testing.T) {
	kb := &fakeKeyboard{failOnType: 1}
	ctrl, _ := newTestController(t, kb, fastProfile(), nil)

	_, err := ctrl.LoadContent("x", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)
	require.Equal(t, fsm.StateError, ctrl.Status())

	progress, err := ctrl.LoadContent("fresh", "fresh.txt")
	require.NoError(t, err)
	require.Equal(t, fsm.StateReady, ctrl.Status())
	require.Equal(t, 5, progress.Total)
	require.NoError(t, ctrl.LastError())
}

func TestConfigChangeDuringRunAppliesToNextRun(t *testing.T) {
	const text = "the quick brown fox jumps over the lazy dog"
	cfg := fastProfile()
	cfg.CountdownSeconds = 1
	clock := newGateClock()
	kb := &fakeKeyboard{}
	ctrl, _ := newTestController(t, kb, cfg, clock)

	_, err := ctrl.LoadContent(text, "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	require.Equal(t, fsm.StateCountdown, ctrl.Status())

	sloppy := cfg
	sloppy.MistakeRate = 1
	sloppy.CorrectionRate = 0
	require.NoError(t, ctrl.SetConfig(sloppy))
	require.Equal(t, sloppy, ctrl.Config())

	clock.open()
	waitRun(t, ctrl)
	require.Equal(t, text, kb.buffer(), "the active run keeps its starting profile")

	first := len(kb.keystrokes())
	_, err = ctrl.LoadContent(text, "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)
	require.NotEqual(t, text, replay(kb.keystrokes()[first:]))
}

func TestSetConfigRejectsInvalidProfile(t *testing.T) {
	ctrl, _ := newTestController(t, &fakeKeyboard{}, fastProfile(), nil)

	bad := fastProfile()
	bad.BaseWPM = 0
	require.Error(t, ctrl.SetConfig(bad))
	require.Equal(t, fastProfile(), ctrl.Config())
}

func TestSetConfigAcceptsFastProfile(t *testing.T) {
	kb := &fakeKeyboard{}
	ctrl, _ := newTestController(t, kb, fastProfile(), nil)

	fast := fastProfile()
	fast.BaseWPM = 600
	fast.CountdownSeconds = 90
	require.NoError(t, ctrl.SetConfig(fast))
	require.Equal(t, fast, ctrl.Config())

	fast.CountdownSeconds = 0
	require.NoError(t, ctrl.SetConfig(fast))
	_, err := ctrl.LoadContent("quick", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)
	require.Equal(t, "quick", kb.buffer())
}

func TestLoadProgressCarriesNoRunID(t *testing.T) {
	ctrl, rec := newTestController(t, &fakeKeyboard{}, fastProfile(), nil)

	_, err := ctrl.LoadContent("one", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)

	typed := rec.ofKind(events.KindProgress)
	require.NotEmpty(t, typed[len(typed)-1].RunID)

	_, err = ctrl.LoadContent("two", "")
	require.NoError(t, err)
	all := rec.ofKind(events.KindProgress)
	loaded := all[len(all)-1]
	require.Empty(t, loaded.RunID)
	require.Equal(t, 0, loaded.Progress.Current)
	require.Equal(t, 3, loaded.Progress.Total)

	statuses := rec.ofKind(events.KindStatus)
	require.Equal(t, fsm.StateReady, statuses[len(statuses)-1].Status)
	require.Empty(t, statuses[len(statuses)-1].RunID)
}

func TestCorrectionsRestoreText(t *testing.T) {
	const text = "Hello, World! Typing with every mistake.\nThen a second line, 42 times."
	cfg := fastProfile()
	cfg.MistakeRate = 1
	cfg.CorrectionRate = 1

	for seed := uint64(1); seed <= 5; seed++ {
		kb := &fakeKeyboard{}
		rec := &recorder{}
		ctrl := NewController(nil, kb, rec, cfg, WithRand(random.New(seed)), WithClock(&instantClock{}))

		_, err := ctrl.LoadContent(text, "")
		require.NoError(t, err)
		require.NoError(t, ctrl.Start())
		waitRun(t, ctrl)

		require.Equal(t, fsm.StateDone, ctrl.Status())
		require.Equalf(t, text, kb.buffer(), "seed %d", seed)
		require.Positive(t, kb.countBackspaces())

		currents := rec.progressCurrents()
		for i := 1; i < len(currents); i++ {
			require.Greater(t, currents[i], currents[i-1], "progress strictly increases within a run")
		}
		require.Equal(t, len([]rune(text)), currents[len(currents)-1])
	}
}

func TestUncorrectedMistakesStayInOutput(t *testing.T) {
	const text = "mistakes everywhere"
	cfg := fastProfile()
	cfg.MistakeRate = 1
	cfg.CorrectionRate = 0
	kb := &fakeKeyboard{}
	ctrl, _ := newTestController(t, kb, cfg, nil)

	_, err := ctrl.LoadContent(text, "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	waitRun(t, ctrl)

	require.Equal(t, fsm.StateDone, ctrl.Status())
	require.Zero(t, kb.countBackspaces())
	require.NotEqual(t, text, kb.buffer())
}

func TestRestartWhileStoppingRunDrains(t *testing.T) {
	cfg := fastProfile()
	cfg.CountdownSeconds = 1
	clock := newGateClock()
	kb := &fakeKeyboard{}
	ctrl, _ := newTestController(t, kb, cfg, clock)

	_, err := ctrl.LoadContent("again", "")
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())
	require.NoError(t, ctrl.Stop())
	require.NoError(t, ctrl.Start())
	require.Equal(t, fsm.StateCountdown, ctrl.Status())

	clock.open()
	waitRun(t, ctrl)
	require.Equal(t, fsm.StateDone, ctrl.Status())
	require.Equal(t, "again", kb.buffer())
	require.EqualValues(t, 1, kb.opens.Load())
}

func TestStopAndPauseOutsideRun(t *testing.T) {
	ctrl, _ := newTestController(t, &fakeKeyboard{}, fastProfile(), nil)

	require.ErrorIs(t, ctrl.Stop(), ErrNotRunning)

	err := ctrl.Pause()
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot pause from state idle")

	err = ctrl.Resume()
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot resume from state idle")
	require.False(t, errors.Is(err, ErrAlreadyRunning))
}
