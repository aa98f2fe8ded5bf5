package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbright/ghostkeys/internal/config"
	"github.com/rbright/ghostkeys/internal/events"
	"github.com/rbright/ghostkeys/internal/fsm"
	"github.com/rbright/ghostkeys/internal/mistake"
	"github.com/rbright/ghostkeys/internal/timing"
)

var errSuperseded = errors.New("run superseded")

// run is the immutable snapshot a worker types from.
type run struct {
	id    string
	chars []rune
	cfg   config.TypingConfig
	label string
}

type runStats struct {
	keystrokes  int
	backspaces  int
	mistakes    int
	corrections int
}

func (c *Controller) run(
	ctx context.Context,
	cancel context.CancelFunc,
	r *run,
	previous <-chan struct{},
	done chan struct{},
) {
	defer close(done)
	defer cancel()

	// A stopped run may still be finishing an in-flight keystroke.
	if previous != nil {
		select {
		case <-previous:
		case <-ctx.Done():
		}
	}

	started := time.Now()
	stats, err := c.execute(ctx, r)
	c.finish(ctx, r, stats, err, time.Since(started))
}

func (c *Controller) execute(ctx context.Context, r *run) (stats runStats, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrTaskFailure, p)
		}
	}()

	if !c.countdown(ctx, r) {
		return stats, nil
	}
	if err := c.advance(r, fsm.EventCounted); err != nil {
		if ctx.Err() != nil || errors.Is(err, errSuperseded) {
			return stats, nil
		}
		return stats, fmt.Errorf("%w: %w", ErrTaskFailure, err)
	}

	kb, err := c.opener.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return stats, nil
		}
		return stats, fmt.Errorf("%w: open keyboard: %w", ErrCapabilityFailure, err)
	}
	defer func() {
		if closeErr := kb.Close(); closeErr != nil {
			c.logger.Warn("close keyboard failed", "run_id", r.id, "error", closeErr)
		}
	}()

	err = c.typeAll(ctx, r, kb, &stats)
	return stats, err
}

// countdown publishes one tick per second. It reports false when the run was
// stopped before typing began.
func (c *Controller) countdown(ctx context.Context, r *run) bool {
	for remaining := r.cfg.CountdownSeconds; remaining >= 1; remaining-- {
		if ctx.Err() != nil {
			return false
		}
		c.publishRun(r, events.Event{Kind: events.KindCountdown, Remaining: remaining})
		if err := c.clock.Sleep(ctx, time.Second); err != nil {
			return false
		}
	}
	return ctx.Err() == nil
}

// typeAll is the main loop. It returns nil when the run completes or is
// stopped; the caller tells the two apart through ctx.
func (c *Controller) typeAll(ctx context.Context, r *run, kb Keyboard, stats *runStats) error {
	total := len(r.chars)
	// Keys already handed to the injector finish even if the run is stopped.
	keyCtx := context.WithoutCancel(ctx)

	for i := 0; i < total; {
		if ctx.Err() != nil {
			return nil
		}
		if err := c.waitWhilePaused(ctx); err != nil {
			return nil
		}

		delay := timing.Delay(r.cfg, c.rng, r.chars, i, total)
		var next rune
		hasNext := i+1 < total
		if hasNext {
			next = r.chars[i+1]
		}
		decision := mistake.Decide(c.rng, r.chars[i], next, hasNext, r.cfg.MistakeRate)

		// An iteration whose keys all went out is committed even when the
		// stop lands in the delay that follows them.
		last := len(decision.Emit) - 1
		for n, ch := range decision.Emit {
			if ctx.Err() != nil {
				return nil
			}
			if err := kb.Type(keyCtx, string(ch)); err != nil {
				return fmt.Errorf("%w: type %q: %w", ErrCapabilityFailure, ch, err)
			}
			stats.keystrokes++
			if err := c.clock.Sleep(ctx, delay/2); err != nil && n < last {
				return nil
			}
		}

		if decision.Mistake {
			stats.mistakes++
			if c.rng.Float64() < r.cfg.CorrectionRate {
				corrected, err := c.correct(ctx, keyCtx, r, kb, decision, i, delay, stats)
				if err != nil {
					return err
				}
				if !corrected {
					return nil
				}
			}
		}

		i += decision.Consumed
		if !c.commit(r, min(i, total)) {
			return nil
		}
		if err := c.clock.Sleep(ctx, delay); err != nil {
			return nil
		}
	}
	return nil
}

// correct erases what the mistake emitted and retypes the source characters
// it covered. It reports false when a stop cut the correction short.
func (c *Controller) correct(
	ctx context.Context,
	keyCtx context.Context,
	r *run,
	kb Keyboard,
	decision mistake.Decision,
	index int,
	delay time.Duration,
	stats *runStats,
) (bool, error) {
	if err := c.clock.Sleep(ctx, timing.NoticeDelay(c.rng)); err != nil {
		return false, nil
	}

	sent, err := BackspaceN(ctx, kb, c.clock, len(decision.Emit), timing.BackspaceDelay(r.cfg, c.rng))
	stats.backspaces += sent
	if err != nil {
		return false, fmt.Errorf("%w: backspace: %w", ErrCapabilityFailure, err)
	}
	if sent < len(decision.Emit) {
		return false, nil
	}

	end := min(index+decision.Consumed, len(r.chars))
	for j := index; j < end; j++ {
		if ctx.Err() != nil {
			return false, nil
		}
		ch := r.chars[j]
		if err := kb.Type(keyCtx, string(ch)); err != nil {
			return false, fmt.Errorf("%w: type %q: %w", ErrCapabilityFailure, ch, err)
		}
		stats.keystrokes++
		if err := c.clock.Sleep(ctx, delay); err != nil && j < end-1 {
			return false, nil
		}
	}
	stats.corrections++
	return true, nil
}

// waitWhilePaused parks until resumed or stopped.
func (c *Controller) waitWhilePaused(ctx context.Context) error {
	for {
		c.mu.Lock()
		paused, resume := c.paused, c.resume
		c.mu.Unlock()

		if !paused {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resume:
		}
	}
}

// commit records the cursor and publishes progress. It reports false when a
// newer run owns the session.
func (c *Controller) commit(r *run, cursor int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runID != r.id {
		return false
	}
	c.cursor = cursor
	progress := c.progressLocked()
	c.publishLocked(events.Event{Kind: events.KindProgress, Progress: &progress})
	return true
}

// advance applies a worker-driven transition if r still owns the session.
func (c *Controller) advance(r *run, event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runID != r.id {
		return errSuperseded
	}
	return c.transitionLocked(event)
}

func (c *Controller) publishRun(r *run, ev events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runID != r.id {
		return
	}
	c.publishLocked(ev)
}

func (c *Controller) finish(ctx context.Context, r *run, stats runStats, err error, elapsed time.Duration) {
	c.mu.Lock()
	if c.runID != r.id {
		c.mu.Unlock()
		c.logger.Debug("superseded run exited", "run_id", r.id)
		return
	}

	outcome := "stopped"
	switch {
	case err != nil && c.state.Active():
		_ = c.transitionLocked(fsm.EventFail)
		c.lastErr = err
		c.publishLocked(events.Event{Kind: events.KindError, Message: err.Error()})
		outcome = "failed"
	case err == nil && ctx.Err() == nil && c.state.Active():
		_ = c.transitionLocked(fsm.EventFinished)
		outcome = "done"
	}
	c.cancel = nil
	c.paused = false
	cursor := c.cursor
	c.mu.Unlock()

	attrs := []any{
		"run_id", r.id,
		"outcome", outcome,
		"cursor", cursor,
		"total", len(r.chars),
		"duration_ms", elapsed.Milliseconds(),
		"keystrokes", stats.keystrokes,
		"backspaces", stats.backspaces,
		"mistakes", stats.mistakes,
		"corrections", stats.corrections,
	}
	switch {
	case outcome == "failed":
		c.logger.Error("run failed", append(attrs, "error", err.Error())...)
	case err != nil:
		c.logger.Warn("run stopped with late error", append(attrs, "error", err.Error())...)
	default:
		c.logger.Info("run complete", attrs...)
	}
}
