// Package session owns the typing session: loaded content, lifecycle state,
// and the worker that types it into the focused window.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/ghostkeys/internal/config"
	"github.com/rbright/ghostkeys/internal/events"
	"github.com/rbright/ghostkeys/internal/fsm"
	"github.com/rbright/ghostkeys/internal/random"
)

// Controller orchestrates session state transitions and the typing worker.
// One Controller lives for the whole daemon.
type Controller struct {
	logger  *slog.Logger
	opener  KeyboardOpener
	publish Publisher
	rng     random.Source
	clock   Clock
	newID   func() string

	mu      sync.Mutex
	state   fsm.State
	cfg     config.TypingConfig
	content []rune
	label   string
	cursor  int
	lastErr error

	runID  string
	cancel context.CancelFunc
	paused bool
	resume chan struct{}
	done   chan struct{}
}

// Option customizes a Controller.
type Option func(*Controller)

// WithRand replaces the crypto-seeded random source.
func WithRand(src random.Source) Option {
	return func(c *Controller) { c.rng = src }
}

// WithClock replaces the wall clock used for every delay.
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	opener KeyboardOpener,
	publisher Publisher,
	cfg config.TypingConfig,
	opts ...Option,
) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opener == nil {
		opener = UnavailableKeyboard{}
	}
	if publisher == nil {
		publisher = PublisherFunc(func(events.Event) {})
	}

	c := &Controller{
		logger:  logger,
		opener:  opener,
		publish: publisher,
		clock:   realClock{},
		newID:   uuid.NewString,
		state:   fsm.StateIdle,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		src, err := random.NewSeeded()
		if err != nil {
			logger.Warn("crypto seed unavailable; falling back to time seed", "error", err)
			src = random.New(uint64(time.Now().UnixNano()))
		}
		c.rng = src
	}
	return c
}

// Status returns the current lifecycle state.
func (c *Controller) Status() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Progress returns the cursor position over the loaded content.
func (c *Controller) Progress() events.Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progressLocked()
}

// FileName returns the label of the loaded content, if any.
func (c *Controller) FileName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.label
}

// Config returns the typing profile later runs will use.
func (c *Controller) Config() config.TypingConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// LastError returns the failure that put the session in the error state.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SetConfig validates and replaces the typing profile. A run already in
// progress keeps the profile it started with.
func (c *Controller) SetConfig(cfg config.TypingConfig) error {
	if err := config.ValidateTyping(cfg); err != nil {
		return err
	}

	c.mu.Lock()
	c.cfg = cfg
	state := c.state
	c.mu.Unlock()

	c.logger.Info("typing config updated",
		"base_wpm", cfg.BaseWPM,
		"mistake_rate", cfg.MistakeRate,
		"countdown_seconds", cfg.CountdownSeconds,
		"applies_to_active_run", false,
		"state", string(state),
	)
	return nil
}

// LoadContent replaces the loaded text and label and rewinds the cursor.
func (c *Controller) LoadContent(text string, label string) (events.Progress, error) {
	c.mu.Lock()
	if c.state.Active() {
		c.mu.Unlock()
		return events.Progress{}, ErrBusy
	}
	// A stopped worker may still be draining; it must not commit into the
	// new content.
	c.runID = ""
	if err := c.transitionLocked(fsm.EventLoad); err != nil {
		c.mu.Unlock()
		return events.Progress{}, err
	}
	c.content = []rune(text)
	c.label = label
	c.cursor = 0
	c.lastErr = nil
	progress := c.progressLocked()
	c.publishLocked(events.Event{Kind: events.KindProgress, Progress: &progress})
	c.mu.Unlock()

	c.logger.Info("content loaded", "label", label, "chars", progress.Total)
	return progress, nil
}

// Start begins a run, or resumes a paused one.
func (c *Controller) Start() error {
	c.mu.Lock()
	switch {
	case c.state == fsm.StatePaused:
		c.mu.Unlock()
		return c.Resume()
	case c.state == fsm.StateCountdown || c.state == fsm.StateTyping:
		c.mu.Unlock()
		return ErrAlreadyRunning
	case c.state == fsm.StateError:
		c.mu.Unlock()
		return ErrInvalidState
	case len(c.content) == 0:
		c.mu.Unlock()
		return ErrEmptyContent
	}

	r := &run{id: c.newID(), chars: c.content, cfg: c.cfg, label: c.label}
	ctx, cancel := context.WithCancel(context.Background())
	previous := c.done
	done := make(chan struct{})

	c.runID = r.id
	if err := c.transitionLocked(fsm.EventStart); err != nil {
		c.mu.Unlock()
		cancel()
		return err
	}
	c.cancel = cancel
	c.paused = false
	c.resume = make(chan struct{})
	c.cursor = 0
	c.lastErr = nil
	c.done = done
	c.mu.Unlock()

	c.logger.Info("run start",
		"run_id", r.id,
		"label", r.label,
		"chars", len(r.chars),
		"base_wpm", r.cfg.BaseWPM,
		"countdown_seconds", r.cfg.CountdownSeconds,
	)

	go c.run(ctx, cancel, r, previous, done)
	return nil
}

// Pause parks the worker before its next character.
func (c *Controller) Pause() error {
	c.mu.Lock()
	state := c.state
	if err := c.transitionLocked(fsm.EventPause); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("cannot pause from state %s", state)
	}
	c.paused = true
	c.resume = make(chan struct{})
	runID := c.runID
	cursor := c.cursor
	c.mu.Unlock()

	c.logger.Info("run paused", "run_id", runID, "cursor", cursor)
	return nil
}

// Resume wakes a paused worker.
func (c *Controller) Resume() error {
	c.mu.Lock()
	state := c.state
	if err := c.transitionLocked(fsm.EventResume); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("cannot resume from state %s", state)
	}
	c.paused = false
	c.wakeLocked()
	runID := c.runID
	c.mu.Unlock()

	c.logger.Info("run resumed", "run_id", runID)
	return nil
}

// Stop ends the active run, or clears the error state.
func (c *Controller) Stop() error {
	c.mu.Lock()
	state := c.state
	switch {
	case state.Active():
		if err := c.transitionLocked(fsm.EventStop); err != nil {
			c.mu.Unlock()
			return err
		}
		c.paused = false
		c.wakeLocked()
		if c.cancel != nil {
			c.cancel()
		}
	case state == fsm.StateError:
		if err := c.transitionLocked(fsm.EventStop); err != nil {
			c.mu.Unlock()
			return err
		}
		c.lastErr = nil
	default:
		c.mu.Unlock()
		return ErrNotRunning
	}
	runID := c.runID
	cursor := c.cursor
	c.mu.Unlock()

	c.logger.Info("run stop requested", "run_id", runID, "from", string(state), "cursor", cursor)
	return nil
}

// Wait blocks until the most recent run's worker has exited.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops any active run and waits for its worker to exit.
func (c *Controller) Close(ctx context.Context) error {
	if c.Status().Active() {
		_ = c.Stop()
	}
	return c.Wait(ctx)
}

func (c *Controller) progressLocked() events.Progress {
	return events.NewProgress(c.cursor, len(c.content))
}

// transitionLocked applies one FSM event and announces the new status.
func (c *Controller) transitionLocked(event fsm.Event) error {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	previous := c.state
	c.state = next
	c.publishLocked(events.Event{Kind: events.KindStatus, Status: next, Previous: previous})
	return nil
}

func (c *Controller) publishLocked(ev events.Event) {
	if ev.RunID == "" {
		ev.RunID = c.runID
	}
	c.publish.Publish(ev)
}

// wakeLocked releases a worker parked on the resume channel.
func (c *Controller) wakeLocked() {
	if c.resume == nil {
		return
	}
	select {
	case <-c.resume:
	default:
		close(c.resume)
	}
}
