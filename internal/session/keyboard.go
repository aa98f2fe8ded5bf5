package session

import (
	"context"
	"errors"
	"time"

	"github.com/rbright/ghostkeys/internal/events"
)

var (
	// ErrAlreadyRunning rejects start while a countdown or typing run is active.
	ErrAlreadyRunning = errors.New("already typing")
	// ErrInvalidState rejects start while the session is in the error state.
	ErrInvalidState = errors.New("cannot start while in error state; stop or load to reset")
	// ErrEmptyContent rejects start when no content is loaded.
	ErrEmptyContent = errors.New("no content loaded")
	// ErrBusy rejects content replacement while a run is active.
	ErrBusy = errors.New("cannot load content while a run is active")
	// ErrNotRunning rejects stop when there is nothing to stop.
	ErrNotRunning = errors.New("no active run")
	// ErrCapabilityFailure wraps key-injection failures.
	ErrCapabilityFailure = errors.New("key injection failed")
	// ErrTaskFailure wraps unexpected worker failures.
	ErrTaskFailure = errors.New("typing task failed")
	// ErrKeyboardUnavailable indicates no key-injection backend is wired.
	ErrKeyboardUnavailable = errors.New("no keyboard backend configured")
)

// Keyboard injects synthetic keystrokes into the focused window.
type Keyboard interface {
	// Type emits text as keystrokes.
	Type(ctx context.Context, text string) error
	// Backspace emits a single backspace.
	Backspace(ctx context.Context) error
	Close() error
}

// KeyboardOpener acquires a Keyboard for one run.
type KeyboardOpener interface {
	Open(context.Context) (Keyboard, error)
}

// OpenerFunc adapts a function to the KeyboardOpener interface.
type OpenerFunc func(context.Context) (Keyboard, error)

func (f OpenerFunc) Open(ctx context.Context) (Keyboard, error) {
	return f(ctx)
}

// UnavailableKeyboard is the fallback opener used when nothing is wired.
type UnavailableKeyboard struct{}

func (UnavailableKeyboard) Open(context.Context) (Keyboard, error) {
	return nil, ErrKeyboardUnavailable
}

// Publisher receives lifecycle events. Publish must not block.
type Publisher interface {
	Publish(events.Event)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(events.Event)

func (f PublisherFunc) Publish(ev events.Event) {
	f(ev)
}

// Clock suspends the worker. Sleep returns early with ctx.Err() on cancellation.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BackspaceN erases count characters with delay between keystrokes and
// reports how many backspaces were sent. Keys go out on a context detached
// from ctx so a stop never tears a keystroke in half; cancelling ctx ends
// the sequence early without an error.
func BackspaceN(ctx context.Context, kb Keyboard, clock Clock, count int, delay time.Duration) (int, error) {
	keyCtx := context.WithoutCancel(ctx)
	for sent := range count {
		if ctx.Err() != nil {
			return sent, nil
		}
		if err := kb.Backspace(keyCtx); err != nil {
			return sent, err
		}
		if err := clock.Sleep(ctx, delay); err != nil {
			return sent + 1, nil
		}
	}
	return count, nil
}
