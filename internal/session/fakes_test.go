package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbright/ghostkeys/internal/config"
	"github.com/rbright/ghostkeys/internal/events"
	"github.com/rbright/ghostkeys/internal/fsm"
	"github.com/rbright/ghostkeys/internal/random"
)

const backspaceKey = "\b"

var errCompositor = errors.New("wtype: compositor does not support virtual keyboard protocol")

type fakeKeyboard struct {
	mu         sync.Mutex
	keys       []string
	typeCalls  int
	failOnType int
	panicOn    int
	onType     func(n int)

	backspaceCalls int
	onBackspace    func(n int)

	opens  atomic.Int32
	closes atomic.Int32
}

func (f *fakeKeyboard) Open(context.Context) (Keyboard, error) {
	f.opens.Add(1)
	return f, nil
}

func (f *fakeKeyboard) Type(_ context.Context, text string) error {
	f.mu.Lock()
	f.typeCalls++
	n := f.typeCalls
	if n == f.panicOn {
		f.mu.Unlock()
		panic("injector crashed")
	}
	if n == f.failOnType {
		f.mu.Unlock()
		return errCompositor
	}
	f.keys = append(f.keys, text)
	hook := f.onType
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return nil
}

func (f *fakeKeyboard) Backspace(context.Context) error {
	f.mu.Lock()
	f.backspaceCalls++
	n := f.backspaceCalls
	f.keys = append(f.keys, backspaceKey)
	hook := f.onBackspace
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return nil
}

func (f *fakeKeyboard) Close() error {
	f.closes.Add(1)
	return nil
}

func (f *fakeKeyboard) keystrokes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func (f *fakeKeyboard) buffer() string {
	return replay(f.keystrokes())
}

// replay feeds keystrokes into an editor that honors backspace.
func replay(keys []string) string {
	var out []rune
	for _, key := range keys {
		if key == backspaceKey {
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
			continue
		}
		out = append(out, []rune(key)...)
	}
	return string(out)
}

func (f *fakeKeyboard) countBackspaces() int {
	n := 0
	for _, key := range f.keystrokes() {
		if key == backspaceKey {
			n++
		}
	}
	return n
}

// instantClock never waits but honors cancellation.
type instantClock struct {
	sleeps atomic.Int64
}

func (c *instantClock) Sleep(ctx context.Context, _ time.Duration) error {
	c.sleeps.Add(1)
	return ctx.Err()
}

// gateClock holds every countdown tick until the gate is closed.
type gateClock struct {
	gate chan struct{}
}

func newGateClock() *gateClock {
	return &gateClock{gate: make(chan struct{})}
}

func (c *gateClock) Sleep(ctx context.Context, d time.Duration) error {
	if d != time.Second {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.gate:
		return nil
	}
}

func (c *gateClock) open() {
	close(c.gate)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) ofKind(kind events.Kind) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, 0)
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) statuses() []fsm.State {
	out := make([]fsm.State, 0)
	for _, ev := range r.ofKind(events.KindStatus) {
		out = append(out, ev.Status)
	}
	return out
}

func (r *recorder) progressCurrents() []int {
	out := make([]int, 0)
	for _, ev := range r.ofKind(events.KindProgress) {
		out = append(out, ev.Progress.Current)
	}
	return out
}

func fastProfile() config.TypingConfig {
	cfg := config.DefaultTyping()
	cfg.CountdownSeconds = 0
	cfg.MistakeRate = 0
	return cfg
}

func newTestController(t *testing.T, opener KeyboardOpener, cfg config.TypingConfig, clock Clock) (*Controller, *recorder) {
	t.Helper()
	rec := &recorder{}
	if clock == nil {
		clock = &instantClock{}
	}
	ctrl := NewController(nil, opener, rec, cfg, WithRand(random.New(1)), WithClock(clock))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := ctrl.Close(ctx); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return ctrl, rec
}

func waitForState(t *testing.T, ctrl *Controller, desired fsm.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ctrl.Status() == desired {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s (current=%s)", desired, ctrl.Status())
}

func waitForCursor(t *testing.T, ctrl *Controller, cursor int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ctrl.Progress().Current == cursor {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for cursor %d (current=%d)", cursor, ctrl.Progress().Current)
}

func waitRun(t *testing.T, ctrl *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ctrl.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v (state=%s)", err, ctrl.Status())
	}
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
