package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type failingBackspace struct {
	fakeKeyboard
	after int
	sent  int
}

func (f *failingBackspace) Backspace(ctx context.Context) error {
	if f.sent == f.after {
		return errCompositor
	}
	f.sent++
	return f.fakeKeyboard.Backspace(ctx)
}

// cancelClock cancels the run after a fixed number of sleeps.
type cancelClock struct {
	cancel context.CancelFunc
	left   int
}

func (c *cancelClock) Sleep(ctx context.Context, _ time.Duration) error {
	c.left--
	if c.left == 0 {
		c.cancel()
	}
	return ctx.Err()
}

func TestBackspaceN(t *testing.T) {
	kb := &fakeKeyboard{}
	clock := &instantClock{}

	sent, err := BackspaceN(context.Background(), kb, clock, 3, 90*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 3, sent)
	require.Equal(t, 3, kb.countBackspaces())
	require.EqualValues(t, 3, clock.sleeps.Load())

	sent, err = BackspaceN(context.Background(), kb, clock, 0, time.Millisecond)
	require.NoError(t, err)
	require.Zero(t, sent)
}

func TestBackspaceNStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	kb := &fakeKeyboard{}

	sent, err := BackspaceN(ctx, kb, &cancelClock{cancel: cancel, left: 2}, 5, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 2, sent)
	require.Equal(t, 2, kb.countBackspaces())
}

func TestBackspaceNReportsFailure(t *testing.T) {
	kb := &failingBackspace{after: 1}

	sent, err := BackspaceN(context.Background(), kb, &instantClock{}, 4, time.Millisecond)
	require.True(t, errors.Is(err, errCompositor))
	require.Equal(t, 1, sent)
}
