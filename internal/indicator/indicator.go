// Package indicator turns typing lifecycle events into desktop notifications
// and audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/ghostkeys/internal/config"
	"github.com/rbright/ghostkeys/internal/events"
	"github.com/rbright/ghostkeys/internal/fsm"
	"github.com/rbright/ghostkeys/internal/hypr"
	"golang.org/x/time/rate"
)

const (
	colorInfo   = hypr.DefaultColor
	colorPaused = "rgb(f9e2af)"
	colorDone   = "rgb(a6e3a1)"
	colorError  = "rgb(f38ba8)"

	stickyTimeoutMS = 300000
)

// Notifier routes notifications via Hyprland or desktop DBus based on the
// configured backend.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages
	playCue  func(cueKind)

	// Owned by the Run goroutine.
	status   fsm.State
	progress *rate.Sometimes

	mu                    sync.Mutex
	desktopNotificationID uint32
	soundMu               sync.Mutex
}

// NewNotifier creates an indicator from config.
func NewNotifier(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	n := &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: english,
		status:   fsm.StateIdle,
	}
	n.playCue = n.playCueAsync
	return n
}

// Run consumes events until the channel closes or ctx is cancelled.
func (n *Notifier) Run(ctx context.Context, feed <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-feed:
			if !ok {
				return nil
			}
			n.Handle(ctx, ev)
		}
	}
}

// Handle reacts to a single event.
func (n *Notifier) Handle(ctx context.Context, ev events.Event) {
	switch ev.Kind {
	case events.KindCountdown:
		n.playCue(cueTick)
		n.show(ctx, 1, 1100, colorInfo, n.messages.countdown(ev.Remaining))
	case events.KindStatus:
		n.handleStatus(ctx, ev)
	case events.KindProgress:
		n.handleProgress(ctx, ev)
	case events.KindError:
		n.playCue(cueError)
		n.showError(ctx, ev.Message)
	}
}

func (n *Notifier) handleStatus(ctx context.Context, ev events.Event) {
	n.status = ev.Status
	switch ev.Status {
	case fsm.StateTyping:
		if ev.Previous == fsm.StateCountdown {
			n.playCue(cueStart)
			n.progress = n.newProgressLimiter()
		}
		n.show(ctx, 1, stickyTimeoutMS, colorInfo, n.messages.typing)
	case fsm.StatePaused:
		n.show(ctx, 0, stickyTimeoutMS, colorPaused, n.messages.paused)
	case fsm.StateDone:
		n.playCue(cueDone)
		n.show(ctx, 5, 2000, colorDone, n.messages.done)
	case fsm.StateReady:
		if ev.Previous.Active() {
			n.playCue(cueStop)
			n.hide(ctx)
		}
	}
}

func (n *Notifier) handleProgress(ctx context.Context, ev events.Event) {
	if n.status != fsm.StateTyping || ev.Progress == nil || n.progress == nil {
		return
	}
	if ev.Progress.Total > 0 && ev.Progress.Current >= ev.Progress.Total {
		return
	}
	progress := *ev.Progress
	n.progress.Do(func() {
		n.show(ctx, 1, stickyTimeoutMS, colorInfo, n.messages.progress(progress.Percent))
	})
}

// newProgressLimiter returns nil when progress notifications are disabled.
func (n *Notifier) newProgressLimiter() *rate.Sometimes {
	if n.cfg.ProgressIntervalMS <= 0 {
		return nil
	}
	return &rate.Sometimes{Interval: time.Duration(n.cfg.ProgressIntervalMS) * time.Millisecond}
}

func (n *Notifier) show(ctx context.Context, icon int, timeoutMS int, color string, text string) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, icon, timeoutMS, color, text)
	})
}

func (n *Notifier) showError(ctx context.Context, text string) {
	if !n.cfg.Enable {
		return
	}
	if text == "" {
		text = n.messages.errorText
	}
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, 3, timeout, colorError, text)
	})
}

func (n *Notifier) hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, n.dismiss)
}

// notify dispatches indicator output through the configured backend.
func (n *Notifier) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if n.desktopBackend() {
		return n.notifyDesktop(ctx, timeoutMS, text)
	}
	return hypr.Notify(ctx, hypr.Notification{Icon: icon, TimeoutMS: timeoutMS, Color: color, Text: text})
}

// dismiss removes indicator output from the configured backend.
func (n *Notifier) dismiss(ctx context.Context) error {
	if n.desktopBackend() {
		return n.dismissDesktop(ctx)
	}
	return hypr.Dismiss(ctx)
}

func (n *Notifier) desktopBackend() bool {
	return strings.EqualFold(strings.TrimSpace(n.cfg.Backend), "desktop")
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (n *Notifier) notifyDesktop(ctx context.Context, timeoutMS int, text string) error {
	n.mu.Lock()
	replaceID := n.desktopNotificationID
	n.mu.Unlock()

	appName := strings.TrimSpace(n.cfg.DesktopAppName)
	if appName == "" {
		appName = "ghostkeys"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (n *Notifier) dismissDesktop(ctx context.Context) error {
	n.mu.Lock()
	id := n.desktopNotificationID
	n.desktopNotificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCueAsync serializes cue playback and emits audio off the event loop.
func (n *Notifier) playCueAsync(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := emitCue(kind, n.cfg); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}
