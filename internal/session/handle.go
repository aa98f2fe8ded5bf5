package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbright/ghostkeys/internal/fsm"
	"github.com/rbright/ghostkeys/internal/ipc"
)

// Handle serves IPC commands against the controller.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus, ipc.CommandProgress:
		return c.snapshot(req.Command)
	case ipc.CommandLoad:
		progress, err := c.LoadContent(req.Text, req.Label)
		if err != nil {
			return c.failure(err)
		}
		return c.snapshot(fmt.Sprintf("loaded %d characters", progress.Total))
	case ipc.CommandStart:
		return c.reply(c.Start(), "start requested")
	case ipc.CommandStop:
		return c.reply(c.Stop(), "stopped")
	case ipc.CommandPause:
		return c.reply(c.Pause(), "paused")
	case ipc.CommandResume:
		return c.reply(c.Resume(), "resumed")
	case ipc.CommandToggle:
		return c.toggle()
	case ipc.CommandTogglePause:
		return c.togglePause()
	case ipc.CommandGetConfig:
		cfg := c.Config()
		resp := c.snapshot("config")
		resp.Config = &cfg
		return resp
	case ipc.CommandSetConfig:
		if req.Config == nil {
			return c.failure(errors.New("set-config requires a config payload"))
		}
		if err := c.SetConfig(*req.Config); err != nil {
			return c.failure(fmt.Errorf("invalid config: %w", err))
		}
		cfg := c.Config()
		resp := c.snapshot("config updated; applies from the next run")
		resp.Config = &cfg
		return resp
	default:
		return c.failure(fmt.Errorf("unknown command: %s", req.Command))
	}
}

// toggle mirrors the global start/stop shortcut.
func (c *Controller) toggle() ipc.Response {
	switch state := c.Status(); {
	case state.Active():
		return c.reply(c.Stop(), "stopped")
	case state == fsm.StateError:
		return c.failure(ErrInvalidState)
	default:
		return c.reply(c.Start(), "start requested")
	}
}

func (c *Controller) togglePause() ipc.Response {
	switch state := c.Status(); state {
	case fsm.StateTyping:
		return c.reply(c.Pause(), "paused")
	case fsm.StatePaused:
		return c.reply(c.Resume(), "resumed")
	default:
		return c.failure(fmt.Errorf("cannot toggle pause from state %s", state))
	}
}

func (c *Controller) reply(err error, message string) ipc.Response {
	if err != nil {
		return c.failure(err)
	}
	return c.snapshot(message)
}

func (c *Controller) snapshot(message string) ipc.Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	progress := c.progressLocked()
	resp := ipc.Response{
		OK:       true,
		State:    string(c.state),
		Message:  message,
		File:     c.label,
		Progress: &progress,
	}
	if c.state == fsm.StateError && c.lastErr != nil {
		resp.Error = c.lastErr.Error()
	}
	return resp
}

func (c *Controller) failure(err error) ipc.Response {
	return ipc.Response{OK: false, State: string(c.Status()), Error: err.Error()}
}
