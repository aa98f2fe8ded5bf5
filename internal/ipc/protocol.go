package ipc

import (
	"github.com/rbright/ghostkeys/internal/config"
	"github.com/rbright/ghostkeys/internal/events"
)

const (
	CommandStatus      = "status"
	CommandProgress    = "progress"
	CommandLoad        = "load"
	CommandStart       = "start"
	CommandStop        = "stop"
	CommandPause       = "pause"
	CommandResume      = "resume"
	CommandToggle      = "toggle"
	CommandTogglePause = "toggle-pause"
	CommandGetConfig   = "get-config"
	CommandSetConfig   = "set-config"
)

type Request struct {
	Command string               `json:"command" validate:"required,oneof=status progress load start stop pause resume toggle toggle-pause get-config set-config"`
	Text    string               `json:"text,omitempty" validate:"required_if=Command load"`
	Label   string               `json:"label,omitempty" validate:"max=256"`
	Config  *config.TypingConfig `json:"config,omitempty" validate:"required_if=Command set-config"`
}

type Response struct {
	OK       bool                 `json:"ok"`
	State    string               `json:"state,omitempty"`
	Message  string               `json:"message,omitempty"`
	Error    string               `json:"error,omitempty"`
	File     string               `json:"file,omitempty"`
	Progress *events.Progress     `json:"progress,omitempty"`
	Config   *config.TypingConfig `json:"config,omitempty"`
}
