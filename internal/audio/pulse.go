// Package audio discovers Pulse playback sinks and picks the one audio cues
// play on.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Sink describes one Pulse playback sink surfaced to ghostkeys.
type Sink struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved cue sink plus optional fallback warning context.
type Selection struct {
	Sink     Sink
	Warning  string
	Fallback bool
}

// NewClient connects to the Pulse server as ghostkeys.
func NewClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("ghostkeys"),
		pulse.ClientApplicationIconName("input-keyboard"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListSinks returns playback sinks with default/availability metadata.
func ListSinks(_ context.Context) ([]Sink, error) {
	client, err := NewClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return listSinks(client)
}

func listSinks(client *pulse.Client) ([]Sink, error) {
	defaultSink, err := client.DefaultSink()
	if err != nil {
		return nil, fmt.Errorf("read default sink: %w", err)
	}
	defaultID := defaultSink.ID()

	var sinkInfos pulseproto.GetSinkInfoListReply
	if err := client.RawRequest(&pulseproto.GetSinkInfoList{}, &sinkInfos); err != nil {
		return nil, fmt.Errorf("list sinks: %w", err)
	}

	sinks := make([]Sink, 0, len(sinkInfos))
	for _, info := range sinkInfos {
		if info == nil {
			continue
		}
		sinks = append(sinks, Sink{
			ID:          info.SinkName,
			Description: info.Device,
			State:       sinkStateString(info.State),
			Available:   sinkAvailable(info),
			Muted:       info.Mute,
			Default:     info.SinkName == defaultID,
		})
	}
	return sinks, nil
}

// SelectSink resolves the indicator.sound_device preference against live sinks.
func SelectSink(ctx context.Context, preferred string) (Selection, error) {
	sinks, err := ListSinks(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectSinkFromList(sinks, preferred)
}

// ResolveSink returns the Pulse sink handle for preferred, or nil for the
// server default.
func ResolveSink(client *pulse.Client, preferred string) (*pulse.Sink, Selection, error) {
	if isDefault(normalizeTerm(preferred)) {
		return nil, Selection{}, nil
	}
	sinks, err := listSinks(client)
	if err != nil {
		return nil, Selection{}, err
	}
	selection, err := selectSinkFromList(sinks, preferred)
	if err != nil {
		return nil, Selection{}, err
	}
	sink, err := client.SinkByID(selection.Sink.ID)
	if err != nil {
		return nil, Selection{}, fmt.Errorf("open sink %q: %w", selection.Sink.ID, err)
	}
	return sink, selection, nil
}

// selectSinkFromList picks the preferred sink, falling back to the default
// sink when the preferred one is muted or unavailable.
func selectSinkFromList(sinks []Sink, preferred string) (Selection, error) {
	if len(sinks) == 0 {
		return Selection{}, errors.New("no audio output sinks found")
	}

	var defaultSink, byPreferred *Sink
	term := normalizeTerm(preferred)
	for i := range sinks {
		sink := &sinks[i]
		if sink.Default {
			defaultSink = sink
		}
		if byPreferred == nil && !isDefault(term) && sinkMatches(*sink, term) {
			byPreferred = sink
		}
	}

	primary := defaultSink
	if !isDefault(term) {
		if byPreferred == nil {
			return Selection{}, fmt.Errorf("indicator.sound_device %q did not match any sink", preferred)
		}
		primary = byPreferred
	}
	if primary == nil {
		return Selection{}, errors.New("default audio sink is unavailable")
	}
	if primary.Available && !primary.Muted {
		return Selection{Sink: *primary}, nil
	}

	reason := "unavailable"
	if primary.Muted {
		reason = "muted"
	}
	if defaultSink == nil || defaultSink == primary {
		return Selection{}, fmt.Errorf("audio sink %q is %s", primary.ID, reason)
	}
	if !defaultSink.Available || defaultSink.Muted {
		return Selection{}, fmt.Errorf("audio sink %q is %s and default sink %q is not usable", primary.ID, reason, defaultSink.ID)
	}

	return Selection{
		Sink:     *defaultSink,
		Warning:  fmt.Sprintf("indicator.sound_device %q is %s; falling back to %q", primary.ID, reason, defaultSink.ID),
		Fallback: true,
	}, nil
}

func normalizeTerm(raw string) string {
	return strings.TrimSpace(strings.ToLower(raw))
}

func isDefault(term string) bool {
	return term == "" || term == "default"
}

// sinkMatches reports whether a search term matches a sink id or description.
func sinkMatches(sink Sink, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(sink.ID), term) ||
		strings.Contains(strings.ToLower(sink.Description), term)
}

// sinkStateString maps Pulse sink state constants to human-readable values.
func sinkStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sinkAvailable maps Pulse sink port availability to a simple boolean.
func sinkAvailable(info *pulseproto.GetSinkInfoReply) bool {
	if info == nil {
		return false
	}
	if len(info.Ports) == 0 {
		return true
	}
	for _, port := range info.Ports {
		if port.Name != info.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
