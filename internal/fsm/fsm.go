package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateReady     State = "ready"
	StateCountdown State = "countdown"
	StateTyping    State = "typing"
	StatePaused    State = "paused"
	StateDone      State = "done"
	StateError     State = "error"
)

const (
	EventLoad     Event = "load"
	EventStart    Event = "start"
	EventCounted  Event = "counted"
	EventPause    Event = "pause"
	EventResume   Event = "resume"
	EventStop     Event = "stop"
	EventFinished Event = "finished"
	EventFail     Event = "fail"
)

// Active reports whether a run owns the session in this state.
func (s State) Active() bool {
	switch s {
	case StateCountdown, StateTyping, StatePaused:
		return true
	default:
		return false
	}
}

func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle, StateReady, StateDone:
		switch event {
		case EventLoad:
			return StateReady, nil
		case EventStart:
			return StateCountdown, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateCountdown:
		switch event {
		case EventCounted:
			return StateTyping, nil
		case EventStop:
			return StateReady, nil
		case EventFail:
			return StateError, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateTyping:
		switch event {
		case EventPause:
			return StatePaused, nil
		case EventStop:
			return StateReady, nil
		case EventFinished:
			return StateDone, nil
		case EventFail:
			return StateError, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePaused:
		switch event {
		case EventResume:
			return StateTyping, nil
		case EventStop:
			return StateReady, nil
		// A pause that lands during the last keystroke, or while a key is
		// in flight, still lets the worker report how that keystroke ended.
		case EventFinished:
			return StateDone, nil
		case EventFail:
			return StateError, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventStop, EventLoad:
			return StateReady, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
