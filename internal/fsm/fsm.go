package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateError     State = "error"
)

const (
	EventStart  Event = "start"
	EventResult Event = "result"
	EventStop   Event = "stop"
	EventEnd    Event = "end"
	EventFail   Event = "fail"
	EventReset  Event = "reset"
)

// Transition returns the capture state reached by applying event to current.
// Every terminal path out of listening lands in idle, either directly or
// through error followed by reset.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateListening, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventResult, EventStop, EventEnd:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
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
