package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTransitionTable checks every state and event pair. Pairs absent from
// allowed must be rejected and leave the state unchanged.
func TestTransitionTable(t *testing.T) {
	t.Parallel()

	allowed := map[State]map[Event]State{
		StateIdle:      {EventStart: StateListening, EventFail: StateError},
		StateListening: {EventResult: StateIdle, EventStop: StateIdle, EventEnd: StateIdle, EventFail: StateError},
		StateError:     {EventReset: StateIdle, EventFail: StateError},
	}
	events := []Event{EventStart, EventResult, EventStop, EventEnd, EventFail, EventReset}

	for state, valid := range allowed {
		for _, event := range events {
			next, err := Transition(state, event)
			want, ok := valid[event]
			if !ok {
				require.ErrorContains(t, err, "invalid transition", "%s + %s", state, event)
				require.Equal(t, state, next)
				continue
			}
			require.NoError(t, err, "%s + %s", state, event)
			require.Equal(t, want, next, "%s + %s", state, event)
		}
	}
}

func TestEveryCaptureEndsIdle(t *testing.T) {
	t.Parallel()

	paths := [][]Event{
		{EventStart, EventResult},
		{EventStart, EventStop},
		{EventStart, EventEnd},
		{EventStart, EventFail, EventReset},
		{EventFail, EventReset},
	}
	for _, path := range paths {
		state := StateIdle
		for _, event := range path {
			var err error
			state, err = Transition(state, event)
			require.NoError(t, err, path)
		}
		require.Equal(t, StateIdle, state, path)
	}
}

func TestTransitionUnknownState(t *testing.T) {
	t.Parallel()

	next, err := Transition(State("harvesting"), EventStart)
	require.ErrorContains(t, err, "unknown state")
	require.Equal(t, State("harvesting"), next)
}
