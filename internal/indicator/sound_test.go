package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEveryCueHasSamples(t *testing.T) {
	for _, kind := range []cueKind{cueStart, cueStop, cueComplete, cueError} {
		require.NotEmpty(t, cueSamples(kind), kind.String())
	}
	require.Empty(t, cueSamples(cueKind(99)))
}

func TestCueKindString(t *testing.T) {
	require.Equal(t, "start", cueStart.String())
	require.Equal(t, "complete", cueComplete.String())
	require.Equal(t, "error", cueError.String())
	require.Equal(t, "unknown", cueKind(0).String())
}

func TestRenderNoteLengthAndFades(t *testing.T) {
	got := renderNote(note{hz: 440, length: 100 * time.Millisecond, gain: 0.2})
	require.Len(t, got, sampleCount(100*time.Millisecond))
	require.Zero(t, got[0])
	require.Zero(t, got[len(got)-1])
}

func TestRenderNoteInvalidReturnsEmpty(t *testing.T) {
	require.Empty(t, renderNote(note{hz: 0, length: 100 * time.Millisecond, gain: 0.2}))
	require.Empty(t, renderNote(note{hz: 440, length: 0, gain: 0.2}))
	require.Empty(t, renderNote(note{hz: 440, length: 100 * time.Millisecond, gain: 0}))
}

func TestRenderCueInsertsGaps(t *testing.T) {
	notes := []note{
		{hz: 440, length: 50 * time.Millisecond, gain: 0.2},
		{hz: 660, length: 50 * time.Millisecond, gain: 0.2},
	}
	want := 2*sampleCount(50*time.Millisecond) + sampleCount(noteGap)
	require.Len(t, renderCue(notes), want)
}

func TestSampleCount(t *testing.T) {
	require.Equal(t, 0, sampleCount(0))
	require.Equal(t, 400, sampleCount(25*time.Millisecond))
}
