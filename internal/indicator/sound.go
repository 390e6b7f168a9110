package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/rbright/agrivoice/internal/audio"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueError
)

func (k cueKind) String() string {
	switch k {
	case cueStart:
		return "start"
	case cueStop:
		return "stop"
	case cueComplete:
		return "complete"
	case cueError:
		return "error"
	default:
		return "unknown"
	}
}

// note is one tone of a cue.
type note struct {
	hz     float64
	length time.Duration
	gain   float64
}

const (
	noteGap  = 22 * time.Millisecond
	maxFade  = 5 * time.Millisecond
	cueGain  = 0.18
	cueMedia = "agrivoice cue"
)

// Listening rises, a filled field rises further, errors fall.
var cueNotes = map[cueKind][]note{
	cueStart: {
		{hz: 660, length: 70 * time.Millisecond, gain: cueGain},
		{hz: 880, length: 80 * time.Millisecond, gain: cueGain},
	},
	cueStop: {
		{hz: 587, length: 110 * time.Millisecond, gain: cueGain},
	},
	cueComplete: {
		{hz: 659, length: 60 * time.Millisecond, gain: cueGain},
		{hz: 784, length: 60 * time.Millisecond, gain: cueGain},
		{hz: 1047, length: 90 * time.Millisecond, gain: cueGain},
	},
	cueError: {
		{hz: 494, length: 80 * time.Millisecond, gain: cueGain},
		{hz: 370, length: 120 * time.Millisecond, gain: 0.16},
	},
}

var cuePCM = renderAll(cueNotes)

func renderAll(table map[cueKind][]note) map[cueKind][]int16 {
	out := make(map[cueKind][]int16, len(table))
	for kind, notes := range table {
		out[kind] = renderCue(notes)
	}
	return out
}

func cueSamples(kind cueKind) []int16 {
	return cuePCM[kind]
}

// emitCue plays the cue to completion on the default sink.
func emitCue(kind cueKind) error {
	samples := cueSamples(kind)
	if len(samples) == 0 {
		return nil
	}

	client, err := audio.Connect(audio.IconSpeakers)
	if err != nil {
		return err
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(audio.SampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName(cueMedia),
	)
	if err != nil {
		return fmt.Errorf("create %s cue stream: %w", kind, err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play %s cue: %w", kind, err)
	}
	return nil
}

// renderCue joins notes with short silences.
func renderCue(notes []note) []int16 {
	var pcm []int16
	gap := sampleCount(noteGap)
	for i, n := range notes {
		if i > 0 {
			pcm = append(pcm, make([]int16, gap)...)
		}
		pcm = append(pcm, renderNote(n)...)
	}
	return pcm
}

// renderNote is a sine tone with raised-cosine fades at both ends.
func renderNote(n note) []int16 {
	count := sampleCount(n.length)
	if count <= 0 || n.hz <= 0 || n.gain <= 0 {
		return nil
	}

	fade := min(count/10, sampleCount(maxFade))
	fade = max(fade, 1)

	pcm := make([]int16, count)
	for i := range pcm {
		edge := min(i, count-i-1)
		envelope := 1.0
		if edge < fade {
			envelope = 0.5 - 0.5*math.Cos(math.Pi*float64(edge)/float64(fade))
		}
		t := float64(i) / audio.SampleRate
		pcm[i] = int16(math.Round(math.Sin(2*math.Pi*n.hz*t) * n.gain * envelope * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * audio.SampleRate))
}
