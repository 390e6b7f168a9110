// Package audio discovers Pulse input sources and captures microphone PCM
// in the format the speech gateway expects.
package audio

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

// Capture format: 16 kHz mono signed 16-bit little endian.
const (
	SampleRate = 16000
	Channels   = 1
	// ChunkBytes is 20ms of audio.
	ChunkBytes = 640
)

const applicationName = "agrivoice"

// Icon names passed to the Pulse server for per-stream UI.
const (
	IconMicrophone = "audio-input-microphone"
	IconSpeakers   = "audio-speakers"
)

// Connect opens a Pulse client identified as agrivoice.
func Connect(icon string) (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(applicationName),
		pulse.ClientApplicationIconName(icon),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}
