package playback

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/rbright/agrivoice/internal/audio"
)

// PulseFactory builds resources that decode the payload up front and play it
// through a PulseAudio playback stream.
func PulseFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(payload string, ended func()) (Resource, error) {
		clip, err := Decode(payload)
		if err != nil {
			return nil, err
		}
		return newPulseResource(logger, clip, ended)
	}
}

type pulseResource struct {
	logger *slog.Logger
	client *pulse.Client
	stream *pulse.PlaybackStream
	clip   Clip
	ended  func()

	mu      sync.Mutex
	cursor  int
	run     int
	running bool
	closed  bool
}

func newPulseResource(logger *slog.Logger, clip Clip, ended func()) (*pulseResource, error) {
	if clip.Channels != 1 && clip.Channels != 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedEncoding, clip.Channels)
	}

	client, err := audio.Connect(audio.IconSpeakers)
	if err != nil {
		return nil, err
	}

	r := &pulseResource{logger: logger, client: client, clip: clip, ended: ended}

	layout := pulse.PlaybackMono
	if clip.Channels == 2 {
		layout = pulse.PlaybackStereo
	}
	stream, err := client.NewPlayback(
		pulse.Int16Reader(r.read),
		layout,
		pulse.PlaybackSampleRate(clip.SampleRate),
		pulse.PlaybackMediaName("agrivoice reply"),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pulse playback stream: %w", err)
	}
	r.stream = stream
	return r, nil
}

func (r *pulseResource) read(buf []int16) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cursor >= len(r.clip.Samples) {
		return 0, pulse.EndOfData
	}
	n := copy(buf, r.clip.Samples[r.cursor:])
	r.cursor += n
	if r.cursor >= len(r.clip.Samples) {
		return n, pulse.EndOfData
	}
	return n, nil
}

func (r *pulseResource) Play() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return fmt.Errorf("playback resource closed")
	}
	r.run++
	run := r.run
	r.running = true
	r.mu.Unlock()

	r.stream.Start()
	go r.watch(run)
	return nil
}

// watch reports a natural end for the run that is still current.
func (r *pulseResource) watch(run int) {
	r.stream.Drain()

	r.mu.Lock()
	finished := r.running && r.run == run && !r.closed
	r.running = false
	r.mu.Unlock()

	if err := r.stream.Error(); err != nil {
		r.logger.Debug("pulse playback stream error", "error", err.Error())
	}
	if finished && r.ended != nil {
		r.ended()
	}
}

func (r *pulseResource) Pause() {
	r.mu.Lock()
	wasRunning := r.running && !r.closed
	r.running = false
	r.mu.Unlock()

	if wasRunning {
		r.stream.Stop()
	}
}

func (r *pulseResource) Rewind() {
	r.mu.Lock()
	r.cursor = 0
	r.mu.Unlock()
}

func (r *pulseResource) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.running = false
	r.mu.Unlock()

	r.stream.Close()
	r.client.Close()
	return nil
}
