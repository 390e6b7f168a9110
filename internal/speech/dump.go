package speech

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// dumpWAV writes little-endian 16-bit mono PCM to a timestamped WAV file in
// dir and returns its path. Empty captures are skipped.
func dumpWAV(dir string, pcm []byte, startedAt time.Time) (string, error) {
	if len(pcm) < 2 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create audio dump dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("capture-%s.wav", startedAt.Format("20060102-150405.000")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("open audio dump %q: %w", path, err)
	}
	defer file.Close()

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8))
	}

	encoder := wav.NewEncoder(file, sampleRate, 16, channels, 1)
	if err := encoder.Write(&audio.IntBuffer{
		Data:           samples,
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}); err != nil {
		return "", fmt.Errorf("write audio dump: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("finalize audio dump: %w", err)
	}
	return path, nil
}
