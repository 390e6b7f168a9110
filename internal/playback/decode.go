package playback

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

var ErrUnsupportedEncoding = errors.New("unsupported audio encoding")

// Clip is decoded interleaved 16-bit PCM.
type Clip struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

// Decode reads a base64 payload, optionally wrapped in a data URL, holding MP3
// or WAV audio.
func Decode(payload string) (Clip, error) {
	raw, err := decodeBase64(payload)
	if err != nil {
		return Clip{}, err
	}

	switch {
	case isWAV(raw):
		return decodeWAV(raw)
	case isMP3(raw):
		return decodeMP3(raw)
	default:
		return Clip{}, ErrUnsupportedEncoding
	}
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx >= 0 {
			payload = payload[idx+1:]
		}
	}
	if payload == "" {
		return nil, ErrEmptyPayload
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode audio payload: %w", err)
	}
	return raw, nil
}

func isWAV(raw []byte) bool {
	return len(raw) >= 12 && string(raw[0:4]) == "RIFF" && string(raw[8:12]) == "WAVE"
}

func isMP3(raw []byte) bool {
	if len(raw) >= 3 && string(raw[0:3]) == "ID3" {
		return true
	}
	return len(raw) >= 2 && raw[0] == 0xFF && raw[1]&0xE0 == 0xE0
}

func decodeWAV(raw []byte) (Clip, error) {
	decoder := wav.NewDecoder(bytes.NewReader(raw))
	if !decoder.IsValidFile() {
		return Clip{}, fmt.Errorf("decode wav: invalid file")
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return Clip{}, fmt.Errorf("decode wav: missing format")
	}

	return Clip{
		Samples:    toInt16(buf, int(decoder.BitDepth)),
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
	}, nil
}

func toInt16(buf *audio.IntBuffer, bitDepth int) []int16 {
	out := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		switch bitDepth {
		case 8:
			out[i] = int16((v - 128) << 8)
		case 24:
			out[i] = int16(v >> 8)
		case 32:
			out[i] = int16(v >> 16)
		default:
			out[i] = int16(v)
		}
	}
	return out
}

func decodeMP3(raw []byte) (Clip, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(raw))
	if err != nil {
		return Clip{}, fmt.Errorf("decode mp3: %w", err)
	}
	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return Clip{}, fmt.Errorf("decode mp3: %w", err)
	}

	// go-mp3 always yields 16-bit little-endian stereo.
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
	}
	return Clip{Samples: samples, SampleRate: decoder.SampleRate(), Channels: 2}, nil
}
