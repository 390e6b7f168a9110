package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pulseproto "github.com/jfreymuth/pulse/proto"
)

var (
	ErrNoDevices      = errors.New("no audio input devices found")
	ErrDeviceNotFound = errors.New("audio device not found")
	ErrDeviceUnusable = errors.New("audio device unusable")
)

// Device describes one Pulse input source.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

func (d Device) usable() bool {
	return d.Available && !d.Muted
}

func (d Device) problem() string {
	if d.Muted {
		return "muted"
	}
	return "unavailable"
}

// Selection is the resolved capture source. Warning is set when the
// preferred input could not be used.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// ListDevices returns the Pulse input sources.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := Connect(IconMicrophone)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var sourceInfos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &sourceInfos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(sourceInfos))
	for _, source := range sourceInfos {
		if source == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          source.SourceName,
			Description: source.Device,
			State:       sourceStateString(source.State),
			Available:   sourceAvailable(source),
			Muted:       source.Mute,
			Default:     source.SourceName == defaultID,
		})
	}
	return devices, nil
}

// SelectDevice resolves the audio.input and audio.fallback preferences
// against the live device list.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, input, fallback)
}

// preference is one configured device term. An empty term or "default"
// means the server's default source.
type preference string

func newPreference(raw string) preference {
	return preference(strings.ToLower(strings.TrimSpace(raw)))
}

func (p preference) isDefault() bool {
	return p == "" || p == "default"
}

func (p preference) resolve(devices []Device) (Device, error) {
	for _, dev := range devices {
		if p.isDefault() && dev.Default {
			return dev, nil
		}
		if !p.isDefault() && deviceMatches(dev, string(p)) {
			return dev, nil
		}
	}
	if p.isDefault() {
		return Device{}, fmt.Errorf("%w: default audio source is unavailable", ErrDeviceNotFound)
	}
	return Device{}, fmt.Errorf("%w: %q did not match any device", ErrDeviceNotFound, string(p))
}

func selectDeviceFromList(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, ErrNoDevices
	}

	primary, err := newPreference(input).resolve(devices)
	if err != nil {
		return Selection{}, fmt.Errorf("audio.input: %w", err)
	}
	if primary.usable() {
		return Selection{Device: primary}, nil
	}

	alternate, err := newPreference(fallback).resolve(devices)
	if err != nil {
		return Selection{}, fmt.Errorf("primary input %q is %s and audio.fallback failed: %w", primary.ID, primary.problem(), err)
	}
	if !alternate.usable() {
		return Selection{}, fmt.Errorf("%w: audio fallback device %q is %s", ErrDeviceUnusable, alternate.ID, alternate.problem())
	}

	return Selection{
		Device:   alternate,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, primary.problem(), alternate.ID),
		Fallback: primary.ID != alternate.ID,
	}, nil
}

// deviceMatches reports whether a lowercase term matches a device id or description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	id := strings.ToLower(device.ID)
	desc := strings.ToLower(device.Description)
	return strings.Contains(id, term) || strings.Contains(desc, term)
}

func sourceStateString(state uint32) string {
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

// sourceAvailable reports whether the active port of a source is plugged in.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
