// Package playback owns the single audio resource used to replay chat
// replies.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrEmptyPayload = errors.New("audio payload is empty")
	ErrUnsupported  = errors.New("audio playback is not available")
	ErrClosed       = errors.New("playback manager is closed")
)

// Resource is one playable audio clip. ended must be invoked at most once,
// asynchronously, when the clip finishes on its own.
type Resource interface {
	Play() error
	Pause()
	Rewind()
	Close() error
}

// Factory builds a Resource from an encoded payload.
type Factory func(payload string, ended func()) (Resource, error)

// Manager enforces that at most one resource exists and at most one clip
// plays. Replacing a resource always stops it before disposal.
type Manager struct {
	logger  *slog.Logger
	factory Factory

	mu         sync.Mutex
	current    Resource
	payload    string
	index      int
	playing    bool
	generation uint64
	closed     bool
}

// NewManager constructs a manager. A nil factory makes Toggle fail with
// ErrUnsupported.
func NewManager(logger *slog.Logger, factory Factory) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{logger: logger, factory: factory}
}

// Toggle stops playback when the clip at index with the same payload is
// playing, and otherwise replaces the current resource and plays payload. It
// reports whether a clip is playing afterwards.
func (m *Manager) Toggle(payload string, index int) (bool, error) {
	if payload == "" {
		return false, ErrEmptyPayload
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrClosed
	}
	if m.current != nil && m.playing && m.index == index && m.payload == payload {
		m.disposeLocked()
		m.logger.Debug("playback stopped", "index", index)
		return false, nil
	}

	m.disposeLocked()
	if m.factory == nil {
		return false, ErrUnsupported
	}

	m.generation++
	generation := m.generation
	resource, err := m.factory(payload, func() { m.ended(generation) })
	if err != nil {
		return false, fmt.Errorf("create playback resource: %w", err)
	}

	m.current = resource
	m.payload = payload
	m.index = index
	m.playing = true
	if err := resource.Play(); err != nil {
		m.disposeLocked()
		return false, fmt.Errorf("start playback: %w", err)
	}

	m.logger.Debug("playback started", "index", index)
	return true, nil
}

// Playing returns the index of the clip that is playing.
func (m *Manager) Playing() (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.playing {
		return 0, false
	}
	return m.index, true
}

// Stop halts and disposes the current resource, if any.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposeLocked()
}

// Close stops playback and rejects later toggles.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposeLocked()
	m.closed = true
}

// ended clears the slot when the clip that finished is still the current one.
func (m *Manager) ended(generation uint64) {
	m.mu.Lock()
	if generation != m.generation || m.current == nil {
		m.mu.Unlock()
		return
	}
	resource := m.current
	index := m.index
	m.current = nil
	m.payload = ""
	m.playing = false
	m.mu.Unlock()

	if err := resource.Close(); err != nil {
		m.logger.Debug("close finished playback", "index", index, "error", err.Error())
	}
	m.logger.Debug("playback finished", "index", index)
}

func (m *Manager) disposeLocked() {
	if m.current == nil {
		m.playing = false
		return
	}
	resource := m.current
	m.current = nil
	m.payload = ""
	m.playing = false
	// Invalidate the ended callback of the disposed resource.
	m.generation++

	resource.Pause()
	resource.Rewind()
	if err := resource.Close(); err != nil {
		m.logger.Debug("close playback resource", "error", err.Error())
	}
}
