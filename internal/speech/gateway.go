// Package speech streams microphone audio to a websocket speech gateway and
// relays its recognition events to the capture controller.
package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rbright/agrivoice/internal/audio"
	"github.com/rbright/agrivoice/internal/capture"
)

const (
	sampleRate = audio.SampleRate
	channels   = audio.Channels

	defaultDialTimeout = 3 * time.Second
	closeGrace         = 2 * time.Second
)

// NetworkCode is reported to the controller when the gateway connection
// breaks before a result arrives.
const NetworkCode = "network"

// Config controls the gateway connection and microphone selection.
type Config struct {
	URL           string
	DialTimeout   time.Duration
	AudioInput    string
	AudioFallback string
	// AudioDumpDir receives a WAV copy of every session when set.
	AudioDumpDir string
}

// Source is a running microphone capture.
type Source interface {
	Chunks() <-chan []byte
	Stop() error
	RawPCM() []byte
}

// SourceFunc opens the microphone for one session.
type SourceFunc func(ctx context.Context) (Source, error)

// Gateway implements capture.Recognizer. Only one stream is open at a time;
// starting a new one closes the previous stream.
type Gateway struct {
	cfg    Config
	logger *slog.Logger
	dialer *websocket.Dialer
	source SourceFunc

	mu     sync.Mutex
	active *stream
}

func NewGateway(cfg Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	g := &Gateway{cfg: cfg, logger: logger}
	g.source = g.pulseSource
	return g
}

// WithSource replaces the microphone source.
func (g *Gateway) WithSource(source SourceFunc) *Gateway {
	g.source = source
	return g
}

// Start dials the gateway, opens the microphone and begins streaming. Events
// are delivered from background goroutines.
func (g *Gateway) Start(ctx context.Context, cfg capture.RecognizerConfig, events capture.Events) error {
	target, err := buildStreamURL(g.cfg.URL, cfg)
	if err != nil {
		return err
	}

	g.mu.Lock()
	previous := g.active
	g.active = nil
	g.mu.Unlock()
	if previous != nil {
		previous.abort()
	}

	timeout := g.cfg.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	dialCtx, cancelDial := context.WithTimeout(ctx, timeout)
	defer cancelDial()

	dialer := g.dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(dialCtx, target, nil)
	if err != nil {
		return fmt.Errorf("connect speech gateway: %w", err)
	}

	// The session outlives the request that started it.
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	source, err := g.source(sessionCtx)
	if err != nil {
		cancel()
		_ = conn.Close()
		return fmt.Errorf("open microphone: %w", err)
	}

	s := &stream{
		gateway: g,
		conn:    conn,
		source:  source,
		events:  events,
		cancel:  cancel,
		started: time.Now(),
		done:    make(chan struct{}),
	}

	g.mu.Lock()
	g.active = s
	g.mu.Unlock()

	go s.writeLoop()
	go s.readLoop()

	g.logger.Debug("speech stream opened", "language", cfg.Language)
	return nil
}

// Stop ends the active stream. The gateway is asked to finish; the
// connection is closed after a grace period if it does not.
func (g *Gateway) Stop() error {
	g.mu.Lock()
	s := g.active
	g.mu.Unlock()
	if s == nil {
		return nil
	}
	s.stop()
	return nil
}

func (g *Gateway) release(s *stream) {
	g.mu.Lock()
	if g.active == s {
		g.active = nil
	}
	g.mu.Unlock()
}

func (g *Gateway) pulseSource(ctx context.Context) (Source, error) {
	selection, err := audio.SelectDevice(ctx, g.cfg.AudioInput, g.cfg.AudioFallback)
	if err != nil {
		return nil, err
	}
	if selection.Warning != "" {
		g.logger.Warn(selection.Warning)
	}
	return audio.StartCapture(ctx, selection.Device)
}

type frame struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript,omitempty"`
	Code       string `json:"code,omitempty"`
}

type stream struct {
	gateway *Gateway
	conn    *websocket.Conn
	source  Source
	events  capture.Events
	cancel  context.CancelFunc
	started time.Time
	done    chan struct{}

	writeMu sync.Mutex

	mu        sync.Mutex
	stopping  bool
	delivered bool

	stopOnce   sync.Once
	finishOnce sync.Once
}

func (s *stream) writeLoop() {
	for chunk := range s.source.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		if err := s.write(websocket.BinaryMessage, chunk); err != nil {
			s.gateway.logger.Debug("speech stream send failed", "error", err.Error())
			_ = s.source.Stop()
			return
		}
	}

	payload, _ := json.Marshal(frame{Type: "stop"})
	if err := s.write(websocket.TextMessage, payload); err != nil {
		s.gateway.logger.Debug("speech stream stop frame failed", "error", err.Error())
	}
}

func (s *stream) readLoop() {
	defer s.finish()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if !s.isStopping() && !isNormalClose(err) {
				s.gateway.logger.Warn("speech stream read failed", "error", err.Error())
				s.deliver(func() { s.events.Error(NetworkCode) })
			}
			return
		}

		var msg frame
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}

		switch strings.ToLower(msg.Type) {
		case "result":
			s.deliver(func() { s.events.Result(msg.Transcript) })
			s.stopCapture()
		case "error":
			code := msg.Code
			if code == "" {
				code = string(capture.KindUnknown)
			}
			s.deliver(func() { s.events.Error(code) })
			s.stopCapture()
		case "end":
			return
		}
	}
}

// deliver emits at most one result or error per stream.
func (s *stream) deliver(emit func()) {
	s.mu.Lock()
	if s.delivered {
		s.mu.Unlock()
		return
	}
	s.delivered = true
	s.mu.Unlock()
	emit()
}

func (s *stream) stop() {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	s.stopCapture()
	go func() {
		select {
		case <-s.done:
		case <-time.After(closeGrace):
			_ = s.conn.Close()
		}
	}()
}

// abort closes the stream without waiting for the gateway.
func (s *stream) abort() {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	s.stopCapture()
	_ = s.conn.Close()
}

func (s *stream) stopCapture() {
	s.stopOnce.Do(func() {
		_ = s.source.Stop()
	})
}

func (s *stream) finish() {
	s.finishOnce.Do(func() {
		s.stopCapture()
		_ = s.conn.Close()
		s.cancel()
		close(s.done)
		s.gateway.release(s)

		if dir := s.gateway.cfg.AudioDumpDir; dir != "" {
			if path, err := dumpWAV(dir, s.source.RawPCM(), s.started); err != nil {
				s.gateway.logger.Warn("unable to write audio dump", "error", err.Error())
			} else if path != "" {
				s.gateway.logger.Debug("audio dump written", "path", path)
			}
		}

		s.events.End()
	})
}

func (s *stream) write(messageType int, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, payload)
}

func (s *stream) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

func isNormalClose(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	return errors.Is(err, websocket.ErrCloseSent)
}

func buildStreamURL(base string, cfg capture.RecognizerConfig) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", fmt.Errorf("speech gateway url is not configured")
	}
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	streamURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid speech gateway url: %w", err)
	}
	if streamURL.Scheme != "ws" && streamURL.Scheme != "wss" {
		return "", fmt.Errorf("invalid speech gateway url %q: scheme must be ws, wss, http or https", base)
	}

	query := streamURL.Query()
	query.Set("language", cfg.Language)
	query.Set("continuous", strconv.FormatBool(cfg.Continuous))
	query.Set("interim_results", strconv.FormatBool(cfg.InterimResults))
	query.Set("encoding", "linear16")
	query.Set("sample_rate", strconv.Itoa(sampleRate))
	query.Set("channels", strconv.Itoa(channels))
	streamURL.RawQuery = query.Encode()
	return streamURL.String(), nil
}
