// Package indicator shows capture state as desktop notifications and plays
// short audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/agrivoice/internal/config"
)

const (
	listeningTimeoutMS    = 300000
	defaultErrorTimeoutMS = 1200
	dispatchTimeout       = 400 * time.Millisecond
)

// sender delivers notification text through one desktop backend.
type sender interface {
	notify(ctx context.Context, timeoutMS int, text string) error
	dismiss(ctx context.Context) error
}

// Notifier implements capture.Notifier on top of the configured backend.
type Notifier struct {
	cfg    config.IndicatorConfig
	logger *slog.Logger
	sender sender
	play   func(cueKind) error

	soundMu sync.Mutex
}

// New creates a notifier from config. Backend "none" only plays cues.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{
		cfg:    cfg,
		logger: logger,
		sender: newSender(cfg),
		play:   emitCue,
	}
}

func newSender(cfg config.IndicatorConfig) sender {
	appName := strings.TrimSpace(cfg.DesktopAppName)
	if appName == "" {
		appName = "agrivoice"
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "desktop":
		return &desktopSender{appName: appName}
	case "beeep":
		return beeepSender{appName: appName}
	default:
		return nil
	}
}

// ShowListening signals capture start and emits the start cue.
func (n *Notifier) ShowListening(ctx context.Context, text string) {
	n.playCue(cueStart)
	n.dispatch(ctx, func(ctx context.Context) error {
		return n.sender.notify(ctx, listeningTimeoutMS, text)
	})
}

// ShowError displays a capture failure and emits the error cue.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	n.playCue(cueError)
	timeout := n.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = defaultErrorTimeoutMS
	}
	n.dispatch(ctx, func(ctx context.Context) error {
		return n.sender.notify(ctx, timeout, text)
	})
}

// CueStop emits the stop cue.
func (n *Notifier) CueStop(context.Context) {
	n.playCue(cueStop)
}

// CueComplete emits the successful-commit cue.
func (n *Notifier) CueComplete(context.Context) {
	n.playCue(cueComplete)
}

// Hide dismisses the active notification.
func (n *Notifier) Hide(ctx context.Context) {
	n.dispatch(ctx, func(ctx context.Context) error {
		return n.sender.dismiss(ctx)
	})
}

func (n *Notifier) dispatch(ctx context.Context, fn func(context.Context) error) {
	if !n.cfg.Enable || n.sender == nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.logger.Debug("indicator dispatch failed", "backend", n.cfg.Backend, "error", err.Error())
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable || n.play == nil {
		return
	}
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := n.play(kind); err != nil {
			n.logger.Debug("indicator audio cue failed", "cue", kind.String(), "error", err.Error())
		}
	}()
}
