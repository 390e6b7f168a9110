package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rbright/agrivoice/internal/backend"
	"github.com/rbright/agrivoice/internal/config"
	"github.com/rbright/agrivoice/internal/i18n"
	"github.com/rbright/agrivoice/internal/indicator"
	"github.com/rbright/agrivoice/internal/ipc"
	"github.com/rbright/agrivoice/internal/lexicon"
	"github.com/rbright/agrivoice/internal/logging"
	"github.com/rbright/agrivoice/internal/playback"
	"github.com/rbright/agrivoice/internal/speech"
	"github.com/rbright/agrivoice/internal/view"
)

// commandServe owns the runtime socket and the mounted views until ctx ends.
func (r Runner) commandServe(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	deps, err := buildViewDeps(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("build views failed", "error", err.Error())
		return 1
	}

	onStale := func(context.Context) error {
		logger.Warn("removed stale socket", "socket", socketPath)
		return nil
	}
	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, onStale)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		if !errors.Is(err, ipc.ErrAlreadyRunning) {
			logger.Error("acquire socket failed", "socket", socketPath, "error", err.Error())
		}
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	v := view.Mount(deps)
	defer v.Unmount()

	logger.Info("serving",
		"socket", socketPath,
		"language", string(deps.Language),
		"voice_input", deps.Recognizer != nil,
		"playback", deps.Player != nil,
	)
	fmt.Fprintf(r.Stdout, "agrivoice serving on %s\n", socketPath)

	if err := ipc.Serve(ctx, listener, v); err != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", err)
		logger.Error("ipc server failed", "error", err.Error())
		return 1
	}

	logger.Info("serve stopped")
	return 0
}

// buildViewDeps wires the configured services into the views.
func buildViewDeps(cfg config.Config, logger *slog.Logger) (view.Deps, error) {
	lang, err := i18n.Parse(cfg.Language)
	if err != nil {
		return view.Deps{}, err
	}
	lex, err := lexicon.Default().WithExtra(cfg.Lexicon.Extra)
	if err != nil {
		return view.Deps{}, err
	}

	api := backend.New(backend.Config{
		CropURL:       cfg.Backend.CropURL,
		ChatURL:       cfg.Backend.ChatURL,
		FertilizerURL: cfg.Backend.FertilizerURL,
		Timeout:       time.Duration(cfg.Backend.TimeoutMS) * time.Millisecond,
	}, logger)

	deps := view.Deps{
		Logger:   logger,
		Notifier: indicator.New(cfg.Indicator, logger),
		Backend:  api,
		Lexicon:  lex,
		Language: lang,
	}

	if cfg.Recognizer.URL != "" {
		gatewayCfg := speech.Config{
			URL:           cfg.Recognizer.URL,
			DialTimeout:   time.Duration(cfg.Recognizer.DialTimeoutMS) * time.Millisecond,
			AudioInput:    cfg.Audio.Input,
			AudioFallback: cfg.Audio.Fallback,
		}
		if cfg.Debug.EnableAudioDump {
			stateDir, err := logging.StateDir()
			if err != nil {
				return view.Deps{}, fmt.Errorf("resolve audio dump dir: %w", err)
			}
			gatewayCfg.AudioDumpDir = filepath.Join(stateDir, "audio")
		}
		deps.Recognizer = speech.NewGateway(gatewayCfg, logger)
	}

	if cfg.Playback.Enable {
		deps.Player = playback.PulseFactory(logger)
	}

	return deps, nil
}
