// Package app dispatches parsed agrivoice commands: serve owns the views,
// UI commands are forwarded to it over IPC, and the rest run locally.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rbright/agrivoice/internal/audio"
	"github.com/rbright/agrivoice/internal/cli"
	"github.com/rbright/agrivoice/internal/config"
	"github.com/rbright/agrivoice/internal/doctor"
	"github.com/rbright/agrivoice/internal/i18n"
	"github.com/rbright/agrivoice/internal/lexicon"
	"github.com/rbright/agrivoice/internal/logging"
	"github.com/rbright/agrivoice/internal/numeral"
	"github.com/rbright/agrivoice/internal/version"
)

const binaryName = "agrivoice"

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(cfgLoaded.Config.Debug.Verbose)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch {
	case parsed.Command == cli.CommandServe:
		return r.commandServe(ctx, cfgLoaded.Config, logger)
	case parsed.Command == cli.CommandStatus:
		return r.commandStatus(ctx)
	case parsed.Command.Forwarded():
		return r.forwardOrFail(ctx, cfgLoaded.Config, parsed)
	case parsed.Command == cli.CommandNormalize:
		return r.commandNormalize(cfgLoaded.Config, parsed)
	case parsed.Command == cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case parsed.Command == cli.CommandDevices:
		return r.commandDevices(ctx)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

// commandNormalize resolves a phrase locally with the configured lexicon, so
// extra words can be tried without a running server.
func (r Runner) commandNormalize(cfg config.Config, parsed cli.Parsed) int {
	langCode := cfg.Language
	if parsed.Lang != "" {
		langCode = parsed.Lang
	}
	lang, err := i18n.Parse(langCode)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	lex, err := lexicon.Default().WithExtra(cfg.Lexicon.Extra)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	phrase := strings.Join(parsed.Args, " ")
	canonical := numeral.Normalize(lex, phrase, lang)
	if !numeral.Valid(canonical) {
		fmt.Fprintf(r.Stderr, "error: no number recognized in %q\n", phrase)
		return 1
	}
	fmt.Fprintln(r.Stdout, canonical)
	return 0
}
