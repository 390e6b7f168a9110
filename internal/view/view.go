// Package view owns the mounted crop form, fertilizer form and assistant chat
// of the running agrivoice process and answers UI events forwarded over IPC.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/rbright/agrivoice/internal/backend"
	"github.com/rbright/agrivoice/internal/capture"
	"github.com/rbright/agrivoice/internal/chat"
	"github.com/rbright/agrivoice/internal/form"
	"github.com/rbright/agrivoice/internal/i18n"
	"github.com/rbright/agrivoice/internal/ipc"
	"github.com/rbright/agrivoice/internal/lexicon"
	"github.com/rbright/agrivoice/internal/playback"
)

var errUnmounted = errors.New("view is unmounted")

// fertilizerPrefix routes a capture or set target to the fertilizer form.
const fertilizerPrefix = "fertilizer."

// Backend is the inference service used by the mounted views.
type Backend interface {
	chat.Sender
	RecommendCrop(ctx context.Context, payload map[string]any) (string, error)
	PredictFertilizer(ctx context.Context, payload map[string]any) (string, error)
}

// Deps are the handles injected at mount time. A nil Recognizer reports voice
// input as unsupported; a nil Player reports playback as unsupported.
type Deps struct {
	Logger     *slog.Logger
	Recognizer capture.Recognizer
	Notifier   capture.Notifier
	Backend    Backend
	Player     playback.Factory
	Lexicon    *lexicon.Lexicon
	Language   i18n.Language
}

// View is the mounted UI state. Unmount releases the recognizer session and
// the playback slot.
type View struct {
	logger     *slog.Logger
	backend    Backend
	controller *capture.Controller
	crop       *form.Record
	fertilizer *form.Record
	chat       *chat.Conversation
	player     *playback.Manager

	ctx    context.Context
	cancel context.CancelFunc
	sends  sync.WaitGroup

	mu        sync.Mutex
	unmounted bool
}

// Mount builds the views around deps.
func Mount(deps Deps) *View {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	lang := deps.Language
	if !lang.Valid() {
		lang = i18n.Default
	}

	ctx, cancel := context.WithCancel(context.Background())
	v := &View{
		logger:     logger,
		backend:    deps.Backend,
		crop:       form.NewRecord(form.Crop),
		fertilizer: form.NewRecord(form.Fertilizer),
		chat:       chat.New(deps.Backend, logger, lang),
		player:     playback.NewManager(logger, deps.Player),
		ctx:        ctx,
		cancel:     cancel,
	}
	v.controller = capture.NewController(
		logger,
		deps.Recognizer,
		capture.BindFunc(v.commitField),
		capture.CommitFunc(v.commitChat),
		deps.Notifier,
		capture.WithLexicon(deps.Lexicon),
		capture.WithLanguage(lang),
	)
	return v
}

// Unmount stops capture and playback and waits for in-flight chat sends.
func (v *View) Unmount() {
	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		return
	}
	v.unmounted = true
	v.mu.Unlock()

	v.controller.Stop(context.Background())
	v.player.Close()
	v.cancel()
	v.sends.Wait()
}

// Handle answers one forwarded UI event.
func (v *View) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	v.mu.Lock()
	unmounted := v.unmounted
	v.mu.Unlock()
	if unmounted {
		return v.failure(errUnmounted)
	}

	switch req.Command {
	case "status":
		return v.status()
	case "mic":
		return v.mic(ctx, req.Args)
	case "stop":
		return v.stop(ctx)
	case "lang":
		return v.setLanguage(ctx, req.Args)
	case "set":
		return v.set(req.Args)
	case "form":
		return v.showForm(req.Args)
	case "submit":
		return v.submit(ctx, v.crop, i18n.KeyRecommendationPrefix)
	case "fertilizer":
		return v.submit(ctx, v.fertilizer, i18n.KeyFertilizerPrefix)
	case "ask":
		return v.ask(ctx, req.Args)
	case "play":
		return v.play(req.Args)
	case "messages":
		return v.messages()
	default:
		return v.failure(fmt.Errorf("unknown command: %s", req.Command))
	}
}

func (v *View) status() ipc.Response {
	status := v.controller.Status()
	resp := v.ok(status.Message)
	if !status.Supported {
		resp.Message = i18n.T(status.Language, i18n.KeyMicNotSupported)
	}
	if status.Session != nil {
		resp.Message = i18n.T(status.Language, i18n.KeyListening)
		resp.Lines = []string{
			"session " + status.Session.ID,
			"target " + status.Session.Target.String(),
		}
	}
	if index, ok := v.player.Playing(); ok {
		resp.Lines = append(resp.Lines, fmt.Sprintf("playing message %d", index))
	}
	return resp
}

func (v *View) mic(ctx context.Context, args []string) ipc.Response {
	if len(args) != 1 {
		return v.failure(errors.New("mic requires one target (a field name or chat)"))
	}
	target, err := capture.ParseTarget(args[0])
	if err != nil {
		return v.failure(err)
	}
	if target.Kind == capture.TargetField {
		if _, _, err := v.field(target.Field); err != nil {
			return v.failure(err)
		}
	}

	started, err := v.controller.Toggle(ctx, target)
	if err != nil {
		return v.failure(err)
	}
	if !started {
		return v.ok("stopped")
	}
	return v.ok(i18n.T(v.controller.Language(), i18n.KeyListening))
}

func (v *View) stop(ctx context.Context) ipc.Response {
	if !v.controller.Stop(ctx) {
		return v.ok("not listening")
	}
	return v.ok("stopped")
}

func (v *View) setLanguage(ctx context.Context, args []string) ipc.Response {
	if len(args) != 1 {
		return v.failure(errors.New("lang requires one language code"))
	}
	lang, err := i18n.Parse(args[0])
	if err != nil {
		return v.failure(err)
	}
	if err := v.controller.SetLanguage(ctx, lang); err != nil {
		return v.failure(err)
	}
	v.chat.SetLanguage(lang)
	v.logger.Info("language changed", "language", string(lang))
	return v.ok(lang.Name())
}

// set applies keystroke input to a field; numeric fields keep their previous
// value when the input is not a partial number.
func (v *View) set(args []string) ipc.Response {
	if len(args) < 1 {
		return v.failure(errors.New("set requires a field name"))
	}
	record, name, err := v.field(args[0])
	if err != nil {
		return v.failure(err)
	}
	value, err := record.Input(name, strings.Join(args[1:], " "))
	if err != nil {
		return v.failure(err)
	}
	return v.ok(value)
}

func (v *View) showForm(args []string) ipc.Response {
	record := v.crop
	if len(args) > 0 && strings.EqualFold(args[0], "fertilizer") {
		record = v.fertilizer
	}
	lang := v.controller.Language()
	values := record.Values()
	resp := v.ok(record.Schema().Name)
	for _, field := range record.Schema().Fields {
		resp.Lines = append(resp.Lines, fmt.Sprintf("%s (%s) = %s", field.Name, i18n.T(lang, field.Label), values[field.Name]))
	}
	return resp
}

func (v *View) submit(ctx context.Context, record *form.Record, prefix i18n.Key) ipc.Response {
	lang := v.controller.Language()
	v.controller.ClearError()

	payload, err := record.Payload()
	if err != nil {
		return v.failure(err)
	}
	if v.backend == nil {
		return v.failure(errors.New("no backend configured"))
	}

	var answer string
	switch record {
	case v.crop:
		answer, err = v.backend.RecommendCrop(ctx, payload)
		answer = i18n.CropName(lang, answer)
	default:
		answer, err = v.backend.PredictFertilizer(ctx, payload)
	}
	if err != nil {
		v.logger.Warn("form submit failed", "form", record.Schema().Name, "error", err.Error())
		return v.failure(err)
	}
	v.logger.Info("form submitted", "form", record.Schema().Name, "result", answer)
	return v.ok(i18n.T(lang, prefix) + ": " + answer)
}

func (v *View) ask(ctx context.Context, args []string) ipc.Response {
	msg, err := v.chat.Send(ctx, strings.Join(args, " "))
	if err != nil {
		resp := v.failure(err)
		if msg.Text != "" {
			resp.Message = msg.Text
		}
		return resp
	}
	resp := v.ok(msg.Text)
	if msg.Audio != "" {
		resp.Lines = []string{fmt.Sprintf("audio reply at message %d", len(v.chat.Messages())-1)}
	}
	return resp
}

func (v *View) play(args []string) ipc.Response {
	if len(args) != 1 {
		return v.failure(errors.New("play requires a message index"))
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return v.failure(fmt.Errorf("invalid message index %q", args[0]))
	}
	msg, ok := v.chat.Message(index)
	if !ok {
		return v.failure(fmt.Errorf("no message at index %d", index))
	}
	if msg.Audio == "" {
		return v.failure(fmt.Errorf("message %d has no audio", index))
	}

	playing, err := v.player.Toggle(msg.Audio, index)
	if err != nil {
		v.logger.Warn("playback toggle failed", "index", index, "error", err.Error())
		return v.failure(err)
	}
	v.logger.Info("playback toggled", "index", index, "playing", playing)
	if playing {
		return v.ok("playing")
	}
	return v.ok("stopped")
}

func (v *View) messages() ipc.Response {
	resp := v.ok("")
	playingIndex, playing := v.player.Playing()
	for i, msg := range v.chat.Messages() {
		who := "assistant"
		if msg.FromUser {
			who = "you"
		}
		line := fmt.Sprintf("[%d] %s: %s", i, who, msg.Text)
		switch {
		case playing && playingIndex == i:
			line += " (playing)"
		case msg.Audio != "":
			line += " (audio)"
		}
		resp.Lines = append(resp.Lines, line)
	}
	return resp
}

// commitField receives normalized numbers from the capture controller.
func (v *View) commitField(name string, value string) error {
	record, field, err := v.field(name)
	if err != nil {
		return err
	}
	return record.Commit(field, value)
}

// commitChat sends a voice transcript without holding up the recognizer
// callback; the reply lands in the chat history. A transcript arriving after
// Unmount is dropped, so the send count never grows once Unmount waits on it.
func (v *View) commitChat(_ context.Context, transcript string) error {
	v.mu.Lock()
	if v.unmounted {
		v.mu.Unlock()
		return errUnmounted
	}
	v.sends.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.sends.Done()
		if _, err := v.chat.Send(v.ctx, transcript); err != nil {
			v.logger.Warn("voice chat send failed", "error", err.Error())
		}
	}()
	return nil
}

// field resolves "name" on the crop form and "fertilizer.name" on the
// fertilizer form.
func (v *View) field(name string) (*form.Record, string, error) {
	record := v.crop
	if rest, ok := strings.CutPrefix(name, fertilizerPrefix); ok {
		record = v.fertilizer
		name = rest
	}
	if _, ok := record.Schema().Field(name); !ok {
		return nil, "", fmt.Errorf("%w: %s", form.ErrUnknownField, name)
	}
	return record, name, nil
}

func (v *View) ok(message string) ipc.Response {
	status := v.controller.Status()
	return ipc.Response{
		OK:       true,
		State:    string(status.State),
		Language: string(status.Language),
		Message:  message,
	}
}

// failure localizes errors that carry a display message.
func (v *View) failure(err error) ipc.Response {
	status := v.controller.Status()
	resp := ipc.Failure(err)
	resp.State = string(status.State)
	resp.Language = string(status.Language)

	var (
		captureErr    *capture.Error
		backendErr    *backend.Error
		validationErr *form.ValidationError
	)
	switch {
	case errors.As(err, &captureErr):
		resp.Message = captureErr.Message(status.Language)
	case errors.As(err, &validationErr):
		resp.Message = validationErr.Message(status.Language)
	case errors.As(err, &backendErr):
		resp.Message = backendErr.Message(status.Language)
	}
	return resp
}
