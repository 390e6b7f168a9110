// Package capture runs voice input sessions: one recognizer session at a time,
// delivering a normalized number to a form field or a transcript to chat.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/agrivoice/internal/fsm"
	"github.com/rbright/agrivoice/internal/i18n"
	"github.com/rbright/agrivoice/internal/lexicon"
	"github.com/rbright/agrivoice/internal/numeral"
	"github.com/rs/xid"
)

// Session is one listening period for a single target.
type Session struct {
	ID        string
	Target    Target
	Language  i18n.Language
	StartedAt time.Time
}

// Status is a point-in-time snapshot of the controller.
type Status struct {
	State     fsm.State
	Language  i18n.Language
	Session   *Session
	Err       *Error
	Message   string
	Supported bool
}

type Option func(*Controller)

// WithLexicon selects the number tables used for field targets.
func WithLexicon(lex *lexicon.Lexicon) Option {
	return func(c *Controller) {
		if lex != nil {
			c.lexicon = lex
		}
	}
}

// WithLanguage sets the initial display and recognition language.
func WithLanguage(lang i18n.Language) Option {
	return func(c *Controller) {
		if lang.Valid() {
			c.language = lang
		}
	}
}

// Controller owns the capture state machine. At most one session listens at
// a time; recognizer events from any other session are discarded.
type Controller struct {
	logger     *slog.Logger
	recognizer Recognizer
	binder     Binder
	chat       Committer
	notifier   Notifier
	lexicon    *lexicon.Lexicon

	mu       sync.RWMutex
	state    fsm.State
	language i18n.Language
	active   *Session
	// starting is the session whose recognizer.Start has not returned yet.
	// It stays set when Stop clears active mid-start.
	starting *Session
	lastErr  *Error
}

// NewController constructs a capture controller. A nil recognizer makes every
// Start fail with KindUnsupported.
func NewController(
	logger *slog.Logger,
	recognizer Recognizer,
	binder Binder,
	chat Committer,
	notifier Notifier,
	opts ...Option,
) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if binder == nil {
		binder = BindFunc(func(field string, _ string) error {
			return fmt.Errorf("no form bound for field %q", field)
		})
	}
	if chat == nil {
		chat = CommitFunc(func(context.Context, string) error { return nil })
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}

	c := &Controller{
		logger:     logger,
		recognizer: recognizer,
		binder:     binder,
		chat:       chat,
		notifier:   notifier,
		lexicon:    lexicon.Default(),
		state:      fsm.StateIdle,
		language:   i18n.Default,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) Language() i18n.Language {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.language
}

// Status returns state, active session and the last error localized in the
// current language.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := Status{
		State:     c.state,
		Language:  c.language,
		Err:       c.lastErr,
		Supported: c.recognizer != nil,
	}
	if c.active != nil {
		session := *c.active
		status.Session = &session
	}
	if c.lastErr != nil {
		status.Message = c.lastErr.Message(c.language)
	}
	return status
}

// Start begins listening for target. It fails with KindAlreadyListening while
// any session is active or still connecting and leaves that session untouched.
func (c *Controller) Start(ctx context.Context, target Target) error {
	if err := target.validate(); err != nil {
		return err
	}

	if c.recognizer == nil {
		err := &Error{Kind: KindUnsupported, Target: target}
		c.mu.Lock()
		c.lastErr = err
		lang := c.language
		c.mu.Unlock()
		c.notifier.ShowError(ctx, err.Message(lang))
		return err
	}

	c.mu.Lock()
	if busy := c.busyLocked(); busy != nil {
		c.mu.Unlock()
		c.logger.Debug("capture start rejected", "target", target.String(), "active_target", busy.Target.String(), "session_id", busy.ID)
		return &Error{Kind: KindAlreadyListening, Target: busy.Target}
	}
	if err := c.transitionLocked(fsm.EventStart); err != nil {
		c.mu.Unlock()
		return err
	}
	session := &Session{
		ID:        xid.New().String(),
		Target:    target,
		Language:  c.language,
		StartedAt: time.Now(),
	}
	c.active = session
	c.starting = session
	c.lastErr = nil
	c.mu.Unlock()

	cfg := RecognizerConfig{
		Language:       session.Language.RecognizerTag(),
		Continuous:     false,
		InterimResults: false,
	}
	startErr := c.recognizer.Start(ctx, cfg, sessionEvents{controller: c, id: session.ID})

	c.mu.Lock()
	c.starting = nil
	stillActive := c.active == session
	c.mu.Unlock()

	if startErr != nil {
		err := &Error{Kind: KindStartFailed, Target: target, Tag: cfg.Language, Err: startErr}
		c.fail(session.ID, err)
		return err
	}
	if !stillActive {
		// Stopped while the recognizer was starting; no other session can
		// have started since, so the stream still belongs to this one.
		_ = c.recognizer.Stop()
		return nil
	}

	c.notifier.ShowListening(ctx, i18n.T(session.Language, i18n.KeyListening))
	c.logger.Info("capture started",
		"session_id", session.ID,
		"target", target.String(),
		"language", string(session.Language),
	)
	return nil
}

// busyLocked returns the session that blocks a new Start, if any.
func (c *Controller) busyLocked() *Session {
	if c.active != nil {
		return c.active
	}
	return c.starting
}

// Toggle stops the session when target is already listening and starts one
// otherwise. It reports whether a session was started.
func (c *Controller) Toggle(ctx context.Context, target Target) (bool, error) {
	c.mu.RLock()
	active := c.active
	c.mu.RUnlock()

	if active != nil && active.Target == target {
		c.Stop(ctx)
		return false, nil
	}
	if err := c.Start(ctx, target); err != nil {
		return false, err
	}
	return true, nil
}

// Stop cancels the active session. It reports whether one was active.
func (c *Controller) Stop(ctx context.Context) bool {
	c.mu.Lock()
	session := c.active
	if session == nil {
		c.mu.Unlock()
		return false
	}
	c.active = nil
	_ = c.transitionLocked(fsm.EventStop)
	c.mu.Unlock()

	if err := c.recognizer.Stop(); err != nil {
		c.logger.Debug("recognizer stop failed", "session_id", session.ID, "error", err.Error())
	}
	c.notifier.CueStop(ctx)
	c.notifier.Hide(ctx)
	c.logger.Info("capture stopped",
		"session_id", session.ID,
		"target", session.Target.String(),
		"duration_ms", time.Since(session.StartedAt).Milliseconds(),
	)
	return true
}

// SetLanguage switches the display and recognition language. An active
// session is stopped first and the last error is cleared.
func (c *Controller) SetLanguage(ctx context.Context, lang i18n.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("unsupported language %q", lang)
	}
	c.Stop(ctx)

	c.mu.Lock()
	c.language = lang
	c.lastErr = nil
	c.mu.Unlock()
	return nil
}

// ClearError drops the last recorded error.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()
}

func (c *Controller) handleResult(id string, transcript string) {
	c.mu.Lock()
	session := c.active
	if session == nil || session.ID != id {
		c.mu.Unlock()
		c.logger.Debug("ignoring stale capture result", "session_id", id)
		return
	}

	if session.Target.Kind == TargetChat {
		text := strings.TrimSpace(transcript)
		if text == "" {
			c.failLocked(session, &Error{Kind: KindNoSpeech, Target: session.Target})
			return
		}
		c.active = nil
		_ = c.transitionLocked(fsm.EventResult)
		c.mu.Unlock()

		ctx := context.Background()
		c.notifier.CueComplete(ctx)
		c.notifier.Hide(ctx)
		if err := c.chat.Commit(ctx, text); err != nil {
			c.logger.Warn("chat commit failed", "session_id", session.ID, "error", err.Error())
		}
		c.logger.Info("capture delivered to chat",
			"session_id", session.ID,
			"duration_ms", time.Since(session.StartedAt).Milliseconds(),
		)
		return
	}

	value := numeral.Normalize(c.lexicon, transcript, session.Language)
	if !numeral.Valid(value) {
		c.failLocked(session, &Error{Kind: KindUnrecognizedNumber, Target: session.Target, Transcript: transcript})
		return
	}
	if err := c.binder.Commit(session.Target.Field, value); err != nil {
		c.failLocked(session, &Error{Kind: KindUnknown, Code: "commit", Target: session.Target, Err: err})
		return
	}
	c.active = nil
	_ = c.transitionLocked(fsm.EventResult)
	c.mu.Unlock()

	ctx := context.Background()
	c.notifier.CueComplete(ctx)
	c.notifier.Hide(ctx)
	c.logger.Info("capture committed",
		"session_id", session.ID,
		"target", session.Target.String(),
		"value", value,
		"duration_ms", time.Since(session.StartedAt).Milliseconds(),
	)
}

func (c *Controller) handleError(id string, code string) {
	c.mu.Lock()
	session := c.active
	if session == nil || session.ID != id {
		c.mu.Unlock()
		c.logger.Debug("ignoring stale capture error", "session_id", id, "code", code)
		return
	}
	c.failLocked(session, &Error{
		Kind:   KindForCode(code),
		Code:   code,
		Tag:    session.Language.RecognizerTag(),
		Target: session.Target,
	})
}

func (c *Controller) handleEnd(id string) {
	c.mu.Lock()
	session := c.active
	if session == nil || session.ID != id {
		c.mu.Unlock()
		return
	}
	c.active = nil
	_ = c.transitionLocked(fsm.EventEnd)
	c.mu.Unlock()

	c.notifier.Hide(context.Background())
	c.logger.Info("capture ended without result",
		"session_id", session.ID,
		"target", session.Target.String(),
		"duration_ms", time.Since(session.StartedAt).Milliseconds(),
	)
}

// fail records err for the session with id when it is still active.
func (c *Controller) fail(id string, err *Error) {
	c.mu.Lock()
	session := c.active
	if session == nil || session.ID != id {
		c.mu.Unlock()
		return
	}
	c.failLocked(session, err)
}

// failLocked must be called with c.mu held and releases it.
func (c *Controller) failLocked(session *Session, err *Error) {
	c.active = nil
	c.lastErr = err
	c.toErrorAndResetLocked()
	lang := c.language
	c.mu.Unlock()

	c.notifier.ShowError(context.Background(), err.Message(lang))
	c.logger.Warn("capture failed",
		"session_id", session.ID,
		"target", session.Target.String(),
		"kind", string(err.Kind),
		"error", err.Error(),
	)
}

func (c *Controller) transitionLocked(event fsm.Event) error {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// toErrorAndResetLocked transitions to error and back to idle.
func (c *Controller) toErrorAndResetLocked() {
	_ = c.transitionLocked(fsm.EventFail)
	_ = c.transitionLocked(fsm.EventReset)
}

// sessionEvents binds recognizer callbacks to the session that started them.
type sessionEvents struct {
	controller *Controller
	id         string
}

func (e sessionEvents) Result(transcript string) { e.controller.handleResult(e.id, transcript) }
func (e sessionEvents) Error(code string)        { e.controller.handleError(e.id, code) }
func (e sessionEvents) End()                     { e.controller.handleEnd(e.id) }
