package capture

import (
	"context"
	"fmt"
	"strings"
)

// RecognizerConfig is applied to the recognizer for one capture session.
type RecognizerConfig struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// Events receives the outcome of one recognizer session: at most one of
// Result or Error, followed by End. Implementations may call them from any
// goroutine.
type Events interface {
	Result(transcript string)
	Error(code string)
	End()
}

// Recognizer is the speech recognition capability. Start must not block
// until recognition completes.
type Recognizer interface {
	Start(ctx context.Context, cfg RecognizerConfig, events Events) error
	Stop() error
}

// Notifier is the capture-facing subset of indicator behavior.
type Notifier interface {
	ShowListening(ctx context.Context, text string)
	ShowError(ctx context.Context, text string)
	CueStop(ctx context.Context)
	CueComplete(ctx context.Context)
	Hide(ctx context.Context)
}

type noopNotifier struct{}

func (noopNotifier) ShowListening(context.Context, string) {}
func (noopNotifier) ShowError(context.Context, string)     {}
func (noopNotifier) CueStop(context.Context)               {}
func (noopNotifier) CueComplete(context.Context)           {}
func (noopNotifier) Hide(context.Context)                  {}

type TargetKind string

const (
	TargetField TargetKind = "field"
	TargetChat  TargetKind = "chat"
)

// Target is the UI destination of a capture session.
type Target struct {
	Kind  TargetKind
	Field string
}

func FieldTarget(name string) Target {
	return Target{Kind: TargetField, Field: name}
}

func ChatTarget() Target {
	return Target{Kind: TargetChat}
}

// ParseTarget reads "chat" as the chat input and anything else as a form
// field name.
func ParseTarget(raw string) (Target, error) {
	name := strings.TrimSpace(raw)
	switch {
	case name == "":
		return Target{}, fmt.Errorf("capture target is empty")
	case strings.EqualFold(name, string(TargetChat)):
		return ChatTarget(), nil
	default:
		return FieldTarget(name), nil
	}
}

func (t Target) String() string {
	if t.Kind == TargetChat {
		return string(TargetChat)
	}
	return t.Field
}

func (t Target) validate() error {
	switch t.Kind {
	case TargetChat:
		return nil
	case TargetField:
		if strings.TrimSpace(t.Field) == "" {
			return fmt.Errorf("capture target field is empty")
		}
		return nil
	default:
		return fmt.Errorf("unknown capture target kind %q", t.Kind)
	}
}
