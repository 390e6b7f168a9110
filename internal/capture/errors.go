package capture

import (
	"strings"

	"github.com/rbright/agrivoice/internal/i18n"
)

// Kind classifies why a capture session could not deliver a value.
type Kind string

const (
	KindUnsupported         Kind = "unsupported_capability"
	KindAlreadyListening    Kind = "already_listening"
	KindStartFailed         Kind = "start_failed"
	KindPermissionDenied    Kind = "permission_denied"
	KindNoSpeech            Kind = "no_speech_detected"
	KindNetwork             Kind = "network_failure"
	KindLanguageUnsupported Kind = "language_unsupported"
	KindUnrecognizedNumber  Kind = "unrecognized_number"
	KindUnknown             Kind = "unknown"
)

var (
	ErrUnsupported         = &Error{Kind: KindUnsupported}
	ErrAlreadyListening    = &Error{Kind: KindAlreadyListening}
	ErrStartFailed         = &Error{Kind: KindStartFailed}
	ErrPermissionDenied    = &Error{Kind: KindPermissionDenied}
	ErrNoSpeech            = &Error{Kind: KindNoSpeech}
	ErrNetwork             = &Error{Kind: KindNetwork}
	ErrLanguageUnsupported = &Error{Kind: KindLanguageUnsupported}
	ErrUnrecognizedNumber  = &Error{Kind: KindUnrecognizedNumber}
	ErrUnknown             = &Error{Kind: KindUnknown}
)

// Error is a terminal capture failure. errors.Is matches on Kind, so the
// sentinels above can be used to classify any *Error.
type Error struct {
	Kind Kind
	// Code is the raw recognizer error code when one was reported.
	Code string
	// Tag is the recognizer language tag of the failed session.
	Tag string
	// Transcript is the text that could not be converted to a number.
	Transcript string
	Target     Target
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("capture ")
	b.WriteString(string(e.Kind))
	if e.Code != "" {
		b.WriteString(" (")
		b.WriteString(e.Code)
		b.WriteString(")")
	}
	if e.Kind == KindUnrecognizedNumber {
		b.WriteString(": ")
		b.WriteString(`"` + e.Transcript + `"`)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var kindMessages = map[Kind]i18n.Key{
	KindUnsupported:         i18n.KeyMicNotSupported,
	KindAlreadyListening:    i18n.KeyMicAlreadyListening,
	KindStartFailed:         i18n.KeyMicStart,
	KindPermissionDenied:    i18n.KeyMicPermission,
	KindNoSpeech:            i18n.KeyMicNoSpeech,
	KindNetwork:             i18n.KeyMicNetwork,
	KindLanguageUnsupported: i18n.KeyMicLangUnsupported,
	KindUnrecognizedNumber:  i18n.KeyConversion,
	KindUnknown:             i18n.KeyMicGeneric,
}

// Message renders the error for display in lang.
func (e *Error) Message(lang i18n.Language) string {
	key, ok := kindMessages[e.Kind]
	if !ok {
		return i18n.T(lang, i18n.KeyMicGeneric, string(e.Kind))
	}

	switch e.Kind {
	case KindLanguageUnsupported:
		return i18n.T(lang, key, e.Tag)
	case KindUnrecognizedNumber:
		return i18n.T(lang, key, e.Transcript)
	case KindUnknown:
		code := e.Code
		if code == "" && e.Err != nil {
			code = e.Err.Error()
		}
		if code == "" {
			code = string(KindUnknown)
		}
		return i18n.T(lang, key, code)
	default:
		return i18n.T(lang, key)
	}
}

// KindForCode maps a recognizer error code to its capture error kind.
func KindForCode(code string) Kind {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "not-allowed", "service-not-allowed":
		return KindPermissionDenied
	case "no-speech":
		return KindNoSpeech
	case "network":
		return KindNetwork
	case "language-not-supported":
		return KindLanguageUnsupported
	default:
		return KindUnknown
	}
}
