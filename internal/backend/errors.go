package backend

import (
	"fmt"

	"github.com/rbright/agrivoice/internal/i18n"
)

type Kind string

const (
	// KindNetwork means the endpoint could not be reached.
	KindNetwork Kind = "network"
	// KindApplication means the endpoint answered with an error.
	KindApplication Kind = "application"
	// KindMalformed means the response could not be understood.
	KindMalformed Kind = "malformed"
)

var (
	ErrNetwork     = &Error{Kind: KindNetwork}
	ErrApplication = &Error{Kind: KindApplication}
	ErrMalformed   = &Error{Kind: KindMalformed}
)

// Error is a failed backend call. errors.Is matches on Kind.
type Error struct {
	Kind     Kind
	Endpoint string
	Status   int
	Detail   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s backend %s error", e.Endpoint, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Message renders the error for display in lang.
func (e *Error) Message(lang i18n.Language) string {
	switch e.Kind {
	case KindNetwork:
		return i18n.T(lang, i18n.KeyFetchNetwork)
	case KindApplication:
		return i18n.T(lang, i18n.KeyFetchErrorPrefix) + ": " + e.Detail
	case KindMalformed:
		return i18n.T(lang, i18n.KeyUnexpectedResponse)
	default:
		return i18n.T(lang, i18n.KeyFetchGeneric)
	}
}
