// Package i18n holds the localized user-facing text for every supported
// display language.
package i18n

import (
	"fmt"
	"strings"
)

type Language string

const (
	English Language = "en"
	Telugu  Language = "te"
)

// Default is the display language used when nothing else is configured.
const Default = English

var supported = []Language{English, Telugu}

// Supported lists the display languages in catalog order.
func Supported() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// Parse accepts a bare language code, a BCP 47 tag or a locale string such as
// "te_IN.UTF-8" and returns the matching display language.
func Parse(raw string) (Language, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", fmt.Errorf("language is empty")
	}
	if idx := strings.IndexAny(normalized, "-_."); idx >= 0 {
		normalized = normalized[:idx]
	}
	switch normalized {
	case "en", "english":
		return English, nil
	case "te", "telugu", "తెలుగు":
		return Telugu, nil
	default:
		return "", fmt.Errorf("unsupported language %q (supported: en, te)", raw)
	}
}

// RecognizerTag is the language tag handed to the speech recognizer.
func (l Language) RecognizerTag() string {
	switch l {
	case Telugu:
		return "te-IN"
	default:
		return "en-US"
	}
}

func (l Language) Name() string {
	switch l {
	case Telugu:
		return "తెలుగు"
	case English:
		return "English"
	default:
		return string(l)
	}
}

func (l Language) Valid() bool {
	for _, candidate := range supported {
		if candidate == l {
			return true
		}
	}
	return false
}
