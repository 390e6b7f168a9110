package lexicon

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold canonicalizes text for table matching: NFC composition, Unicode lower
// case and surrounding whitespace trimmed. Scripts without case are only
// composed.
func Fold(s string) string {
	// cases.Caser keeps state between calls and is not safe for concurrent use.
	lower := cases.Lower(language.Und)
	return strings.TrimSpace(lower.String(norm.NFC.String(s)))
}
