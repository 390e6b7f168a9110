// Package numeral converts spoken transcripts into canonical numeric strings.
package numeral

import (
	"strconv"
	"strings"

	"github.com/rbright/agrivoice/internal/i18n"
	"github.com/rbright/agrivoice/internal/lexicon"
)

// Normalize maps a transcript to a string of ASCII digits and dots using the
// tables of lang. Script digits are substituted first, then word tokens from
// longest to shortest, each replacing every occurrence; anything left that is
// not a digit or a dot is dropped.
//
// The result may be empty or numerically invalid ("1.2.3"); callers check it
// with Valid. A nil lexicon uses the embedded tables.
func Normalize(lex *lexicon.Lexicon, transcript string, lang i18n.Language) string {
	if lex == nil {
		lex = lexicon.Default()
	}

	text := lexicon.Fold(transcript)
	if text == "" {
		return ""
	}

	for _, entry := range lex.Digits(lang) {
		text = strings.ReplaceAll(text, entry.Token, entry.Value)
	}
	for _, entry := range lex.Lookup(lang) {
		text = strings.ReplaceAll(text, entry.Token, entry.Value)
	}

	return strip(text)
}

// Valid reports whether a canonical string is a usable decimal number: at
// least one digit and at most one dot.
func Valid(canonical string) bool {
	if canonical == "" || strings.Count(canonical, ".") > 1 {
		return false
	}
	digits := 0
	for _, r := range canonical {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
		default:
			return false
		}
	}
	if digits == 0 {
		return false
	}
	_, err := strconv.ParseFloat(canonical, 64)
	return err == nil
}

func strip(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
