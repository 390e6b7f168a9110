// Package lexicon holds the per-language tables that map spoken number tokens
// and script digits to canonical ASCII digit strings.
package lexicon

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rbright/agrivoice/internal/i18n"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultTables []byte

var valuePattern = regexp.MustCompile(`^[0-9.]+$`)

// Entry maps one token to its canonical value. Language is the language
// table that brought the token in: the defining language, or for a token
// from a shared table, the language that inherits it.
type Entry struct {
	Token    string
	Value    string
	Language i18n.Language
}

// Lexicon is immutable after construction and safe for concurrent use.
type Lexicon struct {
	// tables holds language and shared tables; languages marks which names
	// are selectable languages.
	tables    map[i18n.Language]table
	languages map[i18n.Language]bool
	words     map[i18n.Language][]Entry
	digits    map[i18n.Language][]Entry
}

// document is the YAML layout. Shared tables can only be inherited.
type document struct {
	Shared    map[string]table `yaml:"shared"`
	Languages map[string]table `yaml:"languages"`
}

type table struct {
	Inherit []string          `yaml:"inherit"`
	Digits  map[string]string `yaml:"digits"`
	Words   map[string]string `yaml:"words"`
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
	defaultErr  error
)

// Default returns the tables embedded in the binary.
func Default() *Lexicon {
	defaultOnce.Do(func() {
		defaultLex, defaultErr = Load(defaultTables)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("embedded lexicon is invalid: %v", defaultErr))
	}
	return defaultLex
}

// Load parses YAML lexicon tables and validates them.
func Load(data []byte) (*Lexicon, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if len(doc.Languages) == 0 {
		return nil, fmt.Errorf("lexicon defines no languages")
	}

	tables := make(map[i18n.Language]table, len(doc.Shared)+len(doc.Languages))
	languages := make(map[i18n.Language]bool, len(doc.Languages))
	add := func(code string, raw table) (i18n.Language, error) {
		name := i18n.Language(strings.ToLower(strings.TrimSpace(code)))
		if name == "" {
			return "", fmt.Errorf("lexicon table name is empty")
		}
		if _, exists := tables[name]; exists {
			return "", fmt.Errorf("table %q defined twice", name)
		}
		folded, err := foldTable(name, raw)
		if err != nil {
			return "", err
		}
		tables[name] = folded
		return name, nil
	}

	for code, raw := range doc.Shared {
		if _, err := add(code, raw); err != nil {
			return nil, err
		}
	}
	for code, raw := range doc.Languages {
		lang, err := add(code, raw)
		if err != nil {
			return nil, err
		}
		languages[lang] = true
	}

	return build(tables, languages)
}

// WithExtra returns a copy of the lexicon with additional words merged into
// the named languages. An extra word replaces a built-in token of the same
// spelling.
func (l *Lexicon) WithExtra(extra map[string]map[string]string) (*Lexicon, error) {
	if len(extra) == 0 {
		return l, nil
	}

	tables := make(map[i18n.Language]table, len(l.tables))
	for lang, t := range l.tables {
		tables[lang] = t.clone()
	}

	for code, words := range extra {
		lang := i18n.Language(strings.ToLower(strings.TrimSpace(code)))
		if !l.languages[lang] {
			return nil, fmt.Errorf("lexicon extra: unknown language %q (have %s)", code, joinLanguages(l.Languages(), ", "))
		}
		current := tables[lang]
		folded, err := foldTable(lang, table{Words: words})
		if err != nil {
			return nil, fmt.Errorf("lexicon extra: %w", err)
		}
		for token, value := range folded.Words {
			current.Words[token] = value
		}
		tables[lang] = current
	}

	return build(tables, l.languages)
}

// Lookup returns the word entries of lang ordered by descending token length
// in characters; equal lengths are ordered by token text. Unknown languages
// have no entries.
func (l *Lexicon) Lookup(lang i18n.Language) []Entry {
	return l.words[lang]
}

// Digits returns the single-character script digit entries of lang.
func (l *Lexicon) Digits(lang i18n.Language) []Entry {
	return l.digits[lang]
}

// Languages lists the selectable languages, sorted. Shared tables are not
// included.
func (l *Lexicon) Languages() []i18n.Language {
	out := make([]i18n.Language, 0, len(l.languages))
	for lang := range l.languages {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func foldTable(lang i18n.Language, raw table) (table, error) {
	out := table{
		Digits: make(map[string]string, len(raw.Digits)),
		Words:  make(map[string]string, len(raw.Words)),
	}
	for _, parent := range raw.Inherit {
		out.Inherit = append(out.Inherit, strings.ToLower(strings.TrimSpace(parent)))
	}

	for token, value := range raw.Digits {
		folded := Fold(token)
		if utf8.RuneCountInString(folded) != 1 {
			return table{}, fmt.Errorf("language %q: digit %q must be a single character", lang, token)
		}
		if err := putEntry(out.Digits, lang, folded, value); err != nil {
			return table{}, err
		}
	}

	for token, value := range raw.Words {
		folded := Fold(token)
		if folded == "" {
			return table{}, fmt.Errorf("language %q: word token is empty", lang)
		}
		if err := putEntry(out.Words, lang, folded, value); err != nil {
			return table{}, err
		}
	}

	return out, nil
}

func putEntry(dst map[string]string, lang i18n.Language, token string, value string) error {
	value = strings.TrimSpace(value)
	if !valuePattern.MatchString(value) {
		return fmt.Errorf("language %q: token %q has value %q; values may only contain digits and '.'", lang, token, value)
	}
	if existing, ok := dst[token]; ok && existing != value {
		return fmt.Errorf("language %q: token %q maps to both %q and %q", lang, token, existing, value)
	}
	dst[token] = value
	return nil
}

func build(tables map[i18n.Language]table, languages map[i18n.Language]bool) (*Lexicon, error) {
	lex := &Lexicon{
		tables:    tables,
		languages: languages,
		words:     make(map[i18n.Language][]Entry, len(languages)),
		digits:    make(map[i18n.Language][]Entry, len(languages)),
	}

	// Shared tables are resolved too so a broken one fails even when unused.
	for name := range tables {
		words := make(map[string]Entry)
		digits := make(map[string]Entry)
		if err := lex.resolve(name, nil, name, words, digits); err != nil {
			return nil, err
		}
		if languages[name] {
			lex.words[name] = ordered(words)
			lex.digits[name] = ordered(digits)
		}
	}

	return lex, nil
}

// resolve merges inherited tables first so the table's own entries win.
// owner is the nearest language on the inherit chain.
func (l *Lexicon) resolve(name i18n.Language, chain []i18n.Language, owner i18n.Language, words, digits map[string]Entry) error {
	for _, seen := range chain {
		if seen == name {
			return fmt.Errorf("lexicon inherit cycle: %s", joinLanguages(append(chain, name), " -> "))
		}
	}
	t, ok := l.tables[name]
	if !ok {
		return fmt.Errorf("lexicon inherit: unknown table %q (from %s)", name, joinLanguages(chain, " -> "))
	}
	chain = append(chain, name)
	if l.languages[name] {
		owner = name
	}

	for _, parent := range t.Inherit {
		if err := l.resolve(i18n.Language(parent), chain, owner, words, digits); err != nil {
			return err
		}
	}
	for token, value := range t.Digits {
		digits[token] = Entry{Token: token, Value: value, Language: owner}
	}
	for token, value := range t.Words {
		words[token] = Entry{Token: token, Value: value, Language: owner}
	}
	return nil
}

func ordered(entries map[string]Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		li := utf8.RuneCountInString(out[i].Token)
		lj := utf8.RuneCountInString(out[j].Token)
		if li != lj {
			return li > lj
		}
		return out[i].Token < out[j].Token
	})
	return out
}

func joinLanguages(langs []i18n.Language, sep string) string {
	parts := make([]string, 0, len(langs))
	for _, lang := range langs {
		parts = append(parts, string(lang))
	}
	return strings.Join(parts, sep)
}

func (t table) clone() table {
	out := table{
		Inherit: append([]string(nil), t.Inherit...),
		Digits:  make(map[string]string, len(t.Digits)),
		Words:   make(map[string]string, len(t.Words)),
	}
	for k, v := range t.Digits {
		out.Digits[k] = v
	}
	for k, v := range t.Words {
		out.Words[k] = v
	}
	return out
}
