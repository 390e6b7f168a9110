package form

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/rbright/agrivoice/internal/i18n"
)

var ErrUnknownField = errors.New("unknown form field")

var numericInput = regexp.MustCompile(`^[0-9]*\.?[0-9]*$`)

// Record holds the raw string value of every field of one schema. Values are
// only changed by keystroke input or committed capture results.
type Record struct {
	schema Schema

	mu     sync.RWMutex
	values map[string]string
}

func NewRecord(schema Schema) *Record {
	r := &Record{schema: schema}
	r.Reset()
	return r
}

func (r *Record) Schema() Schema {
	return r.schema
}

// Commit overwrites field with value. Later commits win.
func (r *Record) Commit(field string, value string) error {
	if _, ok := r.schema.Field(field); !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, r.schema.Name, field)
	}

	r.mu.Lock()
	r.values[field] = value
	r.mu.Unlock()
	return nil
}

// Input applies one keystroke edit. Numeric fields only accept digits with at
// most one dot; rejected input keeps the previous value, which is returned.
func (r *Record) Input(field string, raw string) (string, error) {
	def, ok := r.schema.Field(field)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrUnknownField, r.schema.Name, field)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if def.Text || numericInput.MatchString(raw) {
		r.values[field] = raw
	}
	return r.values[field], nil
}

// Values returns a copy of every field value.
func (r *Record) Values() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Reset clears every field.
func (r *Record) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values = make(map[string]string, len(r.schema.Fields))
	for _, field := range r.schema.Fields {
		r.values[field.Name] = ""
	}
}

// Payload validates the record for submission and returns numeric fields as
// float64 and text fields as trimmed strings. Every field is required.
func (r *Record) Payload() (map[string]any, error) {
	values := r.Values()

	for _, field := range r.schema.Fields {
		if strings.TrimSpace(values[field.Name]) == "" {
			return nil, &ValidationError{Kind: ValidationRequired}
		}
	}

	payload := make(map[string]any, len(r.schema.Fields))
	for _, field := range r.schema.Fields {
		raw := strings.TrimSpace(values[field.Name])
		if field.Text {
			payload[field.Name] = raw
			continue
		}
		number, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &ValidationError{Kind: ValidationInvalidNumber, Field: field, Value: values[field.Name]}
		}
		payload[field.Name] = number
	}
	return payload, nil
}

type ValidationKind string

const (
	ValidationRequired      ValidationKind = "required"
	ValidationInvalidNumber ValidationKind = "invalid_number"
)

// ValidationError rejects a submission before any request is sent.
type ValidationError struct {
	Kind  ValidationKind
	Field Field
	Value string
}

func (e *ValidationError) Error() string {
	if e.Kind == ValidationInvalidNumber {
		return fmt.Sprintf("invalid number for %s: %q", e.Field.Name, e.Value)
	}
	return "all fields are required"
}

// Message renders the error in lang using the localized field label.
func (e *ValidationError) Message(lang i18n.Language) string {
	if e.Kind == ValidationInvalidNumber {
		return i18n.T(lang, i18n.KeyInvalidNumber, i18n.T(lang, e.Field.Label), e.Value)
	}
	return i18n.T(lang, i18n.KeyAllFieldsRequired)
}
