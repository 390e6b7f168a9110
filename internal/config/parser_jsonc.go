package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

type jsoncConfig struct {
	Language   *string          `json:"language"`
	Backend    *jsoncBackend    `json:"backend"`
	Recognizer *jsoncRecognizer `json:"recognizer"`
	Audio      *jsoncAudio      `json:"audio"`
	Indicator  *jsoncIndicator  `json:"indicator"`
	Playback   *jsoncPlayback   `json:"playback"`
	Lexicon    *jsoncLexicon    `json:"lexicon"`
	Debug      *jsoncDebug      `json:"debug"`
}

type jsoncBackend struct {
	CropURL       *string `json:"crop_url"`
	ChatURL       *string `json:"chat_url"`
	FertilizerURL *string `json:"fertilizer_url"`
	TimeoutMS     *int    `json:"timeout_ms"`
}

type jsoncRecognizer struct {
	URL           *string `json:"url"`
	HealthGRPC    *string `json:"health_grpc"`
	DialTimeoutMS *int    `json:"dial_timeout_ms"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncPlayback struct {
	Enable *bool `json:"enable"`
}

type jsoncLexicon struct {
	Extra map[string]map[string]string `json:"extra"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
	Verbose   *bool `json:"verbose"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Language != nil {
		cfg.Language = strings.TrimSpace(*payload.Language)
	}

	if payload.Backend != nil {
		setString(&cfg.Backend.CropURL, payload.Backend.CropURL)
		setString(&cfg.Backend.ChatURL, payload.Backend.ChatURL)
		setString(&cfg.Backend.FertilizerURL, payload.Backend.FertilizerURL)
		if payload.Backend.TimeoutMS != nil {
			cfg.Backend.TimeoutMS = *payload.Backend.TimeoutMS
		}
	}

	if payload.Recognizer != nil {
		setString(&cfg.Recognizer.URL, payload.Recognizer.URL)
		setString(&cfg.Recognizer.HealthGRPC, payload.Recognizer.HealthGRPC)
		if payload.Recognizer.DialTimeoutMS != nil {
			cfg.Recognizer.DialTimeoutMS = *payload.Recognizer.DialTimeoutMS
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		setString(&cfg.Indicator.Backend, payload.Indicator.Backend)
		setString(&cfg.Indicator.DesktopAppName, payload.Indicator.DesktopAppName)
		if payload.Indicator.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *payload.Indicator.SoundEnable
		}
		if payload.Indicator.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *payload.Indicator.ErrorTimeoutMS
		}
	}

	if payload.Playback != nil && payload.Playback.Enable != nil {
		cfg.Playback.Enable = *payload.Playback.Enable
	}

	if payload.Lexicon != nil && payload.Lexicon.Extra != nil {
		merged := make(map[string]map[string]string, len(cfg.Lexicon.Extra)+len(payload.Lexicon.Extra))
		for lang, words := range cfg.Lexicon.Extra {
			merged[lang] = words
		}

		langs := make([]string, 0, len(payload.Lexicon.Extra))
		for lang := range payload.Lexicon.Extra {
			langs = append(langs, lang)
		}
		sort.Strings(langs)

		for _, rawLang := range langs {
			lang := strings.TrimSpace(rawLang)
			if lang == "" {
				return nil, fmt.Errorf("lexicon.extra contains an empty language code")
			}
			words := make(map[string]string, len(payload.Lexicon.Extra[rawLang]))
			for token, value := range payload.Lexicon.Extra[rawLang] {
				token = strings.TrimSpace(token)
				if token == "" {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("lexicon.extra.%s: skipping empty token", lang)})
					continue
				}
				words[token] = strings.TrimSpace(value)
			}
			merged[lang] = words
		}
		cfg.Lexicon.Extra = merged
	}

	if payload.Debug != nil && payload.Debug.AudioDump != nil {
		cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
	}
	if payload.Debug != nil && payload.Debug.Verbose != nil {
		cfg.Debug.Verbose = *payload.Debug.Verbose
	}

	return warnings, nil
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
