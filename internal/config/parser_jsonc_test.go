package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeJSONCRemovesCommentsAndTrailingCommas(t *testing.T) {
	input := `
{
  // line comment
  "items": [
    "one", /* block comment */
    "two",
  ],
  "nested": {
    "enabled": true,
  },
}
`

	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.NotContains(t, normalized, "//")
	require.NotContains(t, normalized, "/*")
	require.NotContains(t, normalized, ",]")
	require.NotContains(t, normalized, ",}")
}

func TestNormalizeJSONCRetainsCommentLikeTextInsideStrings(t *testing.T) {
	input := `{"value":"contains // and /* comment-like */ text",}`
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Contains(t, normalized, "// and /* comment-like */")
}

func TestNormalizeJSONCUnterminatedBlockCommentFails(t *testing.T) {
	_, err := normalizeJSONC("{ /* unterminated ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated block comment")
}

func TestEnsureSingleJSONValueRejectsExtraPayload(t *testing.T) {
	decoder := json.NewDecoder(strings.NewReader(`{"one":1}{"two":2}`))
	var payload map[string]any
	require.NoError(t, decoder.Decode(&payload))

	err := ensureSingleJSONValue(decoder)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"
	line, col := offsetToLineCol(content, 1)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)

	line, col = offsetToLineCol(content, 8) // line2, col2
	require.Equal(t, 2, line)
	require.Equal(t, 2, col)

	line, col = offsetToLineCol(content, 999)
	require.Equal(t, 3, line)
	require.Equal(t, 5, col)
}

func TestParseJSONCAppliesSections(t *testing.T) {
	cfg, warnings, err := parseJSONC(`{
  // Telugu by default
  "language": "te",
  "backend": {
    "crop_url": " http://10.0.0.2:5001/recommend-crop ",
    "timeout_ms": 5000,
  },
  "recognizer": {"url": "ws://10.0.0.3:8765/listen", "health_grpc": "10.0.0.3:50051"},
  "indicator": {"backend": "beeep", "sound_enable": false},
  "playback": {"enable": false},
  "debug": {"audio_dump": true, "verbose": true},
}`, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, "te", cfg.Language)
	require.Equal(t, "http://10.0.0.2:5001/recommend-crop", cfg.Backend.CropURL)
	require.Equal(t, Default().Backend.ChatURL, cfg.Backend.ChatURL)
	require.Equal(t, 5000, cfg.Backend.TimeoutMS)
	require.Equal(t, "ws://10.0.0.3:8765/listen", cfg.Recognizer.URL)
	require.Equal(t, "10.0.0.3:50051", cfg.Recognizer.HealthGRPC)
	require.Equal(t, "beeep", cfg.Indicator.Backend)
	require.False(t, cfg.Indicator.SoundEnable)
	require.True(t, cfg.Indicator.Enable)
	require.False(t, cfg.Playback.Enable)
	require.True(t, cfg.Debug.EnableAudioDump)
	require.True(t, cfg.Debug.Verbose)
}

func TestParseJSONCLexiconExtra(t *testing.T) {
	cfg, warnings, err := parseJSONC(`{
  "lexicon": {
    "extra": {
      "te": {"పదకొండు": "11", " ": "1"},
      "en": {"dozen": "12"}
    }
  }
}`, Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "lexicon.extra.te")
	require.Equal(t, map[string]string{"పదకొండు": "11"}, cfg.Lexicon.Extra["te"])
	require.Equal(t, map[string]string{"dozen": "12"}, cfg.Lexicon.Extra["en"])
}

func TestParseJSONCLexiconRejectsEmptyLanguage(t *testing.T) {
	_, _, err := parseJSONC(`{"lexicon":{"extra":{" ":{"x":"1"}}}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty language code")
}

func TestParseJSONCLexiconRejectsInvalidValue(t *testing.T) {
	_, _, err := parseJSONC(`{"lexicon":{"extra":{"en":{"lots":"many"}}}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "lots")
}

func TestParseJSONCRejectsUnknownFields(t *testing.T) {
	_, _, err := parseJSONC(`{"riva":{"grpc":"127.0.0.1:50051"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseJSONCTrimsIndicatorFields(t *testing.T) {
	cfg, _, err := parseJSONC(`{
  "indicator": {
    "backend": " desktop ",
    "desktop_app_name": "  agrivoice-indicator  "
  }
}`, Default())
	require.NoError(t, err)
	require.Equal(t, "desktop", cfg.Indicator.Backend)
	require.Equal(t, "agrivoice-indicator", cfg.Indicator.DesktopAppName)
}

func TestParseJSONCRejectsMultipleTopLevelValues(t *testing.T) {
	_, _, err := parseJSONC(`{"playback":{"enable":false}}{"playback":{"enable":true}}`, Default())
	require.Error(t, err)
	require.True(
		t,
		strings.Contains(err.Error(), "multiple JSON values") || strings.Contains(err.Error(), "unknown field"),
		"unexpected error: %v",
		err,
	)
}

func TestParseJSONCTypeErrorIncludesLocation(t *testing.T) {
	_, _, err := parseJSONC(`{
  "backend": {"timeout_ms": "fast"}
}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")
	require.Contains(t, err.Error(), "column")
}

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, _, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseRejectsNonObject(t *testing.T) {
	_, _, err := Parse("language = te", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "JSONC object")
}
