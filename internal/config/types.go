// Package config resolves, parses, validates, and defaults agrivoice configuration.
package config

// Config is the fully materialized runtime configuration used by agrivoice.
type Config struct {
	Language   string
	Backend    BackendConfig
	Recognizer RecognizerConfig
	Audio      AudioConfig
	Indicator  IndicatorConfig
	Playback   PlaybackConfig
	Lexicon    LexiconConfig
	Debug      DebugConfig
}

// BackendConfig points at the inference endpoints.
type BackendConfig struct {
	CropURL       string
	ChatURL       string
	FertilizerURL string
	TimeoutMS     int
}

// RecognizerConfig controls the speech gateway connection.
type RecognizerConfig struct {
	URL           string
	HealthGRPC    string
	DialTimeoutMS int
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// IndicatorConfig controls desktop notifications and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	ErrorTimeoutMS int
}

// PlaybackConfig controls chat reply playback.
type PlaybackConfig struct {
	Enable bool
}

// LexiconConfig adds spoken words on top of the built-in numeral tables.
// Extra maps language code -> token -> canonical value.
type LexiconConfig struct {
	Extra map[string]map[string]string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
	// Verbose lowers the log level to debug.
	Verbose bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
