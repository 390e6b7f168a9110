package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Language: "en",
		Backend: BackendConfig{
			CropURL:       "http://127.0.0.1:5001/recommend-crop",
			ChatURL:       "http://127.0.0.1:5000/chat",
			FertilizerURL: "http://127.0.0.1:5002/predict",
			TimeoutMS:     30000,
		},
		Recognizer: RecognizerConfig{
			URL:           "http://127.0.0.1:8765/listen",
			HealthGRPC:    "",
			DialTimeoutMS: 3000,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "desktop",
			DesktopAppName: "agrivoice",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		Playback: PlaybackConfig{Enable: true},
		Lexicon:  LexiconConfig{Extra: map[string]map[string]string{}},
		Debug:    DebugConfig{},
	}
}
