package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rbright/agrivoice/internal/i18n"
	"github.com/rbright/agrivoice/internal/lexicon"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if _, err := i18n.Parse(cfg.Language); err != nil {
		return nil, fmt.Errorf("language: %w", err)
	}

	endpoints := []struct {
		key   string
		value string
	}{
		{key: "backend.crop_url", value: cfg.Backend.CropURL},
		{key: "backend.chat_url", value: cfg.Backend.ChatURL},
		{key: "backend.fertilizer_url", value: cfg.Backend.FertilizerURL},
	}
	for _, endpoint := range endpoints {
		if err := validateURL(endpoint.key, endpoint.value, "http", "https"); err != nil {
			return nil, err
		}
	}
	if cfg.Backend.TimeoutMS <= 0 {
		return nil, fmt.Errorf("backend.timeout_ms must be > 0")
	}

	if err := validateURL("recognizer.url", cfg.Recognizer.URL, "http", "https", "ws", "wss"); err != nil {
		return nil, err
	}
	if cfg.Recognizer.DialTimeoutMS <= 0 {
		return nil, fmt.Errorf("recognizer.dial_timeout_ms must be > 0")
	}
	if strings.Contains(cfg.Recognizer.HealthGRPC, "://") {
		return nil, fmt.Errorf("recognizer.health_grpc must be host:port, got %q", cfg.Recognizer.HealthGRPC)
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "desktop" && backend != "beeep" && backend != "none" {
		return nil, fmt.Errorf("indicator.backend must be one of: desktop, beeep, none")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}
	if backend == "none" && cfg.Indicator.Enable {
		warnings = append(warnings, Warning{Message: "indicator.enable=true with indicator.backend=none; only sound cues will be emitted"})
	}

	if len(cfg.Lexicon.Extra) > 0 {
		if _, err := lexicon.Default().WithExtra(cfg.Lexicon.Extra); err != nil {
			return nil, err
		}
	}

	return warnings, nil
}

func validateURL(key string, raw string, schemes ...string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%s must not be empty", key)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	for _, scheme := range schemes {
		if strings.EqualFold(parsed.Scheme, scheme) {
			if parsed.Host == "" {
				return fmt.Errorf("%s must include a host", key)
			}
			return nil
		}
	}
	return fmt.Errorf("%s must use one of: %s", key, strings.Join(schemes, ", "))
}
