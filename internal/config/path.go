package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// EnvPath names a config file when --config is not given.
const EnvPath = "AGRIVOICE_CONFIG"

// ResolvePath picks the config file: the explicit path, then $AGRIVOICE_CONFIG,
// then agrivoice/config.jsonc under $XDG_CONFIG_HOME or ~/.config.
func ResolvePath(explicit string) (string, error) {
	for _, candidate := range []string{explicit, os.Getenv(EnvPath)} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed, nil
		}
	}

	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New("unable to resolve user home for config fallback")
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "agrivoice", "config.jsonc"), nil
}
