// Package doctor runs runtime readiness diagnostics for config, backend
// services, the recognizer gateway, and audio.
package doctor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/agrivoice/internal/audio"
	"github.com/rbright/agrivoice/internal/config"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	configMsg := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMsg = fmt.Sprintf("%q not found, using defaults", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMsg})

	backend := cfg.Config.Backend
	checks = append(checks,
		checkEndpoint(ctx, "backend.crop_url", backend.CropURL),
		checkEndpoint(ctx, "backend.chat_url", backend.ChatURL),
		checkEndpoint(ctx, "backend.fertilizer_url", backend.FertilizerURL),
	)

	checks = append(checks, checkRecognizer(ctx, cfg.Config.Recognizer))
	if target := strings.TrimSpace(cfg.Config.Recognizer.HealthGRPC); target != "" {
		checks = append(checks, checkGRPCHealth(ctx, target, time.Duration(cfg.Config.Recognizer.DialTimeoutMS)*time.Millisecond))
	}

	if cfg.Config.Indicator.Enable && cfg.Config.Indicator.Backend == "desktop" {
		checks = append(checks, checkBinary("busctl", "desktop notifications use busctl"))
	}

	checks = append(checks, checkAudioSelection(ctx, cfg.Config))

	return Report{Checks: checks}
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkEndpoint passes when the backend answers at all. The endpoints only
// accept POST, so a 405 still proves the service is up.
func checkEndpoint(ctx context.Context, name string, rawURL string) Check {
	if strings.TrimSpace(rawURL) == "" {
		return Check{Name: name, Pass: false, Message: "url is empty"}
	}

	reqCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("invalid url: %v", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, rawURL)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("reachable at %s (HTTP %d)", rawURL, resp.StatusCode)}
}

// checkRecognizer dials the gateway host without opening a stream.
func checkRecognizer(ctx context.Context, cfg config.RecognizerConfig) Check {
	const name = "recognizer.url"
	parsed, err := url.Parse(strings.TrimSpace(cfg.URL))
	if err != nil || parsed.Host == "" {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("invalid url %q", cfg.URL)}
	}

	host := parsed.Host
	if parsed.Port() == "" {
		port := "80"
		if parsed.Scheme == "https" || parsed.Scheme == "wss" {
			port = "443"
		}
		host = net.JoinHostPort(parsed.Hostname(), port)
	}

	dialer := net.Dialer{Timeout: probeTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", host)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("dial %s failed: %v", host, err)}
	}
	_ = conn.Close()
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("listening at %s", host)}
}
