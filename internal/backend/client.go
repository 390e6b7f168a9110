// Package backend calls the crop, fertilizer and chat inference endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rbright/agrivoice/internal/i18n"
)

const maxResponseBytes = 32 << 20

type Config struct {
	CropURL       string
	ChatURL       string
	FertilizerURL string
	Timeout       time.Duration
}

// Reply is one assistant answer. Audio is a base64 clip and may be empty.
type Reply struct {
	Text  string
	Audio string
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type cropResponse struct {
	RecommendedCrop *string `json:"recommended_crop"`
	Error           string  `json:"error"`
}

// RecommendCrop posts the crop form and returns the lower-cased crop name.
func (c *Client) RecommendCrop(ctx context.Context, payload map[string]any) (string, error) {
	var resp cropResponse
	if err := c.postJSON(ctx, "crop", c.cfg.CropURL, payload, &resp); err != nil {
		return "", err
	}
	if resp.RecommendedCrop == nil || strings.TrimSpace(*resp.RecommendedCrop) == "" {
		return "", &Error{Kind: KindMalformed, Endpoint: "crop", Detail: "missing recommended_crop"}
	}
	return strings.ToLower(strings.TrimSpace(*resp.RecommendedCrop)), nil
}

type fertilizerResponse struct {
	Fertilizer *string `json:"fertilizer"`
	Error      string  `json:"error"`
}

// PredictFertilizer posts the fertilizer form and returns the fertilizer name.
func (c *Client) PredictFertilizer(ctx context.Context, payload map[string]any) (string, error) {
	var resp fertilizerResponse
	if err := c.postJSON(ctx, "fertilizer", c.cfg.FertilizerURL, payload, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", &Error{Kind: KindApplication, Endpoint: "fertilizer", Status: http.StatusOK, Detail: resp.Error}
	}
	if resp.Fertilizer == nil || strings.TrimSpace(*resp.Fertilizer) == "" {
		return "", &Error{Kind: KindMalformed, Endpoint: "fertilizer", Detail: "missing fertilizer"}
	}
	return strings.TrimSpace(*resp.Fertilizer), nil
}

type chatResponse struct {
	Response *string `json:"response"`
	Audio    *string `json:"audio"`
	Error    string  `json:"error"`
}

// Chat sends one user message as form data and returns the assistant reply in
// lang.
func (c *Client) Chat(ctx context.Context, text string, lang i18n.Language) (Reply, error) {
	form := url.Values{}
	form.Set("user_input", text)
	form.Set("target_language", string(lang))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ChatURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Reply{}, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp chatResponse
	if err := c.do(req, "chat", &resp); err != nil {
		return Reply{}, err
	}
	if resp.Response == nil {
		return Reply{}, &Error{Kind: KindMalformed, Endpoint: "chat", Detail: "missing response"}
	}

	reply := Reply{Text: *resp.Response}
	if resp.Audio != nil {
		reply.Audio = *resp.Audio
	}
	return reply, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, target string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint, dest)
}

func (c *Client) do(req *http.Request, endpoint string, dest any) error {
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", "endpoint", endpoint, "error", err.Error())
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}

	c.logger.Debug("backend response",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			Kind:     KindApplication,
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Detail:   errorDetail(body, resp),
		}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return &Error{Kind: KindMalformed, Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}
	return nil
}

// errorDetail prefers the JSON "error" field, then the status text.
func errorDetail(body []byte, resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return strings.TrimSpace(payload.Error)
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
}
