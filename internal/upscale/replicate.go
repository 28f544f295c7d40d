// Package upscale enlarges photos through the Replicate Real-ESRGAN model.
package upscale

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.replicate.com/v1"
	// Real-ESRGAN
	DefaultModelVersion = "42fed1c4974146d4d2414e2be2c5277c7fcf05fcc3a73abf41610695738c1d7b"
	Scale               = 4
)

// ErrPredictionFailed is returned when Replicate finishes without output
var ErrPredictionFailed = errors.New("prediction failed")

// Upscaler turns a local image into the URL of its upscaled version
type Upscaler interface {
	Upscale(ctx context.Context, path string) (string, error)
}

// ClientConfig configures the Replicate client
type ClientConfig struct {
	Token        string
	BaseURL      string
	Version      string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client represents a client for the Replicate predictions API
type Client struct {
	token        string
	baseURL      string
	version      string
	pollInterval time.Duration
	client       *http.Client
}

// NewClient creates a new Replicate client
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("REPLICATE_API_TOKEN is not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = DefaultModelVersion
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		token:        cfg.Token,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		version:      cfg.Version,
		pollInterval: cfg.PollInterval,
		client:       &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// PredictionRequest represents a request to create a prediction
type PredictionRequest struct {
	Version string         `json:"version"`
	Input   map[string]any `json:"input"`
}

// Prediction represents a prediction as returned by the API
type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func (p *Prediction) terminal() bool {
	switch p.Status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

// outputURL accepts both a bare string and a list of strings
func (p *Prediction) outputURL() string {
	var single string
	if json.Unmarshal(p.Output, &single) == nil {
		return single
	}
	var list []string
	if json.Unmarshal(p.Output, &list) == nil && len(list) > 0 {
		return list[len(list)-1]
	}
	return ""
}

// Upscale uploads the image as a data URI and waits for the prediction
func (c *Client) Upscale(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	request := PredictionRequest{
		Version: c.version,
		Input: map[string]any{
			"image":        dataURI(data),
			"scale":        Scale,
			"face_enhance": false,
		},
	}

	pred, err := c.do(ctx, http.MethodPost, c.baseURL+"/predictions", request)
	if err != nil {
		return "", err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for !pred.terminal() {
		if pred.URLs.Get == "" {
			return "", fmt.Errorf("prediction %s has no polling url", pred.ID)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
		if pred, err = c.do(ctx, http.MethodGet, pred.URLs.Get, nil); err != nil {
			return "", err
		}
	}

	if pred.Status != "succeeded" {
		return "", fmt.Errorf("%w: %s %v", ErrPredictionFailed, pred.Status, pred.Error)
	}
	url := pred.outputURL()
	if url == "" {
		return "", fmt.Errorf("%w: empty output", ErrPredictionFailed)
	}
	return url, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload any) (*Prediction, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var pred Prediction
	if err := json.Unmarshal(respBody, &pred); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &pred, nil
}

func dataURI(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
