package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/pkg/models"
)

// DefaultOpenAIURL is the public chat completions endpoint
const DefaultOpenAIURL = "https://api.openai.com/v1"

// ChatGPTConfig configures the ChatGPT client
type ChatGPTConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string
	Timeout     time.Duration
}

// ChatGPT represents a client for the OpenAI ChatGPT API
type ChatGPT struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// NewChatGPT creates a new ChatGPT client
func NewChatGPT(cfg ChatGPTConfig) (*ChatGPT, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai model is not set")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &ChatGPT{
		apiKey:      cfg.APIKey,
		apiURL:      strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Message represents a message in the ChatGPT conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the ChatGPT API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the ChatGPT API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends the conversation and returns the model's text. Model turns
// are sent with the assistant role.
func (c *ChatGPT) Generate(ctx context.Context, system string, history []models.Turn, message string) (string, error) {
	request := ChatRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	if system != "" {
		request.Messages = append(request.Messages, Message{Role: "system", Content: system})
	}
	for _, turn := range history {
		role := "user"
		if turn.Role == models.RoleModel {
			role = "assistant"
		}
		request.Messages = append(request.Messages, Message{Role: role, Content: turn.Content})
	}
	request.Messages = append(request.Messages, Message{Role: "user", Content: message})

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var response ChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if len(response.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(response.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Fallback asks Primary first and Secondary when Primary fails. A cancelled
// request is not retried.
type Fallback struct {
	Primary   LLM
	Secondary LLM
	log       *logger.Logger
}

// WithFallback chains two models. A nil secondary returns primary unchanged.
func WithFallback(primary, secondary LLM, log *logger.Logger) LLM {
	if secondary == nil {
		return primary
	}
	return &Fallback{Primary: primary, Secondary: secondary, log: log.With("component", "llm")}
}

// Generate implements LLM
func (f *Fallback) Generate(ctx context.Context, system string, history []models.Turn, message string) (string, error) {
	reply, err := f.Primary.Generate(ctx, system, history, message)
	if err == nil {
		return reply, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "", err
	}

	f.log.Warn("Primary model failed, using fallback", "error", err)
	reply, fbErr := f.Secondary.Generate(ctx, system, history, message)
	if fbErr != nil {
		return "", fmt.Errorf("%w (fallback: %v)", err, fbErr)
	}
	return reply, nil
}
