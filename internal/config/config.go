package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingConfig is returned when a required variable is not set
var ErrMissingConfig = errors.New("missing required configuration")

// Config holds every environment-provided setting of the bot
type Config struct {
	TelegramToken  string
	GeminiAPIKey   string
	ReplicateToken string

	DatabaseURL string
	Timezone    *time.Location

	MaxChatHistory        int
	ContextWindow         int
	ReminderCheckInterval time.Duration

	GeminiModel       string
	GeminiTemperature float64
	GeminiMaxTokens   int

	// Optional second model used when Gemini fails
	OpenAIAPIKey string
	OpenAIModel  string

	LogMode string
	TempDir string
}

// Defaults mirror the values the bot shipped with
const (
	DefaultDatabaseURL    = "sqlite://data/assistant.db"
	DefaultTimezone       = "Europe/Istanbul"
	DefaultMaxChatHistory = 50
	DefaultContextWindow  = 10
	DefaultReminderCheck  = 60 * time.Second
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 2048
)

// Load reads .env (if present) and the process environment.
// Missing secrets produce an error wrapping ErrMissingConfig.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		ReplicateToken: os.Getenv("REPLICATE_API_TOKEN"),
		DatabaseURL:    getString("DATABASE_URL", DefaultDatabaseURL),
		GeminiModel:    getString("GEMINI_MODEL", DefaultGeminiModel),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getString("OPENAI_MODEL", DefaultOpenAIModel),
		LogMode:        getString("LOG_MODE", "dev"),
		TempDir:        getString("TEMP_DIR", os.TempDir()),
	}

	var missing []string
	if cfg.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if cfg.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	loc, err := time.LoadLocation(getString("TIMEZONE", DefaultTimezone))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Timezone = loc

	if cfg.MaxChatHistory, err = getInt("MAX_CHAT_HISTORY", DefaultMaxChatHistory); err != nil {
		return nil, err
	}
	if cfg.ContextWindow, err = getInt("CONTEXT_WINDOW", DefaultContextWindow); err != nil {
		return nil, err
	}
	if cfg.GeminiMaxTokens, err = getInt("GEMINI_MAX_TOKENS", DefaultMaxTokens); err != nil {
		return nil, err
	}

	seconds, err := getInt("REMINDER_CHECK_INTERVAL", int(DefaultReminderCheck/time.Second))
	if err != nil {
		return nil, err
	}
	cfg.ReminderCheckInterval = time.Duration(seconds) * time.Second

	cfg.GeminiTemperature = DefaultTemperature
	if v := os.Getenv("GEMINI_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid GEMINI_TEMPERATURE %q: %w", v, err)
		}
		cfg.GeminiTemperature = t
	}

	return cfg, nil
}

// UpscaleEnabled reports whether the image upscale feature can run
func (c *Config) UpscaleEnabled() bool {
	return c.ReplicateToken != ""
}

// FallbackEnabled reports whether an OpenAI model backs up Gemini
func (c *Config) FallbackEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, v)
	}
	return n, nil
}
