package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Minimum spacing between LLM calls of one user
	LLMInterval time.Duration
	// Calls allowed in a burst before the interval applies
	LLMBurst int
	// Questions generated per quiz
	QuizQuestions int
	// Topics listed by /bugun
	NextTopicsLimit int
	// Due reviews listed by /tekrar and /bugun
	ReviewsLimit int
	// Attempts listed by /quiz_sonuc
	QuizResultsLimit int
	// Weeks shown by /plan
	PlanWeeks int
	// Default horizon of /yaklasan
	UpcomingDays int
	// Longest text sent in one message
	MaxMessageLength int
	// Largest document accepted for course import
	MaxDocumentSize int
	// Long polling timeout in seconds
	UpdateTimeout int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		LLMInterval:      3 * time.Second,
		LLMBurst:         3,
		QuizQuestions:    5,
		NextTopicsLimit:  3,
		ReviewsLimit:     5,
		QuizResultsLimit: 5,
		PlanWeeks:        14,
		UpcomingDays:     7,
		MaxMessageLength: 4000,
		MaxDocumentSize:  5 << 20,
		UpdateTimeout:    60,
	}
}
