package models

import (
	"strings"
	"time"
)

// Priority is the urgency level of a task
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

var priorityWords = map[string]Priority{
	"düşük":  PriorityLow,
	"dusuk":  PriorityLow,
	"low":    PriorityLow,
	"orta":   PriorityMedium,
	"medium": PriorityMedium,
	"yüksek": PriorityHigh,
	"yuksek": PriorityHigh,
	"high":   PriorityHigh,
}

// ParsePriority maps a Turkish or English keyword to a priority.
// Unknown input falls back to PriorityMedium.
func ParsePriority(s string) Priority {
	if p, ok := priorityWords[strings.ToLower(strings.TrimSpace(s))]; ok {
		return p
	}
	return PriorityMedium
}

// Label returns the Turkish display name of the priority
func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Düşük"
	case PriorityHigh:
		return "Yüksek"
	default:
		return "Orta"
	}
}

// Emoji returns the marker shown next to the priority
func (p Priority) Emoji() string {
	switch p {
	case PriorityLow:
		return "🟢"
	case PriorityMedium:
		return "🟡"
	case PriorityHigh:
		return "🔴"
	default:
		return "⚪"
	}
}

// Task is an agenda item with an optional due date
type Task struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Priority    Priority   `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
