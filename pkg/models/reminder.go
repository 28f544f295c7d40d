package models

import (
	"strings"
	"time"
)

// Recurrence describes how a reminder repeats
type Recurrence string

const (
	RecurrenceNone    Recurrence = ""
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// ParseRecurrence accepts Turkish and English names of a repeat pattern
func ParseRecurrence(s string) (Recurrence, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "günlük", "gunluk", "her_gün", "her_gun":
		return RecurrenceDaily, true
	case "weekly", "haftalık", "haftalik":
		return RecurrenceWeekly, true
	case "monthly", "aylık", "aylik":
		return RecurrenceMonthly, true
	}
	return RecurrenceNone, false
}

// Reminder is a message to push to the user at RemindAt
type Reminder struct {
	ID                int64      `json:"id" db:"id"`
	UserID            int64      `json:"user_id" db:"user_id"`
	Message           string     `json:"message" db:"message"`
	RemindAt          time.Time  `json:"remind_at" db:"remind_at"`
	IsRecurring       bool       `json:"is_recurring" db:"is_recurring"`
	RecurrencePattern Recurrence `json:"recurrence_pattern" db:"recurrence_pattern"`
	IsSent            bool       `json:"is_sent" db:"is_sent"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// DueReminder is a pending reminder together with the chat it goes to
type DueReminder struct {
	Reminder
	TelegramID int64 `json:"telegram_id" db:"telegram_id"`
}
