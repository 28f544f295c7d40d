package models

import "time"

// Repetition is the SM-2 review state of one topic for one user
type Repetition struct {
	ID               int64      `json:"id" db:"id"`
	UserID           int64      `json:"user_id" db:"user_id"`
	TopicID          int64      `json:"topic_id" db:"topic_id"`
	RepetitionNumber int        `json:"repetition_number" db:"repetition_number"`
	EasinessFactor   float64    `json:"easiness_factor" db:"easiness_factor"`
	IntervalDays     int        `json:"interval_days" db:"interval_days"`
	LastQuality      int        `json:"last_quality" db:"last_quality"`
	NextReviewDate   time.Time  `json:"next_review_date" db:"next_review_date"`
	LastReviewDate   *time.Time `json:"last_review_date" db:"last_review_date"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// DueRepetition is a repetition whose review date has passed, with the names
// needed to show it
type DueRepetition struct {
	Repetition
	TopicTitle string `json:"topic_title" db:"topic_title"`
	CourseName string `json:"course_name" db:"course_name"`
}
