package models

import "time"

// Topic is a unit of course content that can be marked complete
type Topic struct {
	ID          int64      `json:"id" db:"id"`
	CourseID    int64      `json:"course_id" db:"course_id"`
	Title       string     `json:"title" db:"title"`
	WeekNumber  int        `json:"week_number" db:"week_number"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// NextTopic is an incomplete topic with its course name
type NextTopic struct {
	TopicID    int64  `json:"topic_id" db:"topic_id"`
	CourseID   int64  `json:"course_id" db:"course_id"`
	CourseName string `json:"course_name" db:"course_name"`
	TopicTitle string `json:"topic_title" db:"topic_title"`
	WeekNumber int    `json:"week_number" db:"week_number"`
}
