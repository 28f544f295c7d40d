package models

import "time"

// StudyProgress tracks the daily streak for one course.
// LastStudyDate is a calendar date formatted as YYYY-MM-DD.
type StudyProgress struct {
	ID            int64     `json:"id" db:"id"`
	UserID        int64     `json:"user_id" db:"user_id"`
	CourseID      int64     `json:"course_id" db:"course_id"`
	LastStudyDate string    `json:"last_study_date" db:"last_study_date"`
	StreakDays    int       `json:"streak_days" db:"streak_days"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// StudyStats summarizes a user's study activity
type StudyStats struct {
	Courses         int `json:"courses"`
	TotalTopics     int `json:"total_topics"`
	CompletedTopics int `json:"completed_topics"`
	TotalQuizzes    int `json:"total_quizzes"`
	Streak          int `json:"streak"`
}
