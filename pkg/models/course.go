package models

import "time"

// Course groups a user's study topics
type Course struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	TotalTopics     int       `json:"total_topics" db:"total_topics"`
	CompletedTopics int       `json:"completed_topics" db:"completed_topics"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Percent returns completion as a whole percentage
func (c Course) Percent() int {
	if c.TotalTopics == 0 {
		return 0
	}
	return c.CompletedTopics * 100 / c.TotalTopics
}

// CourseSpec describes a course to load, topics in week order.
// Weeks optionally carries an explicit week per topic.
type CourseSpec struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
	Weeks       []int    `json:"weeks,omitempty"`
}

// WeekOf returns the week number of the i-th topic
func (c CourseSpec) WeekOf(i int) int {
	if i < len(c.Weeks) && c.Weeks[i] > 0 {
		return c.Weeks[i]
	}
	return i + 1
}
