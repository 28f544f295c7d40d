package models

import "time"

// Quiz is a recorded quiz attempt on a topic
type Quiz struct {
	ID             int64     `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	TopicID        int64     `json:"topic_id" db:"topic_id"`
	Score          int       `json:"score" db:"score"`
	TotalQuestions int       `json:"total_questions" db:"total_questions"`
	CompletedAt    time.Time `json:"completed_at" db:"completed_at"`
}

// Percent returns the score as a whole percentage
func (q Quiz) Percent() int {
	if q.TotalQuestions <= 0 {
		return 0
	}
	return q.Score * 100 / q.TotalQuestions
}

// QuizResult is a quiz attempt with its topic title
type QuizResult struct {
	Quiz
	TopicTitle string `json:"topic_title" db:"topic_title"`
}

// QuizQuestion is one generated multiple-choice question. Options carry
// their letter prefix ("A) ...") and Correct is the letter alone.
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     string   `json:"correct"`
	Explanation string   `json:"explanation"`
}
