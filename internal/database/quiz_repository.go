package database

import (
	"context"
	"fmt"

	"github.com/example/studybot/pkg/models"
)

// QuizRepository handles database operations for quiz results
type QuizRepository struct {
	q Queryer
}

// NewQuizRepository creates a new repository instance
func NewQuizRepository(q Queryer) *QuizRepository {
	return &QuizRepository{q: q}
}

// Insert appends a quiz result
func (r *QuizRepository) Insert(ctx context.Context, quiz *models.Quiz) error {
	quiz.CompletedAt = utc(quiz.CompletedAt)
	id, err := insertID(ctx, r.q,
		`INSERT INTO quizzes (user_id, topic_id, score, total_questions, completed_at)
		VALUES (?, ?, ?, ?, ?)`,
		quiz.UserID, quiz.TopicID, quiz.Score, quiz.TotalQuestions, quiz.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save quiz result: %w", err)
	}
	quiz.ID = id
	return nil
}

// ScoredForCourse returns the user's quizzes with total_questions > 0 whose
// topic belongs to the course.
func (r *QuizRepository) ScoredForCourse(ctx context.Context, userID, courseID int64) ([]models.Quiz, error) {
	quizzes := []models.Quiz{}
	err := selectAll(ctx, r.q, &quizzes,
		`SELECT q.id, q.user_id, q.topic_id, q.score, q.total_questions, q.completed_at
		FROM quizzes q
		JOIN topics t ON t.id = q.topic_id
		WHERE q.user_id = ? AND t.course_id = ? AND q.total_questions > 0
		ORDER BY q.id`, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course quizzes: %w", err)
	}
	return quizzes, nil
}

// Last returns the user's most recent quiz results, newest first
func (r *QuizRepository) Last(ctx context.Context, userID int64, limit int) ([]models.QuizResult, error) {
	results := []models.QuizResult{}
	err := selectAll(ctx, r.q, &results,
		`SELECT q.id, q.user_id, q.topic_id, q.score, q.total_questions, q.completed_at,
			t.title AS topic_title
		FROM quizzes q
		JOIN topics t ON t.id = q.topic_id
		WHERE q.user_id = ?
		ORDER BY q.completed_at DESC, q.id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get last quiz results: %w", err)
	}
	return results, nil
}

// Count returns the number of quizzes the user has taken
func (r *QuizRepository) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := getOne(ctx, r.q, &n, "SELECT COUNT(*) FROM quizzes WHERE user_id = ?", userID); err != nil {
		return 0, fmt.Errorf("failed to count quizzes: %w", err)
	}
	return n, nil
}
