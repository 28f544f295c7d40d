package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studybot/pkg/models"
)

// RepetitionRepository handles database operations for topic reviews
type RepetitionRepository struct {
	q Queryer
}

// NewRepetitionRepository creates a new repository instance
func NewRepetitionRepository(q Queryer) *RepetitionRepository {
	return &RepetitionRepository{q: q}
}

const repetitionColumns = `id, user_id, topic_id, repetition_number, easiness_factor,
	interval_days, last_quality, next_review_date, last_review_date, created_at, updated_at`

// Get returns the review state of a topic for a user
func (r *RepetitionRepository) Get(ctx context.Context, userID, topicID int64) (*models.Repetition, error) {
	var rep models.Repetition
	err := getOne(ctx, r.q, &rep,
		"SELECT "+repetitionColumns+" FROM repetitions WHERE user_id = ? AND topic_id = ?",
		userID, topicID)
	if err != nil {
		return nil, fmt.Errorf("failed to get repetition: %w", err)
	}
	return &rep, nil
}

// Create inserts a new repetition
func (r *RepetitionRepository) Create(ctx context.Context, rep *models.Repetition, now time.Time) error {
	rep.CreatedAt = utc(now)
	rep.UpdatedAt = rep.CreatedAt
	id, err := insertID(ctx, r.q,
		`INSERT INTO repetitions (
			user_id, topic_id, repetition_number, easiness_factor, interval_days,
			last_quality, next_review_date, last_review_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.UserID, rep.TopicID, rep.RepetitionNumber, rep.EasinessFactor, rep.IntervalDays,
		rep.LastQuality, utc(rep.NextReviewDate), utcPtr(rep.LastReviewDate), rep.CreatedAt, rep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create repetition: %w", err)
	}
	rep.ID = id
	return nil
}

// Update stores the result of a review
func (r *RepetitionRepository) Update(ctx context.Context, rep *models.Repetition, now time.Time) error {
	rep.UpdatedAt = utc(now)
	n, err := exec(ctx, r.q,
		`UPDATE repetitions SET
			repetition_number = ?,
			easiness_factor = ?,
			interval_days = ?,
			last_quality = ?,
			next_review_date = ?,
			last_review_date = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?`,
		rep.RepetitionNumber, rep.EasinessFactor, rep.IntervalDays, rep.LastQuality,
		utc(rep.NextReviewDate), utcPtr(rep.LastReviewDate), rep.UpdatedAt, rep.ID, rep.UserID)
	if err != nil {
		return fmt.Errorf("failed to update repetition: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repetition %d: %w", rep.ID, ErrNotFound)
	}
	return nil
}

// Due returns up to limit repetitions whose next review date is at or before
// now, hardest topics first.
func (r *RepetitionRepository) Due(ctx context.Context, userID int64, now time.Time, limit int) ([]models.DueRepetition, error) {
	var due []models.DueRepetition
	err := selectAll(ctx, r.q, &due,
		`SELECT r.id, r.user_id, r.topic_id, r.repetition_number, r.easiness_factor,
			r.interval_days, r.last_quality, r.next_review_date, r.last_review_date,
			r.created_at, r.updated_at, t.title AS topic_title, c.name AS course_name
		FROM repetitions r
		JOIN topics t ON t.id = r.topic_id
		JOIN courses c ON c.id = t.course_id
		WHERE r.user_id = ? AND r.next_review_date <= ?
		ORDER BY r.easiness_factor ASC, r.next_review_date ASC, r.id ASC
		LIMIT ?`, userID, utc(now), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due repetitions: %w", err)
	}
	return due, nil
}
