package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studybot/pkg/models"
)

// ProgressRepository handles database operations for per-course streaks
type ProgressRepository struct {
	q Queryer
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(q Queryer) *ProgressRepository {
	return &ProgressRepository{q: q}
}

// Get returns the streak row for (user, course)
func (r *ProgressRepository) Get(ctx context.Context, userID, courseID int64) (*models.StudyProgress, error) {
	var p models.StudyProgress
	err := getOne(ctx, r.q, &p,
		`SELECT id, user_id, course_id, last_study_date, streak_days, updated_at
		FROM study_progress WHERE user_id = ? AND course_id = ?`, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get study progress: %w", err)
	}
	return &p, nil
}

// Create inserts a new streak row
func (r *ProgressRepository) Create(ctx context.Context, p *models.StudyProgress, now time.Time) error {
	p.UpdatedAt = utc(now)
	id, err := insertID(ctx, r.q,
		`INSERT INTO study_progress (user_id, course_id, last_study_date, streak_days, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.UserID, p.CourseID, p.LastStudyDate, p.StreakDays, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create study progress: %w", err)
	}
	p.ID = id
	return nil
}

// Update stores a new last study date and streak
func (r *ProgressRepository) Update(ctx context.Context, p *models.StudyProgress, now time.Time) error {
	p.UpdatedAt = utc(now)
	n, err := exec(ctx, r.q,
		"UPDATE study_progress SET last_study_date = ?, streak_days = ?, updated_at = ? WHERE id = ?",
		p.LastStudyDate, p.StreakDays, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update study progress: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("study progress %d: %w", p.ID, ErrNotFound)
	}
	return nil
}

// MaxStreak returns the highest streak across the user's courses, 0 if none
func (r *ProgressRepository) MaxStreak(ctx context.Context, userID int64) (int, error) {
	var n int
	err := getOne(ctx, r.q, &n,
		"SELECT COALESCE(MAX(streak_days), 0) FROM study_progress WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get streak: %w", err)
	}
	return n, nil
}
