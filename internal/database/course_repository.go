package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/studybot/pkg/models"
)

// CourseRepository handles database operations for courses
type CourseRepository struct {
	q Queryer
}

// NewCourseRepository creates a new repository instance
func NewCourseRepository(q Queryer) *CourseRepository {
	return &CourseRepository{q: q}
}

// Counters are recomputed on read so a stale denormalized value never leaks
const courseSelect = `
	SELECT c.id, c.user_id, c.name, c.description, c.created_at,
		(SELECT COUNT(*) FROM topics t WHERE t.course_id = c.id) AS total_topics,
		(SELECT COUNT(*) FROM topics t WHERE t.course_id = c.id AND t.is_completed = ?) AS completed_topics
	FROM courses c`

// GetOrCreate returns the id of the user's course with this name, inserting
// it first when missing.
func (r *CourseRepository) GetOrCreate(ctx context.Context, userID int64, name, description string, now time.Time) (int64, bool, error) {
	var id int64
	err := getOne(ctx, r.q, &id, "SELECT id FROM courses WHERE user_id = ? AND name = ?", userID, name)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, false, fmt.Errorf("failed to look up course: %w", err)
	}

	id, err = insertID(ctx, r.q,
		`INSERT INTO courses (user_id, name, description, total_topics, completed_topics, created_at)
		VALUES (?, ?, ?, 0, 0, ?)`,
		userID, name, description, utc(now))
	if err != nil {
		return 0, false, fmt.Errorf("failed to create course: %w", err)
	}
	return id, true, nil
}

// List returns the user's courses in insertion order
func (r *CourseRepository) List(ctx context.Context, userID int64) ([]models.Course, error) {
	courses := []models.Course{}
	err := selectAll(ctx, r.q, &courses, courseSelect+" WHERE c.user_id = ? ORDER BY c.id", true, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// GetByID returns a course owned by the user
func (r *CourseRepository) GetByID(ctx context.Context, userID, courseID int64) (*models.Course, error) {
	var course models.Course
	err := getOne(ctx, r.q, &course, courseSelect+" WHERE c.id = ? AND c.user_id = ?", true, courseID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course %d: %w", courseID, err)
	}
	return &course, nil
}

// Recount rewrites total_topics and completed_topics from the topics table
func (r *CourseRepository) Recount(ctx context.Context, courseID int64) error {
	_, err := exec(ctx, r.q,
		`UPDATE courses SET
			total_topics = (SELECT COUNT(*) FROM topics WHERE course_id = ?),
			completed_topics = (SELECT COUNT(*) FROM topics WHERE course_id = ? AND is_completed = ?)
		WHERE id = ?`,
		courseID, courseID, true, courseID)
	if err != nil {
		return fmt.Errorf("failed to recount course topics: %w", err)
	}
	return nil
}

// StoredCounters returns the denormalized counters as persisted
func (r *CourseRepository) StoredCounters(ctx context.Context, courseID int64) (total, completed int, err error) {
	var row struct {
		Total     int `db:"total_topics"`
		Completed int `db:"completed_topics"`
	}
	err = getOne(ctx, r.q, &row, "SELECT total_topics, completed_topics FROM courses WHERE id = ?", courseID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read course counters: %w", err)
	}
	return row.Total, row.Completed, nil
}
