package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/studybot/pkg/models"
)

// TopicRepository handles database operations for course topics
type TopicRepository struct {
	q Queryer
}

// NewTopicRepository creates a new repository instance
func NewTopicRepository(q Queryer) *TopicRepository {
	return &TopicRepository{q: q}
}

const topicColumns = "t.id, t.course_id, t.title, t.week_number, t.is_completed, t.completed_at, t.created_at"

// GetOrCreate returns the id of the topic with this title in the course.
// A repeat insert is a no-op that returns the existing id.
func (r *TopicRepository) GetOrCreate(ctx context.Context, courseID int64, title string, week int, now time.Time) (int64, bool, error) {
	var id int64
	err := getOne(ctx, r.q, &id, "SELECT id FROM topics WHERE course_id = ? AND title = ?", courseID, title)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, false, fmt.Errorf("failed to look up topic: %w", err)
	}

	id, err = insertID(ctx, r.q,
		`INSERT INTO topics (course_id, title, week_number, is_completed, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		courseID, title, week, false, utc(now))
	if err != nil {
		return 0, false, fmt.Errorf("failed to create topic: %w", err)
	}
	return id, true, nil
}

// ListByCourse returns the course's topics by week
func (r *TopicRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Topic, error) {
	topics := []models.Topic{}
	err := selectAll(ctx, r.q, &topics,
		"SELECT "+topicColumns+" FROM topics t WHERE t.course_id = ? ORDER BY t.week_number, t.id", courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	return topics, nil
}

// GetOwned returns a topic whose course belongs to the user
func (r *TopicRepository) GetOwned(ctx context.Context, userID, topicID int64) (*models.Topic, error) {
	var topic models.Topic
	err := getOne(ctx, r.q, &topic,
		"SELECT "+topicColumns+` FROM topics t
		JOIN courses c ON c.id = t.course_id
		WHERE t.id = ? AND c.user_id = ?`, topicID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get topic %d: %w", topicID, err)
	}
	return &topic, nil
}

// MarkCompleted sets the completion flag and stamps completed_at
func (r *TopicRepository) MarkCompleted(ctx context.Context, topicID int64, now time.Time) error {
	n, err := exec(ctx, r.q,
		"UPDATE topics SET is_completed = ?, completed_at = ? WHERE id = ?",
		true, utc(now), topicID)
	if err != nil {
		return fmt.Errorf("failed to mark topic completed: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("topic %d: %w", topicID, ErrNotFound)
	}
	return nil
}

// NextIncomplete returns up to limit incomplete topics ordered by course
// insertion order, then week number.
func (r *TopicRepository) NextIncomplete(ctx context.Context, userID int64, limit int) ([]models.NextTopic, error) {
	next := []models.NextTopic{}
	err := selectAll(ctx, r.q, &next,
		`SELECT t.id AS topic_id, c.id AS course_id, c.name AS course_name,
			t.title AS topic_title, t.week_number
		FROM topics t
		JOIN courses c ON c.id = t.course_id
		WHERE c.user_id = ? AND t.is_completed = ?
		ORDER BY c.id, t.week_number, t.id
		LIMIT ?`, userID, false, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get next topics: %w", err)
	}
	return next, nil
}
