package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studybot/pkg/models"
)

// TaskRepository handles database operations for tasks
type TaskRepository struct {
	q Queryer
}

// NewTaskRepository creates a new repository instance
func NewTaskRepository(q Queryer) *TaskRepository {
	return &TaskRepository{q: q}
}

const (
	taskColumns = "id, user_id, title, description, priority, due_date, is_completed, completed_at, created_at, updated_at"
	// undated tasks go last on both dialects
	taskOrder = " ORDER BY due_date IS NULL, due_date, id"
)

// Create inserts a task and fills its ID and timestamps
func (r *TaskRepository) Create(ctx context.Context, task *models.Task, now time.Time) error {
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	task.DueDate = utcPtr(task.DueDate)
	task.CreatedAt = utc(now)
	task.UpdatedAt = task.CreatedAt

	id, err := insertID(ctx, r.q,
		`INSERT INTO tasks (user_id, title, description, priority, due_date, is_completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.UserID, task.Title, task.Description, string(task.Priority), task.DueDate, false,
		task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	task.ID = id
	return nil
}

// GetByID returns a task owned by the user
func (r *TaskRepository) GetByID(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	var task models.Task
	err := getOne(ctx, r.q, &task,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task %d: %w", taskID, err)
	}
	return &task, nil
}

// List returns the user's tasks ordered by due date
func (r *TaskRepository) List(ctx context.Context, userID int64, includeCompleted bool) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE user_id = ?"
	args := []interface{}{userID}
	if !includeCompleted {
		query += " AND is_completed = ?"
		args = append(args, false)
	}

	tasks := []models.Task{}
	if err := selectAll(ctx, r.q, &tasks, query+taskOrder, args...); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// DueBetween returns incomplete tasks with from <= due_date < to
func (r *TaskRepository) DueBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.Task, error) {
	tasks := []models.Task{}
	err := selectAll(ctx, r.q, &tasks,
		"SELECT "+taskColumns+` FROM tasks
		WHERE user_id = ? AND is_completed = ? AND due_date >= ? AND due_date < ?`+taskOrder,
		userID, false, utc(from), utc(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list due tasks: %w", err)
	}
	return tasks, nil
}

// SetCompleted flips the completion flag. completed_at is stamped when the
// flag becomes true and cleared when it becomes false.
func (r *TaskRepository) SetCompleted(ctx context.Context, userID, taskID int64, completed bool, now time.Time) error {
	var completedAt *time.Time
	if completed {
		t := utc(now)
		completedAt = &t
	}

	n, err := exec(ctx, r.q,
		"UPDATE tasks SET is_completed = ?, completed_at = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		completed, completedAt, utc(now), taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	return nil
}

// Delete removes a task owned by the user
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID int64) error {
	n, err := exec(ctx, r.q, "DELETE FROM tasks WHERE id = ? AND user_id = ?", taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	return nil
}

// Count returns the number of pending and completed tasks
func (r *TaskRepository) Count(ctx context.Context, userID int64) (pending, completed int, err error) {
	var row struct {
		Pending   int `db:"pending"`
		Completed int `db:"completed"`
	}
	err = getOne(ctx, r.q, &row,
		`SELECT
			COALESCE(SUM(CASE WHEN is_completed = ? THEN 0 ELSE 1 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN is_completed = ? THEN 1 ELSE 0 END), 0) AS completed
		FROM tasks WHERE user_id = ?`,
		true, true, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return row.Pending, row.Completed, nil
}
