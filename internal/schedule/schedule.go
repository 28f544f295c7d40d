// Package schedule manages a user's tasks and reminders.
package schedule

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/pkg/models"
)

// ErrEmptyTitle is returned when a task or reminder has no text
var ErrEmptyTitle = errors.New("title is empty")

// Service manages tasks and reminders
type Service struct {
	db    *database.DB
	clock *clock.Clock
	log   *logger.Logger
}

// NewService creates a schedule service
func NewService(db *database.DB, clk *clock.Clock, log *logger.Logger) *Service {
	return &Service{db: db, clock: clk, log: log.With("component", "schedule")}
}

// NewTask holds the user-supplied fields of a task
type NewTask struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
}

// AddTask stores a task. Unknown priority words fall back to MEDIUM.
func (s *Service) AddTask(ctx context.Context, userID int64, in NewTask) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	task := &models.Task{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    models.ParsePriority(in.Priority),
		DueDate:     in.DueDate,
	}
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		return r.Tasks.Create(ctx, task, s.clock.NowUTC())
	})
	if err != nil {
		s.log.Error("Failed to add task", "user_id", userID, "error", err)
		return nil, err
	}

	s.log.Info("Task added", "user_id", userID, "task_id", task.ID, "priority", task.Priority)
	return task, nil
}

// Tasks lists the user's tasks by due date
func (s *Service) Tasks(ctx context.Context, userID int64, includeCompleted bool) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		tasks, err = r.Tasks.List(ctx, userID, includeCompleted)
		return err
	})
	return tasks, err
}

// Today returns incomplete tasks due between local midnight and the next one
func (s *Service) Today(ctx context.Context, userID int64) ([]models.Task, error) {
	start, end := s.clock.TodayRange()
	return s.dueBetween(ctx, userID, start, end)
}

// Upcoming returns incomplete tasks due from now until days ahead
func (s *Service) Upcoming(ctx context.Context, userID int64, days int) ([]models.Task, error) {
	now := s.clock.Now()
	return s.dueBetween(ctx, userID, now, now.AddDate(0, 0, days))
}

func (s *Service) dueBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		tasks, err = r.Tasks.DueBetween(ctx, userID, from, to)
		return err
	})
	if err != nil {
		s.log.Error("Failed to get due tasks", "user_id", userID, "error", err)
		return nil, err
	}
	return tasks, nil
}

// Complete marks a task done
func (s *Service) Complete(ctx context.Context, userID, taskID int64) error {
	return s.setCompleted(ctx, userID, taskID, true)
}

// Uncomplete reopens a task
func (s *Service) Uncomplete(ctx context.Context, userID, taskID int64) error {
	return s.setCompleted(ctx, userID, taskID, false)
}

func (s *Service) setCompleted(ctx context.Context, userID, taskID int64, completed bool) error {
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		return r.Tasks.SetCompleted(ctx, userID, taskID, completed, s.clock.NowUTC())
	})
	return s.logResult("update task status", userID, taskID, err)
}

// DeleteTask removes one of the user's tasks
func (s *Service) DeleteTask(ctx context.Context, userID, taskID int64) error {
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		return r.Tasks.Delete(ctx, userID, taskID)
	})
	return s.logResult("delete task", userID, taskID, err)
}

// TaskCount returns pending and completed task totals
func (s *Service) TaskCount(ctx context.Context, userID int64) (pending, completed int, err error) {
	err = s.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		pending, completed, err = r.Tasks.Count(ctx, userID)
		return err
	})
	return pending, completed, err
}

// AddReminder stores a reminder firing at remindAt, repeating when
// recurrence is set.
func (s *Service) AddReminder(ctx context.Context, userID int64, message string, remindAt time.Time, recurrence models.Recurrence) (*models.Reminder, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyTitle
	}

	rem := &models.Reminder{
		UserID:            userID,
		Message:           message,
		RemindAt:          remindAt,
		RecurrencePattern: recurrence,
	}
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		return r.Reminders.Create(ctx, rem, s.clock.NowUTC())
	})
	if err != nil {
		s.log.Error("Failed to add reminder", "user_id", userID, "error", err)
		return nil, err
	}

	s.log.Info("Reminder added", "user_id", userID, "reminder_id", rem.ID, "remind_at", rem.RemindAt)
	return rem, nil
}

// Reminders lists the user's unsent and recurring reminders
func (s *Service) Reminders(ctx context.Context, userID int64) ([]models.Reminder, error) {
	var rems []models.Reminder
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		rems, err = r.Reminders.ListByUser(ctx, userID)
		return err
	})
	return rems, err
}

// DeleteReminder removes one of the user's reminders
func (s *Service) DeleteReminder(ctx context.Context, userID, reminderID int64) error {
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		return r.Reminders.Delete(ctx, userID, reminderID)
	})
	return s.logResult("delete reminder", userID, reminderID, err)
}

// PendingReminders returns every unsent reminder due now, across all users
func (s *Service) PendingReminders(ctx context.Context) ([]models.DueReminder, error) {
	var due []models.DueReminder
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		due, err = r.Reminders.Pending(ctx, s.clock.NowUTC())
		return err
	})
	return due, err
}

// RecurringReminders returns every recurring reminder, across all users
func (s *Service) RecurringReminders(ctx context.Context) ([]models.DueReminder, error) {
	var rems []models.DueReminder
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		rems, err = r.Reminders.Recurring(ctx)
		return err
	})
	return rems, err
}

// Reminder returns one reminder with its recipient, regardless of owner
func (s *Service) Reminder(ctx context.Context, reminderID int64) (*models.DueReminder, error) {
	var rem *models.DueReminder
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		rem, err = r.Reminders.GetDue(ctx, reminderID)
		return err
	})
	return rem, err
}

// MarkReminderSent records a delivery
func (s *Service) MarkReminderSent(ctx context.Context, reminderID int64) error {
	return s.db.InTx(ctx, func(r *database.Repositories) error {
		return r.Reminders.MarkSent(ctx, reminderID)
	})
}

func (s *Service) logResult(op string, userID, id int64, err error) error {
	switch {
	case err == nil:
		s.log.Info("Done", "op", op, "user_id", userID, "id", id)
	case errors.Is(err, database.ErrNotFound):
		s.log.Warn("Not found", "op", op, "user_id", userID, "id", id)
	default:
		s.log.Error("Storage failure", "op", op, "user_id", userID, "id", id, "error", err)
	}
	return err
}
