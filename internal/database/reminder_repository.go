package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studybot/pkg/models"
)

// ReminderRepository handles database operations for reminders
type ReminderRepository struct {
	q Queryer
}

// NewReminderRepository creates a new repository instance
func NewReminderRepository(q Queryer) *ReminderRepository {
	return &ReminderRepository{q: q}
}

const dueReminderSelect = `
	SELECT r.id, r.user_id, r.message, r.remind_at, r.is_recurring, r.recurrence_pattern,
		r.is_sent, r.created_at, u.telegram_id
	FROM reminders r
	JOIN users u ON u.id = r.user_id`

// Create inserts a reminder and fills its ID
func (r *ReminderRepository) Create(ctx context.Context, rem *models.Reminder, now time.Time) error {
	rem.RemindAt = utc(rem.RemindAt)
	rem.CreatedAt = utc(now)
	rem.IsRecurring = rem.RecurrencePattern != models.RecurrenceNone

	id, err := insertID(ctx, r.q,
		`INSERT INTO reminders (user_id, message, remind_at, is_recurring, recurrence_pattern, is_sent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rem.UserID, rem.Message, rem.RemindAt, rem.IsRecurring, string(rem.RecurrencePattern), false, rem.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	rem.ID = id
	return nil
}

// Pending returns unsent reminders due at or before now, across all users
func (r *ReminderRepository) Pending(ctx context.Context, now time.Time) ([]models.DueReminder, error) {
	due := []models.DueReminder{}
	err := selectAll(ctx, r.q, &due,
		dueReminderSelect+" WHERE r.is_sent = ? AND r.remind_at <= ? ORDER BY r.remind_at, r.id",
		false, utc(now))
	if err != nil {
		return nil, fmt.Errorf("failed to get pending reminders: %w", err)
	}
	return due, nil
}

// Recurring returns every recurring reminder, across all users
func (r *ReminderRepository) Recurring(ctx context.Context) ([]models.DueReminder, error) {
	rems := []models.DueReminder{}
	err := selectAll(ctx, r.q, &rems, dueReminderSelect+" WHERE r.is_recurring = ? ORDER BY r.id", true)
	if err != nil {
		return nil, fmt.Errorf("failed to get recurring reminders: %w", err)
	}
	return rems, nil
}

// GetDue returns one reminder with its recipient
func (r *ReminderRepository) GetDue(ctx context.Context, reminderID int64) (*models.DueReminder, error) {
	var rem models.DueReminder
	if err := getOne(ctx, r.q, &rem, dueReminderSelect+" WHERE r.id = ?", reminderID); err != nil {
		return nil, fmt.Errorf("failed to get reminder %d: %w", reminderID, err)
	}
	return &rem, nil
}

// ListByUser returns the user's unsent reminders in firing order
func (r *ReminderRepository) ListByUser(ctx context.Context, userID int64) ([]models.Reminder, error) {
	rems := []models.Reminder{}
	err := selectAll(ctx, r.q, &rems,
		`SELECT id, user_id, message, remind_at, is_recurring, recurrence_pattern, is_sent, created_at
		FROM reminders WHERE user_id = ? AND (is_sent = ? OR is_recurring = ?) ORDER BY remind_at, id`,
		userID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return rems, nil
}

// MarkSent flags a reminder as delivered. The flag never goes back to false.
func (r *ReminderRepository) MarkSent(ctx context.Context, reminderID int64) error {
	n, err := exec(ctx, r.q, "UPDATE reminders SET is_sent = ? WHERE id = ?", true, reminderID)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("reminder %d: %w", reminderID, ErrNotFound)
	}
	return nil
}

// Delete removes a reminder owned by the user
func (r *ReminderRepository) Delete(ctx context.Context, userID, reminderID int64) error {
	n, err := exec(ctx, r.q, "DELETE FROM reminders WHERE id = ? AND user_id = ?", reminderID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("reminder %d: %w", reminderID, ErrNotFound)
	}
	return nil
}
