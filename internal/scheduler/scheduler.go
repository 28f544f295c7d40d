// Package scheduler delivers reminders: a periodic sweep for due one-off
// reminders plus one gocron job per recurring reminder.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/pkg/models"
)

const sweepTag = "reminder-sweep"

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, telegramID int64, message string) error
}

// ReminderStore is the part of the schedule service the scheduler reads
type ReminderStore interface {
	PendingReminders(ctx context.Context) ([]models.DueReminder, error)
	RecurringReminders(ctx context.Context) ([]models.DueReminder, error)
	Reminder(ctx context.Context, reminderID int64) (*models.DueReminder, error)
	MarkReminderSent(ctx context.Context, reminderID int64) error
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	store     ReminderStore
	notifier  Notifier
	clock     *clock.Clock
	interval  time.Duration
	log       *logger.Logger

	// guards gocron's job builder
	mu sync.Mutex
}

// New creates a new scheduler instance. Recurring jobs fire in the
// clock's timezone.
func New(store ReminderStore, notifier Notifier, clk *clock.Clock, interval time.Duration, log *logger.Logger) *Scheduler {
	s := gocron.NewScheduler(clk.Location())
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		store:     store,
		notifier:  notifier,
		clock:     clk,
		interval:  interval,
		log:       log.With("component", "scheduler"),
	}
}

// Start registers the sweep and every stored recurring reminder, then
// runs the scheduler in the background.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	_, err := s.scheduler.Every(s.interval).Tag(sweepTag).Do(func() {
		s.Sweep(ctx)
	})
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to schedule reminder sweep: %w", err)
	}

	recurring, err := s.store.RecurringReminders(ctx)
	if err != nil {
		return fmt.Errorf("failed to load recurring reminders: %w", err)
	}
	for _, rem := range recurring {
		if err := s.Schedule(ctx, rem.Reminder); err != nil {
			s.log.Error("Failed to schedule recurring reminder", "reminder_id", rem.ID, "error", err)
		}
	}

	s.scheduler.StartAsync()
	s.log.Info("Scheduler started", "interval", s.interval.String(), "recurring", len(recurring))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Sweep sends every due one-off reminder and marks it sent. A failed
// delivery is logged and still marked, so a reminder is never sent twice.
func (s *Scheduler) Sweep(ctx context.Context) int {
	due, err := s.store.PendingReminders(ctx)
	if err != nil {
		s.log.Error("Failed to load pending reminders", "error", err)
		return 0
	}

	sent := 0
	for _, rem := range due {
		if err := s.notifier.SendReminder(ctx, rem.TelegramID, rem.Message); err != nil {
			s.log.Error("Failed to send reminder", "reminder_id", rem.ID, "telegram_id", rem.TelegramID, "error", err)
		} else {
			sent++
		}

		if err := s.store.MarkReminderSent(ctx, rem.ID); err != nil {
			s.log.Error("Failed to mark reminder sent", "reminder_id", rem.ID, "error", err)
		}
	}

	if len(due) > 0 {
		s.log.Info("Reminder sweep finished", "due", len(due), "sent", sent)
	}
	return sent
}

func jobTag(id int64) string {
	return fmt.Sprintf("reminder_%d", id)
}

// Schedule registers the repeating job of a recurring reminder, replacing
// any previous job for the same id. Non-recurring reminders are ignored.
func (s *Scheduler) Schedule(ctx context.Context, rem models.Reminder) error {
	switch rem.RecurrencePattern {
	case models.RecurrenceNone:
		return nil
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly:
	default:
		return fmt.Errorf("unknown recurrence %q", rem.RecurrencePattern)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeJob(rem.ID)

	at := rem.RemindAt.In(s.clock.Location())
	every := s.scheduler.Every(1)

	switch rem.RecurrencePattern {
	case models.RecurrenceDaily:
		every = every.Day()
	case models.RecurrenceWeekly:
		every = every.Week().Weekday(at.Weekday())
	case models.RecurrenceMonthly:
		// only days 1-28 are accepted for monthly jobs
		if at.Day() > 28 {
			every = every.MonthLastDay()
		} else {
			every = every.Month(at.Day())
		}
	}

	id := rem.ID
	_, err := every.At(at.Format("15:04")).Tag(jobTag(id)).Do(func() {
		s.fireRecurring(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder %d: %w", id, err)
	}

	s.log.Info("Recurring reminder scheduled", "reminder_id", id, "pattern", string(rem.RecurrencePattern), "at", at.Format("15:04"))
	return nil
}

// Unschedule removes the job of a recurring reminder, if any
func (s *Scheduler) Unschedule(reminderID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeJob(reminderID)
}

func (s *Scheduler) removeJob(reminderID int64) {
	if err := s.scheduler.RemoveByTag(jobTag(reminderID)); err != nil && !errors.Is(err, gocron.ErrJobNotFoundWithTag) {
		s.log.Warn("Failed to remove reminder job", "reminder_id", reminderID, "error", err)
	}
}

// fireRecurring delivers one occurrence. The first occurrence belongs to
// the sweep, so runs before remind_at+1m are skipped.
func (s *Scheduler) fireRecurring(ctx context.Context, reminderID int64) bool {
	rem, err := s.store.Reminder(ctx, reminderID)
	if errors.Is(err, database.ErrNotFound) {
		s.Unschedule(reminderID)
		return false
	}
	if err != nil {
		s.log.Error("Failed to load recurring reminder", "reminder_id", reminderID, "error", err)
		return false
	}

	if s.clock.Now().Before(rem.RemindAt.Add(time.Minute)) {
		return false
	}

	if err := s.notifier.SendReminder(ctx, rem.TelegramID, rem.Message); err != nil {
		s.log.Error("Failed to send recurring reminder", "reminder_id", reminderID, "error", err)
		return false
	}
	return true
}
