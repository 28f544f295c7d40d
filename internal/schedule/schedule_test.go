package schedule

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/database/dbtest"
	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/pkg/models"
)

type fixture struct {
	svc    *Service
	db     *database.DB
	loc    *time.Location
	now    time.Time
	userID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	loc, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(t, err)

	f := &fixture{db: dbtest.New(t), loc: loc, now: time.Date(2024, 6, 1, 10, 0, 0, 0, loc)}
	f.svc = NewService(f.db, clock.Fixed(loc, func() time.Time { return f.now }), logger.NewNop())
	f.userID = dbtest.User(t, f.db, 55).ID
	return f
}

func (f *fixture) task(t *testing.T, title string, due time.Time) *models.Task {
	t.Helper()
	task, err := f.svc.AddTask(context.Background(), f.userID, NewTask{Title: title, DueDate: &due})
	require.NoError(t, err)
	return task
}

func TestTodayUsesLocalMidnight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.task(t, "last second", time.Date(2024, 6, 1, 23, 59, 59, 0, f.loc))
	f.task(t, "first second", time.Date(2024, 6, 1, 0, 0, 0, 0, f.loc))
	f.task(t, "tomorrow midnight", time.Date(2024, 6, 2, 0, 0, 0, 0, f.loc))
	f.task(t, "yesterday", time.Date(2024, 5, 31, 23, 59, 59, 0, f.loc))
	done := f.task(t, "done today", time.Date(2024, 6, 1, 15, 0, 0, 0, f.loc))
	require.NoError(t, f.svc.Complete(ctx, f.userID, done.ID))

	today, err := f.svc.Today(ctx, f.userID)
	require.NoError(t, err)

	var titles []string
	for _, task := range today {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"first second", "last second"}, titles)
}

func TestUpcoming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.task(t, "in three days", f.now.AddDate(0, 0, 3))
	f.task(t, "in ten days", f.now.AddDate(0, 0, 10))
	f.task(t, "past", f.now.Add(-time.Hour))

	upcoming, err := f.svc.Upcoming(ctx, f.userID, 7)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "in three days", upcoming[0].Title)
}

func TestAddTaskPriority(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for word, want := range map[string]models.Priority{
		"Yüksek": models.PriorityHigh,
		"HIGH":   models.PriorityHigh,
		"dusuk":  models.PriorityLow,
		"acil":   models.PriorityMedium,
		"":       models.PriorityMedium,
	} {
		task, err := f.svc.AddTask(ctx, f.userID, NewTask{Title: "ödev", Priority: word})
		require.NoError(t, err)
		assert.Equal(t, want, task.Priority, word)
	}

	_, err := f.svc.AddTask(ctx, f.userID, NewTask{Title: "  "})
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestCompleteAndDeleteNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.True(t, errors.Is(f.svc.Complete(ctx, f.userID, 999), database.ErrNotFound))
	assert.True(t, errors.Is(f.svc.DeleteTask(ctx, f.userID, 999), database.ErrNotFound))

	task := f.task(t, "ödev", f.now)
	require.NoError(t, f.svc.Complete(ctx, f.userID, task.ID))
	require.NoError(t, f.svc.Uncomplete(ctx, f.userID, task.ID))

	pending, completed, err := f.svc.TaskCount(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	assert.Equal(t, 0, completed)

	require.NoError(t, f.svc.DeleteTask(ctx, f.userID, task.ID))
}

func TestPendingRemindersAndMarkSent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	due, err := f.svc.AddReminder(ctx, f.userID, "ders", f.now.Add(-time.Minute), models.RecurrenceNone)
	require.NoError(t, err)
	_, err = f.svc.AddReminder(ctx, f.userID, "sonra", f.now.Add(time.Hour), models.RecurrenceNone)
	require.NoError(t, err)
	weekly, err := f.svc.AddReminder(ctx, f.userID, "haftalık", f.now.Add(time.Hour), models.RecurrenceWeekly)
	require.NoError(t, err)
	assert.True(t, weekly.IsRecurring)

	pending, err := f.svc.PendingReminders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, due.ID, pending[0].ID)
	assert.Equal(t, int64(55), pending[0].TelegramID)

	require.NoError(t, f.svc.MarkReminderSent(ctx, due.ID))
	pending, err = f.svc.PendingReminders(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	recurring, err := f.svc.RecurringReminders(ctx)
	require.NoError(t, err)
	require.Len(t, recurring, 1)
	assert.Equal(t, models.RecurrenceWeekly, recurring[0].RecurrencePattern)

	mine, err := f.svc.Reminders(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = f.svc.AddReminder(ctx, f.userID, " ", f.now, models.RecurrenceNone)
	assert.ErrorIs(t, err, ErrEmptyTitle)
}
