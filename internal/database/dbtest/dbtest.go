// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/pkg/models"
)

// New returns a fresh in-memory SQLite database with the schema applied
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

// User creates a user with the given Telegram ID
func User(t testing.TB, db *database.DB, telegramID int64) *models.User {
	t.Helper()

	user, err := db.Repos().Users.GetOrCreate(context.Background(), models.User{
		TelegramID: telegramID,
		Username:   "student",
		FirstName:  "Ayşe",
	}, time.Now())
	require.NoError(t, err)

	return user
}
