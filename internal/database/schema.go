package database

import (
	"context"
	"fmt"
	"strings"
)

// Schema statements use {pk} and {ts} placeholders filled per dialect
var schema = []struct {
	name string
	ddl  string
}{
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id {pk},
			telegram_id BIGINT UNIQUE NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			created_at {ts} NOT NULL,
			last_active {ts} NOT NULL
		)`},
	{"notes", `
		CREATE TABLE IF NOT EXISTS notes (
			id {pk},
			user_id BIGINT NOT NULL REFERENCES users(id),
			category TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at {ts} NOT NULL,
			updated_at {ts} NOT NULL
		)`},
	{"tasks", `
		CREATE TABLE IF NOT EXISTS tasks (
			id {pk},
			user_id BIGINT NOT NULL REFERENCES users(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT 'MEDIUM',
			due_date {ts},
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at {ts},
			created_at {ts} NOT NULL,
			updated_at {ts} NOT NULL
		)`},
	{"reminders", `
		CREATE TABLE IF NOT EXISTS reminders (
			id {pk},
			user_id BIGINT NOT NULL REFERENCES users(id),
			message TEXT NOT NULL,
			remind_at {ts} NOT NULL,
			is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
			recurrence_pattern TEXT NOT NULL DEFAULT '',
			is_sent BOOLEAN NOT NULL DEFAULT FALSE,
			created_at {ts} NOT NULL
		)`},
	{"chat_history", `
		CREATE TABLE IF NOT EXISTS chat_history (
			id {pk},
			user_id BIGINT NOT NULL REFERENCES users(id),
			role TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at {ts} NOT NULL
		)`},
	{"courses", `
		CREATE TABLE IF NOT EXISTS courses (
			id {pk},
			user_id BIGINT NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			total_topics INTEGER NOT NULL DEFAULT 0,
			completed_topics INTEGER NOT NULL DEFAULT 0,
			created_at {ts} NOT NULL,
			UNIQUE(user_id, name)
		)`},
	{"topics", `
		CREATE TABLE IF NOT EXISTS topics (
			id {pk},
			course_id BIGINT NOT NULL REFERENCES courses(id),
			title TEXT NOT NULL,
			week_number INTEGER NOT NULL DEFAULT 0,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at {ts},
			created_at {ts} NOT NULL,
			UNIQUE(course_id, title)
		)`},
	{"quizzes", `
		CREATE TABLE IF NOT EXISTS quizzes (
			id {pk},
			user_id BIGINT NOT NULL REFERENCES users(id),
			topic_id BIGINT NOT NULL REFERENCES topics(id),
			score INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			completed_at {ts} NOT NULL
		)`},
	{"study_progress", `
		CREATE TABLE IF NOT EXISTS study_progress (
			id {pk},
			user_id BIGINT NOT NULL REFERENCES users(id),
			course_id BIGINT NOT NULL REFERENCES courses(id),
			last_study_date TEXT NOT NULL,
			streak_days INTEGER NOT NULL DEFAULT 0,
			updated_at {ts} NOT NULL,
			UNIQUE(user_id, course_id)
		)`},
	{"repetitions", `
		CREATE TABLE IF NOT EXISTS repetitions (
			id {pk},
			user_id BIGINT NOT NULL REFERENCES users(id),
			topic_id BIGINT NOT NULL REFERENCES topics(id),
			repetition_number INTEGER NOT NULL DEFAULT 0,
			easiness_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
			interval_days INTEGER NOT NULL DEFAULT 0,
			last_quality INTEGER NOT NULL DEFAULT 0,
			next_review_date {ts} NOT NULL,
			last_review_date {ts},
			created_at {ts} NOT NULL,
			updated_at {ts} NOT NULL,
			UNIQUE(user_id, topic_id)
		)`},
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_reminders_pending ON reminders(is_sent, remind_at)",
	"CREATE INDEX IF NOT EXISTS idx_chat_history_user ON chat_history(user_id, id)",
	"CREATE INDEX IF NOT EXISTS idx_quizzes_topic ON quizzes(topic_id)",
	"CREATE INDEX IF NOT EXISTS idx_repetitions_due ON repetitions(user_id, next_review_date)",
}

func dialect(driver string) *strings.Replacer {
	if driver == DriverPostgres {
		return strings.NewReplacer("{pk}", "BIGSERIAL PRIMARY KEY", "{ts}", "TIMESTAMPTZ")
	}
	return strings.NewReplacer("{pk}", "INTEGER PRIMARY KEY AUTOINCREMENT", "{ts}", "TIMESTAMP")
}

// initializeSchema creates necessary tables if they don't exist
func (db *DB) initializeSchema(ctx context.Context) error {
	r := dialect(db.DriverName())

	for _, t := range schema {
		if _, err := db.ExecContext(ctx, r.Replace(t.ddl)); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}

	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
