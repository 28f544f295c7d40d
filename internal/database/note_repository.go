package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studybot/pkg/models"
)

// NoteRepository handles database operations for notes
type NoteRepository struct {
	q Queryer
}

// NewNoteRepository creates a new repository instance
func NewNoteRepository(q Queryer) *NoteRepository {
	return &NoteRepository{q: q}
}

const noteColumns = "id, user_id, category, content, created_at, updated_at"

// Create inserts a note and fills its ID and timestamps
func (r *NoteRepository) Create(ctx context.Context, note *models.Note, now time.Time) error {
	note.CreatedAt = utc(now)
	note.UpdatedAt = note.CreatedAt

	id, err := insertID(ctx, r.q,
		"INSERT INTO notes (user_id, category, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		note.UserID, note.Category, note.Content, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	note.ID = id
	return nil
}

// List returns the user's notes newest first, optionally limited to a category
func (r *NoteRepository) List(ctx context.Context, userID int64, category string) ([]models.Note, error) {
	query := "SELECT " + noteColumns + " FROM notes WHERE user_id = ?"
	args := []interface{}{userID}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC, id DESC"

	notes := []models.Note{}
	if err := selectAll(ctx, r.q, &notes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// Delete removes a note owned by the user
func (r *NoteRepository) Delete(ctx context.Context, userID, noteID int64) error {
	n, err := exec(ctx, r.q, "DELETE FROM notes WHERE id = ? AND user_id = ?", noteID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("note %d: %w", noteID, ErrNotFound)
	}
	return nil
}

// Categories returns each category with its note count
func (r *NoteRepository) Categories(ctx context.Context, userID int64) ([]models.CategoryCount, error) {
	cats := []models.CategoryCount{}
	err := selectAll(ctx, r.q, &cats,
		"SELECT category, COUNT(*) AS count FROM notes WHERE user_id = ? GROUP BY category ORDER BY category",
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list note categories: %w", err)
	}
	return cats, nil
}

// Count returns the number of notes the user has
func (r *NoteRepository) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := getOne(ctx, r.q, &n, "SELECT COUNT(*) FROM notes WHERE user_id = ?", userID); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return n, nil
}
