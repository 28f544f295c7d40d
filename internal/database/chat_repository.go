package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/studybot/pkg/models"
)

// ChatRepository handles database operations for chat history
type ChatRepository struct {
	q Queryer
}

// NewChatRepository creates a new repository instance
func NewChatRepository(q Queryer) *ChatRepository {
	return &ChatRepository{q: q}
}

// Insert appends one message to the user's log
func (r *ChatRepository) Insert(ctx context.Context, userID int64, role, message string, now time.Time) (int64, error) {
	id, err := insertID(ctx, r.q,
		"INSERT INTO chat_history (user_id, role, message, created_at) VALUES (?, ?, ?, ?)",
		userID, role, message, utc(now))
	if err != nil {
		return 0, fmt.Errorf("failed to insert chat message: %w", err)
	}
	return id, nil
}

// Count returns how many messages the user has stored
func (r *ChatRepository) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := getOne(ctx, r.q, &n, "SELECT COUNT(*) FROM chat_history WHERE user_id = ?", userID); err != nil {
		return 0, fmt.Errorf("failed to count chat messages: %w", err)
	}
	return n, nil
}

// DeleteOldest removes the user's n oldest messages by insertion order
func (r *ChatRepository) DeleteOldest(ctx context.Context, userID int64, n int) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	deleted, err := exec(ctx, r.q,
		`DELETE FROM chat_history WHERE id IN (
			SELECT id FROM chat_history WHERE user_id = ? ORDER BY id ASC LIMIT ?
		)`, userID, n)
	if err != nil {
		return 0, fmt.Errorf("failed to purge chat history: %w", err)
	}
	return deleted, nil
}

// Recent returns the user's last limit messages in chronological order
func (r *ChatRepository) Recent(ctx context.Context, userID int64, limit int) ([]models.ChatMessage, error) {
	msgs := []models.ChatMessage{}
	err := selectAll(ctx, r.q, &msgs,
		`SELECT id, user_id, role, message, created_at FROM (
			SELECT id, user_id, role, message, created_at FROM chat_history
			WHERE user_id = ? ORDER BY id DESC LIMIT ?
		) recent ORDER BY id ASC`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}
	return msgs, nil
}

// Clear removes the user's whole chat log
func (r *ChatRepository) Clear(ctx context.Context, userID int64) (int64, error) {
	n, err := exec(ctx, r.q, "DELETE FROM chat_history WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear chat history: %w", err)
	}
	return n, nil
}
