// Package chat keeps the bounded per-user conversation log that is replayed
// to the LLM as prior turns.
package chat

import (
	"context"
	"fmt"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/pkg/models"
)

// Manager appends to and reads from the chat history
type Manager struct {
	db         *database.DB
	clock      *clock.Clock
	log        *logger.Logger
	maxHistory int
	window     int
}

// NewManager creates a manager keeping at most maxHistory rows per user and
// returning window turns by default.
func NewManager(db *database.DB, clk *clock.Clock, log *logger.Logger, maxHistory, window int) *Manager {
	return &Manager{
		db:         db,
		clock:      clk,
		log:        log.With("component", "chat"),
		maxHistory: maxHistory,
		window:     window,
	}
}

// Append stores a message and trims the user's oldest rows beyond the cap,
// both in one transaction.
func (m *Manager) Append(ctx context.Context, userID int64, role models.ChatRole, text string) error {
	if role != models.RoleUser && role != models.RoleModel {
		return fmt.Errorf("invalid chat role %q", role)
	}

	err := m.db.InTx(ctx, func(r *database.Repositories) error {
		if _, err := r.Chat.Insert(ctx, userID, string(role), text, m.clock.NowUTC()); err != nil {
			return err
		}

		count, err := r.Chat.Count(ctx, userID)
		if err != nil {
			return err
		}
		if count <= m.maxHistory {
			return nil
		}

		deleted, err := r.Chat.DeleteOldest(ctx, userID, count-m.maxHistory)
		if err != nil {
			return err
		}
		m.log.Debug("Old chat messages purged", "user_id", userID, "deleted", deleted)
		return nil
	})
	if err != nil {
		m.log.Error("Failed to append chat message", "user_id", userID, "error", err)
		return err
	}
	return nil
}

// Context returns the last limit turns oldest first. limit <= 0 uses the
// configured window. Rows with a role outside the LLM vocabulary are skipped.
func (m *Manager) Context(ctx context.Context, userID int64, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		limit = m.window
	}

	var msgs []models.ChatMessage
	err := m.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		msgs, err = r.Chat.Recent(ctx, userID, limit)
		return err
	})
	if err != nil {
		m.log.Error("Failed to read chat history", "user_id", userID, "error", err)
		return nil, err
	}

	turns := make([]models.Turn, 0, len(msgs))
	for _, msg := range msgs {
		role := models.ParseChatRole(msg.Role)
		if role == models.RoleUnknown {
			m.log.Warn("Skipping message with invalid role", "user_id", userID, "message_id", msg.ID, "role", msg.Role)
			continue
		}
		turns = append(turns, models.Turn{Role: role, Content: msg.Message})
	}
	return turns, nil
}

// Clear forgets the user's conversation
func (m *Manager) Clear(ctx context.Context, userID int64) error {
	return m.db.InTx(ctx, func(r *database.Repositories) error {
		n, err := r.Chat.Clear(ctx, userID)
		if err != nil {
			return err
		}
		m.log.Info("Chat history cleared", "user_id", userID, "deleted", n)
		return nil
	})
}
