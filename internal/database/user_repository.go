package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/studybot/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	q Queryer
}

// NewUserRepository creates a new repository instance
func NewUserRepository(q Queryer) *UserRepository {
	return &UserRepository{q: q}
}

const userColumns = "id, telegram_id, username, first_name, last_name, created_at, last_active"

// GetByTelegramID returns a user by Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := getOne(ctx, r.q, &user, "SELECT "+userColumns+" FROM users WHERE telegram_id = ?", telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram id: %w", err)
	}
	return &user, nil
}

// GetByID returns a user by internal ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := getOne(ctx, r.q, &user, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// GetOrCreate returns the user for a Telegram ID, creating it on first
// contact. Existing users get their names refreshed (empty values keep the
// stored ones) and last_active bumped to now.
func (r *UserRepository) GetOrCreate(ctx context.Context, in models.User, now time.Time) (*models.User, error) {
	user, err := r.GetByTelegramID(ctx, in.TelegramID)
	if errors.Is(err, ErrNotFound) {
		id, err := insertID(ctx, r.q,
			`INSERT INTO users (telegram_id, username, first_name, last_name, created_at, last_active)
			VALUES (?, ?, ?, ?, ?, ?)`,
			in.TelegramID, in.Username, in.FirstName, in.LastName, utc(now), utc(now))
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return r.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	if in.Username != "" {
		user.Username = in.Username
	}
	if in.FirstName != "" {
		user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		user.LastName = in.LastName
	}
	user.LastActive = utc(now)

	_, err = exec(ctx, r.q,
		"UPDATE users SET username = ?, first_name = ?, last_name = ?, last_active = ? WHERE id = ?",
		user.Username, user.FirstName, user.LastName, user.LastActive, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}
