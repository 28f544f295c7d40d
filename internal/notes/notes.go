// Package notes files free-text notes under user-chosen categories.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/logger"
	"github.com/example/studybot/internal/textutil"
	"github.com/example/studybot/pkg/models"
)

// ErrEmptyContent is returned when a note has no text
var ErrEmptyContent = errors.New("note content is empty")

// Service manages a user's notes
type Service struct {
	db    *database.DB
	clock *clock.Clock
	log   *logger.Logger
}

// NewService creates a notes service
func NewService(db *database.DB, clk *clock.Clock, log *logger.Logger) *Service {
	return &Service{db: db, clock: clk, log: log.With("component", "notes")}
}

// NormalizeCategory trims and capitalizes a category, "Genel" when empty
func NormalizeCategory(category string) string {
	category = textutil.Capitalize(category)
	if category == "" {
		return models.DefaultNoteCategory
	}
	return category
}

// Add stores a note
func (s *Service) Add(ctx context.Context, userID int64, category, content string) (*models.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	note := &models.Note{
		UserID:   userID,
		Category: NormalizeCategory(category),
		Content:  content,
	}
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		return r.Notes.Create(ctx, note, s.clock.NowUTC())
	})
	if err != nil {
		s.log.Error("Failed to add note", "user_id", userID, "error", err)
		return nil, err
	}

	s.log.Info("Note added", "user_id", userID, "category", note.Category, "note_id", note.ID)
	return note, nil
}

// List returns all notes newest first
func (s *Service) List(ctx context.Context, userID int64) ([]models.Note, error) {
	var notes []models.Note
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		notes, err = r.Notes.List(ctx, userID, "")
		return err
	})
	if err != nil {
		s.log.Error("Failed to list notes", "user_id", userID, "error", err)
		return nil, err
	}
	return notes, nil
}

// ByCategory returns the notes in one category. Categories are compared
// folded, so "MATEMATIK" finds notes filed under "Matematik".
func (s *Service) ByCategory(ctx context.Context, userID int64, category string) ([]models.Note, error) {
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	notes := []models.Note{}
	for _, n := range all {
		if textutil.EqualFold(n.Category, category) {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

// Search returns notes whose content or category contains keyword,
// compared with Turkish case folding.
func (s *Service) Search(ctx context.Context, userID int64, keyword string) ([]models.Note, error) {
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	found := []models.Note{}
	for _, n := range all {
		if textutil.ContainsFold(n.Content, keyword) || textutil.ContainsFold(n.Category, keyword) {
			found = append(found, n)
		}
	}
	return found, nil
}

// Delete removes one of the user's notes. A missing or foreign note yields
// an error wrapping database.ErrNotFound.
func (s *Service) Delete(ctx context.Context, userID, noteID int64) error {
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		return r.Notes.Delete(ctx, userID, noteID)
	})
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.log.Warn("Note not found", "user_id", userID, "note_id", noteID)
		return err
	case err != nil:
		s.log.Error("Failed to delete note", "user_id", userID, "note_id", noteID, "error", err)
		return err
	}

	s.log.Info("Note deleted", "user_id", userID, "note_id", noteID)
	return nil
}

// Categories returns the user's categories with note counts
func (s *Service) Categories(ctx context.Context, userID int64) ([]models.CategoryCount, error) {
	var cats []models.CategoryCount
	err := s.db.InTx(ctx, func(r *database.Repositories) error {
		var err error
		cats, err = r.Notes.Categories(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return cats, nil
}

// Count returns the number of notes, optionally within one category
func (s *Service) Count(ctx context.Context, userID int64, category string) (int, error) {
	if category == "" {
		var n int
		err := s.db.InTx(ctx, func(r *database.Repositories) error {
			var err error
			n, err = r.Notes.Count(ctx, userID)
			return err
		})
		return n, err
	}

	notes, err := s.ByCategory(ctx, userID, category)
	if err != nil {
		return 0, err
	}
	return len(notes), nil
}
