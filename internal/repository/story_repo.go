package repository

import (
	"context"
	"fmt"
	"time"

	"tinysteps/internal/database"
	"tinysteps/internal/models"
)

// StoryRepository handles saved stories
type StoryRepository struct {
	db *database.DB
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db *database.DB) *StoryRepository {
	return &StoryRepository{db: db}
}

const storyColumns = `id, student_id, title, content, context, generated_at, created_at`

// CreateStory saves a story and sets its ID
func (r *StoryRepository) CreateStory(ctx context.Context, s *models.Story) error {
	now := time.Now().UTC()
	if s.GeneratedAt.IsZero() {
		s.GeneratedAt = now
	}
	query := `
		INSERT INTO stories (student_id, title, content, context, generated_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, s.StudentID, s.Title, s.Content, s.Context, s.GeneratedAt.UTC(), now)
	if err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}
	s.ID = id
	s.CreatedAt = now
	return nil
}

// GetStoriesByStudent lists a student's stories, newest first
func (r *StoryRepository) GetStoriesByStudent(ctx context.Context, studentID int64) ([]models.Story, error) {
	return r.list(ctx, "SELECT "+storyColumns+" FROM stories WHERE student_id = ? ORDER BY generated_at DESC, id DESC", studentID)
}

// GetAllStories retrieves every story, for backups
func (r *StoryRepository) GetAllStories(ctx context.Context) ([]models.Story, error) {
	return r.list(ctx, "SELECT "+storyColumns+" FROM stories ORDER BY id ASC")
}

func (r *StoryRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Story, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stories: %w", err)
	}
	defer rows.Close()

	stories := []models.Story{}
	for rows.Next() {
		var s models.Story
		if err := rows.Scan(&s.ID, &s.StudentID, &s.Title, &s.Content, &s.Context, &s.GeneratedAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

// DeleteStory removes a story. Reports false when nothing matched.
func (r *StoryRepository) DeleteStory(ctx context.Context, studentID, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM stories WHERE id = ? AND student_id = ?", id, studentID)
	if err != nil {
		return false, fmt.Errorf("failed to delete story: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n > 0, nil
}
