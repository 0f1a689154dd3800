package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"tinysteps/internal/models"
	"tinysteps/internal/repository"
	"tinysteps/internal/validation"
)

// StoryStore persists generated stories
type StoryStore interface {
	CreateStory(ctx context.Context, s *models.Story) error
	GetStoriesByStudent(ctx context.Context, studentID int64) ([]models.Story, error)
	DeleteStory(ctx context.Context, studentID, id int64) (bool, error)
}

var _ StoryStore = (*repository.StoryRepository)(nil)

// StoryService manages the stories saved under a student
type StoryService struct {
	store StoryStore
	log   *zap.Logger
}

// NewStoryService creates a story service
func NewStoryService(store StoryStore, log *zap.Logger) *StoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StoryService{store: store, log: log}
}

// List returns a student's stories, newest first
func (s *StoryService) List(ctx context.Context, student *models.Student) ([]models.Story, error) {
	return s.store.GetStoriesByStudent(ctx, student.ID)
}

// Save stores a story under a student
func (s *StoryService) Save(ctx context.Context, student *models.Student, story *models.Story) error {
	if student.IsSample {
		return ErrSampleReadOnly
	}
	story.Title = strings.TrimSpace(story.Title)
	if story.Title == "" {
		return validation.ValidationError{Field: "title", Message: "title is required"}
	}
	if strings.TrimSpace(story.Content) == "" {
		return validation.ValidationError{Field: "content", Message: "content is required"}
	}

	story.ID = 0
	story.StudentID = student.ID
	if err := s.store.CreateStory(ctx, story); err != nil {
		return err
	}
	s.log.Debug("story saved", zap.Int64("student_id", student.ID), zap.Int64("story_id", story.ID))
	return nil
}

// Delete removes a story
func (s *StoryService) Delete(ctx context.Context, student *models.Student, storyID int64) error {
	if student.IsSample {
		return ErrSampleReadOnly
	}
	found, err := s.store.DeleteStory(ctx, student.ID, storyID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
