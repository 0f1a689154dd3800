package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tinysteps/internal/models"
	"tinysteps/internal/suggestion"
)

const historyTitlesInPrompt = 10

// SuggestionService drives the per-user suggestion carousel: generating
// batches, moving the cursor and saving or discarding the candidate shown.
type SuggestionService struct {
	sessions   SessionStore
	generator  *GenerationService
	activities *ActivityService
	log        *zap.Logger
}

// NewSuggestionService creates a suggestion service
func NewSuggestionService(sessions SessionStore, generator *GenerationService, activities *ActivityService, log *zap.Logger) *SuggestionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SuggestionService{
		sessions:   sessions,
		generator:  generator,
		activities: activities,
		log:        log,
	}
}

// load returns the user's session for this student, starting a fresh one
// when the user was last looking at another student
func (s *SuggestionService) load(ctx context.Context, userID int64, student *models.Student) (suggestion.Session, error) {
	session, ok, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return suggestion.Session{}, err
	}
	if !ok {
		return suggestion.NewSession(student.ID), nil
	}
	return session.ForStudent(student.ID), nil
}

// Current returns the session without changing it
func (s *SuggestionService) Current(ctx context.Context, userID int64, student *models.Student) (suggestion.Session, error) {
	return s.load(ctx, userID, student)
}

// Generate requests a batch of suggestions. The first batch for a student
// sends the full profile; later ones only ask for titles not shown yet.
// On any failure the stored session is left as it was.
func (s *SuggestionService) Generate(ctx context.Context, userID int64, student *models.Student) (suggestion.Session, error) {
	if !student.RecentActivity.IsComplete() {
		return suggestion.Session{}, ErrRecentActivityIncomplete
	}

	session, err := s.load(ctx, userID, student)
	if err != nil {
		return suggestion.Session{}, err
	}

	var history []string
	if session.NeedsProfile() {
		history, err = s.activities.HistoryTitles(ctx, student.ID, historyTitlesInPrompt)
		if err != nil {
			return suggestion.Session{}, err
		}
	}

	result, err := s.generator.Candidates(ctx, session.Prompt(student, history))
	if err != nil {
		return suggestion.Session{}, err
	}

	session = session.Load(result.Candidates)
	if err := s.sessions.Put(ctx, userID, session); err != nil {
		return suggestion.Session{}, err
	}
	s.log.Debug("suggestions generated",
		zap.Int64("student_id", student.ID),
		zap.Stringer("kind", result.Kind),
		zap.Int("count", len(result.Candidates)),
		zap.Int("generation", session.Generations),
	)
	return session, nil
}

// Next moves the cursor forward
func (s *SuggestionService) Next(ctx context.Context, userID int64, student *models.Student) (suggestion.Session, error) {
	return s.move(ctx, userID, student, suggestion.Session.Next)
}

// Previous moves the cursor back
func (s *SuggestionService) Previous(ctx context.Context, userID int64, student *models.Student) (suggestion.Session, error) {
	return s.move(ctx, userID, student, suggestion.Session.Previous)
}

func (s *SuggestionService) move(ctx context.Context, userID int64, student *models.Student, step func(suggestion.Session) suggestion.Session) (suggestion.Session, error) {
	session, err := s.load(ctx, userID, student)
	if err != nil {
		return suggestion.Session{}, err
	}
	session = step(session)
	if err := s.sessions.Put(ctx, userID, session); err != nil {
		return suggestion.Session{}, err
	}
	return session, nil
}

// Save stores the candidate under the cursor and removes it from the carousel
func (s *SuggestionService) Save(ctx context.Context, userID int64, student *models.Student) (*models.StoredActivity, suggestion.Session, error) {
	return s.act(ctx, userID, student, s.activities.Save)
}

// Discard stores the candidate under the cursor as discarded and removes it from the carousel
func (s *SuggestionService) Discard(ctx context.Context, userID int64, student *models.Student) (*models.StoredActivity, suggestion.Session, error) {
	return s.act(ctx, userID, student, s.activities.Discard)
}

type dispatchFunc func(ctx context.Context, student *models.Student, candidate models.ActivityCandidate) (*models.StoredActivity, error)

func (s *SuggestionService) act(ctx context.Context, userID int64, student *models.Student, dispatch dispatchFunc) (*models.StoredActivity, suggestion.Session, error) {
	session, err := s.load(ctx, userID, student)
	if err != nil {
		return nil, suggestion.Session{}, err
	}
	candidate, ok := session.Current()
	if !ok {
		return nil, session, ErrNoSuggestion
	}

	stored, err := dispatch(ctx, student, candidate)
	if err != nil {
		return nil, session, err
	}

	session, err = session.Remove(session.Cursor)
	if errors.Is(err, suggestion.ErrNoCandidate) {
		return stored, session, ErrNoSuggestion
	}
	if err := s.sessions.Put(ctx, userID, session); err != nil {
		return stored, session, err
	}
	return stored, session, nil
}

// Reset clears the carousel and the shown titles for the user
func (s *SuggestionService) Reset(ctx context.Context, userID int64) error {
	return s.sessions.Delete(ctx, userID)
}
