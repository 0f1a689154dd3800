package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"tinysteps/internal/metrics"
	"tinysteps/internal/models"
	"tinysteps/internal/repository"
	"tinysteps/internal/suggestion"
	"tinysteps/internal/validation"
)

// ActivityStore persists a student's activity collections
type ActivityStore interface {
	AppendActivity(ctx context.Context, a *models.StoredActivity) error
	GetActivities(ctx context.Context, studentID int64, collection models.Collection) ([]models.StoredActivity, error)
	GetActivity(ctx context.Context, studentID int64, collection models.Collection, id int64) (*models.StoredActivity, error)
	GetRecentTitles(ctx context.Context, studentID int64, collection models.Collection, limit int) ([]string, error)
	DeleteActivity(ctx context.Context, studentID int64, collection models.Collection, id int64) (bool, error)
	RestoreDiscarded(ctx context.Context, studentID, id int64, skills []models.SkillTag) (*models.StoredActivity, error)
}

var _ ActivityStore = (*repository.ActivityRepository)(nil)

// Activity actions, used as metric labels
const (
	ActionSave    = "save"
	ActionDiscard = "discard"
	ActionHistory = "history"
	ActionPast    = "past"
	ActionRestore = "restore"
)

// ActivityService dispatches save and discard actions on suggestions and
// manages the stored collections. Every write refuses sample students and,
// except for guardian-logged past activities, requires at least one skill
// in a recognised category.
type ActivityService struct {
	store   ActivityStore
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(store ActivityStore, m *metrics.Metrics, log *zap.Logger) *ActivityService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ActivityService{store: store, metrics: m, log: log}
}

// Save stores a candidate in the student's saved collection
func (s *ActivityService) Save(ctx context.Context, student *models.Student, candidate models.ActivityCandidate) (*models.StoredActivity, error) {
	return s.dispatch(ctx, ActionSave, student, models.CollectionSaved, candidate)
}

// Discard stores a candidate in the student's discarded collection
func (s *ActivityService) Discard(ctx context.Context, student *models.Student, candidate models.ActivityCandidate) (*models.StoredActivity, error) {
	return s.dispatch(ctx, ActionDiscard, student, models.CollectionDiscarded, candidate)
}

// AddToHistory records a candidate as done
func (s *ActivityService) AddToHistory(ctx context.Context, student *models.Student, candidate models.ActivityCandidate) (*models.StoredActivity, error) {
	return s.dispatch(ctx, ActionHistory, student, models.CollectionHistory, candidate)
}

// Add stores a candidate in any collection
func (s *ActivityService) Add(ctx context.Context, student *models.Student, collection models.Collection, candidate models.ActivityCandidate) (*models.StoredActivity, error) {
	switch collection {
	case models.CollectionSaved:
		return s.Save(ctx, student, candidate)
	case models.CollectionDiscarded:
		return s.Discard(ctx, student, candidate)
	case models.CollectionHistory:
		return s.AddToHistory(ctx, student, candidate)
	}
	return nil, ErrNotFound
}

func (s *ActivityService) dispatch(ctx context.Context, action string, student *models.Student, collection models.Collection, candidate models.ActivityCandidate) (*models.StoredActivity, error) {
	if student.IsSample {
		s.metrics.ActivityAction(action, metrics.OutcomeRejected)
		return nil, ErrSampleReadOnly
	}

	skills, err := checkSkills(candidate.Skills)
	if err != nil {
		s.metrics.ActivityAction(action, metrics.OutcomeRejected)
		return nil, err
	}

	a := &models.StoredActivity{
		StudentID:  student.ID,
		Collection: collection,
		Title:      strings.TrimSpace(candidate.Title),
		WhyItWorks: candidate.WhyItWorks,
		Skills:     skills,
		Notes:      candidate.Notes,
	}
	if err := s.store.AppendActivity(ctx, a); err != nil {
		s.metrics.ActivityAction(action, metrics.OutcomeFailed)
		return nil, err
	}

	s.metrics.ActivityAction(action, metrics.OutcomeOK)
	s.log.Debug("activity stored",
		zap.String("action", action),
		zap.Int64("student_id", student.ID),
		zap.Int64("activity_id", a.ID),
	)
	return a, nil
}

// checkSkills normalizes tags and requires at least one in a known category
func checkSkills(tags []models.SkillTag) ([]models.SkillTag, error) {
	return suggestion.CanonicalizeSkills(suggestion.NormalizeSkills(tags))
}

// AddPastActivity logs an activity the student already did
func (s *ActivityService) AddPastActivity(ctx context.Context, student *models.Student, a *models.StoredActivity) error {
	if student.IsSample {
		s.metrics.ActivityAction(ActionPast, metrics.OutcomeRejected)
		return ErrSampleReadOnly
	}
	a.Name = strings.TrimSpace(a.Name)
	if err := validation.ValidatePastActivity(a); err != nil {
		s.metrics.ActivityAction(ActionPast, metrics.OutcomeRejected)
		return err
	}

	a.ID = 0
	a.StudentID = student.ID
	a.Collection = models.CollectionHistory
	if len(a.Skills) > 0 {
		a.Skills = suggestion.NormalizeSkills(a.Skills)
	}
	if err := s.store.AppendActivity(ctx, a); err != nil {
		s.metrics.ActivityAction(ActionPast, metrics.OutcomeFailed)
		return err
	}
	s.metrics.ActivityAction(ActionPast, metrics.OutcomeOK)
	return nil
}

// Restore moves a discarded activity back to saved. It returns nil when a
// saved activity with the same title already existed, in which case the
// discarded entry is only removed.
func (s *ActivityService) Restore(ctx context.Context, student *models.Student, activityID int64) (*models.StoredActivity, error) {
	if student.IsSample {
		s.metrics.ActivityAction(ActionRestore, metrics.OutcomeRejected)
		return nil, ErrSampleReadOnly
	}

	discarded, err := s.store.GetActivity(ctx, student.ID, models.CollectionDiscarded, activityID)
	if err != nil {
		return nil, err
	}
	if discarded == nil {
		return nil, ErrNotFound
	}
	skills, err := checkSkills(discarded.Skills)
	if err != nil {
		s.metrics.ActivityAction(ActionRestore, metrics.OutcomeRejected)
		return nil, err
	}

	restored, err := s.store.RestoreDiscarded(ctx, student.ID, activityID, skills)
	if errors.Is(err, repository.ErrActivityNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.metrics.ActivityAction(ActionRestore, metrics.OutcomeFailed)
		return nil, err
	}
	s.metrics.ActivityAction(ActionRestore, metrics.OutcomeOK)
	return restored, nil
}

// List returns one collection of a student
func (s *ActivityService) List(ctx context.Context, student *models.Student, collection models.Collection) ([]models.StoredActivity, error) {
	return s.store.GetActivities(ctx, student.ID, collection)
}

// Delete removes an activity from a collection
func (s *ActivityService) Delete(ctx context.Context, student *models.Student, collection models.Collection, activityID int64) error {
	if student.IsSample {
		return ErrSampleReadOnly
	}
	found, err := s.store.DeleteActivity(ctx, student.ID, collection, activityID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// HistoryTitles returns the most recent history titles, newest first
func (s *ActivityService) HistoryTitles(ctx context.Context, studentID int64, limit int) ([]string, error) {
	return s.store.GetRecentTitles(ctx, studentID, models.CollectionHistory, limit)
}

// ActivityComparison is the skill overlap of two saved activities
type ActivityComparison struct {
	A      models.StoredActivity      `json:"a"`
	B      models.StoredActivity      `json:"b"`
	Skills suggestion.SkillComparison `json:"skills"`
}

// Compare contrasts the skills of two saved activities
func (s *ActivityService) Compare(ctx context.Context, student *models.Student, aID, bID int64) (*ActivityComparison, error) {
	a, err := s.store.GetActivity(ctx, student.ID, models.CollectionSaved, aID)
	if err != nil {
		return nil, err
	}
	b, err := s.store.GetActivity(ctx, student.ID, models.CollectionSaved, bID)
	if err != nil {
		return nil, err
	}
	if a == nil || b == nil {
		return nil, ErrNotFound
	}
	return &ActivityComparison{A: *a, B: *b, Skills: suggestion.CompareSkills(a.Skills, b.Skills)}, nil
}
