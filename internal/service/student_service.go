package service

import (
	"context"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"tinysteps/internal/models"
	"tinysteps/internal/repository"
	"tinysteps/internal/validation"
)

//go:embed fixtures/samples.yaml
var sampleStudentsYAML []byte

// StudentService manages student profiles and their access rules. Owners
// read and write their own students; sample students are readable by
// everyone and writable by nobody.
type StudentService struct {
	repo *repository.StudentRepository
	log  *zap.Logger
}

// NewStudentService creates a new student service
func NewStudentService(repo *repository.StudentRepository, log *zap.Logger) *StudentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StudentService{repo: repo, log: log}
}

// ListStudents returns the students a user owns
func (s *StudentService) ListStudents(ctx context.Context, userID int64) ([]models.Student, error) {
	return s.repo.GetStudentsByUser(ctx, userID)
}

// GetStudent loads a student the user may read: one they own or a sample.
// Anything else is ErrNotFound so foreign IDs are not revealed.
func (s *StudentService) GetStudent(ctx context.Context, userID, id int64) (*models.Student, error) {
	student, err := s.repo.GetStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if student == nil || (!student.IsSample && !student.OwnedBy(userID)) {
		return nil, ErrNotFound
	}
	return student, nil
}

// GetWritableStudent loads a student the user may modify
func (s *StudentService) GetWritableStudent(ctx context.Context, userID, id int64) (*models.Student, error) {
	student, err := s.GetStudent(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if student.IsSample {
		return nil, ErrSampleReadOnly
	}
	return student, nil
}

// CreateStudent adds a student owned by userID
func (s *StudentService) CreateStudent(ctx context.Context, userID int64, student *models.Student) error {
	if err := validation.ValidateStudent(student); err != nil {
		return err
	}
	student.ID = 0
	student.UserID = &userID
	student.IsSample = false
	student.SampleKey = ""
	return s.repo.CreateStudent(ctx, student)
}

// UpdateStudent replaces the editable fields of a student
func (s *StudentService) UpdateStudent(ctx context.Context, userID, id int64, update *models.Student) (*models.Student, error) {
	existing, err := s.GetWritableStudent(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateStudent(update); err != nil {
		return nil, err
	}

	update.ID = existing.ID
	update.UserID = existing.UserID
	update.IsSample = false
	update.SampleKey = ""
	update.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdateStudent(ctx, update); err != nil {
		return nil, err
	}
	return update, nil
}

// DeleteStudent removes a student with all of its activities and stories
func (s *StudentService) DeleteStudent(ctx context.Context, userID, id int64) error {
	if _, err := s.GetWritableStudent(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.DeleteStudent(ctx, id)
}

// ListSamples returns the sample students
func (s *StudentService) ListSamples(ctx context.Context) ([]models.Student, error) {
	return s.repo.GetSamples(ctx)
}

// GetSample returns one sample student. Non-sample IDs are ErrNotFound.
func (s *StudentService) GetSample(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.GetStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if student == nil || !student.IsSample {
		return nil, ErrNotFound
	}
	return student, nil
}

// LoadSampleFixtures parses the embedded sample students
func LoadSampleFixtures() ([]models.Student, error) {
	var samples []models.Student
	if err := yaml.Unmarshal(sampleStudentsYAML, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse sample students: %w", err)
	}
	for i, sample := range samples {
		if sample.SampleKey == "" {
			return nil, fmt.Errorf("sample student %d has no key", i)
		}
		if err := validation.ValidateStudent(&samples[i]); err != nil {
			return nil, fmt.Errorf("sample student %q: %w", sample.SampleKey, err)
		}
	}
	return samples, nil
}

// SeedSamples creates or refreshes the sample students
func (s *StudentService) SeedSamples(ctx context.Context) error {
	samples, err := LoadSampleFixtures()
	if err != nil {
		return err
	}
	for i := range samples {
		created, err := s.repo.UpsertSample(ctx, &samples[i])
		if err != nil {
			return fmt.Errorf("failed to seed sample %q: %w", samples[i].SampleKey, err)
		}
		s.log.Debug("sample student seeded",
			zap.String("key", samples[i].SampleKey),
			zap.Int64("student_id", samples[i].ID),
			zap.Bool("created", created),
		)
	}
	s.log.Info("sample students ready", zap.Int("count", len(samples)))
	return nil
}
