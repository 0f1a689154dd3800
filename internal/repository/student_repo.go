package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tinysteps/internal/database"
	"tinysteps/internal/models"
)

// StudentRepository handles database operations for student profiles
type StudentRepository struct {
	db *database.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, user_id, is_sample, sample_key, name, age_months, description, gender,
	personality, developmental_stage, learning_style, social_behavior, energy_level,
	interests, goals, recent_name, recent_result, recent_difficulty, recent_observations,
	created_at, updated_at`

func scanStudent(row interface{ Scan(...interface{}) error }) (*models.Student, error) {
	s := &models.Student{}
	var userID sql.NullInt64
	var sampleKey sql.NullString
	var interests, goals string

	err := row.Scan(
		&s.ID, &userID, &s.IsSample, &sampleKey, &s.Name, &s.AgeMonths, &s.Description, &s.Gender,
		&s.Personality, &s.DevelopmentalStage, &s.LearningStyle, &s.SocialBehavior, &s.EnergyLevel,
		&interests, &goals,
		&s.RecentActivity.Name, &s.RecentActivity.Result, &s.RecentActivity.DifficultyLevel, &s.RecentActivity.Observations,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		id := userID.Int64
		s.UserID = &id
	}
	s.SampleKey = sampleKey.String

	if s.Interests, err = decodeStrings(interests); err != nil {
		return nil, err
	}
	if s.Goals, err = decodeStrings(goals); err != nil {
		return nil, err
	}
	return s, nil
}

func nullableUserID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateStudent inserts a student and sets its ID and timestamps
func (r *StudentRepository) CreateStudent(ctx context.Context, s *models.Student) error {
	interests, err := encodeStrings(s.Interests)
	if err != nil {
		return err
	}
	goals, err := encodeStrings(s.Goals)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO students (user_id, is_sample, sample_key, name, age_months, description, gender,
			personality, developmental_stage, learning_style, social_behavior, energy_level,
			interests, goals, recent_name, recent_result, recent_difficulty, recent_observations,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		nullableUserID(s.UserID), s.IsSample, nullableString(s.SampleKey), s.Name, s.AgeMonths, s.Description, s.Gender,
		s.Personality, s.DevelopmentalStage, s.LearningStyle, s.SocialBehavior, s.EnergyLevel,
		interests, goals,
		s.RecentActivity.Name, s.RecentActivity.Result, s.RecentActivity.DifficultyLevel, s.RecentActivity.Observations,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}

	s.ID = id
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// GetStudentByID retrieves a student. Returns nil when not found.
func (r *StudentRepository) GetStudentByID(ctx context.Context, id int64) (*models.Student, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+studentColumns+" FROM students WHERE id = ?", id)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return s, nil
}

// GetSampleByKey retrieves a sample student by its seed key. Returns nil when not found.
func (r *StudentRepository) GetSampleByKey(ctx context.Context, key string) (*models.Student, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+studentColumns+" FROM students WHERE sample_key = ?", key)
	s, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sample student: %w", err)
	}
	return s, nil
}

// GetStudentsByUser retrieves the students a user owns, in creation order
func (r *StudentRepository) GetStudentsByUser(ctx context.Context, userID int64) ([]models.Student, error) {
	return r.list(ctx, "SELECT "+studentColumns+" FROM students WHERE user_id = ? ORDER BY id ASC", userID)
}

// GetSamples retrieves the read-only sample students
func (r *StudentRepository) GetSamples(ctx context.Context) ([]models.Student, error) {
	return r.list(ctx, "SELECT "+studentColumns+" FROM students WHERE is_sample = ? ORDER BY id ASC", true)
}

// GetAllOwnedStudents retrieves every student that belongs to a user
func (r *StudentRepository) GetAllOwnedStudents(ctx context.Context) ([]models.Student, error) {
	return r.list(ctx, "SELECT "+studentColumns+" FROM students WHERE is_sample = ? ORDER BY id ASC", false)
}

func (r *StudentRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Student, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	students := []models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

// UpdateStudent writes every editable profile field
func (r *StudentRepository) UpdateStudent(ctx context.Context, s *models.Student) error {
	interests, err := encodeStrings(s.Interests)
	if err != nil {
		return err
	}
	goals, err := encodeStrings(s.Goals)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	query := `
		UPDATE students
		SET name = ?, age_months = ?, description = ?, gender = ?, personality = ?,
			developmental_stage = ?, learning_style = ?, social_behavior = ?, energy_level = ?,
			interests = ?, goals = ?, recent_name = ?, recent_result = ?, recent_difficulty = ?,
			recent_observations = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.ExecContext(ctx, query,
		s.Name, s.AgeMonths, s.Description, s.Gender, s.Personality,
		s.DevelopmentalStage, s.LearningStyle, s.SocialBehavior, s.EnergyLevel,
		interests, goals, s.RecentActivity.Name, s.RecentActivity.Result, s.RecentActivity.DifficultyLevel,
		s.RecentActivity.Observations, now, s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	s.UpdatedAt = now
	return nil
}

// DeleteStudent removes a student together with its activities and stories
func (r *StudentRepository) DeleteStudent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return nil
}

// UpsertSample creates or refreshes a sample student keyed by SampleKey
func (r *StudentRepository) UpsertSample(ctx context.Context, s *models.Student) (created bool, err error) {
	if s.SampleKey == "" {
		return false, fmt.Errorf("sample student has no key")
	}
	s.IsSample = true
	s.UserID = nil

	existing, err := r.GetSampleByKey(ctx, s.SampleKey)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return true, r.CreateStudent(ctx, s)
	}

	s.ID = existing.ID
	s.CreatedAt = existing.CreatedAt
	return false, r.UpdateStudent(ctx, s)
}
