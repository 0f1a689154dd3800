package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"tinysteps/internal/database"
	"tinysteps/internal/models"
	"tinysteps/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData is the complete export document. Sample students are left out;
// they are re-seeded on startup.
type BackupData struct {
	Version      string                  `json:"version"`
	ExportedAt   time.Time               `json:"exported_at"`
	DatabaseType string                  `json:"database_type"`
	Users        []UserBackup            `json:"users"`
	Students     []models.Student        `json:"students"`
	Activities   []models.StoredActivity `json:"activities"`
	Stories      []models.Story          `json:"stories"`
}

// UserBackup is a user with the fields the API never serializes
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// clearOrder lists tables children first
var clearOrder = []string{
	"stories",
	"student_activities",
	"students",
	"password_reset_tokens",
	"users",
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db         *database.DB
	users      *repository.UserRepository
	students   *repository.StudentRepository
	activities *repository.ActivityRepository
	stories    *repository.StoryRepository
	log        *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *zap.Logger) *BackupService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BackupService{
		db:         db,
		users:      repository.NewUserRepository(db),
		students:   repository.NewStudentRepository(db),
		activities: repository.NewActivityRepository(db),
		stories:    repository.NewStoryRepository(db),
		log:        log,
	}
}

// Export writes every user, owned student, activity and story as indented JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.GetDialect().DriverName(),
	}

	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			ID:            u.ID,
			Email:         u.Email,
			PasswordHash:  u.PasswordHash,
			Name:          u.Name,
			OAuthProvider: u.OAuthProvider,
			OAuthSubject:  u.OAuthSubject,
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
		})
	}

	if backup.Students, err = s.students.GetAllOwnedStudents(ctx); err != nil {
		return nil, fmt.Errorf("failed to export students: %w", err)
	}
	owned := make(map[int64]bool, len(backup.Students))
	for _, st := range backup.Students {
		owned[st.ID] = true
	}

	activities, err := s.activities.GetAllActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export activities: %w", err)
	}
	for _, a := range activities {
		if owned[a.StudentID] {
			backup.Activities = append(backup.Activities, a)
		}
	}

	stories, err := s.stories.GetAllStories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export stories: %w", err)
	}
	for _, st := range stories {
		if owned[st.StudentID] {
			backup.Stories = append(backup.Stories, st)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("database exported",
		zap.Int("users", len(backup.Users)),
		zap.Int("students", len(backup.Students)),
		zap.Int("activities", len(backup.Activities)),
		zap.Int("stories", len(backup.Stories)),
	)
	return backup, nil
}

// Import restores a backup in one transaction, keeping the original IDs
func (s *BackupService) Import(ctx context.Context, r io.Reader) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}
	s.log.Info("importing backup",
		zap.String("version", backup.Version),
		zap.Time("exported_at", backup.ExportedAt),
	)

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := importUsers(ctx, tx, backup.Users); err != nil {
			return fmt.Errorf("failed to import users: %w", err)
		}
		if err := importStudents(ctx, tx, backup.Students); err != nil {
			return fmt.Errorf("failed to import students: %w", err)
		}
		if err := importActivities(ctx, tx, backup.Activities); err != nil {
			return fmt.Errorf("failed to import activities: %w", err)
		}
		if err := importStories(ctx, tx, backup.Stories); err != nil {
			return fmt.Errorf("failed to import stories: %w", err)
		}
		return resyncSequences(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("database import completed")
	return &backup, nil
}

// Clear deletes every row the backup covers, children first
func (s *BackupService) Clear(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, table := range clearOrder {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			s.log.Info("cleared table", zap.String("table", table))
		}
		return nil
	})
}

func importUsers(ctx context.Context, tx *database.Tx, users []UserBackup) error {
	query := `INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, u := range users {
		_, err := tx.ExecContext(ctx, query,
			u.ID, u.Email, u.PasswordHash, u.Name, u.OAuthProvider, u.OAuthSubject, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	return nil
}

func importStudents(ctx context.Context, tx *database.Tx, students []models.Student) error {
	query := `INSERT INTO students (id, user_id, is_sample, name, age_months, description, gender,
			personality, developmental_stage, learning_style, social_behavior, energy_level,
			interests, goals, recent_name, recent_result, recent_difficulty, recent_observations,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, st := range students {
		interests, err := json.Marshal(nonNilStrings(st.Interests))
		if err != nil {
			return err
		}
		goals, err := json.Marshal(nonNilStrings(st.Goals))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query,
			st.ID, st.UserID, false, st.Name, st.AgeMonths, st.Description, st.Gender,
			st.Personality, st.DevelopmentalStage, st.LearningStyle, st.SocialBehavior, st.EnergyLevel,
			string(interests), string(goals),
			st.RecentActivity.Name, st.RecentActivity.Result, st.RecentActivity.DifficultyLevel, st.RecentActivity.Observations,
			st.CreatedAt, st.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("student %d: %w", st.ID, err)
		}
	}
	return nil
}

func importActivities(ctx context.Context, tx *database.Tx, activities []models.StoredActivity) error {
	query := `INSERT INTO student_activities (id, student_id, collection, title, why_it_works, skills, notes,
			name, result, difficulty_level, activity_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, a := range activities {
		skills := a.Skills
		if skills == nil {
			skills = []models.SkillTag{}
		}
		encoded, err := json.Marshal(skills)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query,
			a.ID, a.StudentID, string(a.Collection), a.Title, a.WhyItWorks, string(encoded), a.Notes,
			a.Name, a.Result, a.DifficultyLevel, a.Date, a.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("activity %d: %w", a.ID, err)
		}
	}
	return nil
}

func importStories(ctx context.Context, tx *database.Tx, stories []models.Story) error {
	query := `INSERT INTO stories (id, student_id, title, content, context, generated_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, st := range stories {
		_, err := tx.ExecContext(ctx, query, st.ID, st.StudentID, st.Title, st.Content, st.Context, st.GeneratedAt, st.CreatedAt)
		if err != nil {
			return fmt.Errorf("story %d: %w", st.ID, err)
		}
	}
	return nil
}

// resyncSequences moves postgres serial sequences past the imported IDs.
// SQLite and MySQL advance their counters on explicit inserts.
func resyncSequences(ctx context.Context, tx *database.Tx) error {
	if tx.GetDialect().DriverName() != "postgres" {
		return nil
	}
	for _, table := range []string{"users", "students", "student_activities", "stories"} {
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s", table, table)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to resync %s sequence: %w", table, err)
		}
	}
	return nil
}

func nonNilStrings(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
