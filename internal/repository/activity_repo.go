package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tinysteps/internal/database"
	"tinysteps/internal/models"
)

// ActivityRepository stores saved, discarded and history activities
type ActivityRepository struct {
	db *database.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, student_id, collection, title, why_it_works, skills, notes,
	name, result, difficulty_level, activity_date, created_at`

func scanActivity(row interface{ Scan(...interface{}) error }) (*models.StoredActivity, error) {
	a := &models.StoredActivity{}
	var collection, skills string
	err := row.Scan(
		&a.ID, &a.StudentID, &collection, &a.Title, &a.WhyItWorks, &skills, &a.Notes,
		&a.Name, &a.Result, &a.DifficultyLevel, &a.Date, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Collection = models.Collection(collection)
	if a.Skills, err = decodeSkills(skills); err != nil {
		return nil, err
	}
	return a, nil
}

// AppendActivity inserts an activity into its collection and sets ID and CreatedAt.
// A zero Date defaults to now.
func (r *ActivityRepository) AppendActivity(ctx context.Context, a *models.StoredActivity) error {
	return appendActivity(ctx, r.db, a)
}

func appendActivity(ctx context.Context, db database.DBTX, a *models.StoredActivity) error {
	if !a.Collection.Valid() {
		return fmt.Errorf("unknown collection %q", a.Collection)
	}
	skills, err := encodeSkills(a.Skills)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if a.Date.IsZero() {
		a.Date = now
	}
	query := `
		INSERT INTO student_activities (student_id, collection, title, why_it_works, skills, notes,
			name, result, difficulty_level, activity_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := db.ExecReturningID(ctx, query,
		a.StudentID, string(a.Collection), a.Title, a.WhyItWorks, skills, a.Notes,
		a.Name, a.Result, a.DifficultyLevel, a.Date.UTC(), now,
	)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}

	a.ID = id
	a.CreatedAt = now
	return nil
}

// GetActivities lists one collection of a student in the order entries were added
func (r *ActivityRepository) GetActivities(ctx context.Context, studentID int64, collection models.Collection) ([]models.StoredActivity, error) {
	query := "SELECT " + activityColumns + " FROM student_activities WHERE student_id = ? AND collection = ? ORDER BY id ASC"
	rows, err := r.db.QueryContext(ctx, query, studentID, string(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []models.StoredActivity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

// GetRecentTitles returns up to limit display titles from a collection, newest first
func (r *ActivityRepository) GetRecentTitles(ctx context.Context, studentID int64, collection models.Collection, limit int) ([]string, error) {
	query := `
		SELECT title, name FROM student_activities
		WHERE student_id = ? AND collection = ?
		ORDER BY activity_date DESC, id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, studentID, string(collection), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var a models.StoredActivity
		if err := rows.Scan(&a.Title, &a.Name); err != nil {
			return nil, fmt.Errorf("failed to scan activity title: %w", err)
		}
		if t := a.DisplayTitle(); t != "" {
			titles = append(titles, t)
		}
	}
	return titles, rows.Err()
}

// GetActivity retrieves one activity of a student in a collection. Returns nil when not found.
func (r *ActivityRepository) GetActivity(ctx context.Context, studentID int64, collection models.Collection, id int64) (*models.StoredActivity, error) {
	return getActivity(ctx, r.db, studentID, collection, id)
}

func getActivity(ctx context.Context, db database.DBTX, studentID int64, collection models.Collection, id int64) (*models.StoredActivity, error) {
	query := "SELECT " + activityColumns + " FROM student_activities WHERE id = ? AND student_id = ? AND collection = ?"
	a, err := scanActivity(db.QueryRowContext(ctx, query, id, studentID, string(collection)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

// DeleteActivity removes one activity. Reports false when nothing matched.
func (r *ActivityRepository) DeleteActivity(ctx context.Context, studentID int64, collection models.Collection, id int64) (bool, error) {
	return deleteActivity(ctx, r.db, studentID, collection, id)
}

func deleteActivity(ctx context.Context, db database.DBTX, studentID int64, collection models.Collection, id int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		"DELETE FROM student_activities WHERE id = ? AND student_id = ? AND collection = ?",
		id, studentID, string(collection))
	if err != nil {
		return false, fmt.Errorf("failed to delete activity: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return n > 0, nil
}

// RestoreDiscarded moves a discarded activity into saved, storing skills in
// place of the discarded entry's tags when given. When a saved activity with
// the same title already exists the discarded entry is only removed, and
// restored is nil. Returns ErrActivityNotFound when the discarded entry is missing.
func (r *ActivityRepository) RestoreDiscarded(ctx context.Context, studentID, id int64, skills []models.SkillTag) (restored *models.StoredActivity, err error) {
	err = r.db.WithTx(ctx, func(tx *database.Tx) error {
		discarded, err := getActivity(ctx, tx, studentID, models.CollectionDiscarded, id)
		if err != nil {
			return err
		}
		if discarded == nil {
			return ErrActivityNotFound
		}

		exists, err := hasSavedTitle(ctx, tx, studentID, discarded.Title)
		if err != nil {
			return err
		}

		if _, err := deleteActivity(ctx, tx, studentID, models.CollectionDiscarded, id); err != nil {
			return err
		}
		if exists {
			return nil
		}

		saved := *discarded
		saved.ID = 0
		saved.Collection = models.CollectionSaved
		saved.Date = time.Time{}
		if skills != nil {
			saved.Skills = skills
		}
		if err := appendActivity(ctx, tx, &saved); err != nil {
			return err
		}
		restored = &saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// hasSavedTitle folds case in Go: SQLite's LOWER only handles ASCII.
func hasSavedTitle(ctx context.Context, db database.DBTX, studentID int64, title string) (bool, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT title FROM student_activities WHERE student_id = ? AND collection = ?",
		studentID, string(models.CollectionSaved))
	if err != nil {
		return false, fmt.Errorf("failed to check saved activities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var saved string
		if err := rows.Scan(&saved); err != nil {
			return false, fmt.Errorf("failed to scan saved title: %w", err)
		}
		if strings.EqualFold(strings.TrimSpace(saved), strings.TrimSpace(title)) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// GetAllActivities retrieves every stored activity, for backups
func (r *ActivityRepository) GetAllActivities(ctx context.Context) ([]models.StoredActivity, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+activityColumns+" FROM student_activities ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []models.StoredActivity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}
