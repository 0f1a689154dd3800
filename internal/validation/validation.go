package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"tinysteps/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

const maxAgeMonths = 120

// ValidateStudent checks the editable fields of a student profile
func ValidateStudent(s *models.Student) error {
	if strings.TrimSpace(s.Name) == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if s.AgeMonths < 0 || s.AgeMonths > maxAgeMonths {
		return ValidationError{Field: "age_months", Message: fmt.Sprintf("age must be between 0 and %d months", maxAgeMonths)}
	}
	if s.RecentActivity.Result != "" && !slices.Contains(models.ActivityResults, s.RecentActivity.Result) {
		return ValidationError{Field: "recent_activity.result", Message: "must be one of: " + strings.Join(models.ActivityResults, ", ")}
	}
	if s.RecentActivity.DifficultyLevel != "" && !slices.Contains(models.DifficultyLevels, s.RecentActivity.DifficultyLevel) {
		return ValidationError{Field: "recent_activity.difficulty_level", Message: "must be one of: " + strings.Join(models.DifficultyLevels, ", ")}
	}
	return nil
}

// ValidatePastActivity checks a guardian-logged activity. Notes are optional.
func ValidatePastActivity(a *models.StoredActivity) error {
	if strings.TrimSpace(a.Name) == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if !slices.Contains(models.ActivityResults, a.Result) {
		return ValidationError{Field: "result", Message: "must be one of: " + strings.Join(models.ActivityResults, ", ")}
	}
	if !slices.Contains(models.DifficultyLevels, a.DifficultyLevel) {
		return ValidationError{Field: "difficulty_level", Message: "must be one of: " + strings.Join(models.DifficultyLevels, ", ")}
	}
	if a.Date.IsZero() {
		return ValidationError{Field: "date", Message: "date is required"}
	}
	return nil
}
