package validation

import (
	"errors"
	"testing"
	"time"

	"tinysteps/internal/models"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "user@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "missing local part",
			email:   "@example.com",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
		{
			name:    "spaces in email",
			email:   "test @example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "valid name",
			input:   "John Doe",
			wantErr: false,
		},
		{
			name:    "single name",
			input:   "John",
			wantErr: false,
		},
		{
			name:    "empty name",
			input:   "",
			wantErr: true,
		},
		{
			name:    "name too short",
			input:   "J",
			wantErr: true,
		},
		{
			name:    "name with hyphen",
			input:   "Mary-Jane",
			wantErr: false,
		},
		{
			name:    "name with apostrophe",
			input:   "O'Brien",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "valid password",
			password: "password123",
			wantErr:  false,
		},
		{
			name:     "password exactly 8 characters",
			password: "pass1234",
			wantErr:  false,
		},
		{
			name:     "password too short",
			password: "pass123",
			wantErr:  true,
		},
		{
			name:     "empty password",
			password: "",
			wantErr:  true,
		},
		{
			name:     "long password",
			password: "thisIsAVeryLongPasswordThatShouldBeValid123",
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStudent(t *testing.T) {
	tests := []struct {
		name    string
		student models.Student
		field   string
	}{
		{
			name:    "valid with empty recent activity",
			student: models.Student{Name: "Mia", AgeMonths: 30},
		},
		{
			name: "valid with recent activity",
			student: models.Student{Name: "Mia", AgeMonths: 30, RecentActivity: models.RecentActivity{
				Result: models.ResultNotConsistent, DifficultyLevel: models.DifficultyHard,
			}},
		},
		{
			name:    "missing name",
			student: models.Student{Name: "  ", AgeMonths: 30},
			field:   "name",
		},
		{
			name:    "negative age",
			student: models.Student{Name: "Mia", AgeMonths: -1},
			field:   "age_months",
		},
		{
			name:    "unknown result",
			student: models.Student{Name: "Mia", RecentActivity: models.RecentActivity{Result: "great"}},
			field:   "recent_activity.result",
		},
		{
			name:    "unknown difficulty",
			student: models.Student{Name: "Mia", RecentActivity: models.RecentActivity{DifficultyLevel: "extreme"}},
			field:   "recent_activity.difficulty_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStudent(&tt.student)
			checkField(t, err, tt.field)
		})
	}
}

func TestValidatePastActivity(t *testing.T) {
	valid := func() models.StoredActivity {
		return models.StoredActivity{
			Name:            "Sandbox digging",
			Result:          models.ResultSucceeded,
			DifficultyLevel: models.DifficultyModerate,
			Date:            time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		}
	}

	tests := []struct {
		name   string
		mutate func(a *models.StoredActivity)
		field  string
	}{
		{name: "valid without notes", mutate: func(*models.StoredActivity) {}},
		{name: "missing name", mutate: func(a *models.StoredActivity) { a.Name = "" }, field: "name"},
		{name: "missing result", mutate: func(a *models.StoredActivity) { a.Result = "" }, field: "result"},
		{name: "bad difficulty", mutate: func(a *models.StoredActivity) { a.DifficultyLevel = "trivial" }, field: "difficulty_level"},
		{name: "missing date", mutate: func(a *models.StoredActivity) { a.Date = time.Time{} }, field: "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid()
			tt.mutate(&a)
			checkField(t, ValidatePastActivity(&a), tt.field)
		})
	}
}

func checkField(t *testing.T, err error, field string) {
	t.Helper()
	if field == "" {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		return
	}
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if ve.Field != field {
		t.Errorf("field = %q, want %q", ve.Field, field)
	}
}
