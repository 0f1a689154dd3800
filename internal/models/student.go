package models

import (
	"strings"
	"time"
)

// Recent activity outcomes
const (
	ResultSucceeded        = "succeeded"
	ResultNeedsImprovement = "needs improvement"
	ResultNotConsistent    = "not consistent"
	ResultFailed           = "failed"
)

// Difficulty levels
const (
	DifficultyEasy     = "easy"
	DifficultyModerate = "moderate"
	DifficultyHard     = "hard"
)

// ActivityResults lists the accepted recent activity outcomes
var ActivityResults = []string{ResultSucceeded, ResultNeedsImprovement, ResultNotConsistent, ResultFailed}

// DifficultyLevels lists the accepted difficulty levels
var DifficultyLevels = []string{DifficultyEasy, DifficultyModerate, DifficultyHard}

// RecentActivity is the last activity a child tried and how it went
type RecentActivity struct {
	Name            string `json:"name" yaml:"name"`
	Result          string `json:"result" yaml:"result"`
	DifficultyLevel string `json:"difficulty_level" yaml:"difficulty_level"`
	Observations    string `json:"observations" yaml:"observations"`
}

// IsComplete reports whether every field is filled in. Blank fields count
// as missing. Suggestions need a complete recent activity.
func (r RecentActivity) IsComplete() bool {
	for _, field := range []string{r.Name, r.Result, r.DifficultyLevel, r.Observations} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}

// Student is a child profile. Sample students have no owner and are read-only.
type Student struct {
	ID                 int64          `json:"id"`
	UserID             *int64         `json:"user_id,omitempty"`
	IsSample           bool           `json:"is_sample"`
	SampleKey          string         `json:"-" yaml:"key"`
	Name               string         `json:"name" yaml:"name"`
	AgeMonths          int            `json:"age_months" yaml:"age_months"`
	Description        string         `json:"description" yaml:"description"`
	Gender             string         `json:"gender" yaml:"gender"`
	Personality        string         `json:"personality" yaml:"personality"`
	DevelopmentalStage string         `json:"developmental_stage" yaml:"developmental_stage"`
	LearningStyle      string         `json:"preferred_learning_style" yaml:"preferred_learning_style"`
	SocialBehavior     string         `json:"social_behavior" yaml:"social_behavior"`
	EnergyLevel        string         `json:"energy_level" yaml:"energy_level"`
	Interests          []string       `json:"interests" yaml:"interests"`
	Goals              []string       `json:"goals" yaml:"goals"`
	RecentActivity     RecentActivity `json:"recent_activity" yaml:"recent_activity"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// OwnedBy reports whether userID owns the student
func (s *Student) OwnedBy(userID int64) bool {
	return s.UserID != nil && *s.UserID == userID
}
