package handlers

import (
	"encoding/json"
	"time"

	"tinysteps/internal/models"
	"tinysteps/internal/suggestion"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

type UserView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// PastActivityRequest is a guardian-logged activity. Date accepts
// YYYY-MM-DD or RFC 3339.
type PastActivityRequest struct {
	Name            string            `json:"name"`
	Result          string            `json:"result"`
	DifficultyLevel string            `json:"difficulty_level"`
	Date            string            `json:"date"`
	Notes           string            `json:"notes"`
	Skills          []models.SkillTag `json:"skills_supported"`
}

func (p PastActivityRequest) toActivity() models.StoredActivity {
	a := models.StoredActivity{
		Name:            p.Name,
		Result:          p.Result,
		DifficultyLevel: p.DifficultyLevel,
		Notes:           p.Notes,
		Skills:          p.Skills,
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, p.Date); err == nil {
			a.Date = t.UTC()
			break
		}
	}
	return a
}

// CandidateRequest is an activity posted straight into a collection. Skills
// are decoded leniently so any shape the model produced is accepted.
type CandidateRequest struct {
	Title      string          `json:"title"`
	WhyItWorks string          `json:"why_it_works"`
	Skills     json.RawMessage `json:"skills_supported"`
	Notes      string          `json:"notes"`
}

func (c CandidateRequest) toCandidate() models.ActivityCandidate {
	return models.ActivityCandidate{
		Title:      c.Title,
		WhyItWorks: c.WhyItWorks,
		Skills:     suggestion.NormalizeRawSkills(c.Skills),
		Notes:      c.Notes,
	}
}

type GenerateRequest struct {
	Prompt              string   `json:"prompt"`
	DiscardedActivities []string `json:"discardedActivities"`
}

type GenerateResponse struct {
	Response json.RawMessage `json:"response"`
}

// SessionView is the suggestion carousel as the client sees it
type SessionView struct {
	State          suggestion.State           `json:"state"`
	StudentID      int64                      `json:"student_id"`
	Cursor         int                        `json:"cursor"`
	Total          int                        `json:"total"`
	Current        *models.ActivityCandidate  `json:"current"`
	Candidates     []models.ActivityCandidate `json:"candidates"`
	ExcludedTitles []string                   `json:"excluded_titles"`
}

func newSessionView(s suggestion.Session) SessionView {
	view := SessionView{
		State:          s.State(),
		StudentID:      s.StudentID,
		Cursor:         s.Cursor,
		Total:          len(s.Candidates),
		Candidates:     s.Candidates,
		ExcludedTitles: s.Shown,
	}
	if c, ok := s.Current(); ok {
		view.Current = &c
	}
	if view.Candidates == nil {
		view.Candidates = []models.ActivityCandidate{}
	}
	if view.ExcludedTitles == nil {
		view.ExcludedTitles = []string{}
	}
	return view
}

// SessionActionResponse is returned after saving or discarding the current candidate
type SessionActionResponse struct {
	Activity *models.StoredActivity `json:"activity"`
	Session  SessionView            `json:"session"`
}

// RestoreResponse reports whether a restore created a saved activity
type RestoreResponse struct {
	Restored bool                   `json:"restored"`
	Activity *models.StoredActivity `json:"activity,omitempty"`
}
