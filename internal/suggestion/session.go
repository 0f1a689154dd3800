package suggestion

import (
	"errors"
	"slices"
	"strings"

	"tinysteps/internal/models"
)

// ErrNoCandidate is returned when a session has nothing at the requested position
var ErrNoCandidate = errors.New("no suggestion at that position")

// State of a suggestion session
type State string

const (
	StateEmpty  State = "empty"
	StateLoaded State = "loaded"
)

// Session is the suggestion carousel for one student. It is a value: every
// operation returns an updated copy and leaves the receiver untouched, so a
// session can be stored, loaded and replaced as a whole.
//
// Shown is the exclusion memory: every title any generation returned for
// this student, in first-seen order.
type Session struct {
	StudentID   int64                      `json:"student_id"`
	Candidates  []models.ActivityCandidate `json:"candidates"`
	Cursor      int                        `json:"cursor"`
	Shown       []string                   `json:"shown"`
	Generations int                        `json:"generations"`
}

// NewSession returns an empty session for a student
func NewSession(studentID int64) Session {
	return Session{StudentID: studentID}
}

// State reports whether any candidates are loaded
func (s Session) State() State {
	if len(s.Candidates) == 0 {
		return StateEmpty
	}
	return StateLoaded
}

// ForStudent keeps the session when it already belongs to studentID and
// otherwise starts an empty one, dropping the previous student's memory.
func (s Session) ForStudent(studentID int64) Session {
	if s.StudentID == studentID {
		return s
	}
	return NewSession(studentID)
}

// NeedsProfile reports whether the next generation must send the full
// profile. Once any titles have been shown, only the exclusion list is sent.
func (s Session) NeedsProfile() bool {
	return len(s.Shown) == 0
}

// Prompt builds the text for the next generation request
func (s Session) Prompt(student *models.Student, history []string) string {
	if s.NeedsProfile() {
		return BuildProfilePrompt(student, history)
	}
	return BuildMorePrompt(s.Shown)
}

// Load replaces the carousel with a freshly generated batch, resets the
// cursor and remembers the new titles. An empty batch leaves the session
// empty but still counts as a generation.
func (s Session) Load(candidates []models.ActivityCandidate) Session {
	next := s
	next.Candidates = slices.Clone(candidates)
	next.Cursor = 0
	next.Generations = s.Generations + 1
	next.Shown = slices.Clone(s.Shown)

	for _, c := range candidates {
		if c.Title != "" && !containsFold(next.Shown, c.Title) {
			next.Shown = append(next.Shown, c.Title)
		}
	}
	return next
}

// Next moves the cursor forward, stopping at the last candidate
func (s Session) Next() Session {
	if s.Cursor < len(s.Candidates)-1 {
		s.Cursor++
	}
	return s
}

// Previous moves the cursor back, stopping at the first candidate
func (s Session) Previous() Session {
	if s.Cursor > 0 {
		s.Cursor--
	}
	return s
}

// Current returns the candidate under the cursor
func (s Session) Current() (models.ActivityCandidate, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Candidates) {
		return models.ActivityCandidate{}, false
	}
	return s.Candidates[s.Cursor], true
}

// At returns the candidate at index
func (s Session) At(index int) (models.ActivityCandidate, error) {
	if index < 0 || index >= len(s.Candidates) {
		return models.ActivityCandidate{}, ErrNoCandidate
	}
	return s.Candidates[index], nil
}

// Remove drops the candidate at index after it has been saved or
// discarded. The cursor stays put unless it would run past the end. Titles
// stay in the exclusion memory.
func (s Session) Remove(index int) (Session, error) {
	if index < 0 || index >= len(s.Candidates) {
		return s, ErrNoCandidate
	}

	next := s
	next.Candidates = slices.Delete(slices.Clone(s.Candidates), index, index+1)
	if len(next.Candidates) == 0 {
		next.Candidates = nil
		next.Cursor = 0
		return next, nil
	}
	next.Cursor = min(s.Cursor, len(next.Candidates)-1)
	return next, nil
}

// Reset empties the carousel and forgets every shown title
func (s Session) Reset() Session {
	return NewSession(s.StudentID)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
