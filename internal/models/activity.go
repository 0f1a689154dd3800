package models

import "time"

// SkillTag is a developmental skill an activity supports
type SkillTag struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ActivityCandidate is an AI suggestion that has not been saved or discarded yet
type ActivityCandidate struct {
	Title      string     `json:"title"`
	WhyItWorks string     `json:"why_it_works"`
	Skills     []SkillTag `json:"skills_supported"`
	Notes      string     `json:"notes,omitempty"`
}

// Collection names the list a stored activity belongs to
type Collection string

const (
	CollectionSaved     Collection = "saved"
	CollectionDiscarded Collection = "discarded"
	CollectionHistory   Collection = "history"
)

// Valid reports whether c is a known collection
func (c Collection) Valid() bool {
	switch c {
	case CollectionSaved, CollectionDiscarded, CollectionHistory:
		return true
	}
	return false
}

// StoredActivity is a saved, discarded or history entry under a student.
// History entries logged by hand also carry Name, Result and DifficultyLevel.
type StoredActivity struct {
	ID              int64      `json:"id"`
	StudentID       int64      `json:"student_id"`
	Collection      Collection `json:"collection"`
	Title           string     `json:"title"`
	WhyItWorks      string     `json:"why_it_works"`
	Skills          []SkillTag `json:"skills_supported"`
	Notes           string     `json:"notes"`
	Name            string     `json:"name,omitempty"`
	Result          string     `json:"result,omitempty"`
	DifficultyLevel string     `json:"difficulty_level,omitempty"`
	Date            time.Time  `json:"date"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DisplayTitle is the title, falling back to the logged activity name
func (a *StoredActivity) DisplayTitle() string {
	if a.Title != "" {
		return a.Title
	}
	return a.Name
}
