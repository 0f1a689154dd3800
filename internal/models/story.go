package models

import "time"

// Story is a short generated narrative for a student
type Story struct {
	ID          int64     `json:"id,omitempty"`
	StudentID   int64     `json:"student_id,omitempty"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Context     string    `json:"context,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}
