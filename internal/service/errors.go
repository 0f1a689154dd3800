package service

import "errors"

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetToken  = errors.New("invalid or expired token")

	// ErrNotFound covers missing rows and rows owned by someone else
	ErrNotFound = errors.New("not found")
	// ErrSampleReadOnly is returned for any write to a sample student
	ErrSampleReadOnly = errors.New("sample students are read-only")
	// ErrRecentActivityIncomplete blocks suggestion generation until the
	// student's recent activity is fully filled in
	ErrRecentActivityIncomplete = errors.New("recent activity is incomplete")
	// ErrOracleFailure wraps any error from the AI model call
	ErrOracleFailure = errors.New("AI generation failed")
	// ErrNoSuggestion is returned when the session has no candidate to act on
	ErrNoSuggestion = errors.New("no suggestion selected")
)
