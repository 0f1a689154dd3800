package repository

import "errors"

var (
	// ErrActivityNotFound is returned when an activity does not exist in the expected collection
	ErrActivityNotFound = errors.New("activity not found")
)
