package quiz

import "errors"

var (
	// ErrNotFound is returned for lookups of rows that do not exist or
	// are owned by another user.
	ErrNotFound = errors.New("quiz: not found")

	// ErrDuplicateResponse is returned when a user answers a question
	// they have already answered. The first answer stands.
	ErrDuplicateResponse = errors.New("quiz: question already answered")
)
