package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrNoRowsAffected is returned when a write matched nothing. Row level
	// security rejections surface this way instead of as an error.
	ErrNoRowsAffected = errors.New("no rows affected")
	// ErrUnusableRow marks a backend row without identity fields.
	ErrUnusableRow = errors.New("row has no identity")
)
