package wagon

import "errors"

var (
	// ErrWagonNotFound is returned when no record matches an ID.
	ErrWagonNotFound = errors.New("incoming wagon not found")

	// ErrEmptyPatch is returned when a patch carries no fields.
	ErrEmptyPatch = errors.New("patch contains no fields")
)
