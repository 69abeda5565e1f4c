package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrValidation indicates an event is missing required fields.
	// Nothing is mutated when an event fails validation.
	ErrValidation = errors.New("invalid event")

	// ErrIndexCorrupt indicates the index file exists but cannot be parsed.
	// The run aborts instead of discarding entries.
	ErrIndexCorrupt = errors.New("index file is corrupt")

	// ErrFilesystem indicates a document or index write/remove failed.
	ErrFilesystem = errors.New("filesystem error")

	// ErrJournalUnavailable indicates no run journal is configured.
	ErrJournalUnavailable = errors.New("run journal unavailable")
)

// ValidationError reports the first missing or malformed event field.
type ValidationError struct {
	// Field is the dotted path of the offending field, e.g. "discussion.title".
	Field string

	// Reason describes what is wrong with the field.
	Reason string
}

// NewMissingFieldError returns a ValidationError for an absent field.
func NewMissingFieldError(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "missing required field"}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
