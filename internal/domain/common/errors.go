package common

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error kinds surfaced by the domain. Repositories translate storage errors into
// these before they leave the storage layer.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrOutOfRangeScore   = errors.New("score out of range")
	ErrNoCriteriaDefined = errors.New("no criteria defined")
	ErrSessionFull       = errors.New("session is full")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
)

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	if e.ID == uuid.Nil {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a NotFoundError
func NotFound(entity string, id uuid.UUID) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// OutOfRangeScoreError reports the inclusive range a score had to fall in.
type OutOfRangeScoreError struct {
	Score float64
	Min   float64
	Max   float64
}

func (e *OutOfRangeScoreError) Error() string {
	return fmt.Sprintf("score %g is outside the allowed range [%g, %g]", e.Score, e.Min, e.Max)
}

func (e *OutOfRangeScoreError) Is(target error) bool {
	return target == ErrOutOfRangeScore
}

// ValidationError wraps a field-level problem as ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid builds a ValidationError
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Conflict wraps ErrConflict with a description of what already exists.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
