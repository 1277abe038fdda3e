package model

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid returns a *ValidationError with a formatted message.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	if e.ID > 0 {
		return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
	}
	return e.Entity + " not found"
}

// NotFound returns a *NotFoundError for entity id.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// InsufficientStockError reports a sale larger than the unsold stock.
type InsufficientStockError struct {
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock, available: %d", e.Available)
}

// ForbiddenError reports a caller without the privilege an operation needs.
type ForbiddenError struct {
	Operation string
}

func (e *ForbiddenError) Error() string {
	return e.Operation + " requires administrator privileges"
}

// ConflictError reports a write that collides with existing data.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
