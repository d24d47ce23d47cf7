// Package apperr defines the error kinds shared by every service.
// Concrete errors carry the offending entity, field and values; each
// kind has a sentinel so callers can match with errors.Is without
// caring about the concrete type.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidState      = errors.New("invalid state for this operation")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrValidation        = errors.New("validation failed")
	ErrMergeConflict     = errors.New("cart merge conflict")
	ErrDuplicate         = errors.New("duplicate entity")
)

// NotFoundError reports a missing entity looked up by some key.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %v", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError for the given entity and lookup key.
func NotFound(entity string, key any) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// InvalidStateError reports an operation attempted against an entity
// that is not in the required status.
type InvalidStateError struct {
	Entity    string
	ID        any
	Current   string
	Required  string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %v: status is %s, requires %s",
		e.Operation, e.Entity, e.ID, e.Current, e.Required)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// InsufficientStockError reports a quantity request exceeding the
// available stock of a product.
type InsufficientStockError struct {
	ProductID int64
	SKU       string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (id %d): requested %d, available %d",
		e.SKU, e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ValidationError reports malformed input on a named field.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation builds a ValidationError.
func Validation(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// MergeConflictError reports a guest cart that cannot be merged.
type MergeConflictError struct {
	GuestCartID string
	UserCartID  string
	Reason      string
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("cart merge failed between guest cart %s and user cart %s: %s",
		e.GuestCartID, e.UserCartID, e.Reason)
}

func (e *MergeConflictError) Is(target error) bool { return target == ErrMergeConflict }

// DuplicateError reports a uniqueness violation on an entity field.
type DuplicateError struct {
	Entity string
	Field  string
	Value  any
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists with %s: %v", e.Entity, e.Field, e.Value)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }
