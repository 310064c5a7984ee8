package errs

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

// ValidationError reports a rejected input field. It matches ErrInvalid and,
// when set, the more specific Err.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := e.Field + ": " + e.Reason
	if e.Reason == "" && e.Err != nil {
		msg = e.Field + ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalid}
	}
	return []error{ErrInvalid, e.Err}
}

// Invalid is shorthand for a ValidationError without a specific cause.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// VolumeExceeded rejects a write that would push the company's journal volume
// past its limit.
func VolumeExceeded(field string) error {
	return &ValidationError{Field: field, Reason: "company journal volume limit reached", Err: ErrLimitExceeded}
}

// MismatchError is returned when a voucher's debit and credit totals differ
// by more than the match tolerance.
type MismatchError struct {
	TotalDr decimal.Decimal
	TotalCr decimal.Decimal
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("mismatch in Dr (%s) and Cr (%s)", e.TotalDr, e.TotalCr)
}

func (e *MismatchError) Unwrap() error { return ErrUnbalanced }

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string { return e.Entity + " " + e.ID.String() + " not found" }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity string, id uuid.UUID) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ReferentialIntegrityError blocks deleting an entity that is still referenced.
type ReferentialIntegrityError struct {
	Entity string
	ID     uuid.UUID
	// By names what still references the entity (voucher entries, ledgers).
	By string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("cannot delete %s %s: referenced by %s", e.Entity, e.ID, e.By)
}

func (e *ReferentialIntegrityError) Unwrap() error { return ErrReferenced }

// DuplicateError reports a per-company uniqueness violation.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Field, e.Value)
}

func (e *DuplicateError) Unwrap() error { return ErrConflict }
