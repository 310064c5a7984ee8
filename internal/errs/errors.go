package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
	// ErrUnprocessable is used for semantic validation failures (HTTP 422)
	ErrUnprocessable = errors.New("unprocessable")
	// ErrImmutable indicates an attempt to change a field that is locked by existing postings
	ErrImmutable = errors.New("immutable")
	// ErrUnbalanced marks a voucher whose debit and credit totals differ beyond tolerance
	ErrUnbalanced = errors.New("unbalanced")
	// ErrReferenced marks a delete blocked by dependent records
	ErrReferenced = errors.New("referenced")
	// ErrTooFewEntries: fewer than two usable entries survived normalization
	ErrTooFewEntries = errors.New("too_few_entries")
	// ErrInvalidLedgerReference: an entry names a ledger outside the company
	ErrInvalidLedgerReference = errors.New("invalid_ledger_reference")
	// ErrPredefinedGroup indicates an attempt to delete a seeded group
	ErrPredefinedGroup = errors.New("predefined_group")
	// ErrLimitExceeded marks an amount or a journal total beyond the stored limits
	ErrLimitExceeded = errors.New("limit_exceeded")
)
