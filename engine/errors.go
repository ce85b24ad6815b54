/*
errors.go - Centralized error types for the reconciliation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages (attendance, leave, payroll) wrap these with context.

ERROR CATEGORIES:
  1. Lookup errors - referenced employee/leave/month absent
  2. Validation errors - inverted date ranges, duplicate keys
  3. Store errors - partial multi-key writes, missing store capabilities

USAGE:
  Callers classify with errors.Is():

    if errors.Is(err, engine.ErrNotFound) {
        // 404
    }

SEE ALSO:
  - store.go: Uses these errors
  - leave/workflow.go: Wraps these errors with domain context
*/
package engine

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record (employee, leave
	// application, attendance entry, allocation) does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidRange is returned when a date range is inverted (end before
	// start). Raised before any write is issued.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrAlreadyCompleted is returned when re-running a monthly allocation
	// whose completion marker is already set.
	ErrAlreadyCompleted = errors.New("monthly allocation already completed")

	// ErrPartialWrite is returned when a multi-key update could not be applied
	// atomically and the store's view may be inconsistent. Never swallowed.
	ErrPartialWrite = errors.New("partial multi-key write")

	// ErrDuplicateKey is returned on insert when the key already holds a value
	// (duplicate employee id, duplicate holiday date, guarded marker present).
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStoreRequired is returned when an operation requires a store
	// capability (conditional writes) the configured store does not provide.
	ErrStoreRequired = errors.New("operation requires extended store interface")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies what kind of record was missing and its key.
type NotFoundError struct {
	Kind string // "faculty", "leave", "attendance", "allocation"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidRangeError reports an inverted date range.
type InvalidRangeError struct {
	Start Day
	End   Day
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s before start %s", e.End, e.Start)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// AlreadyCompletedError reports a locked monthly allocation.
type AlreadyCompletedError struct {
	Month       Month
	CompletedAt time.Time
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("allocation for %s already completed at %s",
		e.Month, e.CompletedAt.Format(time.RFC3339))
}

func (e *AlreadyCompletedError) Unwrap() error { return ErrAlreadyCompleted }

// PartialWriteError reports a multi-key update that may have been partially
// applied. Applied lists paths known to be written before the failure.
type PartialWriteError struct {
	Applied []string
	Failed  string
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write: failed at %q after %d keys: %v",
		e.Failed, len(e.Applied), e.Err)
}

func (e *PartialWriteError) Unwrap() error { return ErrPartialWrite }

// DuplicateKeyError reports an insert against an occupied path.
type DuplicateKeyError struct {
	Path string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key: %s already exists", e.Path)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid client input
// rather than a store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrAlreadyCompleted)
}
