// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input provided")

	// Gateway boundary errors. Signature failures are rejected before any
	// state change; parse failures are acknowledged but never applied.
	ErrSignature = errors.New("webhook signature mismatch")
	ErrParse     = errors.New("malformed webhook payload")

	// Reconciliation errors.
	ErrDuplicateEvent   = errors.New("event already processed")
	ErrUnknownReference = errors.New("no transaction for reference")
	ErrUnhandledPurpose = errors.New("unhandled payment purpose")
	ErrAmountMismatch   = errors.New("event amount does not match transaction")

	// Balance and configuration errors.
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrInvalidSplitConfig  = errors.New("revenue split percentages must sum to 100")

	// Transient: wallet row lock could not be acquired within the bound.
	// Callers retry with backoff instead of blocking indefinitely.
	ErrConcurrencyConflict = errors.New("concurrent modification conflict")

	ErrWalletNotFound = errors.New("wallet not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// IsError reports whether err wraps target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
