// internal/repository/split_repo.go
package repository

import (
	"context"

	"tradehub-ledger/internal/domain"
)

// RevenueSplitRepository defines the interface for split settings and records.
type RevenueSplitRepository interface {
	// GetActiveSettings returns the single active settings row, or
	// util.ErrNotFound when none is active.
	GetActiveSettings(ctx context.Context, q DBExecutor) (*domain.RevenueSplitSettings, error)
	// ActivateSettings deactivates every other settings row and inserts the
	// given one as active. Both statements must run on the same transaction
	// executor so the one-active invariant holds atomically.
	ActivateSettings(ctx context.Context, q DBExecutor, settings *domain.RevenueSplitSettings) error
	// CreateSplit inserts a split record. The unique index on transaction_id
	// turns a re-entrant insert into util.ErrDuplicateEntry.
	CreateSplit(ctx context.Context, q DBExecutor, split *domain.RevenueSplit) error
	// GetSplitByTransactionID retrieves the split for a payment transaction.
	GetSplitByTransactionID(ctx context.Context, q DBExecutor, transactionID int64) (*domain.RevenueSplit, error)
	// GetSplitByReference retrieves the split for a payment via its
	// transaction reference.
	GetSplitByReference(ctx context.Context, q DBExecutor, reference string) (*domain.RevenueSplit, error)
}
