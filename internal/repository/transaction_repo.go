// internal/repository/transaction_repo.go
package repository

import (
	"context"
	"time"

	"tradehub-ledger/internal/domain"
)

// TransactionRepository defines the interface for ledger record operations.
type TransactionRepository interface {
	// CreateTransaction adds a new transaction record. The unique index on
	// reference turns a duplicate insert into util.ErrDuplicateEntry.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// GetTransactionByReference retrieves a transaction by its idempotency reference.
	GetTransactionByReference(ctx context.Context, q DBExecutor, reference string) (*domain.Transaction, error)
	// GetTransactionByID retrieves a transaction by primary key.
	GetTransactionByID(ctx context.Context, q DBExecutor, id int64) (*domain.Transaction, error)
	// MarkTransactionStatus transitions a transaction from one status to
	// another. The update is guarded on the expected current status; if the
	// row has already moved on, util.ErrConcurrencyConflict is returned so
	// no terminal transition can be applied twice.
	MarkTransactionStatus(ctx context.Context, q DBExecutor, reference string, from, to domain.TransactionStatus) error
	// GetTransactionsByWalletID retrieves paginated history for a wallet
	// together with the total count.
	GetTransactionsByWalletID(ctx context.Context, q DBExecutor, walletID int64, limit, offset int) ([]domain.Transaction, int64, error)
	// ListPendingOlderThan surfaces transactions stuck in pending for manual
	// reconciliation.
	ListPendingOlderThan(ctx context.Context, q DBExecutor, cutoff time.Time, limit int) ([]domain.Transaction, error)
}
