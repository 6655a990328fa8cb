// internal/repository/withdrawal_repo.go
package repository

import (
	"context"

	"tradehub-ledger/internal/domain"
)

// WithdrawalRepository defines the interface for withdrawal request storage.
type WithdrawalRepository interface {
	// CreateWithdrawal inserts a new pending request.
	CreateWithdrawal(ctx context.Context, q DBExecutor, req *domain.WithdrawalRequest) error
	// GetWithdrawalByID retrieves a request by primary key.
	GetWithdrawalByID(ctx context.Context, q DBExecutor, id int64) (*domain.WithdrawalRequest, error)
	// GetWithdrawalByIDForUpdate retrieves a request with an exclusive row
	// lock; util.ErrConcurrencyConflict if the lock is unavailable.
	GetWithdrawalByIDForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.WithdrawalRequest, error)
	// GetWithdrawalByTransactionID finds the request linked to a debit
	// transaction, used when a transfer event arrives from the gateway.
	GetWithdrawalByTransactionID(ctx context.Context, q DBExecutor, transactionID int64) (*domain.WithdrawalRequest, error)
	// UpdateWithdrawal persists mutable fields of req, guarded on the status
	// the caller last observed. Zero rows affected means another writer got
	// there first: util.ErrConcurrencyConflict.
	UpdateWithdrawal(ctx context.Context, q DBExecutor, req *domain.WithdrawalRequest, expected domain.WithdrawalStatus) error
	// ListWithdrawalsByUserID retrieves paginated requests for one owner.
	ListWithdrawalsByUserID(ctx context.Context, q DBExecutor, userID int64, limit, offset int) ([]domain.WithdrawalRequest, int64, error)
	// ListWithdrawals retrieves paginated requests, optionally filtered by status.
	ListWithdrawals(ctx context.Context, q DBExecutor, status *domain.WithdrawalStatus, limit, offset int) ([]domain.WithdrawalRequest, int64, error)
	// GetWithdrawalStats aggregates counts and amounts by status.
	GetWithdrawalStats(ctx context.Context, q DBExecutor) ([]domain.WithdrawalStats, error)
}
