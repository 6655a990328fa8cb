// internal/repository/wallet_repo.go
package repository

import (
	"context"

	"tradehub-ledger/internal/domain"

	"github.com/shopspring/decimal"
)

// WalletRepository defines the interface for wallet data operations.
type WalletRepository interface {
	// CreateWallet adds a new wallet to the database using the provided DBExecutor.
	CreateWallet(ctx context.Context, q DBExecutor, wallet *domain.Wallet) error
	// GetWalletByID retrieves a wallet by its ID using the provided DBExecutor.
	GetWalletByID(ctx context.Context, q DBExecutor, id int64) (*domain.Wallet, error)
	// GetWalletByIDForUpdate retrieves a wallet with an exclusive row lock.
	// It must be called inside a transaction. If the lock cannot be acquired
	// immediately it returns util.ErrConcurrencyConflict.
	GetWalletByIDForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.Wallet, error)
	// GetWalletByUserIDAndCurrency retrieves a wallet by user ID and currency.
	GetWalletByUserIDAndCurrency(ctx context.Context, q DBExecutor, userID int64, currency string) (*domain.Wallet, error)
	// UpdateWalletBalances applies deltas to ledger_balance and locked_amount.
	// Callers hold the row lock and have already validated the invariants.
	UpdateWalletBalances(ctx context.Context, q DBExecutor, walletID int64, ledgerDelta, lockedDelta decimal.Decimal) error
}
