// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/repository"
	"tradehub-ledger/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct{}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db *sqlx.DB) repository.WalletRepository {
	return &WalletRepository{}
}

// CreateWallet inserts a new wallet into the database using the provided DBExecutor.
func (r *WalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	query := `INSERT INTO wallets (user_id, currency, ledger_balance, locked_amount, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		wallet.UserID, wallet.Currency, wallet.LedgerBalance, wallet.LockedAmount,
		wallet.CreatedAt, wallet.UpdatedAt,
	).Scan(&wallet.ID)
	if err != nil {
		if mapped := mapPQError(err); mapped == util.ErrDuplicateEntry {
			return mapped
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// GetWalletByID retrieves a wallet by its ID using the provided DBExecutor.
func (r *WalletRepository) GetWalletByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT id, user_id, currency, ledger_balance, locked_amount, created_at, updated_at
              FROM wallets WHERE id = $1`
	err := q.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wallet by ID %d: %w", id, err)
	}
	return &wallet, nil
}

// GetWalletByIDForUpdate retrieves a wallet under an exclusive row lock.
// NOWAIT keeps the lock bound instead of queueing behind another writer; the
// 55P03 failure surfaces as util.ErrConcurrencyConflict for caller-side retry.
func (r *WalletRepository) GetWalletByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT id, user_id, currency, ledger_balance, locked_amount, created_at, updated_at
              FROM wallets WHERE id = $1 FOR UPDATE NOWAIT`
	err := q.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		if mapped := mapPQError(err); mapped == util.ErrConcurrencyConflict {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to lock wallet %d: %w", id, err)
	}
	return &wallet, nil
}

// GetWalletByUserIDAndCurrency retrieves a wallet by user ID and currency using the provided DBExecutor.
func (r *WalletRepository) GetWalletByUserIDAndCurrency(ctx context.Context, q repository.DBExecutor, userID int64, currency string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	query := `SELECT id, user_id, currency, ledger_balance, locked_amount, created_at, updated_at
              FROM wallets WHERE user_id = $1 AND currency = $2`
	err := q.GetContext(ctx, &wallet, query, userID, currency)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wallet by user ID %d and currency %s: %w", userID, currency, err)
	}
	return &wallet, nil
}

// UpdateWalletBalances applies deltas to both balance columns in one statement.
func (r *WalletRepository) UpdateWalletBalances(ctx context.Context, q repository.DBExecutor, walletID int64, ledgerDelta, lockedDelta decimal.Decimal) error {
	query := `UPDATE wallets
              SET ledger_balance = ledger_balance + $1,
                  locked_amount = locked_amount + $2,
                  updated_at = $3
              WHERE id = $4`
	result, err := q.ExecContext(ctx, query, ledgerDelta, lockedDelta, time.Now().UTC(), walletID)
	if err != nil {
		return fmt.Errorf("failed to update balances for wallet %d: %w", walletID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating wallet %d: %w", walletID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows affected when updating wallet %d: %w", walletID, util.ErrWalletNotFound)
	}
	return nil
}
