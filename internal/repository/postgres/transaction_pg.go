// internal/repository/postgres/transaction_pg.go
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
)

const transactionColumns = `id, reference, type, status, source, amount, currency,
sender_wallet_id, recipient_wallet_id, purpose, related_id, user_id, narration,
transaction_time, created_at, updated_at`

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &TransactionRepository{}
}

// CreateTransaction inserts a new transaction record using the provided DBExecutor.
// The unique index on reference is the ledger's idempotency backstop.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (reference, type, status, source, amount, currency,
                  sender_wallet_id, recipient_wallet_id, purpose, related_id, user_id, narration,
                  transaction_time, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
              RETURNING id`

	err := q.QueryRowContext(ctx, query,
		transaction.Reference,
		transaction.Type,
		transaction.Status,
		transaction.Source,
		transaction.Amount,
		transaction.Currency,
		transaction.SenderWalletID,
		transaction.RecipientWalletID,
		transaction.Purpose,
		transaction.RelatedID,
		transaction.UserID,
		transaction.Narration,
		transaction.TransactionTime,
		transaction.CreatedAt,
		transaction.UpdatedAt,
	).Scan(&transaction.ID)

	if err != nil {
		if mapped := mapPQError(err); mapped == util.ErrDuplicateEntry {
			return mapped
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionByReference retrieves a transaction by its idempotency reference.
func (r *TransactionRepository) GetTransactionByReference(ctx context.Context, q repository.DBExecutor, reference string) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`
	err := q.GetContext(ctx, &transaction, query, reference)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by reference %s: %w", reference, err)
	}
	return &transaction, nil
}

// GetTransactionByID retrieves a transaction by primary key.
func (r *TransactionRepository) GetTransactionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	err := q.GetContext(ctx, &transaction, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by ID %d: %w", id, err)
	}
	return &transaction, nil
}

// MarkTransactionStatus transitions a transaction between statuses. The WHERE
// clause on the expected current status makes each terminal transition
// single-shot: a second writer sees zero rows and gets a conflict.
func (r *TransactionRepository) MarkTransactionStatus(ctx context.Context, q repository.DBExecutor, reference string, from, to domain.TransactionStatus) error {
	query := `UPDATE transactions SET status = $1, updated_at = $2 WHERE reference = $3 AND status = $4`
	result, err := q.ExecContext(ctx, query, to, time.Now().UTC(), reference, from)
	if err != nil {
		return fmt.Errorf("failed to mark transaction %s %s->%s: %w", reference, from, to, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for transaction %s: %w", reference, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %s not in status %s: %w", reference, from, util.ErrConcurrencyConflict)
	}
	return nil
}

// GetTransactionsByWalletID retrieves a paginated list of transactions for a specific wallet.
// It performs two queries: one for the data and one for the total count.
func (r *TransactionRepository) GetTransactionsByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	transactions := []domain.Transaction{}

	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE sender_wallet_id = $1 OR recipient_wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	err := q.SelectContext(ctx, &transactions, query, walletID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions for wallet %d: %w", walletID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*)
		FROM transactions
		WHERE sender_wallet_id = $1 OR recipient_wallet_id = $1`
	err = q.GetContext(ctx, &totalCount, countQuery, walletID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total transaction count for wallet %d: %w", walletID, err)
	}

	return transactions, totalCount, nil
}

// ListPendingOlderThan returns transactions stuck in pending since before the
// cutoff, for the manual reconciliation surface.
func (r *TransactionRepository) ListPendingOlderThan(ctx context.Context, q repository.DBExecutor, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3`
	err := q.SelectContext(ctx, &transactions, query, domain.TransactionStatusPending, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	return transactions, nil
}
