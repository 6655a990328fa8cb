// internal/repository/postgres/withdrawal_pg.go
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

const withdrawalColumns = `id, user_id, wallet_id, amount, payout_reference, status,
reviewed_by, reviewed_at, rejection_reason, transaction_id, created_at, updated_at`

// WithdrawalRepository implements repository.WithdrawalRepository for PostgreSQL.
type WithdrawalRepository struct{}

// NewWithdrawalRepository creates a new WithdrawalRepository.
func NewWithdrawalRepository(db *sqlx.DB) repository.WithdrawalRepository {
	return &WithdrawalRepository{}
}

// CreateWithdrawal inserts a new pending withdrawal request.
func (r *WithdrawalRepository) CreateWithdrawal(ctx context.Context, q repository.DBExecutor, req *domain.WithdrawalRequest) error {
	query := `INSERT INTO withdrawal_requests (user_id, wallet_id, amount, payout_reference, status, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		req.UserID, req.WalletID, req.Amount, req.PayoutReference, req.Status,
		req.CreatedAt, req.UpdatedAt,
	).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return nil
}

// GetWithdrawalByID retrieves a request by primary key.
func (r *WithdrawalRepository) GetWithdrawalByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.WithdrawalRequest, error) {
	var req domain.WithdrawalRequest
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`
	err := q.GetContext(ctx, &req, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal %d: %w", id, err)
	}
	return &req, nil
}

// GetWithdrawalByIDForUpdate retrieves a request under an exclusive row lock.
func (r *WithdrawalRepository) GetWithdrawalByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.WithdrawalRequest, error) {
	var req domain.WithdrawalRequest
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1 FOR UPDATE NOWAIT`
	err := q.GetContext(ctx, &req, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		if mapped := mapPQError(err); mapped == util.ErrConcurrencyConflict {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to lock withdrawal %d: %w", id, err)
	}
	return &req, nil
}

// GetWithdrawalByTransactionID finds the request linked to a debit transaction.
func (r *WithdrawalRepository) GetWithdrawalByTransactionID(ctx context.Context, q repository.DBExecutor, transactionID int64) (*domain.WithdrawalRequest, error) {
	var req domain.WithdrawalRequest
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE transaction_id = $1`
	err := q.GetContext(ctx, &req, query, transactionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal for transaction %d: %w", transactionID, err)
	}
	return &req, nil
}

// UpdateWithdrawal persists the mutable fields of req, guarded on the status
// the caller last observed.
func (r *WithdrawalRepository) UpdateWithdrawal(ctx context.Context, q repository.DBExecutor, req *domain.WithdrawalRequest, expected domain.WithdrawalStatus) error {
	req.UpdatedAt = time.Now().UTC()
	query := `UPDATE withdrawal_requests
              SET status = $1, reviewed_by = $2, reviewed_at = $3, rejection_reason = $4,
                  transaction_id = $5, updated_at = $6
              WHERE id = $7 AND status = $8`
	result, err := q.ExecContext(ctx, query,
		req.Status, req.ReviewedBy, req.ReviewedAt, req.RejectionReason,
		req.TransactionID, req.UpdatedAt, req.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update withdrawal %d: %w", req.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for withdrawal %d: %w", req.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("withdrawal %d not in status %s: %w", req.ID, expected, util.ErrConcurrencyConflict)
	}
	return nil
}

// ListWithdrawalsByUserID retrieves paginated requests for one owner.
func (r *WithdrawalRepository) ListWithdrawalsByUserID(ctx context.Context, q repository.DBExecutor, userID int64, limit, offset int) ([]domain.WithdrawalRequest, int64, error) {
	requests := []domain.WithdrawalRequest{}
	query := `SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &requests, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list withdrawals for user %d: %w", userID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM withdrawal_requests WHERE user_id = $1`
	if err := q.GetContext(ctx, &totalCount, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count withdrawals for user %d: %w", userID, err)
	}
	return requests, totalCount, nil
}

// ListWithdrawals retrieves paginated requests, optionally filtered by status.
func (r *WithdrawalRepository) ListWithdrawals(ctx context.Context, q repository.DBExecutor, status *domain.WithdrawalStatus, limit, offset int) ([]domain.WithdrawalRequest, int64, error) {
	requests := []domain.WithdrawalRequest{}

	if status != nil {
		query := `SELECT ` + withdrawalColumns + `
			FROM withdrawal_requests
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`
		if err := q.SelectContext(ctx, &requests, query, *status, limit, offset); err != nil {
			return nil, 0, fmt.Errorf("failed to list withdrawals by status %s: %w", *status, err)
		}
		var totalCount int64
		if err := q.GetContext(ctx, &totalCount, `SELECT COUNT(*) FROM withdrawal_requests WHERE status = $1`, *status); err != nil {
			return nil, 0, fmt.Errorf("failed to count withdrawals by status %s: %w", *status, err)
		}
		return requests, totalCount, nil
	}

	query := `SELECT ` + withdrawalColumns + `
		FROM withdrawal_requests
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	if err := q.SelectContext(ctx, &requests, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	var totalCount int64
	if err := q.GetContext(ctx, &totalCount, `SELECT COUNT(*) FROM withdrawal_requests`); err != nil {
		return nil, 0, fmt.Errorf("failed to count withdrawals: %w", err)
	}
	return requests, totalCount, nil
}

// GetWithdrawalStats aggregates counts and amounts by status.
func (r *WithdrawalRepository) GetWithdrawalStats(ctx context.Context, q repository.DBExecutor) ([]domain.WithdrawalStats, error) {
	stats := []domain.WithdrawalStats{}
	query := `SELECT status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount
              FROM withdrawal_requests
              GROUP BY status
              ORDER BY status`
	if err := q.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to aggregate withdrawal stats: %w", err)
	}
	return stats, nil
}
