// internal/repository/postgres/split_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/repository"
	"tradehub-ledger/internal/util"

	"github.com/jmoiron/sqlx"
)

const splitColumns = `id, transaction_id, total_amount, dealer_amount, platform_amount,
dealer_percentage, platform_percentage, dealer_credited, dealer_credited_at, created_at`

// RevenueSplitRepository implements repository.RevenueSplitRepository for PostgreSQL.
type RevenueSplitRepository struct{}

// NewRevenueSplitRepository creates a new RevenueSplitRepository.
func NewRevenueSplitRepository(db *sqlx.DB) repository.RevenueSplitRepository {
	return &RevenueSplitRepository{}
}

// GetActiveSettings returns the single active settings row.
func (r *RevenueSplitRepository) GetActiveSettings(ctx context.Context, q repository.DBExecutor) (*domain.RevenueSplitSettings, error) {
	var settings domain.RevenueSplitSettings
	query := `SELECT id, dealer_percentage, platform_percentage, is_active, effective_from, created_at
              FROM revenue_split_settings
              WHERE is_active = TRUE
              ORDER BY effective_from DESC
              LIMIT 1`
	err := q.GetContext(ctx, &settings, query)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active split settings: %w", err)
	}
	return &settings, nil
}

// ActivateSettings deactivates all other rows and inserts the new active one.
// Both statements run on the caller's transaction executor, so the
// one-active-row invariant cannot be observed violated.
func (r *RevenueSplitRepository) ActivateSettings(ctx context.Context, q repository.DBExecutor, settings *domain.RevenueSplitSettings) error {
	if _, err := q.ExecContext(ctx, `UPDATE revenue_split_settings SET is_active = FALSE WHERE is_active = TRUE`); err != nil {
		return fmt.Errorf("failed to deactivate split settings: %w", err)
	}

	settings.IsActive = true
	query := `INSERT INTO revenue_split_settings (dealer_percentage, platform_percentage, is_active, effective_from, created_at)
              VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		settings.DealerPercentage, settings.PlatformPercentage, settings.IsActive,
		settings.EffectiveFrom, settings.CreatedAt,
	).Scan(&settings.ID)
	if err != nil {
		return fmt.Errorf("failed to insert split settings: %w", err)
	}
	return nil
}

// CreateSplit inserts a split record under the transaction_id unique index.
func (r *RevenueSplitRepository) CreateSplit(ctx context.Context, q repository.DBExecutor, split *domain.RevenueSplit) error {
	query := `INSERT INTO revenue_splits (transaction_id, total_amount, dealer_amount, platform_amount,
                  dealer_percentage, platform_percentage, dealer_credited, dealer_credited_at, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		split.TransactionID,
		split.TotalAmount,
		split.DealerAmount,
		split.PlatformAmount,
		split.DealerPercentage,
		split.PlatformPercentage,
		split.DealerCredited,
		split.DealerCreditedAt,
		split.CreatedAt,
	).Scan(&split.ID)
	if err != nil {
		if mapped := mapPQError(err); mapped == util.ErrDuplicateEntry {
			return mapped
		}
		return fmt.Errorf("failed to create revenue split: %w", err)
	}
	return nil
}

// GetSplitByTransactionID retrieves the split for a payment transaction.
func (r *RevenueSplitRepository) GetSplitByTransactionID(ctx context.Context, q repository.DBExecutor, transactionID int64) (*domain.RevenueSplit, error) {
	var split domain.RevenueSplit
	query := `SELECT ` + splitColumns + ` FROM revenue_splits WHERE transaction_id = $1`
	err := q.GetContext(ctx, &split, query, transactionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get split for transaction %d: %w", transactionID, err)
	}
	return &split, nil
}

// GetSplitByReference retrieves the split for a payment via its transaction reference.
func (r *RevenueSplitRepository) GetSplitByReference(ctx context.Context, q repository.DBExecutor, reference string) (*domain.RevenueSplit, error) {
	var split domain.RevenueSplit
	query := `SELECT s.id, s.transaction_id, s.total_amount, s.dealer_amount, s.platform_amount,
                  s.dealer_percentage, s.platform_percentage, s.dealer_credited, s.dealer_credited_at, s.created_at
              FROM revenue_splits s
              JOIN transactions t ON t.id = s.transaction_id
              WHERE t.reference = $1`
	err := q.GetContext(ctx, &split, query, reference)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get split for reference %s: %w", reference, err)
	}
	return &split, nil
}
