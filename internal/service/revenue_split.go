// internal/service/revenue_split.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/repository"
	"tradehub-ledger/internal/util"
	"tradehub-ledger/pkg/db"

	"github.com/shopspring/decimal"
)

// Fallback used when no active settings row exists. A payment is never
// failed over missing configuration; the fallback is applied and a warning
// logged instead.
var (
	defaultDealerPercentage   = decimal.NewFromInt(60)
	defaultPlatformPercentage = decimal.NewFromInt(40)
)

// RevenueSplitter divides a completed split-bearing payment between the
// dealer and the platform, crediting the dealer wallet exactly once per
// payment.
type RevenueSplitter struct {
	dbBeginner  db.DBTxBeginner
	dbExecutor  repository.DBExecutor
	splitRepo   repository.RevenueSplitRepository
	walletRepo  repository.WalletRepository
	walletStore *WalletStore
	beginTx     db.BeginTxFunc
	commitTx    db.CommitTxFunc
	rollbackTx  db.RollbackTxFunc
	logger      *slog.Logger
}

// NewRevenueSplitter creates a new RevenueSplitter.
func NewRevenueSplitter(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	splitRepo repository.RevenueSplitRepository,
	walletRepo repository.WalletRepository,
	walletStore *WalletStore,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	logger *slog.Logger,
) *RevenueSplitter {
	return &RevenueSplitter{
		dbBeginner:  dbBeginner,
		dbExecutor:  dbExecutor,
		splitRepo:   splitRepo,
		walletRepo:  walletRepo,
		walletStore: walletStore,
		beginTx:     beginTx,
		commitTx:    commitTx,
		rollbackTx:  rollbackTx,
		logger:      logger,
	}
}

// SplitTx computes and applies the split for a completed payment transaction
// inside the caller's database transaction. The dealer wallet is locked and
// credited here, independently of whatever lock the caller holds; the
// platform share is recorded on the split row only. Re-entry is caught by
// the split row's uniqueness on transaction_id.
func (s *RevenueSplitter) SplitTx(ctx context.Context, q repository.DBExecutor, txn *domain.Transaction) (*domain.RevenueSplit, error) {
	if existing, err := s.splitRepo.GetSplitByTransactionID(ctx, q, txn.ID); err == nil {
		return existing, nil
	} else if !util.IsError(err, util.ErrNotFound) {
		return nil, fmt.Errorf("split: failed to check existing split for transaction %d: %w", txn.ID, err)
	}

	settings, err := s.splitRepo.GetActiveSettings(ctx, q)
	switch {
	case util.IsError(err, util.ErrNotFound):
		s.logger.Warn("no active revenue split settings, applying default",
			"reference", txn.Reference,
			"dealer_percentage", defaultDealerPercentage,
			"platform_percentage", defaultPlatformPercentage)
		settings = &domain.RevenueSplitSettings{
			DealerPercentage:   defaultDealerPercentage,
			PlatformPercentage: defaultPlatformPercentage,
		}
	case err != nil:
		return nil, fmt.Errorf("split: failed to load settings: %w", err)
	case !settings.Validate():
		return nil, fmt.Errorf("split: settings %d (%s/%s): %w",
			settings.ID, settings.DealerPercentage, settings.PlatformPercentage, util.ErrInvalidSplitConfig)
	}

	if txn.RecipientWalletID == nil {
		return nil, fmt.Errorf("split: transaction %s has no dealer wallet: %w", txn.Reference, util.ErrInvalidInput)
	}

	dealerAmount, platformAmount := domain.ComputeSplit(txn.Amount, settings)

	dealerWallet, err := s.walletRepo.GetWalletByIDForUpdate(ctx, q, *txn.RecipientWalletID)
	if err != nil {
		return nil, fmt.Errorf("split: failed to lock dealer wallet %d: %w", *txn.RecipientWalletID, err)
	}
	if err := s.walletStore.CreditTx(ctx, q, dealerWallet, dealerAmount); err != nil {
		return nil, fmt.Errorf("split: failed to credit dealer wallet %d: %w", dealerWallet.ID, err)
	}

	now := time.Now().UTC()
	split := &domain.RevenueSplit{
		TransactionID:      txn.ID,
		TotalAmount:        txn.Amount,
		DealerAmount:       dealerAmount,
		PlatformAmount:     platformAmount,
		DealerPercentage:   settings.DealerPercentage,
		PlatformPercentage: settings.PlatformPercentage,
		DealerCredited:     true,
		DealerCreditedAt:   &now,
		CreatedAt:          now,
	}
	if err := s.splitRepo.CreateSplit(ctx, q, split); err != nil {
		return nil, fmt.Errorf("split: failed to persist split for transaction %d: %w", txn.ID, err)
	}
	return split, nil
}

// ActivateSettings validates and activates a new settings row, deactivating
// every other row in the same atomic step.
func (s *RevenueSplitter) ActivateSettings(ctx context.Context, dealerPct, platformPct decimal.Decimal) (*domain.RevenueSplitSettings, error) {
	settings := &domain.RevenueSplitSettings{
		DealerPercentage:   dealerPct,
		PlatformPercentage: platformPct,
		EffectiveFrom:      time.Now().UTC(),
		CreatedAt:          time.Now().UTC(),
	}
	if !settings.Validate() {
		return nil, fmt.Errorf("activate settings (%s/%s): %w", dealerPct, platformPct, util.ErrInvalidSplitConfig)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("activate settings: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("activate settings: transaction controller does not implement DBExecutor")
	}

	if err := s.splitRepo.ActivateSettings(ctx, txExecutor, settings); err != nil {
		return nil, fmt.Errorf("activate settings: %w", err)
	}
	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("activate settings: failed to commit transaction: %w", err)
	}
	return settings, nil
}

// GetSplitByReference exposes a payment's split breakdown to business
// subsystems, keyed by the transaction reference.
func (s *RevenueSplitter) GetSplitByReference(ctx context.Context, reference string) (*domain.RevenueSplit, error) {
	split, err := s.splitRepo.GetSplitByReference(ctx, s.dbExecutor, reference)
	if err != nil {
		return nil, fmt.Errorf("get split for reference %s: %w", reference, err)
	}
	return split, nil
}
