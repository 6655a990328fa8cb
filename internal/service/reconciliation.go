// internal/service/reconciliation.go
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
)

// Bounded retry for transient lock contention. Anything unresolved after the
// last attempt leaves the transaction pending for manual reconciliation.
const (
	maxApplyAttempts = 3
	retryBaseDelay   = 100 * time.Millisecond
)

// ProcessedCache is an optional fast path consulted before the ledger's
// reference lookup. It may only short-circuit known duplicates; the unique
// index on transactions.reference remains the source of truth.
type ProcessedCache interface {
	IsProcessed(ctx context.Context, reference string) (bool, error)
	MarkProcessed(ctx context.Context, reference string) error
}

// PaidNotifier is the mark-paid callback business subsystems register to
// react to a completed payment. It runs after commit; failures are logged
// and never unwind the ledger.
type PaidNotifier interface {
	PaymentCompleted(ctx context.Context, txn *domain.Transaction, split *domain.RevenueSplit) error
}

// ReconciliationOutcome says what Apply did with an event.
type ReconciliationOutcome string

const (
	OutcomeApplied          ReconciliationOutcome = "applied"
	OutcomeAlreadyProcessed ReconciliationOutcome = "already_processed"
)

// ReconciliationResult reports the terminal state reached for an event.
type ReconciliationResult struct {
	Outcome     ReconciliationOutcome `json:"outcome"`
	Transaction *domain.Transaction   `json:"transaction"`
	Split       *domain.RevenueSplit  `json:"split,omitempty"`
}

// ReconciliationEngine applies verified gateway events to the wallet store
// and transaction ledger exactly once, regardless of how many times the
// gateway delivers them or in what order.
type ReconciliationEngine struct {
	dbBeginner     db.DBTxBeginner
	dbExecutor     repository.DBExecutor
	walletRepo     repository.WalletRepository
	txRepo         repository.TransactionRepository
	withdrawalRepo repository.WithdrawalRepository
	walletStore    *WalletStore
	splitter       *RevenueSplitter
	cache          ProcessedCache // may be nil
	notifier       PaidNotifier   // may be nil
	currency       string
	beginTx        db.BeginTxFunc
	commitTx       db.CommitTxFunc
	rollbackTx     db.RollbackTxFunc
	logger         *slog.Logger
}

// NewReconciliationEngine creates a new ReconciliationEngine. cache and
// notifier may be nil.
func NewReconciliationEngine(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	txRepo repository.TransactionRepository,
	withdrawalRepo repository.WithdrawalRepository,
	walletStore *WalletStore,
	splitter *RevenueSplitter,
	cache ProcessedCache,
	notifier PaidNotifier,
	currency string,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	logger *slog.Logger,
) *ReconciliationEngine {
	return &ReconciliationEngine{
		dbBeginner:     dbBeginner,
		dbExecutor:     dbExecutor,
		walletRepo:     walletRepo,
		txRepo:         txRepo,
		withdrawalRepo: withdrawalRepo,
		walletStore:    walletStore,
		splitter:       splitter,
		cache:          cache,
		notifier:       notifier,
		currency:       currency,
		beginTx:        beginTx,
		commitTx:       commitTx,
		rollbackTx:     rollbackTx,
		logger:         logger,
	}
}

// Apply reconciles one payment event. Duplicate deliveries of the same
// reference after a terminal transition come back as OutcomeAlreadyProcessed
// with no further mutation.
func (e *ReconciliationEngine) Apply(ctx context.Context, event *domain.PaymentEvent) (*ReconciliationResult, error) {
	if e.cache != nil {
		seen, err := e.cache.IsProcessed(ctx, event.Reference)
		if err != nil {
			e.logger.Warn("processed-reference cache unavailable", "reference", event.Reference, "error", err)
		} else if seen {
			txn, err := e.txRepo.GetTransactionByReference(ctx, e.dbExecutor, event.Reference)
			if err != nil {
				return nil, fmt.Errorf("apply: cached reference %s has no ledger row: %w", event.Reference, err)
			}
			return &ReconciliationResult{Outcome: OutcomeAlreadyProcessed, Transaction: txn}, nil
		}
	}

	var result *ReconciliationResult
	var err error
	for attempt := 1; attempt <= maxApplyAttempts; attempt++ {
		result, err = e.applyOnce(ctx, event)
		if err == nil || !util.IsError(err, util.ErrConcurrencyConflict) {
			break
		}
		if attempt < maxApplyAttempts {
			delay := retryBaseDelay << (attempt - 1)
			e.logger.Info("retrying reconciliation after conflict",
				"reference", event.Reference, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		e.logger.Error("reconciliation failed, transaction left for manual review",
			"reference", event.Reference, "event", event.Kind, "amount", event.Amount, "error", err)
		return nil, err
	}

	if result.Outcome == OutcomeApplied {
		if e.cache != nil {
			if cerr := e.cache.MarkProcessed(ctx, event.Reference); cerr != nil {
				e.logger.Warn("failed to cache processed reference", "reference", event.Reference, "error", cerr)
			}
		}
		if e.notifier != nil && result.Transaction.Status == domain.TransactionStatusCompleted &&
			(result.Transaction.Purpose == domain.PurposePayment || result.Transaction.Purpose == domain.PurposePaymentWithSplit) {
			if nerr := e.notifier.PaymentCompleted(ctx, result.Transaction, result.Split); nerr != nil {
				e.logger.Error("paid notifier failed", "reference", event.Reference, "error", nerr)
			}
		}
	}
	return result, nil
}

// applyOnce runs one reconciliation attempt inside a single database
// transaction with the target wallet row locked.
func (e *ReconciliationEngine) applyOnce(ctx context.Context, event *domain.PaymentEvent) (*ReconciliationResult, error) {
	txController, err := e.beginTx(ctx, e.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("apply: failed to begin transaction: %w", err)
	}
	defer e.rollbackTx(txController)

	q, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("apply: transaction controller does not implement DBExecutor")
	}

	txn, err := e.txRepo.GetTransactionByReference(ctx, q, event.Reference)
	switch {
	case err == nil && txn.Status.IsTerminal():
		// Primary defense against at-least-once delivery.
		return &ReconciliationResult{Outcome: OutcomeAlreadyProcessed, Transaction: txn}, nil
	case err == nil:
		// pending, fall through to apply
	case util.IsError(err, util.ErrNotFound):
		txn, err = e.selfInitiate(ctx, q, event)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("apply: failed to look up reference %s: %w", event.Reference, err)
	}

	if !event.Amount.Equal(txn.Amount) {
		return nil, fmt.Errorf("apply: reference %s expects %s, event carries %s: %w",
			event.Reference, txn.Amount, event.Amount, util.ErrAmountMismatch)
	}

	result := &ReconciliationResult{Outcome: OutcomeApplied, Transaction: txn}

	switch event.Kind {
	case domain.EventChargeSucceeded:
		if err := e.applyCharge(ctx, q, txn, result); err != nil {
			return nil, err
		}
	case domain.EventTransferSucceeded:
		if err := e.applyTransferTerminal(ctx, q, txn, domain.TransactionStatusCompleted, domain.WithdrawalStatusCompleted, false); err != nil {
			return nil, err
		}
		txn.Status = domain.TransactionStatusCompleted
	case domain.EventTransferFailed:
		if err := e.applyTransferTerminal(ctx, q, txn, domain.TransactionStatusFailed, domain.WithdrawalStatusFailed, true); err != nil {
			return nil, err
		}
		txn.Status = domain.TransactionStatusFailed
	case domain.EventTransferReversed:
		if err := e.applyTransferTerminal(ctx, q, txn, domain.TransactionStatusReversed, domain.WithdrawalStatusFailed, true); err != nil {
			return nil, err
		}
		txn.Status = domain.TransactionStatusReversed
	default:
		return nil, fmt.Errorf("apply: event kind %q: %w", event.Kind, util.ErrParse)
	}

	if err := e.commitTx(txController); err != nil {
		return nil, fmt.Errorf("apply: failed to commit transaction: %w", err)
	}
	return result, nil
}

// selfInitiate creates the ledger record for an event whose purpose may
// arrive without prior initiation (a gateway-funded deposit). Everything
// else must reference an existing transaction.
func (e *ReconciliationEngine) selfInitiate(ctx context.Context, q repository.DBExecutor, event *domain.PaymentEvent) (*domain.Transaction, error) {
	if event.Kind != domain.EventChargeSucceeded || !event.Purpose.SelfInitiating() {
		return nil, fmt.Errorf("apply: reference %s: %w", event.Reference, util.ErrUnknownReference)
	}

	wallet, err := e.walletStore.GetOrCreateWallet(ctx, q, event.UserID, e.currency)
	if err != nil {
		return nil, fmt.Errorf("apply: failed to resolve deposit wallet for user %d: %w", event.UserID, err)
	}

	txn := domain.NewTransaction(event.Reference, domain.TransactionTypeDeposit, domain.TransactionSourceGateway,
		event.Amount, e.currency, event.Purpose, event.UserID, "gateway-initiated deposit")
	txn.RecipientWalletID = &wallet.ID
	txn.RelatedID = event.RelatedID
	if err := e.txRepo.CreateTransaction(ctx, q, txn); err != nil {
		if util.IsError(err, util.ErrDuplicateEntry) {
			// Concurrent delivery inserted it first; retry will find it.
			return nil, fmt.Errorf("apply: reference %s raced: %w", event.Reference, util.ErrConcurrencyConflict)
		}
		return nil, fmt.Errorf("apply: failed to create deposit transaction: %w", err)
	}
	return txn, nil
}

// applyCharge settles an inbound charge. Dispatch on purpose is exhaustive;
// unknown purposes fail closed.
func (e *ReconciliationEngine) applyCharge(ctx context.Context, q repository.DBExecutor, txn *domain.Transaction, result *ReconciliationResult) error {
	switch txn.Purpose {
	case domain.PurposeDeposit, domain.PurposePayment:
		if txn.RecipientWalletID == nil {
			return fmt.Errorf("apply: charge %s has no destination wallet: %w", txn.Reference, util.ErrInvalidInput)
		}
		wallet, err := e.walletRepo.GetWalletByIDForUpdate(ctx, q, *txn.RecipientWalletID)
		if err != nil {
			return fmt.Errorf("apply: failed to lock wallet %d: %w", *txn.RecipientWalletID, err)
		}
		if err := e.walletStore.CreditTx(ctx, q, wallet, txn.Amount); err != nil {
			return fmt.Errorf("apply: failed to credit wallet %d: %w", wallet.ID, err)
		}
	case domain.PurposePaymentWithSplit:
		// The payment settles externally; only the dealer's share enters a
		// wallet, via the splitter below.
	default:
		return fmt.Errorf("apply: charge %s carries purpose %q: %w", txn.Reference, txn.Purpose, util.ErrUnhandledPurpose)
	}

	if err := e.txRepo.MarkTransactionStatus(ctx, q, txn.Reference, domain.TransactionStatusPending, domain.TransactionStatusCompleted); err != nil {
		return err
	}
	txn.Status = domain.TransactionStatusCompleted

	if txn.Purpose == domain.PurposePaymentWithSplit {
		split, err := e.splitter.SplitTx(ctx, q, txn)
		if err != nil {
			return err
		}
		result.Split = split
	}
	return nil
}

// applyTransferTerminal settles an outbound transfer's terminal event. On
// failure or reversal the debited wallet is credited back before the status
// flips, so funds are never silently lost.
func (e *ReconciliationEngine) applyTransferTerminal(ctx context.Context, q repository.DBExecutor, txn *domain.Transaction, txStatus domain.TransactionStatus, wdStatus domain.WithdrawalStatus, compensate bool) error {
	if compensate {
		if txn.SenderWalletID == nil {
			return fmt.Errorf("apply: transfer %s has no source wallet: %w", txn.Reference, util.ErrInvalidInput)
		}
		wallet, err := e.walletRepo.GetWalletByIDForUpdate(ctx, q, *txn.SenderWalletID)
		if err != nil {
			return fmt.Errorf("apply: failed to lock wallet %d: %w", *txn.SenderWalletID, err)
		}
		if err := e.walletStore.CreditTx(ctx, q, wallet, txn.Amount); err != nil {
			return fmt.Errorf("apply: failed to credit back wallet %d: %w", wallet.ID, err)
		}
	}

	if err := e.txRepo.MarkTransactionStatus(ctx, q, txn.Reference, domain.TransactionStatusPending, txStatus); err != nil {
		return err
	}

	withdrawal, err := e.withdrawalRepo.GetWithdrawalByTransactionID(ctx, q, txn.ID)
	if util.IsError(err, util.ErrNotFound) {
		return nil // standalone payout, nothing else to update
	}
	if err != nil {
		return fmt.Errorf("apply: failed to find withdrawal for transaction %d: %w", txn.ID, err)
	}
	if !withdrawal.Status.CanTransition(wdStatus) {
		e.logger.Warn("withdrawal cannot take transfer outcome, leaving as-is",
			"withdrawal_id", withdrawal.ID, "status", withdrawal.Status, "target", wdStatus)
		return nil
	}
	expected := withdrawal.Status
	withdrawal.Status = wdStatus
	if err := e.withdrawalRepo.UpdateWithdrawal(ctx, q, withdrawal, expected); err != nil {
		return fmt.Errorf("apply: failed to move withdrawal %d to %s: %w", withdrawal.ID, wdStatus, err)
	}
	return nil
}

// ListPendingForReview surfaces transactions that never reached a terminal
// status, for the manual reconciliation queue.
func (e *ReconciliationEngine) ListPendingForReview(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Transaction, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	return e.txRepo.ListPendingOlderThan(ctx, e.dbExecutor, cutoff, limit)
}
