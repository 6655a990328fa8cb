// internal/service/withdrawal.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/gateway"
	"tradehub-ledger/internal/repository"
	"tradehub-ledger/internal/util"
	"tradehub-ledger/pkg/db"

	"github.com/shopspring/decimal"
)

// WithdrawalWorkflow runs the manual-approval payout state machine:
// pending -> approved -> processing -> completed, with rejected, cancelled
// and failed exits. Funds are locked on the wallet for the lifetime of a
// live request and only debited once the payout gateway accepts the
// transfer; final confirmation arrives through the reconciliation engine.
type WithdrawalWorkflow struct {
	dbBeginner     db.DBTxBeginner
	dbExecutor     repository.DBExecutor
	walletRepo     repository.WalletRepository
	withdrawalRepo repository.WithdrawalRepository
	txRepo         repository.TransactionRepository
	walletStore    *WalletStore
	payout         gateway.PayoutGateway
	minAmount      decimal.Decimal
	currency       string
	beginTx        db.BeginTxFunc
	commitTx       db.CommitTxFunc
	rollbackTx     db.RollbackTxFunc
	logger         *slog.Logger
}

// NewWithdrawalWorkflow creates a new WithdrawalWorkflow.
func NewWithdrawalWorkflow(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	withdrawalRepo repository.WithdrawalRepository,
	txRepo repository.TransactionRepository,
	walletStore *WalletStore,
	payout gateway.PayoutGateway,
	minAmount decimal.Decimal,
	currency string,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	logger *slog.Logger,
) *WithdrawalWorkflow {
	return &WithdrawalWorkflow{
		dbBeginner:     dbBeginner,
		dbExecutor:     dbExecutor,
		walletRepo:     walletRepo,
		withdrawalRepo: withdrawalRepo,
		txRepo:         txRepo,
		walletStore:    walletStore,
		payout:         payout,
		minAmount:      minAmount,
		currency:       currency,
		beginTx:        beginTx,
		commitTx:       commitTx,
		rollbackTx:     rollbackTx,
		logger:         logger,
	}
}

// Create validates and records a withdrawal request, locking the amount on
// the wallet in the same transaction. Because the wallet row lock is held
// while the earmark is placed, concurrent requests cannot jointly exceed the
// available balance.
func (w *WithdrawalWorkflow) Create(ctx context.Context, userID, walletID int64, amount decimal.Decimal, payoutRef string) (*domain.WithdrawalRequest, error) {
	if amount.LessThan(w.minAmount) {
		return nil, fmt.Errorf("create withdrawal: amount below minimum %s: %w", w.minAmount, util.ErrInvalidInput)
	}
	if strings.TrimSpace(payoutRef) == "" {
		return nil, fmt.Errorf("create withdrawal: payout reference required: %w", util.ErrInvalidInput)
	}

	txController, err := w.beginTx(ctx, w.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("create withdrawal: failed to begin transaction: %w", err)
	}
	defer w.rollbackTx(txController)

	q, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("create withdrawal: transaction controller does not implement DBExecutor")
	}

	wallet, err := w.walletRepo.GetWalletByIDForUpdate(ctx, q, walletID)
	if err != nil {
		return nil, fmt.Errorf("create withdrawal: failed to lock wallet %d: %w", walletID, err)
	}
	if wallet.UserID != userID {
		return nil, util.ErrWalletNotFound
	}

	if err := w.walletStore.LockTx(ctx, q, wallet, amount); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}

	req := domain.NewWithdrawalRequest(userID, walletID, amount, payoutRef)
	if err := w.withdrawalRepo.CreateWithdrawal(ctx, q, req); err != nil {
		return nil, fmt.Errorf("create withdrawal: %w", err)
	}

	if err := w.commitTx(txController); err != nil {
		return nil, fmt.Errorf("create withdrawal: failed to commit transaction: %w", err)
	}
	return req, nil
}

// Approve moves a pending request to approved. The earmark stays in place.
func (w *WithdrawalWorkflow) Approve(ctx context.Context, id, reviewerID int64) (*domain.WithdrawalRequest, error) {
	return w.review(ctx, id, reviewerID, domain.WithdrawalStatusApproved, nil)
}

// Reject moves a pending request to rejected and releases the earmark.
// A non-empty reason is mandatory.
func (w *WithdrawalWorkflow) Reject(ctx context.Context, id, reviewerID int64, reason string) (*domain.WithdrawalRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("reject withdrawal: reason required: %w", util.ErrInvalidInput)
	}
	return w.review(ctx, id, reviewerID, domain.WithdrawalStatusRejected, &reason)
}

func (w *WithdrawalWorkflow) review(ctx context.Context, id, reviewerID int64, target domain.WithdrawalStatus, reason *string) (*domain.WithdrawalRequest, error) {
	txController, err := w.beginTx(ctx, w.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("review withdrawal: failed to begin transaction: %w", err)
	}
	defer w.rollbackTx(txController)

	q, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("review withdrawal: transaction controller does not implement DBExecutor")
	}

	req, err := w.withdrawalRepo.GetWithdrawalByIDForUpdate(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("review withdrawal: failed to lock request %d: %w", id, err)
	}
	if !req.Status.CanTransition(target) {
		return nil, fmt.Errorf("review withdrawal: %d is %s, cannot move to %s: %w", id, req.Status, target, util.ErrInvalidInput)
	}

	if target == domain.WithdrawalStatusRejected {
		wallet, err := w.walletRepo.GetWalletByIDForUpdate(ctx, q, req.WalletID)
		if err != nil {
			return nil, fmt.Errorf("review withdrawal: failed to lock wallet %d: %w", req.WalletID, err)
		}
		if err := w.walletStore.UnlockTx(ctx, q, wallet, req.Amount); err != nil {
			return nil, fmt.Errorf("review withdrawal: %w", err)
		}
	}

	now := time.Now().UTC()
	expected := req.Status
	req.Status = target
	req.ReviewedBy = &reviewerID
	req.ReviewedAt = &now
	req.RejectionReason = reason
	if err := w.withdrawalRepo.UpdateWithdrawal(ctx, q, req, expected); err != nil {
		return nil, fmt.Errorf("review withdrawal: %w", err)
	}

	if err := w.commitTx(txController); err != nil {
		return nil, fmt.Errorf("review withdrawal: failed to commit transaction: %w", err)
	}
	return req, nil
}

// Cancel lets the owner withdraw a request that has not been reviewed yet,
// releasing the earmark.
func (w *WithdrawalWorkflow) Cancel(ctx context.Context, id, ownerID int64) (*domain.WithdrawalRequest, error) {
	txController, err := w.beginTx(ctx, w.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("cancel withdrawal: failed to begin transaction: %w", err)
	}
	defer w.rollbackTx(txController)

	q, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("cancel withdrawal: transaction controller does not implement DBExecutor")
	}

	req, err := w.withdrawalRepo.GetWithdrawalByIDForUpdate(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("cancel withdrawal: failed to lock request %d: %w", id, err)
	}
	if req.UserID != ownerID {
		return nil, util.ErrNotFound
	}
	if req.Status != domain.WithdrawalStatusPending {
		return nil, fmt.Errorf("cancel withdrawal: %d is %s, only pending requests can be cancelled: %w", id, req.Status, util.ErrInvalidInput)
	}

	wallet, err := w.walletRepo.GetWalletByIDForUpdate(ctx, q, req.WalletID)
	if err != nil {
		return nil, fmt.Errorf("cancel withdrawal: failed to lock wallet %d: %w", req.WalletID, err)
	}
	if err := w.walletStore.UnlockTx(ctx, q, wallet, req.Amount); err != nil {
		return nil, fmt.Errorf("cancel withdrawal: %w", err)
	}

	expected := req.Status
	req.Status = domain.WithdrawalStatusCancelled
	if err := w.withdrawalRepo.UpdateWithdrawal(ctx, q, req, expected); err != nil {
		return nil, fmt.Errorf("cancel withdrawal: %w", err)
	}

	if err := w.commitTx(txController); err != nil {
		return nil, fmt.Errorf("cancel withdrawal: failed to commit transaction: %w", err)
	}
	return req, nil
}

// Process executes an approved request: it flips the request to processing,
// asks the payout gateway to move the money, and only on acceptance debits
// the wallet and records the pending transfer_out transaction. A synchronous
// gateway refusal releases the earmark and marks the request failed without
// ever debiting. The terminal outcome arrives later as a transfer webhook.
func (w *WithdrawalWorkflow) Process(ctx context.Context, id int64) (*domain.WithdrawalRequest, error) {
	req, err := w.transition(ctx, id, domain.WithdrawalStatusApproved, domain.WithdrawalStatusProcessing)
	if err != nil {
		return nil, err
	}

	reference := NewReference()
	if perr := w.payout.InitiateTransfer(ctx, req.Amount, req.PayoutReference, reference); perr != nil {
		w.logger.Error("payout initiation failed, releasing funds",
			"withdrawal_id", req.ID, "amount", req.Amount, "error", perr)
		if ferr := w.releaseAfterPayoutFailure(ctx, req); ferr != nil {
			return nil, fmt.Errorf("process withdrawal: payout failed (%v) and release failed: %w", perr, ferr)
		}
		return nil, fmt.Errorf("process withdrawal: payout initiation failed: %w", perr)
	}

	return w.debitAfterPayoutAccepted(ctx, req, reference)
}

// transition moves a request between statuses under its row lock.
func (w *WithdrawalWorkflow) transition(ctx context.Context, id int64, from, to domain.WithdrawalStatus) (*domain.WithdrawalRequest, error) {
	txController, err := w.beginTx(ctx, w.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("process withdrawal: failed to begin transaction: %w", err)
	}
	defer w.rollbackTx(txController)

	q, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("process withdrawal: transaction controller does not implement DBExecutor")
	}

	req, err := w.withdrawalRepo.GetWithdrawalByIDForUpdate(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("process withdrawal: failed to lock request %d: %w", id, err)
	}
	if req.Status != from || !req.Status.CanTransition(to) {
		return nil, fmt.Errorf("process withdrawal: %d is %s, expected %s: %w", id, req.Status, from, util.ErrInvalidInput)
	}

	expected := req.Status
	req.Status = to
	if err := w.withdrawalRepo.UpdateWithdrawal(ctx, q, req, expected); err != nil {
		return nil, fmt.Errorf("process withdrawal: %w", err)
	}
	if err := w.commitTx(txController); err != nil {
		return nil, fmt.Errorf("process withdrawal: failed to commit transaction: %w", err)
	}
	return req, nil
}

// releaseAfterPayoutFailure unlocks the earmarked funds and marks the
// request failed. No debit has happened at this point.
func (w *WithdrawalWorkflow) releaseAfterPayoutFailure(ctx context.Context, req *domain.WithdrawalRequest) error {
	txController, err := w.beginTx(ctx, w.dbBeginner)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer w.rollbackTx(txController)

	q, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("transaction controller does not implement DBExecutor")
	}

	wallet, err := w.walletRepo.GetWalletByIDForUpdate(ctx, q, req.WalletID)
	if err != nil {
		return fmt.Errorf("failed to lock wallet %d: %w", req.WalletID, err)
	}
	if err := w.walletStore.UnlockTx(ctx, q, wallet, req.Amount); err != nil {
		return err
	}

	expected := req.Status
	req.Status = domain.WithdrawalStatusFailed
	if err := w.withdrawalRepo.UpdateWithdrawal(ctx, q, req, expected); err != nil {
		return err
	}
	return w.commitTx(txController)
}

// debitAfterPayoutAccepted converts the earmark into a real debit and links
// the pending transfer_out transaction the gateway will settle.
func (w *WithdrawalWorkflow) debitAfterPayoutAccepted(ctx context.Context, req *domain.WithdrawalRequest, reference string) (*domain.WithdrawalRequest, error) {
	txController, err := w.beginTx(ctx, w.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("process withdrawal: failed to begin transaction: %w", err)
	}
	defer w.rollbackTx(txController)

	q, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("process withdrawal: transaction controller does not implement DBExecutor")
	}

	wallet, err := w.walletRepo.GetWalletByIDForUpdate(ctx, q, req.WalletID)
	if err != nil {
		return nil, fmt.Errorf("process withdrawal: failed to lock wallet %d: %w", req.WalletID, err)
	}
	if err := w.walletStore.UnlockTx(ctx, q, wallet, req.Amount); err != nil {
		return nil, fmt.Errorf("process withdrawal: %w", err)
	}
	if err := w.walletStore.DebitTx(ctx, q, wallet, req.Amount); err != nil {
		return nil, fmt.Errorf("process withdrawal: %w", err)
	}

	txn := domain.NewTransaction(reference, domain.TransactionTypeTransferOut, domain.TransactionSourceGateway,
		req.Amount, w.currency, domain.PurposeWithdrawal, req.UserID, "withdrawal payout")
	txn.SenderWalletID = &wallet.ID
	if err := w.txRepo.CreateTransaction(ctx, q, txn); err != nil {
		return nil, fmt.Errorf("process withdrawal: failed to record transaction: %w", err)
	}

	req.TransactionID = &txn.ID
	if err := w.withdrawalRepo.UpdateWithdrawal(ctx, q, req, domain.WithdrawalStatusProcessing); err != nil {
		return nil, fmt.Errorf("process withdrawal: %w", err)
	}

	if err := w.commitTx(txController); err != nil {
		return nil, fmt.Errorf("process withdrawal: failed to commit transaction: %w", err)
	}
	return req, nil
}

// Get returns one request.
func (w *WithdrawalWorkflow) Get(ctx context.Context, id int64) (*domain.WithdrawalRequest, error) {
	req, err := w.withdrawalRepo.GetWithdrawalByID(ctx, w.dbExecutor, id)
	if err != nil {
		return nil, fmt.Errorf("get withdrawal %d: %w", id, err)
	}
	return req, nil
}

// ListByOwner returns an owner's requests, newest first.
func (w *WithdrawalWorkflow) ListByOwner(ctx context.Context, userID int64, limit, offset int) ([]domain.WithdrawalRequest, int64, error) {
	return w.withdrawalRepo.ListWithdrawalsByUserID(ctx, w.dbExecutor, userID, limit, offset)
}

// List returns requests across all owners, optionally filtered by status.
func (w *WithdrawalWorkflow) List(ctx context.Context, status *domain.WithdrawalStatus, limit, offset int) ([]domain.WithdrawalRequest, int64, error) {
	return w.withdrawalRepo.ListWithdrawals(ctx, w.dbExecutor, status, limit, offset)
}

// Stats aggregates request counts and amounts by status.
func (w *WithdrawalWorkflow) Stats(ctx context.Context) ([]domain.WithdrawalStats, error) {
	return w.withdrawalRepo.GetWithdrawalStats(ctx, w.dbExecutor)
}
