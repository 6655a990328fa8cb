// internal/service/wallet_store.go
package service

import (
	"context"
	"fmt"

	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/repository"
	"tradehub-ledger/internal/util"
	"tradehub-ledger/pkg/db"

	"github.com/shopspring/decimal"
)

// WalletStore owns every balance mutation. The exported operations each run
// in their own database transaction with the wallet row locked; the *Tx
// variants are the same primitives for callers composing a larger unit of
// work who already hold the row lock. There is no other path that changes a
// balance.
type WalletStore struct {
	dbBeginner bridgeBeginner
	dbExecutor repository.DBExecutor
	walletRepo repository.WalletRepository
	txRepo     repository.TransactionRepository
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
}

// bridgeBeginner aliases db.DBTxBeginner to keep constructor signatures short.
type bridgeBeginner = db.DBTxBeginner

// NewWalletStore creates a new WalletStore.
func NewWalletStore(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	txRepo repository.TransactionRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) *WalletStore {
	return &WalletStore{
		dbBeginner: dbBeginner,
		dbExecutor: dbExecutor,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
	}
}

// CreateWallet provisions a wallet for a user in the given currency.
func (s *WalletStore) CreateWallet(ctx context.Context, userID int64, currency string) (*domain.Wallet, error) {
	if userID <= 0 || currency == "" {
		return nil, util.ErrInvalidInput
	}
	wallet := domain.NewWallet(userID, currency)
	if err := s.walletRepo.CreateWallet(ctx, s.dbExecutor, wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return wallet, nil
}

// GetOrCreateWallet returns the user's wallet for the currency, provisioning
// one on first use.
func (s *WalletStore) GetOrCreateWallet(ctx context.Context, q repository.DBExecutor, userID int64, currency string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByUserIDAndCurrency(ctx, q, userID, currency)
	if err == nil {
		return wallet, nil
	}
	if !util.IsError(err, util.ErrNotFound) {
		return nil, fmt.Errorf("get wallet for user %d: %w", userID, err)
	}
	wallet = domain.NewWallet(userID, currency)
	if err := s.walletRepo.CreateWallet(ctx, q, wallet); err != nil {
		return nil, fmt.Errorf("provision wallet for user %d: %w", userID, err)
	}
	return wallet, nil
}

// Balance returns the wallet with its current balances.
func (s *WalletStore) Balance(ctx context.Context, walletID int64) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetWalletByID(ctx, s.dbExecutor, walletID)
	if err != nil {
		return nil, fmt.Errorf("balance: failed to get wallet %d: %w", walletID, err)
	}
	return wallet, nil
}

// TransactionHistory retrieves a paginated list of a wallet's ledger records
// together with the total count.
func (s *WalletStore) TransactionHistory(ctx context.Context, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	if _, err := s.walletRepo.GetWalletByID(ctx, s.dbExecutor, walletID); err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, 0, util.ErrWalletNotFound
		}
		return nil, 0, fmt.Errorf("failed to check wallet existence: %w", err)
	}
	transactions, totalCount, err := s.txRepo.GetTransactionsByWalletID(ctx, s.dbExecutor, walletID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve transaction history: %w", err)
	}
	return transactions, totalCount, nil
}

// Credit adds amount to a wallet's ledger balance and records a completed
// transaction under ref, all-or-nothing.
func (s *WalletStore) Credit(ctx context.Context, walletID int64, amount decimal.Decimal, ref, narration string) (*domain.Wallet, *domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, util.ErrInvalidInput
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("credit: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, nil, fmt.Errorf("credit: transaction controller does not implement DBExecutor")
	}

	wallet, err := s.walletRepo.GetWalletByIDForUpdate(ctx, txExecutor, walletID)
	if err != nil {
		return nil, nil, fmt.Errorf("credit: failed to lock wallet %d: %w", walletID, err)
	}

	if err := s.CreditTx(ctx, txExecutor, wallet, amount); err != nil {
		return nil, nil, err
	}

	transaction := domain.NewTransaction(ref, domain.TransactionTypeDeposit, domain.TransactionSourceWallet, amount, wallet.Currency, domain.PurposeDeposit, wallet.UserID, narration)
	transaction.RecipientWalletID = &wallet.ID
	transaction.Status = domain.TransactionStatusCompleted
	if err := s.txRepo.CreateTransaction(ctx, txExecutor, transaction); err != nil {
		return nil, nil, fmt.Errorf("credit: failed to record transaction: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("credit: failed to commit transaction: %w", err)
	}
	return wallet, transaction, nil
}

// Debit removes amount from a wallet's ledger balance and records a completed
// transaction under ref. Fails with ErrInsufficientBalance if the available
// balance would go negative.
func (s *WalletStore) Debit(ctx context.Context, walletID int64, amount decimal.Decimal, ref, narration string) (*domain.Wallet, *domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, util.ErrInvalidInput
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, nil, fmt.Errorf("debit: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, nil, fmt.Errorf("debit: transaction controller does not implement DBExecutor")
	}

	wallet, err := s.walletRepo.GetWalletByIDForUpdate(ctx, txExecutor, walletID)
	if err != nil {
		return nil, nil, fmt.Errorf("debit: failed to lock wallet %d: %w", walletID, err)
	}

	if err := s.DebitTx(ctx, txExecutor, wallet, amount); err != nil {
		return nil, nil, err
	}

	transaction := domain.NewTransaction(ref, domain.TransactionTypeWithdraw, domain.TransactionSourceWallet, amount, wallet.Currency, domain.PurposeWithdrawal, wallet.UserID, narration)
	transaction.SenderWalletID = &wallet.ID
	transaction.Status = domain.TransactionStatusCompleted
	if err := s.txRepo.CreateTransaction(ctx, txExecutor, transaction); err != nil {
		return nil, nil, fmt.Errorf("debit: failed to record transaction: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, nil, fmt.Errorf("debit: failed to commit transaction: %w", err)
	}
	return wallet, transaction, nil
}

// Lock earmarks amount of the wallet's available balance.
func (s *WalletStore) Lock(ctx context.Context, walletID int64, amount decimal.Decimal) (*domain.Wallet, error) {
	return s.adjustLock(ctx, walletID, amount, true)
}

// Unlock releases a previously earmarked amount.
func (s *WalletStore) Unlock(ctx context.Context, walletID int64, amount decimal.Decimal) (*domain.Wallet, error) {
	return s.adjustLock(ctx, walletID, amount, false)
}

func (s *WalletStore) adjustLock(ctx context.Context, walletID int64, amount decimal.Decimal, lock bool) (*domain.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidInput
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("lock: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("lock: transaction controller does not implement DBExecutor")
	}

	wallet, err := s.walletRepo.GetWalletByIDForUpdate(ctx, txExecutor, walletID)
	if err != nil {
		return nil, fmt.Errorf("lock: failed to lock wallet %d: %w", walletID, err)
	}

	if lock {
		err = s.LockTx(ctx, txExecutor, wallet, amount)
	} else {
		err = s.UnlockTx(ctx, txExecutor, wallet, amount)
	}
	if err != nil {
		return nil, err
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("lock: failed to commit transaction: %w", err)
	}
	return wallet, nil
}

// CreditTx adds amount to the ledger balance of an already-locked wallet.
func (s *WalletStore) CreditTx(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return util.ErrInvalidInput
	}
	if err := s.walletRepo.UpdateWalletBalances(ctx, q, wallet.ID, amount, decimal.Zero); err != nil {
		return fmt.Errorf("credit wallet %d: %w", wallet.ID, err)
	}
	wallet.LedgerBalance = wallet.LedgerBalance.Add(amount)
	return nil
}

// DebitTx removes amount from the ledger balance of an already-locked wallet.
func (s *WalletStore) DebitTx(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return util.ErrInvalidInput
	}
	if wallet.AvailableBalance().LessThan(amount) {
		return fmt.Errorf("wallet %d short %s: %w",
			wallet.ID, amount.Sub(wallet.AvailableBalance()), util.ErrInsufficientBalance)
	}
	if err := s.walletRepo.UpdateWalletBalances(ctx, q, wallet.ID, amount.Neg(), decimal.Zero); err != nil {
		return fmt.Errorf("debit wallet %d: %w", wallet.ID, err)
	}
	wallet.LedgerBalance = wallet.LedgerBalance.Sub(amount)
	return nil
}

// LockTx earmarks amount on an already-locked wallet.
func (s *WalletStore) LockTx(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return util.ErrInvalidInput
	}
	if wallet.AvailableBalance().LessThan(amount) {
		return fmt.Errorf("wallet %d short %s: %w",
			wallet.ID, amount.Sub(wallet.AvailableBalance()), util.ErrInsufficientBalance)
	}
	if err := s.walletRepo.UpdateWalletBalances(ctx, q, wallet.ID, decimal.Zero, amount); err != nil {
		return fmt.Errorf("lock funds on wallet %d: %w", wallet.ID, err)
	}
	wallet.LockedAmount = wallet.LockedAmount.Add(amount)
	return nil
}

// UnlockTx releases an earmark on an already-locked wallet.
func (s *WalletStore) UnlockTx(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return util.ErrInvalidInput
	}
	if wallet.LockedAmount.LessThan(amount) {
		return fmt.Errorf("wallet %d has only %s locked: %w",
			wallet.ID, wallet.LockedAmount, util.ErrInvalidInput)
	}
	if err := s.walletRepo.UpdateWalletBalances(ctx, q, wallet.ID, decimal.Zero, amount.Neg()); err != nil {
		return fmt.Errorf("unlock funds on wallet %d: %w", wallet.ID, err)
	}
	wallet.LockedAmount = wallet.LockedAmount.Sub(amount)
	return nil
}
