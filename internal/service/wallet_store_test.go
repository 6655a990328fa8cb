// internal/service/wallet_store_test.go
package service

import (
	"context"
	"testing"

	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestWalletStore(walletRepo *MockWalletRepository, txRepo *MockTransactionRepository, tc *MockTxController) *WalletStore {
	beginTx, commitTx, rollbackTx := testTxFuncs(tc)
	return NewWalletStore(new(MockDBBeginner), new(MockDBExecutor), walletRepo, txRepo, beginTx, commitTx, rollbackTx)
}

func TestCredit(t *testing.T) {
	walletID := int64(1)
	amount := decimal.NewFromFloat(500.00)

	t.Run("SuccessfulCredit", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxRepo := new(MockTransactionRepository)
		mockTxController := new(MockTxController)
		store := newTestWalletStore(mockWalletRepo, mockTxRepo, mockTxController)

		wallet := &domain.Wallet{
			ID:            walletID,
			UserID:        10,
			Currency:      "NGN",
			LedgerBalance: decimal.NewFromFloat(1000.00),
			LockedAmount:  decimal.Zero,
		}

		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockWalletRepo.On("UpdateWalletBalances", ctx, mock.Anything, walletID, amount, decimal.Zero).Return(nil).Once()
		mockTxRepo.On("CreateTransaction", ctx, mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil).Once()
		mockTxController.On("Commit").Return(nil).Once()
		mockTxController.On("Rollback").Return(nil).Maybe()

		resWallet, resTx, err := store.Credit(ctx, walletID, amount, "REF-1", "test credit")

		assert.NoError(t, err)
		assert.True(t, resWallet.LedgerBalance.Equal(decimal.NewFromFloat(1500.00)))
		assert.Equal(t, domain.TransactionStatusCompleted, resTx.Status)
		assert.Equal(t, domain.TransactionTypeDeposit, resTx.Type)
		assert.Equal(t, walletID, *resTx.RecipientWalletID)

		mock.AssertExpectationsForObjects(t, mockWalletRepo, mockTxRepo, mockTxController)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxRepo := new(MockTransactionRepository)
		mockTxController := new(MockTxController)
		store := newTestWalletStore(mockWalletRepo, mockTxRepo, mockTxController)

		_, _, err := store.Credit(ctx, walletID, decimal.NewFromFloat(-5.00), "REF-2", "")

		assert.ErrorIs(t, err, util.ErrInvalidInput)
		mockTxController.AssertNotCalled(t, "Commit")
		mockWalletRepo.AssertNotCalled(t, "GetWalletByIDForUpdate", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDebit(t *testing.T) {
	walletID := int64(1)

	t.Run("SuccessfulDebit", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxRepo := new(MockTransactionRepository)
		mockTxController := new(MockTxController)
		store := newTestWalletStore(mockWalletRepo, mockTxRepo, mockTxController)

		amount := decimal.NewFromFloat(300.00)
		wallet := &domain.Wallet{
			ID:            walletID,
			UserID:        10,
			Currency:      "NGN",
			LedgerBalance: decimal.NewFromFloat(1000.00),
			LockedAmount:  decimal.Zero,
		}

		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockWalletRepo.On("UpdateWalletBalances", ctx, mock.Anything, walletID, amount.Neg(), decimal.Zero).Return(nil).Once()
		mockTxRepo.On("CreateTransaction", ctx, mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil).Once()
		mockTxController.On("Commit").Return(nil).Once()
		mockTxController.On("Rollback").Return(nil).Maybe()

		resWallet, resTx, err := store.Debit(ctx, walletID, amount, "REF-3", "test debit")

		assert.NoError(t, err)
		assert.True(t, resWallet.LedgerBalance.Equal(decimal.NewFromFloat(700.00)))
		assert.Equal(t, domain.TransactionTypeWithdraw, resTx.Type)

		mock.AssertExpectationsForObjects(t, mockWalletRepo, mockTxRepo, mockTxController)
	})

	t.Run("InsufficientAvailableBalance", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxRepo := new(MockTransactionRepository)
		mockTxController := new(MockTxController)
		store := newTestWalletStore(mockWalletRepo, mockTxRepo, mockTxController)

		// 1000 on the ledger but 800 earmarked: only 200 is available.
		wallet := &domain.Wallet{
			ID:            walletID,
			UserID:        10,
			Currency:      "NGN",
			LedgerBalance: decimal.NewFromFloat(1000.00),
			LockedAmount:  decimal.NewFromFloat(800.00),
		}

		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockTxController.On("Rollback").Return(nil).Once()

		_, _, err := store.Debit(ctx, walletID, decimal.NewFromFloat(300.00), "REF-4", "")

		assert.ErrorIs(t, err, util.ErrInsufficientBalance)
		mockTxController.AssertNotCalled(t, "Commit")
		mockWalletRepo.AssertNotCalled(t, "UpdateWalletBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

		mock.AssertExpectationsForObjects(t, mockWalletRepo, mockTxRepo, mockTxController)
	})
}

func TestLockUnlock(t *testing.T) {
	walletID := int64(7)

	t.Run("LockWithinAvailable", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxRepo := new(MockTransactionRepository)
		mockTxController := new(MockTxController)
		store := newTestWalletStore(mockWalletRepo, mockTxRepo, mockTxController)

		amount := decimal.NewFromFloat(250.00)
		wallet := &domain.Wallet{
			ID:            walletID,
			LedgerBalance: decimal.NewFromFloat(400.00),
			LockedAmount:  decimal.Zero,
		}

		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockWalletRepo.On("UpdateWalletBalances", ctx, mock.Anything, walletID, decimal.Zero, amount).Return(nil).Once()
		mockTxController.On("Commit").Return(nil).Once()
		mockTxController.On("Rollback").Return(nil).Maybe()

		resWallet, err := store.Lock(ctx, walletID, amount)

		assert.NoError(t, err)
		assert.True(t, resWallet.LockedAmount.Equal(amount))
		assert.True(t, resWallet.AvailableBalance().Equal(decimal.NewFromFloat(150.00)))

		mock.AssertExpectationsForObjects(t, mockWalletRepo, mockTxController)
	})

	t.Run("LockBeyondAvailable", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxRepo := new(MockTransactionRepository)
		mockTxController := new(MockTxController)
		store := newTestWalletStore(mockWalletRepo, mockTxRepo, mockTxController)

		wallet := &domain.Wallet{
			ID:            walletID,
			LedgerBalance: decimal.NewFromFloat(400.00),
			LockedAmount:  decimal.NewFromFloat(300.00),
		}

		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockTxController.On("Rollback").Return(nil).Once()

		_, err := store.Lock(ctx, walletID, decimal.NewFromFloat(200.00))

		assert.ErrorIs(t, err, util.ErrInsufficientBalance)
		mockTxController.AssertNotCalled(t, "Commit")

		mock.AssertExpectationsForObjects(t, mockWalletRepo, mockTxController)
	})

	t.Run("UnlockBeyondLocked", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxRepo := new(MockTransactionRepository)
		mockTxController := new(MockTxController)
		store := newTestWalletStore(mockWalletRepo, mockTxRepo, mockTxController)

		wallet := &domain.Wallet{
			ID:            walletID,
			LedgerBalance: decimal.NewFromFloat(400.00),
			LockedAmount:  decimal.NewFromFloat(50.00),
		}

		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockTxController.On("Rollback").Return(nil).Once()

		_, err := store.Unlock(ctx, walletID, decimal.NewFromFloat(100.00))

		assert.ErrorIs(t, err, util.ErrInvalidInput)
		mockTxController.AssertNotCalled(t, "Commit")

		mock.AssertExpectationsForObjects(t, mockWalletRepo, mockTxController)
	})
}

func TestGetOrCreateWallet(t *testing.T) {
	t.Run("ExistingWallet", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxRepo := new(MockTransactionRepository)
		mockTxController := new(MockTxController)
		store := newTestWalletStore(mockWalletRepo, mockTxRepo, mockTxController)

		existing := &domain.Wallet{ID: 3, UserID: 42, Currency: "NGN"}
		mockWalletRepo.On("GetWalletByUserIDAndCurrency", ctx, mock.Anything, int64(42), "NGN").Return(existing, nil).Once()

		wallet, err := store.GetOrCreateWallet(ctx, new(MockDBExecutor), 42, "NGN")

		assert.NoError(t, err)
		assert.Equal(t, existing, wallet)
		mockWalletRepo.AssertNotCalled(t, "CreateWallet", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ProvisionsOnFirstUse", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxRepo := new(MockTransactionRepository)
		mockTxController := new(MockTxController)
		store := newTestWalletStore(mockWalletRepo, mockTxRepo, mockTxController)

		mockWalletRepo.On("GetWalletByUserIDAndCurrency", ctx, mock.Anything, int64(42), "NGN").Return(nil, util.ErrNotFound).Once()
		mockWalletRepo.On("CreateWallet", ctx, mock.Anything, mock.AnythingOfType("*domain.Wallet")).Return(nil).Once()

		wallet, err := store.GetOrCreateWallet(ctx, new(MockDBExecutor), 42, "NGN")

		assert.NoError(t, err)
		assert.Equal(t, int64(42), wallet.UserID)
		assert.True(t, wallet.LedgerBalance.IsZero())

		mock.AssertExpectationsForObjects(t, mockWalletRepo)
	})
}

func TestTransactionHistory(t *testing.T) {
	t.Run("UnknownWallet", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxRepo := new(MockTransactionRepository)
		mockTxController := new(MockTxController)
		store := newTestWalletStore(mockWalletRepo, mockTxRepo, mockTxController)

		mockWalletRepo.On("GetWalletByID", ctx, mock.Anything, int64(99)).Return(nil, util.ErrNotFound).Once()

		_, _, err := store.TransactionHistory(ctx, 99, 20, 0)

		assert.ErrorIs(t, err, util.ErrWalletNotFound)
		mockTxRepo.AssertNotCalled(t, "GetTransactionsByWalletID", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PaginatedHistory", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockTxRepo := new(MockTransactionRepository)
		mockTxController := new(MockTxController)
		store := newTestWalletStore(mockWalletRepo, mockTxRepo, mockTxController)

		wallet := &domain.Wallet{ID: 5}
		records := []domain.Transaction{{ID: 1, Reference: "A"}, {ID: 2, Reference: "B"}}

		mockWalletRepo.On("GetWalletByID", ctx, mock.Anything, int64(5)).Return(wallet, nil).Once()
		mockTxRepo.On("GetTransactionsByWalletID", ctx, mock.Anything, int64(5), 2, 0).Return(records, int64(7), nil).Once()

		list, total, err := store.TransactionHistory(ctx, 5, 2, 0)

		assert.NoError(t, err)
		assert.Len(t, list, 2)
		assert.Equal(t, int64(7), total)

		mock.AssertExpectationsForObjects(t, mockWalletRepo, mockTxRepo)
	})
}
