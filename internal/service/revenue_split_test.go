// internal/service/revenue_split_test.go
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

func newTestSplitter(splitRepo *MockRevenueSplitRepository, walletRepo *MockWalletRepository, tc *MockTxController) *RevenueSplitter {
	beginTx, commitTx, rollbackTx := testTxFuncs(tc)
	dbBeginner := new(MockDBBeginner)
	dbExecutor := new(MockDBExecutor)
	walletStore := NewWalletStore(dbBeginner, dbExecutor, walletRepo, new(MockTransactionRepository), beginTx, commitTx, rollbackTx)
	return NewRevenueSplitter(dbBeginner, dbExecutor, splitRepo, walletRepo, walletStore, beginTx, commitTx, rollbackTx, testLogger())
}

func TestSplitTx(t *testing.T) {
	dealerWalletID := int64(20)

	t.Run("AppliesDefaultWhenNoActiveSettings", func(t *testing.T) {
		ctx := context.Background()
		mockSplitRepo := new(MockRevenueSplitRepository)
		mockWalletRepo := new(MockWalletRepository)
		mockTxController := new(MockTxController)
		splitter := newTestSplitter(mockSplitRepo, mockWalletRepo, mockTxController)

		total := decimal.NewFromFloat(5000.00)
		txn := &domain.Transaction{
			ID:                11,
			Reference:         "REF-DEFAULT",
			Amount:            total,
			Purpose:           domain.PurposePaymentWithSplit,
			RecipientWalletID: &dealerWalletID,
		}
		dealerWallet := &domain.Wallet{ID: dealerWalletID, LedgerBalance: decimal.Zero}
		dealerShare, _ := domain.ComputeSplit(total, &domain.RevenueSplitSettings{
			DealerPercentage:   decimal.NewFromInt(60),
			PlatformPercentage: decimal.NewFromInt(40),
		})

		mockSplitRepo.On("GetSplitByTransactionID", ctx, mock.Anything, int64(11)).Return(nil, util.ErrNotFound).Once()
		mockSplitRepo.On("GetActiveSettings", ctx, mock.Anything).Return(nil, util.ErrNotFound).Once()
		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, dealerWalletID).Return(dealerWallet, nil).Once()
		mockWalletRepo.On("UpdateWalletBalances", ctx, mock.Anything, dealerWalletID, dealerShare, decimal.Zero).Return(nil).Once()
		mockSplitRepo.On("CreateSplit", ctx, mock.Anything, mock.AnythingOfType("*domain.RevenueSplit")).Return(nil).Once()

		split, err := splitter.SplitTx(ctx, new(MockDBExecutor), txn)

		assert.NoError(t, err)
		assert.True(t, split.DealerAmount.Equal(decimal.NewFromFloat(3000.00)))
		assert.True(t, split.PlatformAmount.Equal(decimal.NewFromFloat(2000.00)))
		assert.True(t, split.DealerPercentage.Equal(decimal.NewFromInt(60)))

		mock.AssertExpectationsForObjects(t, mockSplitRepo, mockWalletRepo)
	})

	t.Run("ReturnsExistingSplitUnchanged", func(t *testing.T) {
		ctx := context.Background()
		mockSplitRepo := new(MockRevenueSplitRepository)
		mockWalletRepo := new(MockWalletRepository)
		mockTxController := new(MockTxController)
		splitter := newTestSplitter(mockSplitRepo, mockWalletRepo, mockTxController)

		txn := &domain.Transaction{ID: 12, Amount: decimal.NewFromFloat(5000.00), RecipientWalletID: &dealerWalletID}
		existing := &domain.RevenueSplit{
			ID:             2,
			TransactionID:  12,
			DealerAmount:   decimal.NewFromFloat(3000.00),
			PlatformAmount: decimal.NewFromFloat(2000.00),
			DealerCredited: true,
		}

		mockSplitRepo.On("GetSplitByTransactionID", ctx, mock.Anything, int64(12)).Return(existing, nil).Once()

		split, err := splitter.SplitTx(ctx, new(MockDBExecutor), txn)

		assert.NoError(t, err)
		assert.Equal(t, existing, split)
		// Re-entry never credits the dealer a second time.
		mockWalletRepo.AssertNotCalled(t, "UpdateWalletBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		mockSplitRepo.AssertNotCalled(t, "CreateSplit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("RoundingRemainderGoesToPlatform", func(t *testing.T) {
		ctx := context.Background()
		mockSplitRepo := new(MockRevenueSplitRepository)
		mockWalletRepo := new(MockWalletRepository)
		mockTxController := new(MockTxController)
		splitter := newTestSplitter(mockSplitRepo, mockWalletRepo, mockTxController)

		// 60% of 100.01 is 60.006, which rounds to 60.01; the platform takes
		// the exact remainder so the two shares rebuild the total.
		total := decimal.NewFromFloat(100.01)
		txn := &domain.Transaction{ID: 13, Amount: total, RecipientWalletID: &dealerWalletID}
		settings := &domain.RevenueSplitSettings{
			DealerPercentage:   decimal.NewFromInt(60),
			PlatformPercentage: decimal.NewFromInt(40),
		}
		dealerWallet := &domain.Wallet{ID: dealerWalletID, LedgerBalance: decimal.Zero}
		dealerShare, platformShare := domain.ComputeSplit(total, settings)

		mockSplitRepo.On("GetSplitByTransactionID", ctx, mock.Anything, int64(13)).Return(nil, util.ErrNotFound).Once()
		mockSplitRepo.On("GetActiveSettings", ctx, mock.Anything).Return(settings, nil).Once()
		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, dealerWalletID).Return(dealerWallet, nil).Once()
		mockWalletRepo.On("UpdateWalletBalances", ctx, mock.Anything, dealerWalletID, dealerShare, decimal.Zero).Return(nil).Once()
		mockSplitRepo.On("CreateSplit", ctx, mock.Anything, mock.AnythingOfType("*domain.RevenueSplit")).Return(nil).Once()

		split, err := splitter.SplitTx(ctx, new(MockDBExecutor), txn)

		assert.NoError(t, err)
		assert.True(t, dealerShare.Equal(decimal.NewFromFloat(60.01)))
		assert.True(t, platformShare.Equal(decimal.NewFromFloat(40.00)))
		assert.True(t, split.DealerAmount.Equal(dealerShare))
		assert.True(t, split.DealerAmount.Add(split.PlatformAmount).Equal(total))

		mock.AssertExpectationsForObjects(t, mockSplitRepo, mockWalletRepo)
	})

	t.Run("InvalidActiveSettings", func(t *testing.T) {
		ctx := context.Background()
		mockSplitRepo := new(MockRevenueSplitRepository)
		mockWalletRepo := new(MockWalletRepository)
		mockTxController := new(MockTxController)
		splitter := newTestSplitter(mockSplitRepo, mockWalletRepo, mockTxController)

		txn := &domain.Transaction{ID: 14, Amount: decimal.NewFromFloat(500.00), RecipientWalletID: &dealerWalletID}
		broken := &domain.RevenueSplitSettings{
			DealerPercentage:   decimal.NewFromInt(70),
			PlatformPercentage: decimal.NewFromInt(40),
		}

		mockSplitRepo.On("GetSplitByTransactionID", ctx, mock.Anything, int64(14)).Return(nil, util.ErrNotFound).Once()
		mockSplitRepo.On("GetActiveSettings", ctx, mock.Anything).Return(broken, nil).Once()

		_, err := splitter.SplitTx(ctx, new(MockDBExecutor), txn)

		assert.ErrorIs(t, err, util.ErrInvalidSplitConfig)
		mockWalletRepo.AssertNotCalled(t, "UpdateWalletBalances", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestActivateSettings(t *testing.T) {
	t.Run("ValidPercentages", func(t *testing.T) {
		ctx := context.Background()
		mockSplitRepo := new(MockRevenueSplitRepository)
		mockWalletRepo := new(MockWalletRepository)
		mockTxController := new(MockTxController)
		splitter := newTestSplitter(mockSplitRepo, mockWalletRepo, mockTxController)

		mockSplitRepo.On("ActivateSettings", ctx, mock.Anything, mock.AnythingOfType("*domain.RevenueSplitSettings")).Return(nil).Once()
		mockTxController.On("Commit").Return(nil).Once()
		mockTxController.On("Rollback").Return(nil).Maybe()

		settings, err := splitter.ActivateSettings(ctx, decimal.NewFromInt(70), decimal.NewFromInt(30))

		assert.NoError(t, err)
		assert.True(t, settings.DealerPercentage.Equal(decimal.NewFromInt(70)))

		mock.AssertExpectationsForObjects(t, mockSplitRepo, mockTxController)
	})

	t.Run("PercentagesMustSumToHundred", func(t *testing.T) {
		ctx := context.Background()
		mockSplitRepo := new(MockRevenueSplitRepository)
		mockWalletRepo := new(MockWalletRepository)
		mockTxController := new(MockTxController)
		splitter := newTestSplitter(mockSplitRepo, mockWalletRepo, mockTxController)

		_, err := splitter.ActivateSettings(ctx, decimal.NewFromInt(70), decimal.NewFromInt(40))

		assert.ErrorIs(t, err, util.ErrInvalidSplitConfig)
		mockSplitRepo.AssertNotCalled(t, "ActivateSettings", mock.Anything, mock.Anything, mock.Anything)
		mockTxController.AssertNotCalled(t, "Commit")
	})
}
