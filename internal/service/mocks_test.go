// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/repository"
	"tradehub-ledger/pkg/db"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockWalletRepository is a mock implementation of repository.WalletRepository.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.Wallet) error {
	args := m.Called(ctx, q, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetWalletByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Wallet, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Wallet, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletByUserIDAndCurrency(ctx context.Context, q repository.DBExecutor, userID int64, currency string) (*domain.Wallet, error) {
	args := m.Called(ctx, q, userID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateWalletBalances(ctx context.Context, q repository.DBExecutor, walletID int64, ledgerDelta, lockedDelta decimal.Decimal) error {
	args := m.Called(ctx, q, walletID, ledgerDelta, lockedDelta)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	args := m.Called(ctx, q, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetTransactionByReference(ctx context.Context, q repository.DBExecutor, reference string) (*domain.Transaction, error) {
	args := m.Called(ctx, q, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetTransactionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) MarkTransactionStatus(ctx context.Context, q repository.DBExecutor, reference string, from, to domain.TransactionStatus) error {
	args := m.Called(ctx, q, reference, from, to)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetTransactionsByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, q, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) ListPendingOlderThan(ctx context.Context, q repository.DBExecutor, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	args := m.Called(ctx, q, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

// MockRevenueSplitRepository is a mock implementation of repository.RevenueSplitRepository.
type MockRevenueSplitRepository struct {
	mock.Mock
}

func (m *MockRevenueSplitRepository) GetActiveSettings(ctx context.Context, q repository.DBExecutor) (*domain.RevenueSplitSettings, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RevenueSplitSettings), args.Error(1)
}

func (m *MockRevenueSplitRepository) ActivateSettings(ctx context.Context, q repository.DBExecutor, settings *domain.RevenueSplitSettings) error {
	args := m.Called(ctx, q, settings)
	return args.Error(0)
}

func (m *MockRevenueSplitRepository) CreateSplit(ctx context.Context, q repository.DBExecutor, split *domain.RevenueSplit) error {
	args := m.Called(ctx, q, split)
	return args.Error(0)
}

func (m *MockRevenueSplitRepository) GetSplitByTransactionID(ctx context.Context, q repository.DBExecutor, transactionID int64) (*domain.RevenueSplit, error) {
	args := m.Called(ctx, q, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RevenueSplit), args.Error(1)
}

func (m *MockRevenueSplitRepository) GetSplitByReference(ctx context.Context, q repository.DBExecutor, reference string) (*domain.RevenueSplit, error) {
	args := m.Called(ctx, q, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RevenueSplit), args.Error(1)
}

// MockWithdrawalRepository is a mock implementation of repository.WithdrawalRepository.
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) CreateWithdrawal(ctx context.Context, q repository.DBExecutor, req *domain.WithdrawalRequest) error {
	args := m.Called(ctx, q, req)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetWithdrawalByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) GetWithdrawalByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) GetWithdrawalByTransactionID(ctx context.Context, q repository.DBExecutor, transactionID int64) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, q, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) UpdateWithdrawal(ctx context.Context, q repository.DBExecutor, req *domain.WithdrawalRequest, expected domain.WithdrawalStatus) error {
	args := m.Called(ctx, q, req, expected)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) ListWithdrawalsByUserID(ctx context.Context, q repository.DBExecutor, userID int64, limit, offset int) ([]domain.WithdrawalRequest, int64, error) {
	args := m.Called(ctx, q, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.WithdrawalRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockWithdrawalRepository) ListWithdrawals(ctx context.Context, q repository.DBExecutor, status *domain.WithdrawalStatus, limit, offset int) ([]domain.WithdrawalRequest, int64, error) {
	args := m.Called(ctx, q, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.WithdrawalRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockWithdrawalRepository) GetWithdrawalStats(ctx context.Context, q repository.DBExecutor) ([]domain.WithdrawalStats, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WithdrawalStats), args.Error(1)
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockTxController is a mock implementation of db.TxController.
// It also implicitly implements repository.DBExecutor for testing purposes
// by embedding MockDBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor // Embed MockDBExecutor to satisfy repository.DBExecutor interface
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockProcessedCache is a mock implementation of ProcessedCache.
type MockProcessedCache struct {
	mock.Mock
}

func (m *MockProcessedCache) IsProcessed(ctx context.Context, reference string) (bool, error) {
	args := m.Called(ctx, reference)
	return args.Bool(0), args.Error(1)
}

func (m *MockProcessedCache) MarkProcessed(ctx context.Context, reference string) error {
	args := m.Called(ctx, reference)
	return args.Error(0)
}

// MockPaidNotifier is a mock implementation of PaidNotifier.
type MockPaidNotifier struct {
	mock.Mock
}

func (m *MockPaidNotifier) PaymentCompleted(ctx context.Context, txn *domain.Transaction, split *domain.RevenueSplit) error {
	args := m.Called(ctx, txn, split)
	return args.Error(0)
}

// MockPayoutGateway is a mock implementation of gateway.PayoutGateway.
type MockPayoutGateway struct {
	mock.Mock
}

func (m *MockPayoutGateway) InitiateTransfer(ctx context.Context, amount decimal.Decimal, payoutRef, reference string) error {
	args := m.Called(ctx, amount, payoutRef, reference)
	return args.Error(0)
}

// testTxFuncs wires the service transaction lifecycle to a MockTxController.
func testTxFuncs(tc *MockTxController) (db.BeginTxFunc, db.CommitTxFunc, db.RollbackTxFunc) {
	return func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			return tc, nil
		},
		func(tx db.TxController) error {
			return tc.Commit()
		},
		func(tx db.TxController) {
			_ = tc.Rollback()
		}
}

// testLogger discards log output in tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
