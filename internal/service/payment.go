// internal/service/payment.go
package service

import (
	"context"
	"fmt"

	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/repository"
	"tradehub-ledger/internal/util"
	"tradehub-ledger/pkg/db"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// InitiationResult is handed back to the calling subsystem. The reference is
// the idempotency key the gateway will echo in its webhook events.
type InitiationResult struct {
	Reference   string `json:"reference"`
	CallbackURL string `json:"callback_url"`
}

// PaymentService implements the initiation contract consumed by order,
// booking and inspection subsystems: it mints a reference, records the
// pending transaction, and later answers status polls by reference.
type PaymentService struct {
	dbBeginner      db.DBTxBeginner
	dbExecutor      repository.DBExecutor
	txRepo          repository.TransactionRepository
	walletStore     *WalletStore
	currency        string
	callbackBaseURL string
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	txRepo repository.TransactionRepository,
	walletStore *WalletStore,
	currency string,
	callbackBaseURL string,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) *PaymentService {
	return &PaymentService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		txRepo:          txRepo,
		walletStore:     walletStore,
		currency:        currency,
		callbackBaseURL: callbackBaseURL,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
	}
}

// NewReference mints a unique, lexicographically sortable payment reference.
func NewReference() string {
	return ulid.Make().String()
}

// Initiate records a pending transaction for an expected gateway charge and
// returns the reference the caller hands to the gateway. For payments the
// beneficiary is the vendor/dealer whose wallet receives the funds (or the
// dealer share when the purpose carries a split); deposits credit the
// payer's own wallet.
func (s *PaymentService) Initiate(ctx context.Context, userID int64, amount decimal.Decimal, purpose domain.PaymentPurpose, relatedID *string, beneficiaryUserID *int64) (*InitiationResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) || userID <= 0 {
		return nil, util.ErrInvalidInput
	}

	var txType domain.TransactionType
	var beneficiary int64
	switch purpose {
	case domain.PurposeDeposit:
		txType = domain.TransactionTypeDeposit
		beneficiary = userID
	case domain.PurposePayment, domain.PurposePaymentWithSplit:
		if beneficiaryUserID == nil {
			return nil, fmt.Errorf("initiate: purpose %s requires a beneficiary: %w", purpose, util.ErrInvalidInput)
		}
		txType = domain.TransactionTypePayment
		beneficiary = *beneficiaryUserID
	default:
		return nil, fmt.Errorf("initiate: purpose %q: %w", purpose, util.ErrUnhandledPurpose)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("initiate: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	q, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("initiate: transaction controller does not implement DBExecutor")
	}

	wallet, err := s.walletStore.GetOrCreateWallet(ctx, q, beneficiary, s.currency)
	if err != nil {
		return nil, fmt.Errorf("initiate: %w", err)
	}

	reference := NewReference()
	txn := domain.NewTransaction(reference, txType, domain.TransactionSourceGateway, amount, s.currency, purpose, userID, narrationFor(purpose))
	txn.RecipientWalletID = &wallet.ID
	txn.RelatedID = relatedID
	if err := s.txRepo.CreateTransaction(ctx, q, txn); err != nil {
		return nil, fmt.Errorf("initiate: failed to record transaction: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("initiate: failed to commit transaction: %w", err)
	}

	return &InitiationResult{
		Reference:   reference,
		CallbackURL: fmt.Sprintf("%s/payments/%s", s.callbackBaseURL, reference),
	}, nil
}

// Status answers a caller's poll for the transaction keyed by reference.
func (s *PaymentService) Status(ctx context.Context, reference string) (*domain.Transaction, error) {
	if reference == "" {
		return nil, util.ErrInvalidInput
	}
	txn, err := s.txRepo.GetTransactionByReference(ctx, s.dbExecutor, reference)
	if err != nil {
		return nil, fmt.Errorf("status: failed to get reference %s: %w", reference, err)
	}
	return txn, nil
}

func narrationFor(purpose domain.PaymentPurpose) string {
	switch purpose {
	case domain.PurposeDeposit:
		return "wallet deposit"
	case domain.PurposePaymentWithSplit:
		return "marketplace payment with revenue split"
	default:
		return "marketplace payment"
	}
}
