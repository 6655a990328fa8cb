// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionType defines the type of a financial transaction.
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeWithdraw    TransactionType = "withdraw"
	TransactionTypeTransferIn  TransactionType = "transfer_in"
	TransactionTypeTransferOut TransactionType = "transfer_out"
	TransactionTypePayment     TransactionType = "payment"
	TransactionTypeCharge      TransactionType = "charge"
)

// TransactionStatus defines the status of a financial transaction.
// Transitions are monotonic: pending may move to exactly one terminal
// status (completed, failed or reversed) and never backward.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusReversed  TransactionStatus = "reversed"
	TransactionStatusLocked    TransactionStatus = "locked"
)

// IsTerminal reports whether the status is a terminal reconciliation state.
// A transaction is reconciled by at most one terminal transition.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusReversed:
		return true
	}
	return false
}

// TransactionSource identifies where a movement originated.
type TransactionSource string

const (
	TransactionSourceWallet  TransactionSource = "wallet"
	TransactionSourceGateway TransactionSource = "external-gateway"
)

// PaymentPurpose classifies what a payment is for. Dispatch on purpose is
// exhaustive: values outside this set fail closed with ErrUnhandledPurpose
// at the reconciliation boundary instead of silently falling through.
type PaymentPurpose string

const (
	PurposeDeposit          PaymentPurpose = "deposit"
	PurposePayment          PaymentPurpose = "payment"
	PurposePaymentWithSplit PaymentPurpose = "payment-with-split"
	PurposeWithdrawal       PaymentPurpose = "withdrawal"
)

// ParsePurpose validates a raw purpose string from gateway metadata.
func ParsePurpose(raw string) (PaymentPurpose, bool) {
	switch p := PaymentPurpose(raw); p {
	case PurposeDeposit, PurposePayment, PurposePaymentWithSplit, PurposeWithdrawal:
		return p, true
	}
	return "", false
}

// SelfInitiating reports whether an inbound gateway event with this purpose
// may create its own ledger record when none exists yet. Only deposits
// qualify; every other purpose must have been initiated up front.
func (p PaymentPurpose) SelfInitiating() bool {
	return p == PurposeDeposit
}

// Transaction represents a monetary movement in the ledger. Reference is the
// globally unique idempotency key supplied at initiation and echoed by the
// payment gateway.
type Transaction struct {
	ID                int64             `db:"id" json:"id"`
	Reference         string            `db:"reference" json:"reference"` // unique idempotency key
	Type              TransactionType   `db:"type" json:"type"`
	Status            TransactionStatus `db:"status" json:"status"`
	Source            TransactionSource `db:"source" json:"source"`
	Amount            decimal.Decimal   `db:"amount" json:"amount"` // NUMERIC(20, 2) in DB
	Currency          string            `db:"currency" json:"currency"`
	SenderWalletID    *int64            `db:"sender_wallet_id" json:"sender_wallet_id"`       // nullable for gateway-funded credits
	RecipientWalletID *int64            `db:"recipient_wallet_id" json:"recipient_wallet_id"` // nullable for outbound payouts
	Purpose           PaymentPurpose    `db:"purpose" json:"purpose"`
	RelatedID         *string           `db:"related_id" json:"related_id"` // optional business entity (order/booking/inspection)
	UserID            int64             `db:"user_id" json:"user_id"`
	Narration         string            `db:"narration" json:"narration"`
	TransactionTime   time.Time         `db:"transaction_time" json:"transaction_time"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// NewTransaction creates a pending Transaction instance.
func NewTransaction(
	reference string,
	txType TransactionType,
	source TransactionSource,
	amount decimal.Decimal,
	currency string,
	purpose PaymentPurpose,
	userID int64,
	narration string,
) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		Reference:       reference,
		Type:            txType,
		Status:          TransactionStatusPending,
		Source:          source,
		Amount:          amount,
		Currency:        currency,
		Purpose:         purpose,
		UserID:          userID,
		Narration:       narration,
		TransactionTime: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
