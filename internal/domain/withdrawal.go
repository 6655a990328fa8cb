// internal/domain/withdrawal.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusApproved   WithdrawalStatus = "approved"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
	WithdrawalStatusCancelled  WithdrawalStatus = "cancelled"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
)

// withdrawalTransitions is the full state machine:
// pending -> approved -> processing -> completed, with rejected/cancelled
// side exits and failed as the recoverable payout-failure state.
var withdrawalTransitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalStatusPending:    {WithdrawalStatusApproved, WithdrawalStatusRejected, WithdrawalStatusCancelled},
	WithdrawalStatusApproved:   {WithdrawalStatusProcessing, WithdrawalStatusCancelled},
	WithdrawalStatusProcessing: {WithdrawalStatusCompleted, WithdrawalStatusFailed},
}

// CanTransition reports whether moving from one status to another is legal.
func (s WithdrawalStatus) CanTransition(to WithdrawalStatus) bool {
	for _, allowed := range withdrawalTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// WithdrawalRequest is a manual-approval payout request. The locked amount
// on the owning wallet mirrors its lifecycle: locked at creation, released
// on reject/cancel, converted to a debit when processed.
type WithdrawalRequest struct {
	ID              int64            `db:"id" json:"id"`
	UserID          int64            `db:"user_id" json:"user_id"`
	WalletID        int64            `db:"wallet_id" json:"wallet_id"`
	Amount          decimal.Decimal  `db:"amount" json:"amount"`
	PayoutReference string           `db:"payout_reference" json:"payout_reference"` // payout destination (e.g., bank recipient code)
	Status          WithdrawalStatus `db:"status" json:"status"`
	ReviewedBy      *int64           `db:"reviewed_by" json:"reviewed_by"`
	ReviewedAt      *time.Time       `db:"reviewed_at" json:"reviewed_at"`
	RejectionReason *string          `db:"rejection_reason" json:"rejection_reason"` // required iff rejected
	TransactionID   *int64           `db:"transaction_id" json:"transaction_id"`     // debit transaction once processed
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// NewWithdrawalRequest creates a pending withdrawal request.
func NewWithdrawalRequest(userID, walletID int64, amount decimal.Decimal, payoutRef string) *WithdrawalRequest {
	now := time.Now().UTC()
	return &WithdrawalRequest{
		UserID:          userID,
		WalletID:        walletID,
		Amount:          amount,
		PayoutReference: payoutRef,
		Status:          WithdrawalStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// WithdrawalStats is one row of the per-status aggregate view.
type WithdrawalStats struct {
	Status      WithdrawalStatus `db:"status" json:"status"`
	Count       int64            `db:"count" json:"count"`
	TotalAmount decimal.Decimal  `db:"total_amount" json:"total_amount"`
}
