// internal/domain/withdrawal_test.go
package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWithdrawalStatusCanTransition(t *testing.T) {
	cases := []struct {
		from    WithdrawalStatus
		to      WithdrawalStatus
		allowed bool
	}{
		{WithdrawalStatusPending, WithdrawalStatusApproved, true},
		{WithdrawalStatusPending, WithdrawalStatusRejected, true},
		{WithdrawalStatusPending, WithdrawalStatusCancelled, true},
		{WithdrawalStatusPending, WithdrawalStatusProcessing, false},
		{WithdrawalStatusPending, WithdrawalStatusCompleted, false},
		{WithdrawalStatusApproved, WithdrawalStatusProcessing, true},
		{WithdrawalStatusApproved, WithdrawalStatusCancelled, true},
		{WithdrawalStatusApproved, WithdrawalStatusRejected, false},
		{WithdrawalStatusProcessing, WithdrawalStatusCompleted, true},
		{WithdrawalStatusProcessing, WithdrawalStatusFailed, true},
		{WithdrawalStatusProcessing, WithdrawalStatusCancelled, false},
		{WithdrawalStatusCompleted, WithdrawalStatusPending, false},
		{WithdrawalStatusRejected, WithdrawalStatusApproved, false},
		{WithdrawalStatusCancelled, WithdrawalStatusApproved, false},
		{WithdrawalStatusFailed, WithdrawalStatusProcessing, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestNewWithdrawalRequest(t *testing.T) {
	req := NewWithdrawalRequest(10, 3, decimal.NewFromFloat(2500.00), "RCP_bank_001")

	assert.Equal(t, WithdrawalStatusPending, req.Status)
	assert.Equal(t, int64(10), req.UserID)
	assert.Equal(t, int64(3), req.WalletID)
	assert.Nil(t, req.ReviewedBy)
	assert.Nil(t, req.TransactionID)
}
