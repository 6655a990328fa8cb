// internal/domain/revenue_split.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RevenueSplitSettings is a versioned configuration row describing how a
// split-bearing payment is divided between the dealer and the platform.
// Exactly one row is active at any time; activating a new row deactivates
// all others inside the same database transaction.
type RevenueSplitSettings struct {
	ID                 int64           `db:"id" json:"id"`
	DealerPercentage   decimal.Decimal `db:"dealer_percentage" json:"dealer_percentage"`
	PlatformPercentage decimal.Decimal `db:"platform_percentage" json:"platform_percentage"`
	IsActive           bool            `db:"is_active" json:"is_active"`
	EffectiveFrom      time.Time       `db:"effective_from" json:"effective_from"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// Validate checks that the two percentages sum to exactly 100.
func (s *RevenueSplitSettings) Validate() bool {
	return s.DealerPercentage.Add(s.PlatformPercentage).Equal(decimal.NewFromInt(100))
}

// RevenueSplit records the one-time division of a completed payment.
// Invariant: DealerAmount + PlatformAmount == TotalAmount; the rounding
// remainder always lands in the platform share.
type RevenueSplit struct {
	ID                 int64           `db:"id" json:"id"`
	TransactionID      int64           `db:"transaction_id" json:"transaction_id"` // unique, one split per payment
	TotalAmount        decimal.Decimal `db:"total_amount" json:"total_amount"`
	DealerAmount       decimal.Decimal `db:"dealer_amount" json:"dealer_amount"`
	PlatformAmount     decimal.Decimal `db:"platform_amount" json:"platform_amount"`
	DealerPercentage   decimal.Decimal `db:"dealer_percentage" json:"dealer_percentage"`
	PlatformPercentage decimal.Decimal `db:"platform_percentage" json:"platform_percentage"`
	DealerCredited     bool            `db:"dealer_credited" json:"dealer_credited"`
	DealerCreditedAt   *time.Time      `db:"dealer_credited_at" json:"dealer_credited_at"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// ComputeSplit divides total between dealer and platform using the given
// settings. The dealer share is rounded to 2 decimal places; the platform
// share is the exact remainder, so the two always reconstruct the total.
func ComputeSplit(total decimal.Decimal, settings *RevenueSplitSettings) (dealer, platform decimal.Decimal) {
	dealer = total.Mul(settings.DealerPercentage).Div(decimal.NewFromInt(100)).Round(2)
	platform = total.Sub(dealer)
	return dealer, platform
}
