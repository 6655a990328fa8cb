// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Wallet represents a user's wallet. LedgerBalance holds all recorded funds,
// LockedAmount the portion earmarked by pending withdrawals. The spendable
// balance is always derived, never stored.
type Wallet struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	Currency      string          `db:"currency" json:"currency"`             // e.g., "NGN"
	LedgerBalance decimal.Decimal `db:"ledger_balance" json:"ledger_balance"` // NUMERIC(20, 2) in DB
	LockedAmount  decimal.Decimal `db:"locked_amount" json:"locked_amount"`   // NUMERIC(20, 2) in DB
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// AvailableBalance returns the spendable balance: ledger balance minus
// whatever is locked by pending withdrawals.
func (w *Wallet) AvailableBalance() decimal.Decimal {
	return w.LedgerBalance.Sub(w.LockedAmount)
}

// NewWallet creates a new Wallet instance with zero balances.
func NewWallet(userID int64, currency string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		UserID:        userID,
		Currency:      currency,
		LedgerBalance: decimal.Zero,
		LockedAmount:  decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
