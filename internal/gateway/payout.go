// internal/gateway/payout.go
package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// PayoutGateway is the external payout interface the withdrawal workflow
// calls when a request is processed. The gateway later reports the terminal
// outcome asynchronously via transfer webhook events carrying reference.
type PayoutGateway interface {
	// InitiateTransfer asks the provider to move amount to the payout
	// destination identified by payoutRef, tagged with the ledger reference.
	InitiateTransfer(ctx context.Context, amount decimal.Decimal, payoutRef, reference string) error
}
