// internal/domain/payment_event.go
package domain

import "github.com/shopspring/decimal"

// EventKind is the closed set of gateway event types the ledger reacts to.
type EventKind string

const (
	EventChargeSucceeded   EventKind = "charge.success"
	EventTransferSucceeded EventKind = "transfer.success"
	EventTransferFailed    EventKind = "transfer.failed"
	EventTransferReversed  EventKind = "transfer.reversed"
)

// ParseEventKind validates a raw event name from the provider envelope.
func ParseEventKind(raw string) (EventKind, bool) {
	switch k := EventKind(raw); k {
	case EventChargeSucceeded, EventTransferSucceeded, EventTransferFailed, EventTransferReversed:
		return k, true
	}
	return "", false
}

// PaymentEvent is a verified, normalized gateway notification. Amount is in
// major currency units with two decimal places; the raw provider payload
// carries minor units.
type PaymentEvent struct {
	Kind          EventKind
	Reference     string // idempotency key, matches Transaction.Reference
	Amount        decimal.Decimal
	CustomerEmail string
	Purpose       PaymentPurpose
	RelatedID     *string
	UserID        int64
}
