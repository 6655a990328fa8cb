// internal/gateway/webhook.go
package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"tradehub-ledger/internal/domain"
	"tradehub-ledger/internal/util"

	"github.com/shopspring/decimal"
)

// providerEnvelope is the raw wire shape of a gateway notification. Amounts
// arrive in minor currency units (kobo).
type providerEnvelope struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
		Metadata struct {
			Purpose   string `json:"purpose"`
			RelatedID string `json:"related_id"`
			UserID    int64  `json:"user_id,string"`
		} `json:"metadata"`
	} `json:"data"`
}

// WebhookGateway authenticates inbound provider events and normalizes them
// into domain.PaymentEvent values. Verification always runs over the raw,
// unparsed body.
type WebhookGateway struct {
	secret []byte
}

// NewWebhookGateway creates a WebhookGateway with the shared signing secret.
func NewWebhookGateway(secret string) *WebhookGateway {
	return &WebhookGateway{secret: []byte(secret)}
}

// Receive verifies the signature header against an HMAC-SHA512 of rawBody and
// parses the event. A signature mismatch returns util.ErrSignature before
// anything is inspected; malformed or unrecognized payloads return
// util.ErrParse so callers can acknowledge without applying.
func (g *WebhookGateway) Receive(rawBody []byte, signatureHeader string) (*domain.PaymentEvent, error) {
	if !g.verify(rawBody, signatureHeader) {
		return nil, util.ErrSignature
	}

	var envelope providerEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return nil, fmt.Errorf("decoding event body: %w", util.ErrParse)
	}

	kind, ok := domain.ParseEventKind(envelope.Event)
	if !ok {
		return nil, fmt.Errorf("unrecognized event type %q: %w", envelope.Event, util.ErrParse)
	}
	if envelope.Data.Reference == "" {
		return nil, fmt.Errorf("event missing reference: %w", util.ErrParse)
	}
	if envelope.Data.Amount <= 0 {
		return nil, fmt.Errorf("event has non-positive amount: %w", util.ErrParse)
	}

	purpose, ok := domain.ParsePurpose(envelope.Data.Metadata.Purpose)
	if !ok {
		return nil, fmt.Errorf("unrecognized purpose %q: %w", envelope.Data.Metadata.Purpose, util.ErrParse)
	}

	event := &domain.PaymentEvent{
		Kind:          kind,
		Reference:     envelope.Data.Reference,
		Amount:        minorToMajor(envelope.Data.Amount),
		CustomerEmail: envelope.Data.Customer.Email,
		Purpose:       purpose,
		UserID:        envelope.Data.Metadata.UserID,
	}
	if related := envelope.Data.Metadata.RelatedID; related != "" {
		event.RelatedID = &related
	}
	return event, nil
}

// verify recomputes the HMAC and compares in constant time.
func (g *WebhookGateway) verify(rawBody []byte, signatureHeader string) bool {
	if signatureHeader == "" {
		return false
	}
	mac := hmac.New(sha512.New, g.secret)
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHeader))
}

// minorToMajor converts kobo to a two-decimal naira amount.
func minorToMajor(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).Round(2)
}
