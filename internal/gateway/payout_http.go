// internal/gateway/payout_http.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// HTTPPayoutGateway calls the payment provider's transfer API. Amounts are
// sent in minor units, mirroring what the provider's webhooks deliver.
type HTTPPayoutGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPPayoutGateway creates a payout gateway against the provider API.
func NewHTTPPayoutGateway(baseURL, apiKey string) *HTTPPayoutGateway {
	return &HTTPPayoutGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type transferRequest struct {
	Amount    int64  `json:"amount"` // minor units
	Recipient string `json:"recipient"`
	Reference string `json:"reference"`
}

// InitiateTransfer asks the provider to move amount to the payout
// destination. A non-2xx response is a synchronous refusal; the asynchronous
// outcome arrives later as a transfer webhook event.
func (g *HTTPPayoutGateway) InitiateTransfer(ctx context.Context, amount decimal.Decimal, payoutRef, reference string) error {
	payload := transferRequest{
		Amount:    amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Recipient: payoutRef,
		Reference: reference,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/transfer", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("transfer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider rejected transfer %s: status %d", reference, resp.StatusCode)
	}
	return nil
}
